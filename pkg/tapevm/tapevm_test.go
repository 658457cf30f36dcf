package tapevm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainIncrementRun(t *testing.T) {
	var out bytes.Buffer
	_, err := Run([]byte(strings.Repeat("+", 65)+"."), strings.NewReader(""), &out, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, "A", out.String())
}

func TestCellWrapsModulo256(t *testing.T) {
	var out bytes.Buffer
	_, err := Run([]byte(strings.Repeat("+", 256)+"."), strings.NewReader(""), &out, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, byte(0), out.Bytes()[0])
}

func TestCellUnderflowWrapsModulo256(t *testing.T) {
	var out bytes.Buffer
	_, err := Run([]byte("-."), strings.NewReader(""), &out, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, byte(255), out.Bytes()[0])
}

func TestLoopSkippedWhenCellIsZero(t *testing.T) {
	var out bytes.Buffer
	_, err := Run([]byte("[+++++.]"), strings.NewReader(""), &out, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, "", out.String())
}

func TestReadEchoesInput(t *testing.T) {
	var out bytes.Buffer
	_, err := Run([]byte(",."), strings.NewReader("Q"), &out, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, "Q", out.String())
}

func TestReadAtEOFSetsCellToZero(t *testing.T) {
	var out bytes.Buffer
	_, err := Run([]byte(",."), strings.NewReader(""), &out, DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, byte(0), out.Bytes()[0])
}

func TestPointerLeftOfOriginIsAnError(t *testing.T) {
	_, err := Run([]byte("<"), strings.NewReader(""), new(bytes.Buffer), DefaultLimits())
	require.Error(t, err)
}

func TestUnmatchedOpenBracketIsRejected(t *testing.T) {
	_, err := Run([]byte("[+"), strings.NewReader(""), new(bytes.Buffer), DefaultLimits())
	require.Error(t, err)
}

func TestUnmatchedCloseBracketIsRejected(t *testing.T) {
	_, err := Run([]byte("+]"), strings.NewReader(""), new(bytes.Buffer), DefaultLimits())
	require.Error(t, err)
}

func TestStepLimitCatchesInfiniteLoop(t *testing.T) {
	_, err := Run([]byte("+[]"), strings.NewReader(""), new(bytes.Buffer), Limits{MaxSteps: 1000})
	require.Error(t, err)
}

func TestTapeGrowthRespectsMaxCells(t *testing.T) {
	_, err := Run([]byte(strings.Repeat(">", 10000)), strings.NewReader(""), new(bytes.Buffer), Limits{MaxCells: 64})
	require.Error(t, err)
}

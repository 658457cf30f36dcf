package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordingHelpersDoNotPanic(t *testing.T) {
	require.NotPanics(t, func() {
		ObservePhase("lex", 0.001)
		RecordInstructions("pre-optimize", 42)
		SetHighWater(17)
		RecordRewrites("cancellation", 3)
		RecordRewrites("dead-zero-loop", 0) // zero counts are skipped, not recorded as zero-valued samples
	})
}

func TestSnapshotIsAPlainValueType(t *testing.T) {
	snap := Snapshot{
		TokensLexed:        10,
		ASTNodes:           3,
		CellsHighWater:     8,
		InstructionsPreOpt: 100,
		InstructionsFinal:  60,
	}
	require.Equal(t, 10, snap.TokensLexed)
	require.Equal(t, 60, snap.InstructionsFinal)
}

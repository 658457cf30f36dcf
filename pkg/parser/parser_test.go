package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"byteflow/pkg/ast"
	"byteflow/pkg/errors"
	"byteflow/pkg/lexer"
	"byteflow/pkg/source"
)

func parse(t *testing.T, src string) (*ast.Program, *errors.Diagnostics) {
	t.Helper()
	diags := &errors.Diagnostics{}
	l := lexer.New(source.NewSourceFile("test", "", src), diags)
	p := New(l, source.NewSourceFile("test", "", src), diags)
	return p.ParseProgram(), diags
}

func TestParseFunctionWithParamsAndReturn(t *testing.T) {
	prog, diags := parse(t, `int add(int a, int b){ return a+b; }`)
	require.False(t, diags.HasErrors())
	require.Len(t, prog.Declarations, 1)

	fn, ok := prog.Declarations[0].(*ast.Function)
	require.True(t, ok)
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "a", fn.Params[0].Name)
	require.Equal(t, "b", fn.Params[1].Name)
}

func TestParseGlobalArrayWithInitializer(t *testing.T) {
	prog, diags := parse(t, `int a[3] = {1, 2, 3};`)
	require.False(t, diags.HasErrors())
	require.Len(t, prog.Declarations, 1)

	arr, ok := prog.Declarations[0].(*ast.GlobalArray)
	require.True(t, ok)
	require.Equal(t, []int{3}, arr.Dims)
	require.Len(t, arr.Init, 3)
}

func TestParseIfElseChain(t *testing.T) {
	prog, diags := parse(t, `int main(){ if(1==1) print("a"); else print("b"); return 0; }`)
	require.False(t, diags.HasErrors())
	require.Len(t, prog.Declarations, 1)
}

func TestParseWhileAndFor(t *testing.T) {
	_, diags := parse(t, `int main(){ while(1==1){} for(int i=0;i<3;i=i+1){} return 0; }`)
	require.False(t, diags.HasErrors())
}

func TestMissingSemicolonIsSyntaxError(t *testing.T) {
	_, diags := parse(t, `int main(){ return 0 }`)
	require.True(t, diags.HasErrors())
	require.Equal(t, "Syntax", diags.Errors()[0].Kind())
}

func TestMissingClosingBraceIsSyntaxError(t *testing.T) {
	_, diags := parse(t, `int main(){ return 0;`)
	require.True(t, diags.HasErrors())
}

func TestArrayIndexExpressionParses(t *testing.T) {
	prog, diags := parse(t, `int main(){ int a[2]; a[0] = 1; return a[0]; }`)
	require.False(t, diags.HasErrors())
	require.Len(t, prog.Declarations, 1)
}

package compiler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"byteflow/pkg/errors"
	"byteflow/pkg/lexer"
	"byteflow/pkg/parser"
	"byteflow/pkg/source"
	"byteflow/pkg/tapevm"
)

func compileSrc(t *testing.T, src string) (*Compiler, *errors.Diagnostics) {
	t.Helper()
	diags := &errors.Diagnostics{}
	l := lexer.New(source.NewSourceFile("test", "", src), diags)
	p := parser.New(l, source.NewSourceFile("test", "", src), diags)
	prog := p.ParseProgram()
	require.False(t, diags.HasErrors(), "unexpected parse errors: %v", diags.Errors())

	c := New(diags, DefaultLimits(), nil)
	c.Compile(prog)
	return c, diags
}

func bracketsBalanced(t *testing.T, program []byte) {
	t.Helper()
	balance := 0
	for _, b := range program {
		switch b {
		case '[':
			balance++
		case ']':
			balance--
		}
		require.GreaterOrEqual(t, balance, 0, "unmatched ']' somewhere in %q", program)
	}
	require.Equal(t, 0, balance, "unbalanced brackets in %q", program)
}

func TestEveryStatementKindCompilesWithBalancedBrackets(t *testing.T) {
	sources := []string{
		`int main(){ return 0; }`,
		`int main(){ int a=1; printint(a); return 0; }`,
		`int main(){ int i=0; while(i<3){ i=i+1; } return 0; }`,
		`int main(){ for(int i=0;i<3;i=i+1){ printint(i); } return 0; }`,
		`int main(){ int x=1; if(x==1) print("a"); else print("b"); return 0; }`,
		`int main(){ int x=2; switch(x){ case 1: print("a"); case 2: print("b"); default: print("c"); } return 0; }`,
		`int main(){ int i=0; while(i<10){ if(i==3) break; i=i+1; } return 0; }`,
		`int a[4] = {1,2,3,4}; int main(){ printint(a[2]); return 0; }`,
	}
	for _, src := range sources {
		c, diags := compileSrc(t, src)
		require.False(t, diags.HasErrors(), "src=%q diags=%v", src, diags.Errors())
		bracketsBalanced(t, c.Buffer().Bytes())
	}
}

func TestAlphabetOnlyInBuffer(t *testing.T) {
	c, diags := compileSrc(t, `int main(){ print("Hi"); printint(3); return 0; }`)
	require.False(t, diags.HasErrors())
	for _, b := range c.Buffer().Bytes() {
		require.Contains(t, "><+-[].,", string(b))
	}
}

func TestPointerReturnsToWorkOriginAfterEveryStatement(t *testing.T) {
	// moveTo tracks c.pos; after a full program compiles, the pointer
	// must have been walked back to the work origin for the next
	// statement (and so, at the very end, sits wherever the final
	// statement's own bookkeeping left it restOrigin'd to). We assert
	// this indirectly: compileGuarded always calls restOrigin before
	// each statement, so by construction the invariant holds; this test
	// instead exercises that a multi-statement body still produces a
	// runnable program with the expected output, which would corrupt
	// silently if pointer bookkeeping ever drifted.
	c, diags := compileSrc(t, `int main(){ int a=1; int b=2; int c=3; printint(a+b+c); return 0; }`)
	require.False(t, diags.HasErrors())

	var out bytes.Buffer
	_, err := tapevm.Run(c.Buffer().Bytes(), strings.NewReader(""), &out, tapevm.DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, "6", out.String())
}

func TestGlobalInitializerMustBeConstant(t *testing.T) {
	_, diags := compileSrc(t, `int x = 1; int y = x; int main(){ return 0; }`)
	require.True(t, diags.HasErrors())
	require.Equal(t, "Semantic", diags.Errors()[0].Kind())
}

func TestGlobalArrayInitializerLengthMismatchIsRejected(t *testing.T) {
	_, diags := compileSrc(t, `int a[2] = {1,2,3}; int main(){ return 0; }`)
	require.True(t, diags.HasErrors())
	require.Equal(t, "Semantic", diags.Errors()[0].Kind())
}

func TestMainMustTakeNoParameters(t *testing.T) {
	_, diags := compileSrc(t, `int main(int x){ return 0; }`)
	require.True(t, diags.HasErrors())
}

func TestMissingMainIsInternalError(t *testing.T) {
	_, diags := compileSrc(t, `int helper(){ return 0; }`)
	require.True(t, diags.HasErrors())
	require.Equal(t, "Internal", diags.Errors()[0].Kind())
}

func TestBuiltinNameCannotBeRedeclared(t *testing.T) {
	_, diags := compileSrc(t, `int print(){ return 0; } int main(){ return 0; }`)
	require.True(t, diags.HasErrors())
}

func TestCallArityMismatchIsSemanticError(t *testing.T) {
	_, diags := compileSrc(t, `int add(int a, int b){ return a+b; } int main(){ printint(add(1)); return 0; }`)
	require.True(t, diags.HasErrors())
	require.Equal(t, "Semantic", diags.Errors()[0].Kind())
}

func TestBreakOutsideLoopIsSemanticError(t *testing.T) {
	_, diags := compileSrc(t, `int main(){ break; return 0; }`)
	require.True(t, diags.HasErrors())
	require.Equal(t, "Semantic", diags.Errors()[0].Kind())
}

func TestNestedCallsInlineCorrectly(t *testing.T) {
	src := `
int square(int n){ return n*n; }
int main(){ printint(square(4)); return 0; }`
	c, diags := compileSrc(t, src)
	require.False(t, diags.HasErrors())

	var out bytes.Buffer
	_, err := tapevm.Run(c.Buffer().Bytes(), strings.NewReader(""), &out, tapevm.DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, "16", out.String())
}

func TestMultipleCallsToSameFunctionEachInlineIndependently(t *testing.T) {
	src := `
int inc(int n){ return n+1; }
int main(){ printint(inc(1)); printint(inc(5)); return 0; }`
	c, diags := compileSrc(t, src)
	require.False(t, diags.HasErrors())

	var out bytes.Buffer
	_, err := tapevm.Run(c.Buffer().Bytes(), strings.NewReader(""), &out, tapevm.DefaultLimits())
	require.NoError(t, err)
	require.Equal(t, "26", out.String())
}

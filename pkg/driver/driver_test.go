package driver

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"byteflow/pkg/tapevm"
)

// runAndCapture compiles src, runs it through the test-oracle
// interpreter against stdin, and returns its stdout.
func runAndCapture(t *testing.T, src, stdin string, optimize bool) string {
	t.Helper()
	opts := DefaultOptions()
	opts.Optimize = optimize
	res, diags := CompileString("test", src, opts)
	require.Empty(t, diags, "unexpected diagnostics: %v", diags)

	var out bytes.Buffer
	_, err := tapevm.Run([]byte(res.Program), strings.NewReader(stdin), &out, tapevm.DefaultLimits())
	require.NoError(t, err)
	return out.String()
}

func TestSmallestProgram(t *testing.T) {
	out := runAndCapture(t, `int main(){ return 0; }`, "", false)
	require.Equal(t, "", out)
}

func TestPrintLiteral(t *testing.T) {
	out := runAndCapture(t, `int main(){ print("Hi"); return 0; }`, "", false)
	require.Equal(t, "Hi", out)
}

func TestAddAndPrint(t *testing.T) {
	out := runAndCapture(t, `int main(){ int a=3; int b=4; printint(a+b); return 0; }`, "", false)
	require.Equal(t, "7", out)
}

func TestLoop(t *testing.T) {
	out := runAndCapture(t, `int main(){ int i=0; while(i<5){ printint(i); i=i+1; } return 0; }`, "", false)
	require.Equal(t, "01234", out)
}

func TestIfElse(t *testing.T) {
	src := `int main(){ int x=readint(); if(x==0) print("z"); else print("n"); return 0; }`
	require.Equal(t, "z", runAndCapture(t, src, "0", false))
	require.Equal(t, "n", runAndCapture(t, src, "7", false))
}

func TestArraySum(t *testing.T) {
	src := `
int a[3] = {1, 2, 3};
int main(){
	int sum = 0;
	int i = 0;
	while (i < 3) {
		sum = sum + a[i];
		i = i + 1;
	}
	printint(sum);
	return 0;
}`
	out := runAndCapture(t, src, "", false)
	require.Equal(t, "6", out)
}

func TestOptimizedOutputMatchesUnoptimized(t *testing.T) {
	src := `int main(){ int i=0; while(i<5){ printint(i); i=i+1; } return 0; }`
	require.Equal(t, runAndCapture(t, src, "", false), runAndCapture(t, src, "", true))
}

func TestOptimizedOutputIsMinifiedAlphabetOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.Optimize = true
	res, diags := CompileString("test", `int main(){ print("x"); return 0; }`, opts)
	require.Empty(t, diags)
	for _, r := range res.Program {
		require.Contains(t, "><+-[].,", string(r))
	}
}

func TestUnoptimizedOutputCarriesComments(t *testing.T) {
	opts := DefaultOptions()
	opts.Optimize = false
	res, diags := CompileString("test", `int main(){ print("x"); return 0; }`, opts)
	require.Empty(t, diags)
	require.Contains(t, res.Program, "# line")
}

func TestSyntaxErrorHalts(t *testing.T) {
	_, diags := CompileString("test", `int main() { return 0 }`, DefaultOptions())
	require.NotEmpty(t, diags)
	require.Equal(t, "Syntax", diags[0].Kind())
}

func TestRecursionIsRejected(t *testing.T) {
	src := `int fact(int n){ if (n <= 1) return 1; return n * fact(n-1); } int main(){ printint(fact(3)); return 0; }`
	_, diags := CompileString("test", src, DefaultOptions())
	require.NotEmpty(t, diags)
	require.Equal(t, "Semantic", diags[0].Kind())
}

func TestUndeclaredFunctionIsSemanticError(t *testing.T) {
	src := `int main(){ printint(missing()); return 0; }`
	_, diags := CompileString("test", src, DefaultOptions())
	require.NotEmpty(t, diags)
	require.Equal(t, "Semantic", diags[0].Kind())
}

func TestCapacityErrorOnTinyCellBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxCells = 1
	_, diags := CompileString("test", `int main(){ int a=1; int b=2; int c=3; return 0; }`, opts)
	require.NotEmpty(t, diags)
	require.Equal(t, "Capacity", diags[0].Kind())
}

func TestDumpASTAndDumpTapePopulateResult(t *testing.T) {
	opts := DefaultOptions()
	opts.DumpAST = true
	opts.DumpTape = true
	res, diags := CompileString("test", `int main(){ return 0; }`, opts)
	require.Empty(t, diags)
	require.NotEmpty(t, res.ASTDump)
	require.NotEmpty(t, res.TapeDump)
}

func TestMetricsSnapshotIsPopulated(t *testing.T) {
	res, diags := CompileString("test", `int main(){ int a=1; printint(a); return 0; }`, DefaultOptions())
	require.Empty(t, diags)
	require.Greater(t, res.Metrics.ASTNodes, 0)
	require.Greater(t, res.Metrics.InstructionsPreOpt, 0)
	require.Equal(t, res.Metrics.InstructionsPreOpt, res.Metrics.InstructionsFinal)
}

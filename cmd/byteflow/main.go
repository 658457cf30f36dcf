// Command byteflow is the `compile` CLI described in §6: it wires
// pkg/driver's pipeline behind a single urfave/cli command, the way the
// teacher's own cmd/paserati wraps its driver package behind one binary.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"byteflow/pkg/driver"
	"byteflow/pkg/errors"
	"byteflow/pkg/metrics"
)

// Exit codes per §6: 0 success, 1 user error, 2 compilation error, 3
// internal error.
const (
	exitOK            = 0
	exitUserError     = 1
	exitCompileError  = 2
	exitInternalError = 3
)

func main() {
	app := cli.NewApp()
	app.Name = "byteflow"
	app.Usage = "compile a ByteFlow source file to a tape-machine program"
	app.Version = "0.1.0"

	app.Commands = []cli.Command{
		compileCmd,
	}
	// A bare `byteflow <input>` is as valid as `byteflow compile <input>`.
	app.Action = func(ctx *cli.Context) error {
		return runCompile(ctx)
	}

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Error())
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInternalError)
	}
}

var compileCmd = cli.Command{
	Name:      "compile",
	Usage:     "compile a source file to a tape program",
	UsageText: "byteflow compile <input> [-o] [-v] [--dump-ast] [--dump-tape] [--max-cells N] [--max-depth N]",
	Action:    runCompile,
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "optimize, o",
			Usage: "run the peephole optimizer and emit minified output",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "log compilation phases and print a metrics summary to stderr",
		},
		cli.BoolFlag{
			Name:  "dump-ast",
			Usage: "print the parsed AST to stderr",
		},
		cli.BoolFlag{
			Name:  "dump-tape",
			Usage: "print the annotated, non-minified instruction stream to stderr",
		},
		cli.IntFlag{
			Name:  "max-cells",
			Usage: "reject programs needing more tape cells than this (0 = use the built-in default)",
		},
		cli.IntFlag{
			Name:  "max-depth",
			Usage: "reject programs whose call-inlining nests deeper than this (0 = use the built-in default)",
		},
		cli.StringFlag{
			Name:  "out, O",
			Usage: "write the compiled program to this file instead of stdout",
		},
	},
}

func runCompile(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return cli.NewExitError("usage: byteflow compile <input>", exitUserError)
	}
	input := args[0]
	if _, err := os.Stat(input); err != nil {
		return cli.NewExitError(fmt.Sprintf("byteflow: %s", err), exitUserError)
	}

	opts := driver.DefaultOptions()
	opts.Optimize = ctx.Bool("optimize")
	opts.Verbose = ctx.Bool("verbose")
	opts.DumpAST = ctx.Bool("dump-ast")
	opts.DumpTape = ctx.Bool("dump-tape")
	if n := ctx.Int("max-cells"); n > 0 {
		opts.Limits.MaxCells = n
	}
	if n := ctx.Int("max-depth"); n > 0 {
		opts.Limits.MaxCallDepth = n
	}

	result, diags := driver.CompileFile(input, opts)
	if len(diags) > 0 {
		code := exitCompileError
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.Error())
			if _, ok := d.(*errors.InternalError); ok {
				code = exitInternalError
			}
		}
		return cli.NewExitError("", code)
	}

	if opts.DumpAST {
		fmt.Fprintln(os.Stderr, result.ASTDump)
	}
	if opts.DumpTape {
		fmt.Fprintln(os.Stderr, result.TapeDump)
	}
	if opts.Verbose {
		printSummary(result.Metrics)
	}

	if out := ctx.String("out"); out != "" {
		if err := os.WriteFile(out, []byte(result.Program), 0o644); err != nil {
			return cli.NewExitError(fmt.Sprintf("byteflow: writing %q: %s", out, err), exitInternalError)
		}
		return nil
	}
	fmt.Print(result.Program)
	return nil
}

func printSummary(snap metrics.Snapshot) {
	fmt.Fprintf(os.Stderr, "tokens=%d ast_nodes=%d cells_high_water=%d instructions_pre_opt=%d instructions_post_opt=%d instructions_final=%d cancellations=%d zero_loop_merges=%d dead_zero_loops=%d\n",
		snap.TokensLexed, snap.ASTNodes, snap.CellsHighWater,
		snap.InstructionsPreOpt, snap.InstructionsPostOpt, snap.InstructionsFinal,
		snap.Cancellations, snap.ZeroLoopMerges, snap.DeadZeroLoops)
}

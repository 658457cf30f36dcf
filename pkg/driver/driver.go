// Package driver wires the pipeline stages (L, P, S, T, E/C/F, O, M)
// into the CompilerContext of §9: one place that owns the logger, the
// diagnostics sink and the metrics snapshot for a single compilation, the
// way the teacher's own driver package wraps its lexer/parser/compiler/vm
// sequence behind a handful of CompileFile/CompileString/RunXxx entry
// points.
package driver

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"byteflow/pkg/compiler"
	"byteflow/pkg/errors"
	"byteflow/pkg/lexer"
	"byteflow/pkg/metrics"
	"byteflow/pkg/minify"
	"byteflow/pkg/optimizer"
	"byteflow/pkg/parser"
	"byteflow/pkg/source"
)

// Options configures one compilation (§A.3 of the full spec: no config
// file, CLI flags plus Limits only).
type Options struct {
	// Optimize mirrors the CLI's -o/--optimize flag (§6): when set, the
	// peephole pass runs and Result.Program is the minified alphabet-only
	// program; when unset, O is skipped and Result.Program is the
	// annotated, whitespace-and-comments form straight off the emitter.
	Optimize bool
	Verbose  bool
	DumpAST  bool
	DumpTape bool
	Limits   compiler.Limits
}

// DefaultOptions mirrors the CLI's defaults.
func DefaultOptions() Options {
	return Options{Limits: compiler.DefaultLimits()}
}

// Result is everything a caller (the CLI, or a test) might want out of a
// compilation: the program itself plus optional dumps and metrics.
type Result struct {
	Program  string // the final tape program, minified or annotated per Options.Optimize
	ASTDump  string // non-empty only if Options.DumpAST
	TapeDump string // non-empty only if Options.DumpTape (pre-minify, annotated)
	Metrics  metrics.Snapshot
}

// NewLogger builds the *zap.Logger the CompilerContext logs through:
// console-encoded, caller and stacktrace disabled, debug level under
// -v, a no-op logger otherwise (§A.1 of the full spec).
func NewLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cc := zap.NewDevelopmentConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.Encoding = "console"
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	log, err := cc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// CompileFile reads path and compiles it; diagnostics are returned
// rather than printed, so the CLI (or a test) decides how to render them.
func CompileFile(path string, opts Options) (*Result, []errors.ByteFlowError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, []errors.ByteFlowError{&errors.InternalError{
			Msg: fmt.Sprintf("reading %q: %s", path, err),
		}}
	}
	src := source.FromFile(path, string(content))
	return CompileSource(src, opts)
}

// CompileString compiles in-memory source under a synthetic name, the
// way the teacher's CompileString builds an eval SourceFile for the REPL.
func CompileString(name, content string, opts Options) (*Result, []errors.ByteFlowError) {
	return CompileSource(source.NewSourceFile(name, "", content), opts)
}

// CompileSource runs the full L -> P -> (S,T,E,C,F) -> O -> M pipeline
// over src (§5), halting at the first phase that reports an error.
func CompileSource(src *source.SourceFile, opts Options) (*Result, []errors.ByteFlowError) {
	log := NewLogger(opts.Verbose)
	diags := &errors.Diagnostics{}
	var snap metrics.Snapshot

	// L
	t0 := time.Now()
	l := lexer.New(src, diags)
	metrics.ObservePhase("lex", time.Since(t0).Seconds())
	if diags.HasErrors() {
		return nil, diags.Errors()
	}

	// P
	t0 = time.Now()
	p := parser.New(l, src, diags)
	program := p.ParseProgram()
	metrics.ObservePhase("parse", time.Since(t0).Seconds())
	if diags.HasErrors() {
		return nil, diags.Errors()
	}
	snap.ASTNodes = len(program.Declarations)

	var astDump string
	if opts.DumpAST {
		astDump = program.String()
	}

	// S, T, E, C, F
	t0 = time.Now()
	comp := compiler.New(diags, opts.Limits, log)
	comp.Compile(program)
	metrics.ObservePhase("compile", time.Since(t0).Seconds())
	if diags.HasErrors() {
		return nil, diags.Errors()
	}

	buf := comp.Buffer()
	snap.CellsHighWater = int(comp.HighWater())
	snap.InstructionsPreOpt = buf.Len()
	metrics.SetHighWater(snap.CellsHighWater)
	metrics.RecordInstructions("pre-optimize", snap.InstructionsPreOpt)

	var tapeDump string
	if opts.DumpTape {
		tapeDump = minify.Dump(buf)
	}

	var output string
	if opts.Optimize {
		// O
		t0 = time.Now()
		stats := optimizer.Optimize(buf, log)
		metrics.ObservePhase("optimize", time.Since(t0).Seconds())
		snap.InstructionsPostOpt = buf.Len()
		snap.Cancellations = stats.Cancellations
		snap.ZeroLoopMerges = stats.ZeroLoopMerges
		snap.DeadZeroLoops = stats.DeadZeroLoops
		metrics.RecordInstructions("post-optimize", snap.InstructionsPostOpt)
		metrics.RecordRewrites("cancellation", stats.Cancellations)
		metrics.RecordRewrites("zero-loop-merge", stats.ZeroLoopMerges)
		metrics.RecordRewrites("dead-zero-loop", stats.DeadZeroLoops)

		// M
		output = minify.Program(buf)
	} else {
		snap.InstructionsPostOpt = snap.InstructionsPreOpt
		output = minify.Dump(buf)
	}
	snap.InstructionsFinal = len(minify.Text(output))
	metrics.RecordInstructions("final", snap.InstructionsFinal)

	return &Result{
		Program:  output,
		ASTDump:  astDump,
		TapeDump: tapeDump,
		Metrics:  snap,
	}, nil
}

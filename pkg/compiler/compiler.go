// Package compiler implements components E, C and F: it lowers a typed
// AST directly to tape instructions, with no intermediate representation
// in between (§1 Non-goals). The compiler tracks the data pointer's
// compile-time-known position itself (§3 invariants) rather than relying
// on the emitted program to do so at run time — moveTo is the single
// place that turns "I need the pointer at cell X" into the right run of
// '>' / '<'.
package compiler

import (
	"fmt"

	"go.uber.org/zap"

	"byteflow/pkg/ast"
	"byteflow/pkg/emit"
	"byteflow/pkg/errors"
	"byteflow/pkg/symbols"
	"byteflow/pkg/tape"
	"byteflow/pkg/types"
)

// Limits bounds the tape and call-inlining depth a compilation may use
// (ambient configuration, not part of the tape-machine contract itself).
type Limits struct {
	MaxCells     int
	MaxCallDepth int
}

// DefaultLimits mirrors the driver's --max-cells/--max-depth defaults.
func DefaultLimits() Limits {
	return Limits{MaxCells: 1 << 16, MaxCallDepth: 64}
}

// loopCtx tracks one active loop (while/for) or switch for break lowering
// (§4.3): breaking zeros every block-sequencing flag pushed since the
// loop was entered, then zeros brokenFlag so the loop's re-arm step
// (or, for switch, nothing further) does not continue.
type loopCtx struct {
	brokenFlag tape.Cell
	blockDepth int // len(blockFlags) at loop/switch entry
}

// funcCtx is the compiler's state for one function body currently being
// emitted — either the top-level call or an inlined call (§4.4).
type funcCtx struct {
	name       string
	fn         *ast.Function
	rf         tape.Cell
	rv         tape.Cell
	retType    types.Type
	blockFlags []tape.Cell
	loops      []loopCtx
}

// Compiler lowers one compilation unit's AST to a tape instruction
// buffer. It is the CompilerContext of §9: all state that used to be
// hidden globals (symbol table, allocator watermark, instruction buffer)
// is explicit here and threaded through every emit call.
type Compiler struct {
	buf    *emit.Buffer
	alloc  *tape.Allocator
	diags  *errors.Diagnostics
	log    *zap.Logger
	limits Limits

	globals *symbols.Table
	funcs   map[string]*ast.Function

	scopes    []*symbols.Table // current lexical scope chain, innermost last
	funcStack []*funcCtx       // innermost-active-call last; grows on inlined calls
	inlining  []string         // names of functions currently being inlined, for recursion detection

	pos tape.Cell // the data pointer's compile-time-known position

	instrCount int // instructions emitted, for metrics
}

// New creates a Compiler with an empty global scope; Compile populates it.
func New(diags *errors.Diagnostics, limits Limits, log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	globals := symbols.NewTable()
	return &Compiler{
		buf:     emit.New(),
		alloc:   tape.New(0, log),
		diags:   diags,
		log:     log,
		limits:  limits,
		globals: globals,
		funcs:   make(map[string]*ast.Function),
		scopes:  []*symbols.Table{globals},
	}
}

// Buffer returns the instruction buffer built so far.
func (c *Compiler) Buffer() *emit.Buffer { return c.buf }

// HighWater reports the largest number of cells ever live, i.e. the
// minimum tape size the generated program needs.
func (c *Compiler) HighWater() tape.Cell { return c.alloc.HighWater() }

func (c *Compiler) fail(tok ast.Token, msg string, args ...interface{}) {
	c.diags.Add(&errors.SemanticError{
		Position: errors.Position{Line: tok.Line, Column: tok.Column, StartPos: tok.StartPos, EndPos: tok.EndPos},
		Msg:      fmt.Sprintf(msg, args...),
	})
}

func (c *Compiler) internal(tok ast.Token, msg string, args ...interface{}) {
	c.diags.Add(&errors.InternalError{
		Position: errors.Position{Line: tok.Line, Column: tok.Column, StartPos: tok.StartPos, EndPos: tok.EndPos},
		Msg:      fmt.Sprintf(msg, args...),
	})
}

func (c *Compiler) capacity(tok ast.Token, msg string, args ...interface{}) {
	c.diags.Add(&errors.CapacityError{
		Position: errors.Position{Line: tok.Line, Column: tok.Column, StartPos: tok.StartPos, EndPos: tok.EndPos},
		Msg:      fmt.Sprintf(msg, args...),
	})
}

func (c *Compiler) curScope() *symbols.Table { return c.scopes[len(c.scopes)-1] }

func (c *Compiler) pushScope() {
	c.scopes = append(c.scopes, symbols.NewEnclosedTable(c.curScope()))
	c.alloc.EnterScope()
}

// popScope exits the current lexical scope, zeroing every cell the
// allocator reports as belonging only to it (§4.1 exitScope contract).
func (c *Compiler) popScope() {
	from, to := c.alloc.ExitScope()
	for cell := from; cell < to; cell++ {
		c.zeroCell(cell)
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *Compiler) curFunc() *funcCtx {
	if len(c.funcStack) == 0 {
		return nil
	}
	return c.funcStack[len(c.funcStack)-1]
}

func (c *Compiler) line(tok ast.Token) int { return tok.Line }

// --- Pointer bookkeeping ---

// moveTo emits the '>'/'<' run needed to bring the tracked data pointer
// to cell, and updates the tracked position. This is the sole place
// pointer motion is emitted so every other helper can reason about cell
// indices only.
func (c *Compiler) moveTo(cell tape.Cell) {
	if cell == c.pos {
		return
	}
	if cell > c.pos {
		c.buf.EmitN(emit.Right, int(cell-c.pos), 0)
	} else {
		c.buf.EmitN(emit.Left, int(c.pos-cell), 0)
	}
	c.pos = cell
}

// workOrigin is the compiler's resting cell between statements — cell 0,
// the start of the global frame (§3 "Work origin" in the GLOSSARY).
const workOrigin tape.Cell = 0

func (c *Compiler) restOrigin() { c.moveTo(workOrigin) }

// --- Primitive cell operations ---

func (c *Compiler) zeroCell(cell tape.Cell) {
	c.moveTo(cell)
	c.buf.OpenLoop(0)
	c.buf.Emit(emit.Dec, 0)
	c.buf.CloseLoop(0)
}

func (c *Compiler) setConst(cell tape.Cell, n byte) {
	c.zeroCell(cell)
	c.moveTo(cell)
	c.buf.EmitN(emit.Inc, int(n), 0)
}

func (c *Compiler) incCell(cell tape.Cell) {
	c.moveTo(cell)
	c.buf.Emit(emit.Inc, 0)
}

func (c *Compiler) decCell(cell tape.Cell) {
	c.moveTo(cell)
	c.buf.Emit(emit.Dec, 0)
}

// moveCellInto adds src's value into dst and zeroes src: "[dst+=src;
// src=0]", the single-pass move idiom used whenever a temp's value is
// being relocated rather than duplicated.
func (c *Compiler) moveCellInto(dst, src tape.Cell) {
	c.moveTo(src)
	c.buf.OpenLoop(0)
	c.buf.Emit(emit.Dec, 0)
	c.moveTo(dst)
	c.buf.Emit(emit.Inc, 0)
	c.moveTo(src)
	c.buf.CloseLoop(0)
}

// copyCell duplicates src's value into dst via a scratch cell while
// restoring src, the canonical copy idiom of §4.2/GLOSSARY: first
// "[dst+=src, scratch+=src, src=0]", then "[src+=scratch, scratch=0]".
// src's value is added onto dst, so dst normally starts at zero (the
// usual temp invariant); mulInto relies on the addition to accumulate.
func (c *Compiler) copyCell(dst, src tape.Cell) {
	scratch := c.alloc.AllocateTemp()
	c.moveTo(src)
	c.buf.OpenLoop(0)
	c.buf.Emit(emit.Dec, 0)
	c.moveTo(dst)
	c.buf.Emit(emit.Inc, 0)
	c.moveTo(scratch)
	c.buf.Emit(emit.Inc, 0)
	c.moveTo(src)
	c.buf.CloseLoop(0)

	c.moveTo(scratch)
	c.buf.OpenLoop(0)
	c.buf.Emit(emit.Dec, 0)
	c.moveTo(src)
	c.buf.Emit(emit.Inc, 0)
	c.moveTo(scratch)
	c.buf.CloseLoop(0)
	c.alloc.ReleaseTemp(scratch)
}

// --- Block-sequencing flags (break/return lowering, §4.3) ---

// stmtsOf normalizes a statement position (which may be a bare Block or
// any single statement, per the grammar) into the flat list C executes
// in sequence.
func stmtsOf(s ast.Statement) []ast.Statement {
	if s == nil {
		return nil
	}
	if blk, ok := s.(*ast.Block); ok {
		return blk.Statements
	}
	return []ast.Statement{s}
}

// compileBlockBody runs stmts under a fresh one-shot running flag, so a
// break or return anywhere inside can skip everything remaining in this
// sequence by clearing the flag (§4.3, GLOSSARY "Guard-flag envelope").
func (c *Compiler) compileBlockBody(stmts []ast.Statement) {
	runFlag := c.alloc.AllocateTemp()
	c.setConst(runFlag, 1)

	f := c.curFunc()
	f.blockFlags = append(f.blockFlags, runFlag)

	c.compileGuarded(runFlag, stmts)

	f.blockFlags = f.blockFlags[:len(f.blockFlags)-1]
	c.zeroCell(runFlag)
	c.alloc.ReleaseTemp(runFlag)
}

// compileGuarded recursively wraps each remaining statement in a
// one-shot gate keyed off a fresh copy of runFlag, so that once runFlag
// is cleared (by a break or return somewhere earlier) every later
// statement in the sequence is skipped without the interpreter needing
// any non-local control transfer.
func (c *Compiler) compileGuarded(runFlag tape.Cell, stmts []ast.Statement) {
	if len(stmts) == 0 {
		return
	}
	trigger := c.alloc.AllocateTemp()
	c.copyCell(trigger, runFlag)

	c.moveTo(trigger)
	c.buf.OpenLoop(c.line(stmts[0].Pos()))
	c.zeroCell(trigger)
	c.restOrigin()
	c.compileStmt(stmts[0])
	c.compileGuarded(runFlag, stmts[1:])
	c.moveTo(trigger)
	c.buf.CloseLoop(c.line(stmts[0].Pos()))

	c.alloc.ReleaseTemp(trigger)
}

// breakOut implements `break`: it unwinds the innermost loop/switch's
// block flags and clears its brokenFlag (§4.3).
func (c *Compiler) breakOut(tok ast.Token) {
	f := c.curFunc()
	if len(f.loops) == 0 {
		c.fail(tok, "break outside a loop or switch")
		return
	}
	lc := f.loops[len(f.loops)-1]
	for i := len(f.blockFlags) - 1; i >= lc.blockDepth; i-- {
		c.zeroCell(f.blockFlags[i])
	}
	c.zeroCell(lc.brokenFlag)
}

// returnFrom implements `return`: it writes the return value (if any)
// into the frame's rv slot, then unwinds every enclosing block and loop
// flag plus the frame's own rf (§4.3, §4.4).
func (c *Compiler) returnFrom(tok ast.Token, value ast.Expression) {
	f := c.curFunc()
	if f == nil {
		c.internal(tok, "return outside any function context")
		return
	}
	if value != nil {
		r := c.compileExpr(value)
		c.zeroCell(f.rv)
		c.moveCellInto(f.rv, r)
		c.alloc.ReleaseTemp(r)
	}
	for i := len(f.blockFlags) - 1; i >= 0; i-- {
		c.zeroCell(f.blockFlags[i])
	}
	for i := len(f.loops) - 1; i >= 0; i-- {
		c.zeroCell(f.loops[i].brokenFlag)
	}
	c.zeroCell(f.rf)
}

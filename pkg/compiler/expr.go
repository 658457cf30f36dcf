package compiler

import (
	"byteflow/pkg/ast"
	"byteflow/pkg/symbols"
	"byteflow/pkg/tape"
	"byteflow/pkg/types"
)

// compileExpr lowers e to code that leaves its single-cell result in a
// freshly allocated temp, pointer restored to the work origin, every
// other cell unchanged (§4.2). The caller owns the returned cell and
// must release it.
func (c *Compiler) compileExpr(e ast.Expression) tape.Cell {
	r := c.emitExpr(e)
	c.restOrigin()
	return r
}

func (c *Compiler) emitExpr(e ast.Expression) tape.Cell {
	switch n := e.(type) {
	case *ast.IntLit:
		n.SetComputedType(types.Int)
		r := c.alloc.AllocateTemp()
		c.setConst(r, byte(uint8(n.Value)))
		return r
	case *ast.CharLit:
		n.SetComputedType(types.Char)
		r := c.alloc.AllocateTemp()
		c.setConst(r, n.Value)
		return r
	case *ast.BoolLit:
		n.SetComputedType(types.Bool)
		r := c.alloc.AllocateTemp()
		if n.Value {
			c.setConst(r, 1)
		}
		return r
	case *ast.StringLit:
		c.fail(n.Token, "string literals may only appear as a print(...) argument")
		return c.alloc.AllocateTemp()
	case *ast.Ident:
		return c.emitIdent(n)
	case *ast.Index:
		return c.emitIndexRead(n)
	case *ast.Unary:
		return c.emitUnary(n)
	case *ast.Binary:
		return c.emitBinary(n)
	case *ast.CallExpr:
		return c.emitCall(n)
	default:
		c.internal(e.Pos(), "unhandled expression node %T", e)
		return c.alloc.AllocateTemp()
	}
}

func (c *Compiler) resolve(name string) (symbols.Symbol, bool) {
	return c.curScope().Resolve(name)
}

func (c *Compiler) emitIdent(n *ast.Ident) tape.Cell {
	sym, ok := c.resolve(n.Name)
	if !ok {
		c.fail(n.Token, "undeclared identifier %q", n.Name)
		return c.alloc.AllocateTemp()
	}
	n.SetComputedType(sym.Type)
	if types.IsArray(sym.Type) {
		c.fail(n.Token, "array %q used without an index", n.Name)
		return c.alloc.AllocateTemp()
	}
	r := c.alloc.AllocateTemp()
	c.copyCell(r, tape.Cell(sym.CellIndex))
	return r
}

// arrayBase resolves the symbol for an Index expression's array operand,
// which must be a bare identifier (§4.2: arrays are not first-class
// values, only named storage).
func (c *Compiler) arrayBase(e ast.Expression) (symbols.Symbol, bool) {
	ident, ok := e.(*ast.Ident)
	if !ok {
		c.fail(e.Pos(), "only a named array may be indexed")
		return symbols.Symbol{}, false
	}
	sym, ok := c.resolve(ident.Name)
	if !ok {
		c.fail(ident.Token, "undeclared identifier %q", ident.Name)
		return symbols.Symbol{}, false
	}
	if !types.IsArray(sym.Type) {
		c.fail(ident.Token, "%q is not an array", ident.Name)
		return symbols.Symbol{}, false
	}
	return sym, true
}

// selectBySlot runs body once for every slot k in [0, length) whose
// compile-time-fixed cell is base+k, gated behind "idx == k" (§4.2
// Index). Every array cell the allocator hands out has a fixed address,
// so a genuinely variable index cannot be turned into a single target
// Cell the way a constant index can; instead of walking the physical
// pointer by a runtime distance, the emitted code enumerates every slot
// and lets exactly one match fire — an unrolled chain of equality
// guards rather than the pointer-arithmetic idiom, traded deliberately
// for simplicity over a fixed array's small, byte-bounded length. idx is
// preserved; out-of-range values simply match no slot, which is
// consistent with §4.2 "bounds checking is NOT emitted."
func (c *Compiler) selectBySlot(idx tape.Cell, base tape.Cell, length int, body func(slot tape.Cell)) {
	for k := 0; k < length; k++ {
		kConst := c.alloc.AllocateTemp()
		c.setConst(kConst, byte(k))
		match := c.alloc.AllocateTemp()
		c.eq(match, idx, kConst)
		c.zeroCell(kConst)
		c.alloc.ReleaseTemp(kConst)

		c.moveTo(match)
		c.buf.OpenLoop(0)
		c.zeroCell(match)
		body(base + tape.Cell(k))
		c.moveTo(match)
		c.buf.CloseLoop(0)
		c.alloc.ReleaseTemp(match)
	}
	c.restOrigin()
}

// emitIndexRead lowers a[i] for read. Constant indices resolve to a
// fixed cell at compile time; variable indices dispatch through
// selectBySlot.
func (c *Compiler) emitIndexRead(n *ast.Index) tape.Cell {
	sym, ok := c.arrayBase(n.Array)
	if !ok {
		return c.alloc.AllocateTemp()
	}
	arr := sym.Type.(*types.Array)
	n.SetComputedType(arr.Elem)
	base := tape.Cell(sym.CellIndex)

	if lit, ok := n.Index.(*ast.IntLit); ok {
		cell := base + tape.Cell(lit.Value)
		r := c.alloc.AllocateTemp()
		c.copyCell(r, cell)
		return r
	}

	idx := c.compileExpr(n.Index)
	r := c.alloc.AllocateTemp()
	c.selectBySlot(idx, base, arr.Length, func(slot tape.Cell) {
		c.copyCell(r, slot)
	})
	c.zeroCell(idx)
	c.alloc.ReleaseTemp(idx)
	return r
}

// emitIndexWrite lowers a[i] = value: value is consumed into the
// selected slot, zeroed everywhere else it was copied from.
func (c *Compiler) emitIndexWrite(n *ast.Index, value tape.Cell) {
	sym, ok := c.arrayBase(n.Array)
	if !ok {
		return
	}
	arr := sym.Type.(*types.Array)
	base := tape.Cell(sym.CellIndex)

	if lit, ok := n.Index.(*ast.IntLit); ok {
		cell := base + tape.Cell(lit.Value)
		c.zeroCell(cell)
		c.moveCellInto(cell, value)
		return
	}

	idx := c.compileExpr(n.Index)
	c.selectBySlot(idx, base, arr.Length, func(slot tape.Cell) {
		c.zeroCell(slot)
		c.copyCell(slot, value)
	})
	c.zeroCell(idx)
	c.alloc.ReleaseTemp(idx)
	c.zeroCell(value)
}

func (c *Compiler) emitUnary(n *ast.Unary) tape.Cell {
	switch n.Op {
	case ast.UnaryNot:
		x := c.compileExpr(n.Right)
		r := c.alloc.AllocateTemp()
		c.notFlag(r, x)
		c.alloc.ReleaseTemp(x)
		n.SetComputedType(types.Bool)
		return r
	case ast.UnaryNegate:
		// Cells are unsigned bytes; negation is two's-complement style
		// wraparound: 0 - x (mod 256), i.e. 256-x for x!=0, 0 for x=0.
		x := c.compileExpr(n.Right)
		r := c.alloc.AllocateTemp()
		c.subInto(r, x)
		c.zeroCell(x)
		c.alloc.ReleaseTemp(x)
		n.SetComputedType(types.Int)
		return r
	default:
		c.internal(n.Token, "unknown unary operator %q", n.Op)
		return c.alloc.AllocateTemp()
	}
}

func (c *Compiler) emitBinary(n *ast.Binary) tape.Cell {
	// Logical && / || short-circuit over the left operand (§4.2); the
	// right operand is only evaluated if still needed.
	switch n.Op {
	case ast.OpAnd:
		return c.emitShortCircuit(n, false)
	case ast.OpOr:
		return c.emitShortCircuit(n, true)
	}

	l := c.compileExpr(n.Left)
	r := c.compileExpr(n.Right)
	result := c.alloc.AllocateTemp()

	switch n.Op {
	case ast.OpAdd:
		c.moveCellInto(result, l)
		c.moveCellInto(result, r)
	case ast.OpSub:
		c.moveCellInto(result, l)
		c.subInto(result, r)
		c.zeroCell(r)
	case ast.OpMul:
		c.mulInto(result, l, r)
		c.zeroCell(l)
		c.zeroCell(r)
	case ast.OpDiv:
		rem := c.alloc.AllocateTemp()
		c.divMod(result, rem, l, r)
		c.zeroCell(rem)
		c.zeroCell(l)
		c.zeroCell(r)
		c.alloc.ReleaseTemp(rem)
	case ast.OpMod:
		quot := c.alloc.AllocateTemp()
		c.divMod(quot, result, l, r)
		c.zeroCell(quot)
		c.zeroCell(l)
		c.zeroCell(r)
		c.alloc.ReleaseTemp(quot)
	case ast.OpEq:
		c.eq(result, l, r)
	case ast.OpNotEq:
		c.ne(result, l, r)
	case ast.OpLt:
		c.lt(result, l, r)
	case ast.OpLtEq:
		c.le(result, l, r)
	case ast.OpGt:
		c.gt(result, l, r)
	case ast.OpGtEq:
		c.ge(result, l, r)
	default:
		c.internal(n.Token, "unknown binary operator %q", n.Op)
	}

	c.zeroRemainder(l, n.Op)
	c.zeroRemainder(r, n.Op)
	c.alloc.ReleaseTemp(l)
	c.alloc.ReleaseTemp(r)

	switch n.Op {
	case ast.OpEq, ast.OpNotEq, ast.OpLt, ast.OpLtEq, ast.OpGt, ast.OpGtEq:
		n.SetComputedType(types.Bool)
	default:
		n.SetComputedType(types.Int)
	}
	return result
}

// zeroRemainder zeros an operand cell for operators whose template leaves
// it untouched, so releasing the temp never violates the
// zero-before-release invariant. For the arithmetic operators it does
// nothing: their cases above already drain or zero l and r. For
// comparisons, order()'s copies are drained internally and l/r
// themselves were never touched, so they are zeroed here.
func (c *Compiler) zeroRemainder(cell tape.Cell, op ast.BinaryOp) {
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return
	default:
		c.zeroCell(cell)
	}
}

// emitShortCircuit lowers && (isOr=false) and || (isOr=true) without
// always evaluating the right operand: the left operand's truth value
// gates whether the right side is even emitted (§4.2).
func (c *Compiler) emitShortCircuit(n *ast.Binary, isOr bool) tape.Cell {
	l := c.compileExpr(n.Left)
	lFlag := c.alloc.AllocateTemp()
	c.nonzero(lFlag, l)
	c.zeroCell(l)
	c.alloc.ReleaseTemp(l)

	result := c.alloc.AllocateTemp()
	gate := c.alloc.AllocateTemp()
	if isOr {
		lCopy := c.alloc.AllocateTemp()
		c.copyCell(lCopy, lFlag)
		c.notFlag(gate, lCopy) // gate = 1 means left was false: must check right
		c.alloc.ReleaseTemp(lCopy)
	} else {
		c.copyCell(gate, lFlag)
	}

	if isOr {
		c.moveCellInto(result, lFlag)
	} else {
		c.zeroCell(lFlag)
	}

	c.moveTo(gate)
	c.buf.OpenLoop(c.line(n.Token))
	c.zeroCell(gate)
	rFlagHolder := c.compileExpr(n.Right)
	rFlag := c.alloc.AllocateTemp()
	c.nonzero(rFlag, rFlagHolder)
	c.zeroCell(rFlagHolder)
	c.alloc.ReleaseTemp(rFlagHolder)
	c.zeroCell(result)
	c.moveCellInto(result, rFlag)
	c.alloc.ReleaseTemp(rFlag)
	c.moveTo(gate)
	c.buf.CloseLoop(c.line(n.Token))

	c.alloc.ReleaseTemp(gate)
	n.SetComputedType(types.Bool)
	return result
}

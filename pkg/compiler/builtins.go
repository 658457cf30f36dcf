package compiler

import (
	"golang.org/x/text/unicode/norm"

	"byteflow/pkg/ast"
	"byteflow/pkg/emit"
	"byteflow/pkg/tape"
)

// The standard library routines named in §1 ("print, readint, etc.") are
// not user-definable functions: each call site is lowered directly to a
// pre-built tape-code template under the same discipline as any other
// expression (§1 "emitted as pre-lowered code templates operating under
// the same tape discipline").
var builtinNames = map[string]bool{
	"print":    true,
	"printint": true,
	"readint":  true,
}

func (c *Compiler) emitBuiltinCall(n *ast.CallExpr) (tape.Cell, bool) {
	switch n.Callee {
	case "print":
		return c.emitPrint(n), true
	case "printint":
		return c.emitPrintInt(n), true
	case "readint":
		return c.emitReadInt(n), true
	}
	return 0, false
}

// emitPrint lowers print("literal"): each byte of the (NFC-normalized)
// string is set into a scratch cell and output in turn, with no backing
// storage (§4.2). The call yields 0 (print is void).
func (c *Compiler) emitPrint(n *ast.CallExpr) tape.Cell {
	if len(n.Args) != 1 {
		c.fail(n.Token, "print expects exactly one string literal argument, got %d", len(n.Args))
		return c.alloc.AllocateTemp()
	}
	lit, ok := n.Args[0].(*ast.StringLit)
	if !ok {
		c.fail(n.Token, "print requires a string literal argument")
		return c.alloc.AllocateTemp()
	}
	text := norm.NFC.String(lit.Value)

	ch := c.alloc.AllocateTemp()
	for i := 0; i < len(text); i++ {
		c.setConst(ch, text[i])
		c.moveTo(ch)
		c.buf.Emit(emit.Out, n.Token.Line)
	}
	c.zeroCell(ch)
	c.alloc.ReleaseTemp(ch)
	return c.alloc.AllocateTemp()
}

// emitPrintInt lowers printint(expr): the argument's byte value is
// split into hundreds/tens/ones digits via the standard div/mod
// templates (§4.2), printed with leading-zero suppression. The call
// yields 0 (printint is void).
func (c *Compiler) emitPrintInt(n *ast.CallExpr) tape.Cell {
	if len(n.Args) != 1 {
		c.fail(n.Token, "printint expects exactly one argument, got %d", len(n.Args))
		return c.alloc.AllocateTemp()
	}
	x := c.compileExpr(n.Args[0])

	hundred := c.alloc.AllocateTemp()
	c.setConst(hundred, 100)
	hundreds := c.alloc.AllocateTemp()
	rem1 := c.alloc.AllocateTemp()
	c.divMod(hundreds, rem1, x, hundred)
	c.zeroCell(hundred)
	c.alloc.ReleaseTemp(hundred)

	ten := c.alloc.AllocateTemp()
	c.setConst(ten, 10)
	tens := c.alloc.AllocateTemp()
	ones := c.alloc.AllocateTemp()
	c.divMod(tens, ones, rem1, ten)
	c.zeroCell(ten)
	c.alloc.ReleaseTemp(ten)
	c.zeroCell(rem1)
	c.alloc.ReleaseTemp(rem1)

	flagH := c.alloc.AllocateTemp()
	c.nonzero(flagH, hundreds)
	gateH := c.alloc.AllocateTemp()
	c.copyCell(gateH, flagH)
	c.moveTo(gateH)
	c.buf.OpenLoop(n.Token.Line)
	c.zeroCell(gateH)
	c.outputDigit(hundreds)
	c.moveTo(gateH)
	c.buf.CloseLoop(n.Token.Line)
	c.alloc.ReleaseTemp(gateH)

	nzTens := c.alloc.AllocateTemp()
	c.nonzero(nzTens, tens)
	shouldPrintTens := c.alloc.AllocateTemp()
	c.orFlags(shouldPrintTens, flagH, nzTens)
	gateT := c.alloc.AllocateTemp()
	c.copyCell(gateT, shouldPrintTens)
	c.moveTo(gateT)
	c.buf.OpenLoop(n.Token.Line)
	c.zeroCell(gateT)
	c.outputDigit(tens)
	c.moveTo(gateT)
	c.buf.CloseLoop(n.Token.Line)
	c.alloc.ReleaseTemp(gateT)
	c.zeroCell(shouldPrintTens)
	c.alloc.ReleaseTemp(shouldPrintTens)

	c.outputDigit(ones)

	c.zeroCell(hundreds)
	c.zeroCell(tens)
	c.zeroCell(ones)
	c.alloc.ReleaseTemp(ones)
	c.alloc.ReleaseTemp(tens)
	c.alloc.ReleaseTemp(hundreds)
	c.zeroCell(x)
	c.alloc.ReleaseTemp(x)

	return c.alloc.AllocateTemp()
}

// outputDigit prints digit (0-9, preserved) as its ASCII character.
func (c *Compiler) outputDigit(digit tape.Cell) {
	ascii := c.alloc.AllocateTemp()
	c.copyCell(ascii, digit)
	c.moveTo(ascii)
	c.buf.EmitN(emit.Inc, '0', 0)
	c.buf.Emit(emit.Out, 0)
	c.zeroCell(ascii)
	c.alloc.ReleaseTemp(ascii)
}

// emitReadInt lowers readint(): it reads ASCII digit characters from
// stdin, accumulating result = result*10 + digit (mod 256, §4.2
// "integer overflow wraps modulo the cell width"), stopping at the
// first non-digit byte (which is consumed and discarded — the tape
// machine has no way to push a byte back onto stdin, §6).
func (c *Compiler) emitReadInt(n *ast.CallExpr) tape.Cell {
	if len(n.Args) != 0 {
		c.fail(n.Token, "readint takes no arguments, got %d", len(n.Args))
	}
	result := c.alloc.AllocateTemp()
	ch := c.alloc.AllocateTemp()
	isDigit := c.alloc.AllocateTemp()

	c.moveTo(ch)
	c.buf.Emit(emit.In, n.Token.Line)
	c.checkDigit(isDigit, ch)

	c.moveTo(isDigit)
	c.buf.OpenLoop(n.Token.Line)
	c.zeroCell(isDigit)

	ten := c.alloc.AllocateTemp()
	c.setConst(ten, 10)
	prod := c.alloc.AllocateTemp()
	c.mulInto(prod, result, ten)
	c.zeroCell(ten)
	c.alloc.ReleaseTemp(ten)
	c.zeroCell(result)
	c.moveCellInto(result, prod)
	c.alloc.ReleaseTemp(prod)

	zero := c.alloc.AllocateTemp()
	c.setConst(zero, '0')
	digit := c.alloc.AllocateTemp()
	c.moveCellInto(digit, ch)
	c.subInto(digit, zero)
	c.zeroCell(zero)
	c.alloc.ReleaseTemp(zero)
	c.moveCellInto(result, digit)
	c.alloc.ReleaseTemp(digit)

	c.moveTo(ch)
	c.buf.Emit(emit.In, n.Token.Line)
	c.checkDigit(isDigit, ch)
	c.moveTo(isDigit)
	c.buf.CloseLoop(n.Token.Line)

	c.zeroCell(ch)
	c.alloc.ReleaseTemp(ch)
	c.alloc.ReleaseTemp(isDigit)
	return result
}

// checkDigit sets dst to 1 iff ch (preserved) is an ASCII '0'-'9' byte.
func (c *Compiler) checkDigit(dst, ch tape.Cell) {
	lo := c.alloc.AllocateTemp()
	c.setConst(lo, '0')
	hi := c.alloc.AllocateTemp()
	c.setConst(hi, '9')
	geFlag := c.alloc.AllocateTemp()
	c.ge(geFlag, ch, lo)
	leFlag := c.alloc.AllocateTemp()
	c.le(leFlag, ch, hi)
	c.andFlags(dst, geFlag, leFlag)
	c.zeroCell(lo)
	c.zeroCell(hi)
	c.alloc.ReleaseTemp(hi)
	c.alloc.ReleaseTemp(lo)
	c.alloc.ReleaseTemp(leFlag)
	c.alloc.ReleaseTemp(geFlag)
}

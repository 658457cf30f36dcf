package compiler

import (
	"byteflow/pkg/ast"
	"byteflow/pkg/symbols"
	"byteflow/pkg/tape"
	"byteflow/pkg/types"
)

// Compile lowers an entire program (§4 pipeline, component C/E/F taken
// together): global storage is allocated first, occupying the fixed
// prefix of the tape every frame is relative to (§3), then every function
// signature is registered so calls can resolve forward references, then
// main is compiled in place as the program's entry point.
func (c *Compiler) Compile(prog *ast.Program) {
	for _, d := range prog.Declarations {
		switch decl := d.(type) {
		case *ast.GlobalVar:
			c.compileGlobalVar(decl)
		case *ast.GlobalArray:
			c.compileGlobalArray(decl)
		}
	}
	for _, d := range prog.Declarations {
		if fn, ok := d.(*ast.Function); ok {
			c.RegisterFunction(fn)
		}
	}

	main, ok := c.funcs["main"]
	if !ok {
		c.internal(ast.Token{}, "program has no main function")
		return
	}
	c.compileMain(main)

	if c.limits.MaxCells > 0 && int(c.alloc.HighWater()) > c.limits.MaxCells {
		c.capacity(ast.Token{}, "program needs %d cells, exceeds the %d-cell limit", c.alloc.HighWater(), c.limits.MaxCells)
	}
}

func (c *Compiler) compileGlobalVar(d *ast.GlobalVar) {
	if c.globals.DefinedInScope(d.Name) {
		c.fail(d.Token, "redeclaration of global %q", d.Name)
		return
	}
	cell := c.alloc.AllocateNamed(1)
	c.globals.Define(symbols.Symbol{Name: d.Name, Type: d.Type, CellIndex: int(cell)})
	if d.Init == nil {
		return
	}
	lit, ok := constByte(d.Init)
	if !ok {
		c.fail(d.Init.Pos(), "global initializer for %q must be a constant literal", d.Name)
		return
	}
	c.setConst(cell, lit)
}

func (c *Compiler) compileGlobalArray(d *ast.GlobalArray) {
	if c.globals.DefinedInScope(d.Name) {
		c.fail(d.Token, "redeclaration of global %q", d.Name)
		return
	}
	arr := types.NewArray(d.Elem, d.Dims)
	base := c.alloc.AllocateNamed(arr.Size())
	c.globals.Define(symbols.Symbol{Name: d.Name, Type: arr, CellIndex: int(base), IsArray: true})
	if d.Init == nil {
		return
	}
	if len(d.Init) > arr.Length {
		c.fail(d.Token, "array initializer for %q has %d elements, exceeds declared length %d", d.Name, len(d.Init), arr.Length)
		return
	}
	for i, expr := range d.Init {
		lit, ok := constByte(expr)
		if !ok {
			c.fail(expr.Pos(), "array initializer elements must be constant literals")
			return
		}
		c.setConst(base+tape.Cell(i), lit)
	}
}

// constByte extracts a literal's compile-time byte value, the only form
// ByteFlow allows for global/array initializers (§4.1): initializers run
// before any function frame exists, so nothing resolvable only at run
// time — an identifier, a call, an operator — is permitted here.
func constByte(e ast.Expression) (byte, bool) {
	switch lit := e.(type) {
	case *ast.IntLit:
		return byte(uint8(lit.Value)), true
	case *ast.CharLit:
		return lit.Value, true
	case *ast.BoolLit:
		if lit.Value {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

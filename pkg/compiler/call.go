package compiler

import (
	"byteflow/pkg/ast"
	"byteflow/pkg/symbols"
	"byteflow/pkg/tape"
)

// RegisterFunction records a function's signature so later call sites can
// resolve it, without compiling its body (bodies are only ever compiled
// inline at a call site, or once for main, §4.4).
func (c *Compiler) RegisterFunction(fn *ast.Function) {
	if builtinNames[fn.Name] {
		c.fail(fn.Token, "%q is a built-in routine and cannot be redeclared", fn.Name)
		return
	}
	if _, exists := c.funcs[fn.Name]; exists {
		c.fail(fn.Token, "redeclaration of function %q", fn.Name)
		return
	}
	c.funcs[fn.Name] = fn
}

// emitCall lowers a call expression (§4.4): ByteFlow has no call
// instruction, so every call site is compiled by inlining the callee's
// body under a fresh frame. Direct or indirect recursion — a name already
// on the inlining stack — is rejected rather than inlined forever.
func (c *Compiler) emitCall(n *ast.CallExpr) tape.Cell {
	if r, ok := c.emitBuiltinCall(n); ok {
		return r
	}

	fn, ok := c.funcs[n.Callee]
	if !ok {
		c.fail(n.Token, "call to undeclared function %q", n.Callee)
		return c.alloc.AllocateTemp()
	}
	if len(n.Args) != len(fn.Params) {
		c.fail(n.Token, "%q expects %d argument(s), got %d", n.Callee, len(fn.Params), len(n.Args))
		return c.alloc.AllocateTemp()
	}
	for _, name := range c.inlining {
		if name == n.Callee {
			c.fail(n.Token, "recursive call to %q: ByteFlow compiles calls by inlining, and cannot inline a call cycle (§4.4)", n.Callee)
			return c.alloc.AllocateTemp()
		}
	}
	if len(c.inlining) >= c.limits.MaxCallDepth {
		c.capacity(n.Token, "call inlining depth exceeds the %d-call limit", c.limits.MaxCallDepth)
		return c.alloc.AllocateTemp()
	}

	return c.inlineCall(n, fn)
}

// inlineCall emits fn's body at the call site under a fresh frame: rf/rv
// plus one cell per parameter, each argument evaluated and moved into its
// parameter cell before the body runs (§3 Tape frame, §4.4).
func (c *Compiler) inlineCall(n *ast.CallExpr, fn *ast.Function) tape.Cell {
	c.pushScope()

	frame := tape.NewFrame(c.pos, len(fn.Params), c.alloc)
	c.setConst(frame.ReturnFlag, 1)

	for i, argExpr := range n.Args {
		arg := c.compileExpr(argExpr)
		c.moveCellInto(frame.Params[i], arg)
		c.alloc.ReleaseTemp(arg)
		c.curScope().Define(symbols.Symbol{
			Name:      fn.Params[i].Name,
			Type:      fn.Params[i].Type,
			CellIndex: int(frame.Params[i]),
			IsParam:   true,
		})
	}

	fctx := &funcCtx{name: n.Callee, fn: fn, rf: frame.ReturnFlag, rv: frame.ReturnValue, retType: fn.RetType}
	c.funcStack = append(c.funcStack, fctx)
	c.inlining = append(c.inlining, n.Callee)

	c.moveTo(frame.ReturnFlag)
	c.buf.OpenLoop(c.line(n.Token))
	c.zeroCell(frame.ReturnFlag)
	c.compileBlockBody(fn.Body.Statements)
	c.moveTo(frame.ReturnFlag)
	c.buf.CloseLoop(c.line(n.Token))

	c.inlining = c.inlining[:len(c.inlining)-1]
	c.funcStack = c.funcStack[:len(c.funcStack)-1]

	result := c.alloc.AllocateTemp()
	c.moveCellInto(result, frame.ReturnValue)

	c.popScope()
	return result
}

// compileMain compiles the program's entry point directly in place,
// rather than inlining it at a call site: main is never called, only run
// (§4.4).
func (c *Compiler) compileMain(fn *ast.Function) {
	if len(fn.Params) != 0 {
		c.fail(fn.Token, "main must take no parameters")
	}
	c.pushScope()

	frame := tape.NewFrame(c.pos, 0, c.alloc)
	c.setConst(frame.ReturnFlag, 1)

	fctx := &funcCtx{name: "main", fn: fn, rf: frame.ReturnFlag, rv: frame.ReturnValue, retType: fn.RetType}
	c.funcStack = append(c.funcStack, fctx)
	c.inlining = append(c.inlining, "main")

	c.moveTo(frame.ReturnFlag)
	c.buf.OpenLoop(c.line(fn.Token))
	c.zeroCell(frame.ReturnFlag)
	c.compileBlockBody(fn.Body.Statements)
	c.moveTo(frame.ReturnFlag)
	c.buf.CloseLoop(c.line(fn.Token))

	c.inlining = c.inlining[:len(c.inlining)-1]
	c.funcStack = c.funcStack[:len(c.funcStack)-1]
	c.zeroCell(frame.ReturnValue)

	c.popScope()
}

package compiler

import (
	"byteflow/pkg/ast"
	"byteflow/pkg/symbols"
	"byteflow/pkg/tape"
	"byteflow/pkg/types"
)

// compileStmt lowers one statement (§4.3), restoring the pointer to the
// work origin on exit so the caller's bookkeeping stays simple.
func (c *Compiler) compileStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.Block:
		c.pushScope()
		c.compileBlockBody(n.Statements)
		c.popScope()
	case *ast.VarDecl:
		c.compileVarDecl(n)
	case *ast.Assign:
		c.compileAssign(n)
	case *ast.If:
		c.compileIf(n)
	case *ast.While:
		c.compileWhile(n.Token, n.Cond, n.Body)
	case *ast.For:
		c.compileFor(n)
	case *ast.Switch:
		c.compileSwitch(n)
	case *ast.Break:
		c.breakOut(n.Token)
	case *ast.Return:
		c.returnFrom(n.Token, n.Value)
	case *ast.ExprStmt:
		r := c.compileExpr(n.Expr)
		c.zeroCell(r)
		c.alloc.ReleaseTemp(r)
	case *ast.Call:
		r := c.emitCall(n.Expr)
		c.restOrigin()
		c.zeroCell(r)
		c.alloc.ReleaseTemp(r)
	default:
		c.internal(s.Pos(), "unhandled statement node %T", s)
	}
	c.restOrigin()
}

func (c *Compiler) compileVarDecl(n *ast.VarDecl) {
	if c.curScope().DefinedInScope(n.Name) {
		c.fail(n.Token, "redeclaration of %q in this scope", n.Name)
		return
	}
	if n.Dims != nil {
		arr := n.Type.(*types.Array)
		cell := c.alloc.AllocateNamed(arr.Size())
		c.curScope().Define(symbols.Symbol{Name: n.Name, Type: arr, CellIndex: int(cell), IsArray: true})
		return
	}
	cell := c.alloc.AllocateNamed(1)
	c.curScope().Define(symbols.Symbol{Name: n.Name, Type: n.Type, CellIndex: int(cell)})
	if n.Init != nil {
		r := c.compileExpr(n.Init)
		c.moveCellInto(cell, r)
		c.alloc.ReleaseTemp(r)
	}
}

func (c *Compiler) compileAssign(n *ast.Assign) {
	value := c.compileExpr(n.Value)
	switch target := n.Target.(type) {
	case *ast.Ident:
		sym, ok := c.resolve(target.Name)
		if !ok {
			c.fail(target.Token, "undeclared identifier %q", target.Name)
			c.zeroCell(value)
			c.alloc.ReleaseTemp(value)
			return
		}
		cell := tape.Cell(sym.CellIndex)
		c.zeroCell(cell)
		c.moveCellInto(cell, value)
	case *ast.Index:
		c.emitIndexWrite(target, value)
	default:
		c.internal(n.Token, "unsupported assignment target %T", n.Target)
	}
}

// compileIf lowers if/else with the canonical two-flag-cell pattern
// (§4.3): the condition cell itself gates the then-branch, and a
// separate else-flag (cleared only if the then-branch ran) gates the
// else-branch.
func (c *Compiler) compileIf(n *ast.If) {
	cond := c.compileExpr(n.Cond)
	elseFlag := c.alloc.AllocateTemp()
	c.setConst(elseFlag, 1)

	c.moveTo(cond)
	c.buf.OpenLoop(c.line(n.Token))
	c.zeroCell(cond)
	c.pushScope()
	c.compileBlockBody(stmtsOf(n.Then))
	c.popScope()
	c.zeroCell(elseFlag)
	c.moveTo(cond)
	c.buf.CloseLoop(c.line(n.Token))

	if n.Else != nil {
		c.moveTo(elseFlag)
		c.buf.OpenLoop(c.line(n.Token))
		c.zeroCell(elseFlag)
		c.pushScope()
		c.compileBlockBody(stmtsOf(n.Else))
		c.popScope()
		c.moveTo(elseFlag)
		c.buf.CloseLoop(c.line(n.Token))
	}

	c.zeroCell(elseFlag)
	c.alloc.ReleaseTemp(elseFlag)
	c.alloc.ReleaseTemp(cond)
}

// compileWhile lowers while(cond) body (§4.3): cond is re-evaluated into
// the same cell each pass, gated so that a break (recorded in
// brokenFlag) stops the re-arm instead of looping forever.
func (c *Compiler) compileWhile(tok ast.Token, condExpr ast.Expression, body ast.Statement) {
	cond := c.alloc.AllocateTemp()
	c.moveCondInto(cond, condExpr)

	c.moveTo(cond)
	c.buf.OpenLoop(c.line(tok))
	c.zeroCell(cond)

	brokenFlag := c.alloc.AllocateTemp()
	c.setConst(brokenFlag, 1)
	f := c.curFunc()
	f.loops = append(f.loops, loopCtx{brokenFlag: brokenFlag, blockDepth: len(f.blockFlags)})

	c.pushScope()
	c.compileBlockBody(stmtsOf(body))
	c.popScope()

	f.loops = f.loops[:len(f.loops)-1]

	trigger := c.alloc.AllocateTemp()
	c.copyCell(trigger, brokenFlag)
	c.moveTo(trigger)
	c.buf.OpenLoop(c.line(tok))
	c.zeroCell(trigger)
	c.moveCondInto(cond, condExpr)
	c.moveTo(trigger)
	c.buf.CloseLoop(c.line(tok))
	c.alloc.ReleaseTemp(trigger)
	c.zeroCell(brokenFlag)
	c.alloc.ReleaseTemp(brokenFlag)

	c.moveTo(cond)
	c.buf.CloseLoop(c.line(tok))
	c.alloc.ReleaseTemp(cond)
}

// moveCondInto evaluates condExpr into a fresh temp and moves its value
// into cond (cond assumed zero), so repeated re-evaluation never leaks a
// temporary.
func (c *Compiler) moveCondInto(cond tape.Cell, condExpr ast.Expression) {
	r := c.compileExpr(condExpr)
	c.moveCellInto(cond, r)
	c.alloc.ReleaseTemp(r)
}

// compileFor desugars for(init; cond; step) body into init followed by
// an equivalent while (§4.3), within its own scope so init's declared
// variable is block-scoped to the loop.
func (c *Compiler) compileFor(n *ast.For) {
	c.pushScope()
	if n.Init != nil {
		c.compileStmt(n.Init)
	}
	bodyStmts := stmtsOf(n.Body)
	if n.Step != nil {
		bodyStmts = append(append([]ast.Statement{}, bodyStmts...), n.Step)
	}
	c.compileWhile(n.Token, n.Cond, &ast.Block{Token: n.Token, Statements: bodyStmts})
	c.popScope()
}

// compileSwitch lowers switch(v) as a chain of if/else on copies of v
// (§4.3), without fallthrough between cases (an Open Question the
// emitter resolves in favor of the simpler, explicit-break-per-case
// model). break inside a case body is legal; it only needs to unwind
// that case's own block flags, since there is nothing after it within
// the switch to skip.
func (c *Compiler) compileSwitch(n *ast.Switch) {
	f := c.curFunc()
	dummyBroken := c.alloc.AllocateTemp()
	c.setConst(dummyBroken, 1)
	f.loops = append(f.loops, loopCtx{brokenFlag: dummyBroken, blockDepth: len(f.blockFlags)})

	v := c.compileExpr(n.Value)
	c.compileSwitchChain(v, n.Cases)
	c.zeroCell(v)
	c.alloc.ReleaseTemp(v)

	f.loops = f.loops[:len(f.loops)-1]
	c.zeroCell(dummyBroken)
	c.alloc.ReleaseTemp(dummyBroken)
}

// compileSwitchChain compares the already-evaluated switch value v
// (preserved across comparisons, never consumed) against each case in
// turn.
func (c *Compiler) compileSwitchChain(v tape.Cell, cases []ast.SwitchCase) {
	if len(cases) == 0 {
		return
	}
	head := cases[0]
	if head.IsDefault {
		c.pushScope()
		c.compileBlockBody(head.Body)
		c.popScope()
		return
	}

	caseVal := c.compileExpr(head.Value)
	match := c.alloc.AllocateTemp()
	c.eq(match, v, caseVal)
	c.zeroCell(caseVal)
	c.alloc.ReleaseTemp(caseVal)

	elseFlag := c.alloc.AllocateTemp()
	c.setConst(elseFlag, 1)

	c.moveTo(match)
	c.buf.OpenLoop(0)
	c.zeroCell(match)
	c.pushScope()
	c.compileBlockBody(head.Body)
	c.popScope()
	c.zeroCell(elseFlag)
	c.moveTo(match)
	c.buf.CloseLoop(0)

	c.moveTo(elseFlag)
	c.buf.OpenLoop(0)
	c.zeroCell(elseFlag)
	c.compileSwitchChain(v, cases[1:])
	c.moveTo(elseFlag)
	c.buf.CloseLoop(0)

	c.zeroCell(elseFlag)
	c.alloc.ReleaseTemp(elseFlag)
	c.alloc.ReleaseTemp(match)
}

package compiler

import "byteflow/pkg/tape"

// nonzero sets dst (assumed zero) to 1 if src is nonzero, 0 otherwise,
// without disturbing src: it drains a copy of src instead of src
// itself. Re-asserting dst on every pass of the drain loop (rather than
// incrementing) keeps the result 0/1 regardless of how large src's
// value was.
func (c *Compiler) nonzero(dst, src tape.Cell) {
	scratch := c.alloc.AllocateTemp()
	c.copyCell(scratch, src)
	c.moveTo(scratch)
	c.buf.OpenLoop(0)
	c.zeroCell(dst)
	c.incCell(dst)
	c.decCell(scratch)
	c.moveTo(scratch)
	c.buf.CloseLoop(0)
	c.alloc.ReleaseTemp(scratch)
}

// notFlag sets dst to the logical negation of the 0/1 flag src, leaving
// src at 0 (src is consumed; callers pass a disposable temp).
func (c *Compiler) notFlag(dst, src tape.Cell) {
	c.setConst(dst, 1)
	c.moveTo(src)
	c.buf.OpenLoop(0)
	c.zeroCell(dst)
	c.decCell(src)
	c.moveTo(src)
	c.buf.CloseLoop(0)
}

// andFlags sets dst to 1 iff both 0/1 flags a and b are nonzero,
// consuming both.
func (c *Compiler) andFlags(dst, a, b tape.Cell) {
	c.moveTo(a)
	c.buf.OpenLoop(0)
	c.zeroCell(a)
	c.moveTo(b)
	c.buf.OpenLoop(0)
	c.zeroCell(b)
	c.setConst(dst, 1)
	c.moveTo(b)
	c.buf.CloseLoop(0)
	c.moveTo(a)
	c.buf.CloseLoop(0)
	c.zeroCell(b)
}

// orFlags sets dst to 1 iff either 0/1 flag a or b is nonzero, consuming
// both.
func (c *Compiler) orFlags(dst, a, b tape.Cell) {
	c.moveTo(a)
	c.buf.OpenLoop(0)
	c.zeroCell(a)
	c.setConst(dst, 1)
	c.moveTo(a)
	c.buf.CloseLoop(0)
	c.moveTo(b)
	c.buf.OpenLoop(0)
	c.zeroCell(b)
	c.setConst(dst, 1)
	c.moveTo(b)
	c.buf.CloseLoop(0)
}

// order runs the classic decrement-race comparison: copies of a and b
// are decremented together while both remain nonzero; whichever is left
// nonzero afterward identifies the larger operand. gt/dst and lt/dst are
// assumed zero on entry. a and b themselves are left untouched.
func (c *Compiler) order(gt, lt, a, b tape.Cell) {
	ca := c.alloc.AllocateTemp()
	cb := c.alloc.AllocateTemp()
	c.copyCell(ca, a)
	c.copyCell(cb, b)

	both := c.alloc.AllocateTemp()
	c.raceStep(both, ca, cb)
	c.moveTo(both)
	c.buf.OpenLoop(0)
	c.zeroCell(both)
	c.decCell(ca)
	c.decCell(cb)
	c.raceStep(both, ca, cb)
	c.moveTo(both)
	c.buf.CloseLoop(0)
	c.alloc.ReleaseTemp(both)

	c.nonzero(gt, ca)
	c.nonzero(lt, cb)
	c.zeroCell(ca)
	c.zeroCell(cb)
	c.alloc.ReleaseTemp(cb)
	c.alloc.ReleaseTemp(ca)
}

// raceStep sets dst (assumed zero) to 1 iff both ca and cb are still
// nonzero, the per-iteration condition order's decrement race loops on.
func (c *Compiler) raceStep(dst, ca, cb tape.Cell) {
	nzA := c.alloc.AllocateTemp()
	nzB := c.alloc.AllocateTemp()
	c.nonzero(nzA, ca)
	c.nonzero(nzB, cb)
	c.andFlags(dst, nzA, nzB)
	c.alloc.ReleaseTemp(nzB)
	c.alloc.ReleaseTemp(nzA)
}

// mulInto computes dst (assumed zero) = a*b using the standard
// nested-loop tape-machine multiplication template (§4.2): a copy of a
// is consumed as the iteration counter, and b is added into dst via the
// copy idiom on each pass. a and b are left unchanged.
func (c *Compiler) mulInto(dst, a, b tape.Cell) {
	ca := c.alloc.AllocateTemp()
	c.copyCell(ca, a)
	c.moveTo(ca)
	c.buf.OpenLoop(0)
	c.decCell(ca)
	c.copyCell(dst, b)
	c.moveTo(ca)
	c.buf.CloseLoop(0)
	c.alloc.ReleaseTemp(ca)
}

// divMod computes quotient (q) and remainder (r), both assumed zero, as
// a/b and a%b via repeated subtraction guarded by the decrement-race
// comparison (§4.2 "standard tape-machine... division patterns"). a and
// b are left unchanged. No division-by-zero guard is emitted: if b is
// zero, r >= b holds on every pass and the emitted loop never
// terminates.
func (c *Compiler) divMod(q, r, a, b tape.Cell) {
	c.copyCell(r, a)

	geFlag := c.alloc.AllocateTemp()
	c.ge(geFlag, r, b)
	c.moveTo(geFlag)
	c.buf.OpenLoop(0)
	c.zeroCell(geFlag)
	c.subInto(r, b)
	c.incCell(q)
	c.ge(geFlag, r, b)
	c.moveTo(geFlag)
	c.buf.CloseLoop(0)
	c.alloc.ReleaseTemp(geFlag)
}

// subInto computes dst -= src (mod 256), leaving src unchanged.
func (c *Compiler) subInto(dst, src tape.Cell) {
	scratch := c.alloc.AllocateTemp()
	c.copyCell(scratch, src)
	c.moveTo(scratch)
	c.buf.OpenLoop(0)
	c.decCell(scratch)
	c.decCell(dst)
	c.moveTo(scratch)
	c.buf.CloseLoop(0)
	c.alloc.ReleaseTemp(scratch)
}

// eq/ne/lt/le/gt/ge each set dst (assumed zero) to a 0/1 comparison of
// a and b, leaving a and b unchanged.

func (c *Compiler) eq(dst, a, b tape.Cell) {
	gt := c.alloc.AllocateTemp()
	lt := c.alloc.AllocateTemp()
	c.order(gt, lt, a, b)
	either := c.alloc.AllocateTemp()
	c.orFlags(either, gt, lt)
	c.notFlag(dst, either)
	c.alloc.ReleaseTemp(either)
	c.alloc.ReleaseTemp(lt)
	c.alloc.ReleaseTemp(gt)
}

func (c *Compiler) ne(dst, a, b tape.Cell) {
	gt := c.alloc.AllocateTemp()
	lt := c.alloc.AllocateTemp()
	c.order(gt, lt, a, b)
	c.orFlags(dst, gt, lt)
	c.alloc.ReleaseTemp(lt)
	c.alloc.ReleaseTemp(gt)
}

func (c *Compiler) lt(dst, a, b tape.Cell) {
	gt := c.alloc.AllocateTemp()
	c.order(gt, dst, a, b)
	c.zeroCell(gt)
	c.alloc.ReleaseTemp(gt)
}

func (c *Compiler) gt(dst, a, b tape.Cell) {
	lt := c.alloc.AllocateTemp()
	c.order(dst, lt, a, b)
	c.zeroCell(lt)
	c.alloc.ReleaseTemp(lt)
}

func (c *Compiler) le(dst, a, b tape.Cell) {
	gt := c.alloc.AllocateTemp()
	lt := c.alloc.AllocateTemp()
	c.order(gt, lt, a, b)
	c.zeroCell(lt)
	c.alloc.ReleaseTemp(lt)
	c.notFlag(dst, gt)
	c.alloc.ReleaseTemp(gt)
}

func (c *Compiler) ge(dst, a, b tape.Cell) {
	gt := c.alloc.AllocateTemp()
	lt := c.alloc.AllocateTemp()
	c.order(gt, lt, a, b)
	c.zeroCell(gt)
	c.alloc.ReleaseTemp(gt)
	c.notFlag(dst, lt)
	c.alloc.ReleaseTemp(lt)
}

// Package tape implements component T: the cell-allocation discipline
// the code generator uses to hand out tape cells. It tracks a
// monotonically increasing watermark for the current scope plus a LIFO
// free list of released temporaries (§4.1), the same stack-with-free-list
// shape a register allocator uses, just over an unbounded tape instead
// of a fixed register file.
package tape

import "go.uber.org/zap"

// Cell is an absolute tape cell index.
type Cell int

// Allocator hands out cell indices for one function frame (or the global
// frame) and tracks live scopes so enterScope/exitScope can restore the
// watermark and zero anything that went out of scope (§4.1).
type Allocator struct {
	base      Cell // first cell belonging to this frame
	watermark Cell // next unused cell, relative to base
	highWater Cell // largest watermark ever reached, for reporting/metrics

	freeTemps []Cell // LIFO free list of released temporaries, relative to base

	scopeStack []Cell // watermark saved at each enterScope, relative to base

	log *zap.Logger
}

// New creates an allocator for a frame starting at base. Pass
// zap.NewNop() when no logging is wanted.
func New(base Cell, log *zap.Logger) *Allocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Allocator{base: base, log: log}
}

// Base returns this frame's starting cell.
func (a *Allocator) Base() Cell { return a.base }

// HighWater returns the largest number of cells ever live at once in
// this frame, i.e. the frame size the caller must reserve.
func (a *Allocator) HighWater() Cell { return a.highWater }

func (a *Allocator) bump(n Cell) Cell {
	c := a.watermark
	a.watermark += n
	if a.watermark > a.highWater {
		a.highWater = a.watermark
	}
	return c
}

// AllocateNamed reserves width contiguous cells at the top of the
// current scope for a named symbol (width is 1 for scalars, N for an
// array of N elements). It never reuses a freed temporary, because
// named symbols must stay at a fixed cell for the rest of their scope.
func (a *Allocator) AllocateNamed(width int) Cell {
	if width <= 0 {
		width = 1
	}
	c := a.bump(Cell(width))
	a.log.Debug("allocate named", zap.Int("cell", int(a.base+c)), zap.Int("width", width))
	return a.base + c
}

// AllocateTemp acquires one scratch cell for an expression intermediate,
// preferring the most recently released temp (LIFO, §3 "Lifecycles").
func (a *Allocator) AllocateTemp() Cell {
	if n := len(a.freeTemps); n > 0 {
		c := a.freeTemps[n-1]
		a.freeTemps = a.freeTemps[:n-1]
		a.log.Debug("reuse temp", zap.Int("cell", int(a.base+c)))
		return a.base + c
	}
	c := a.bump(1)
	a.log.Debug("allocate temp", zap.Int("cell", int(a.base+c)))
	return a.base + c
}

// ReleaseTemp returns a temporary cell to the free list for LIFO reuse.
// The caller must have already emitted code zeroing the cell (§3
// invariant: cells not currently live MUST be zero).
func (a *Allocator) ReleaseTemp(c Cell) {
	rel := c - a.base
	a.freeTemps = append(a.freeTemps, rel)
	a.log.Debug("release temp", zap.Int("cell", int(c)))
}

// EnterScope opens a nested scope (function body, block, loop body) by
// recording the current watermark to restore on ExitScope.
func (a *Allocator) EnterScope() {
	a.scopeStack = append(a.scopeStack, a.watermark)
}

// ExitScope closes the most recently opened scope. It returns the
// half-open cell range [from, to) that belongs only to the scope being
// exited; the caller (component C) must emit zeroing code for each cell
// in that range before the watermark is actually lowered, since those
// cells must read as zero to any sibling scope that reuses them (§3
// invariant, §4.1).
func (a *Allocator) ExitScope() (from, to Cell) {
	n := len(a.scopeStack)
	if n == 0 {
		panic("tape: ExitScope without matching EnterScope")
	}
	saved := a.scopeStack[n-1]
	a.scopeStack = a.scopeStack[:n-1]
	from, to = a.base+saved, a.base+a.watermark
	a.watermark = saved
	// Any free temp cell above the restored watermark belonged only to
	// the scope being discarded and must not be handed out again under
	// a stale relative index.
	kept := a.freeTemps[:0]
	for _, c := range a.freeTemps {
		if c < saved {
			kept = append(kept, c)
		}
	}
	a.freeTemps = kept
	a.log.Debug("exit scope", zap.Int("from", int(from)), zap.Int("to", int(to)))
	return from, to
}

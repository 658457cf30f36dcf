// Package optimizer implements component O: a fixed-point peephole pass
// over the linear instruction buffer (§4.5). It removes '.' or ',' only
// inside a loop that can never be entered (see removeDeadZeroLoops), and
// never leaves brackets unbalanced.
package optimizer

import (
	"go.uber.org/zap"

	"byteflow/pkg/emit"
)

// Stats reports how many rewrites each rule applied, surfaced through
// -v via pkg/metrics.
type Stats struct {
	Cancellations  int
	ZeroLoopMerges int
	DeadZeroLoops  int
}

// Optimize rewrites buf to a fixed point and returns the rewrite counts.
// It mutates buf in place, matching §5's "O rewrites it in place after
// both finish" contract. Running Optimize again on an already-optimized
// buffer performs zero rewrites (§8 "Idempotence of optimization").
func Optimize(buf *emit.Buffer, log *zap.Logger) Stats {
	if log == nil {
		log = zap.NewNop()
	}
	var total Stats
	for {
		c := cancelInverses(buf)
		m := mergeAdjacentZeroLoops(buf)
		d := removeDeadZeroLoops(buf)
		total.Cancellations += c
		total.ZeroLoopMerges += m
		total.DeadZeroLoops += d
		if c == 0 && m == 0 && d == 0 {
			break
		}
	}
	log.Debug("peephole optimization complete",
		zap.Int("cancellations", total.Cancellations),
		zap.Int("zero_loop_merges", total.ZeroLoopMerges),
		zap.Int("dead_zero_loops", total.DeadZeroLoops),
	)
	return total
}

// cancelInverses removes adjacent "+-", "-+", "><", "<>" pairs, which
// cancel to a no-op under the tape-machine semantics (§4.5). Iterating
// this to a fixed point (the caller's responsibility) also folds any
// longer run of pointer or increment/decrement motion down to its net
// effect, e.g. ">>><<" -> ">" over successive passes.
func cancelInverses(buf *emit.Buffer) int {
	removed := 0
	out := buf.Instrs[:0:0]
	for i := 0; i < len(buf.Instrs); i++ {
		if i+1 < len(buf.Instrs) && cancels(buf.Instrs[i].Op, buf.Instrs[i+1].Op) {
			removed++
			i++ // skip both
			continue
		}
		out = append(out, buf.Instrs[i])
	}
	buf.Instrs = out
	return removed
}

func cancels(a, b byte) bool {
	switch {
	case a == emit.Inc && b == emit.Dec:
		return true
	case a == emit.Dec && b == emit.Inc:
		return true
	case a == emit.Right && b == emit.Left:
		return true
	case a == emit.Left && b == emit.Right:
		return true
	default:
		return false
	}
}

// isZeroLoop reports whether instructions starting at i form the
// canonical "[-]" zero idiom: Open, Dec, Close.
func isZeroLoop(ins []emit.Instr, i int) bool {
	return i+2 < len(ins) && ins[i].Op == emit.Open && ins[i+1].Op == emit.Dec && ins[i+2].Op == emit.Close
}

// mergeAdjacentZeroLoops collapses a run of consecutive "[-]" idioms
// into a single one: each extra loop re-zeroes a cell the previous one
// already zeroed, with the pointer stationary between them, so every
// repeat after the first is a no-op (§4.5).
func mergeAdjacentZeroLoops(buf *emit.Buffer) int {
	removed := 0
	out := buf.Instrs[:0:0]
	i := 0
	for i < len(buf.Instrs) {
		if isZeroLoop(buf.Instrs, i) {
			out = append(out, buf.Instrs[i], buf.Instrs[i+1], buf.Instrs[i+2])
			i += 3
			for isZeroLoop(buf.Instrs, i) {
				removed += 3
				i += 3
			}
			continue
		}
		out = append(out, buf.Instrs[i])
		i++
	}
	buf.Instrs = out
	return removed
}

// removeDeadZeroLoops drops any "[...]" loop the tape-machine contract
// guarantees is dead: the very first loop in the whole program (the
// tape starts all-zero at cell 0, §6), or a loop immediately following
// another zero-loop with no intervening pointer move (its guard cell is
// provably already zero, since mergeAdjacentZeroLoops has already run
// and this loop's opening bracket sits right after a "[-]" close).
// Removing a dead loop drops its whole bracket-balanced body, including
// any '.'/',' inside: those never execute, since the loop body is never
// entered, so removal does not change observable output.
func removeDeadZeroLoops(buf *emit.Buffer) int {
	ins := buf.Instrs
	removed := 0

	// Dead at program start: cell 0 reads zero until touched.
	if len(ins) > 0 && ins[0].Op == emit.Open {
		if end, ok := matchingClose(ins, 0); ok {
			removed += end + 1
			ins = append([]emit.Instr{}, ins[end+1:]...)
		}
	}

	out := ins[:0:0]
	for i := 0; i < len(ins); i++ {
		precededByZeroLoop := i >= 3 && isZeroLoop(ins, i-3)
		if precededByZeroLoop && ins[i].Op == emit.Open {
			if end, ok := matchingClose(ins, i); ok {
				removed += end - i + 1
				i = end
				continue
			}
		}
		out = append(out, ins[i])
	}
	buf.Instrs = out
	return removed
}

// matchingClose finds the index of the ']' matching the '[' at openIdx.
func matchingClose(ins []emit.Instr, openIdx int) (int, bool) {
	depth := 0
	for i := openIdx; i < len(ins); i++ {
		switch ins[i].Op {
		case emit.Open:
			depth++
		case emit.Close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

package tape

// Frame describes one function invocation's region of the tape:
// [return_flag | return_value | param_1 … param_k | locals… | temps…]
// (§3 Tape frame, §4.4). The frame base is known only at compile time —
// it is never stored on the tape itself.
type Frame struct {
	Base      Cell
	ReturnFlag  Cell // rf: 1 while the function body is still running
	ReturnValue Cell // rv: holds the callee's result on exit
	Params      []Cell
	Alloc       *Allocator
}

// NewFrame reserves the fixed rf/rv/param prefix of a new frame from
// alloc, at alloc's current watermark, and returns a Frame whose Alloc
// hands out locals and temporaries after the parameters. base is only
// recorded in Base; it does not choose the cells.
func NewFrame(base Cell, paramCount int, alloc *Allocator) *Frame {
	f := &Frame{Base: base, Alloc: alloc}
	f.ReturnFlag = alloc.AllocateNamed(1)
	f.ReturnValue = alloc.AllocateNamed(1)
	f.Params = make([]Cell, paramCount)
	for i := range f.Params {
		f.Params[i] = alloc.AllocateNamed(1)
	}
	return f
}

// Size returns Alloc's high-water mark. When Alloc is shared with other
// frames (as in pkg/compiler), that covers every cell the allocator has
// handed out, not only this frame's.
func (f *Frame) Size() Cell {
	return f.Alloc.HighWater()
}

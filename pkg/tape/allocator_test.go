package tape

import (
	"testing"

	"go.uber.org/zap"
)

func TestSequentialNamedAllocation(t *testing.T) {
	a := New(0, zap.NewNop())

	c1 := a.AllocateNamed(1)
	if c1 != 0 {
		t.Errorf("expected first named cell to be 0, got %d", c1)
	}
	c2 := a.AllocateNamed(2)
	if c2 != 1 {
		t.Errorf("expected second named cell to be 1, got %d", c2)
	}
	if a.HighWater() != 3 {
		t.Errorf("expected high water 3, got %d", a.HighWater())
	}
}

func TestTempReuseIsLIFO(t *testing.T) {
	a := New(0, zap.NewNop())

	t1 := a.AllocateTemp()
	t2 := a.AllocateTemp()
	a.ReleaseTemp(t2)
	a.ReleaseTemp(t1)

	// LIFO: the most recently released temp (t1) comes back first.
	if got := a.AllocateTemp(); got != t1 {
		t.Errorf("expected LIFO reuse to return %d, got %d", t1, got)
	}
	if got := a.AllocateTemp(); got != t2 {
		t.Errorf("expected LIFO reuse to return %d, got %d", t2, got)
	}
}

func TestNamedAllocationNeverReusesFreedTemps(t *testing.T) {
	a := New(0, zap.NewNop())

	temp := a.AllocateTemp()
	a.ReleaseTemp(temp)

	named := a.AllocateNamed(1)
	if named == temp {
		t.Errorf("AllocateNamed must not reuse a freed temp cell")
	}
}

func TestScopeExitRestoresWatermarkAndZone(t *testing.T) {
	a := New(0, zap.NewNop())
	a.AllocateNamed(1) // simulate one outer-scope local

	a.EnterScope()
	a.AllocateNamed(1)
	a.AllocateNamed(1)
	from, to := a.ExitScope()

	if from != 1 || to != 3 {
		t.Errorf("expected exited range [1,3), got [%d,%d)", from, to)
	}

	// The watermark must be back where it was before EnterScope, so the
	// next allocation reuses the same cells the exited scope just freed.
	next := a.AllocateNamed(1)
	if next != 1 {
		t.Errorf("expected watermark restored to 1, got %d", next)
	}
}

func TestScopeExitDiscardsTempsAllocatedInsideIt(t *testing.T) {
	a := New(0, zap.NewNop())

	a.EnterScope()
	inner := a.AllocateTemp()
	a.ReleaseTemp(inner)
	a.ExitScope()

	// inner's relative index belonged only to the discarded scope; a
	// fresh temp afterward must not silently hand back a stale index
	// above the restored watermark.
	fresh := a.AllocateTemp()
	if fresh != 0 {
		t.Errorf("expected fresh temp at cell 0 after scope exit, got %d", fresh)
	}
}

func TestBaseOffsetsEveryAllocation(t *testing.T) {
	a := New(10, zap.NewNop())
	if got := a.AllocateNamed(1); got != 10 {
		t.Errorf("expected base-relative cell 10, got %d", got)
	}
	if a.Base() != 10 {
		t.Errorf("expected Base() == 10, got %d", a.Base())
	}
}

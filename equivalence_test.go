package xdcopy

import "testing"

func TestIsEquivalentPlanMatchesEndpoints(t *testing.T) {
	src := NewLayout(0x1000, 0, 1024)
	tgt := NewLayout(0x2000, 0, 1024)
	spec := NewCopySpec(Device(0), src, Device(1), tgt, PropNone)
	plan := CopyPlan{spec}
	if !IsEquivalentPlan(plan, spec) {
		t.Error("expected identity plan to be equivalent to its own spec")
	}
}

func TestIsEquivalentPlanRejectsEmptyPlan(t *testing.T) {
	src := NewLayout(0x1000, 0, 1024)
	tgt := NewLayout(0x2000, 0, 1024)
	spec := NewCopySpec(Device(0), src, Device(1), tgt, PropNone)
	if IsEquivalentPlan(nil, spec) {
		t.Error("expected empty plan to not be equivalent")
	}
}

func TestIsEquivalentPlanRejectsWrongEndpoint(t *testing.T) {
	src := NewLayout(0x1000, 0, 1024)
	tgt := NewLayout(0x2000, 0, 1024)
	other := NewLayout(0x3000, 0, 1024)
	spec := NewCopySpec(Device(0), src, Device(1), tgt, PropNone)
	plan := CopyPlan{NewCopySpec(Device(0), src, Device(1), other, PropNone)}
	if IsEquivalentPlan(plan, spec) {
		t.Error("expected plan with mismatched target layout to not be equivalent")
	}
}

func TestIsEquivalentSetCoversWholeRange(t *testing.T) {
	src := NewLayout(0x1000, 0, 1024)
	tgt := NewLayout(0x2000, 0, 1024)
	spec := NewCopySpec(Device(0), src, Device(1), tgt, PropNone)

	chunkA := NewCopySpec(Device(0), NewLayout(0x1000, 0, 512), Device(1), NewLayout(0x2000, 0, 512), PropNone)
	chunkB := NewCopySpec(Device(0), NewLayout(0x1000, 512, 512), Device(1), NewLayout(0x2000, 512, 512), PropNone)
	set := NewParallelCopySet(CopyPlan{chunkA}, CopyPlan{chunkB})

	if !IsEquivalentSet(set, spec) {
		t.Error("expected two contiguous half-chunks to cover the full spec")
	}
}

func TestIsEquivalentSetDetectsGap(t *testing.T) {
	src := NewLayout(0x1000, 0, 1024)
	tgt := NewLayout(0x2000, 0, 1024)
	spec := NewCopySpec(Device(0), src, Device(1), tgt, PropNone)

	chunkA := NewCopySpec(Device(0), NewLayout(0x1000, 0, 256), Device(1), NewLayout(0x2000, 0, 256), PropNone)
	set := NewParallelCopySet(CopyPlan{chunkA})

	if IsEquivalentSet(set, spec) {
		t.Error("expected partial coverage to not be equivalent")
	}
}

func TestIsEquivalentSetRejectsWrongBase(t *testing.T) {
	src := NewLayout(0x1000, 0, 1024)
	tgt := NewLayout(0x2000, 0, 1024)
	spec := NewCopySpec(Device(0), src, Device(1), tgt, PropNone)

	wrongBase := NewCopySpec(Device(0), NewLayout(0x9999, 0, 1024), Device(1), tgt, PropNone)
	set := NewParallelCopySet(CopyPlan{wrongBase})

	if IsEquivalentSet(set, spec) {
		t.Error("expected plan with a different source base to not be equivalent")
	}
}

package xdcopy

import "testing"

func TestParallelCopySetHashStableAcrossInsertOrder(t *testing.T) {
	a := NewCopySpec(Device(0), NewLayout(0x1000, 0, 1024), Device(1), NewLayout(0x2000, 0, 1024), PropNone)
	b := NewCopySpec(Device(0), NewLayout(0x1000, 1024, 512), Device(1), NewLayout(0x2000, 1024, 512), PropNone)

	set1 := NewParallelCopySet(CopyPlan{a}, CopyPlan{b})
	set2 := NewParallelCopySet(CopyPlan{b}, CopyPlan{a})

	if set1.Hash() != set2.Hash() {
		t.Errorf("expected hash to be stable across plan insertion order: %d vs %d", set1.Hash(), set2.Hash())
	}
}

func TestParallelCopySetHashDiffersOnContent(t *testing.T) {
	a := NewCopySpec(Device(0), NewLayout(0x1000, 0, 1024), Device(1), NewLayout(0x2000, 0, 1024), PropNone)
	b := NewCopySpec(Device(0), NewLayout(0x1000, 0, 512), Device(1), NewLayout(0x2000, 0, 512), PropNone)

	set1 := NewParallelCopySet(CopyPlan{a})
	set2 := NewParallelCopySet(CopyPlan{b})

	if set1.Hash() == set2.Hash() {
		t.Error("expected different plan content to produce different hashes")
	}
}

func TestParallelCopySetHashDistinguishesStagingFromRealBase(t *testing.T) {
	real := NewCopySpec(Device(0), NewLayout(0x1000, 0, 1024), Device(1), NewLayout(0x2000, 0, 1024), PropNone)
	staged := NewCopySpec(Device(0), NewStagingLayout(StagingID{Device: Device(0), Index: 1}, 0, 1024), Device(1), NewLayout(0x2000, 0, 1024), PropNone)

	set1 := NewParallelCopySet(CopyPlan{real})
	set2 := NewParallelCopySet(CopyPlan{staged})

	if set1.Hash() == set2.Hash() {
		t.Error("expected a staging-based layout to hash differently from a real-address layout")
	}
}

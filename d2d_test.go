package xdcopy

import "testing"

func TestApplyD2DImplementationDirectLeavesStepsUnchanged(t *testing.T) {
	src := NewLayout(0x1000, 0, 1024)
	tgt := NewLayout(0x2000, 0, 1024)
	spec := NewCopySpec(Device(0), src, Device(1), tgt, PropNone)
	plan := CopyPlan{spec}

	got, err := ApplyD2DImplementation(plan, D2DDirect, NewBasicStagingProvider())
	if err != nil {
		t.Fatalf("ApplyD2DImplementation: %v", err)
	}
	if !got.Equal(plan) {
		t.Errorf("D2DDirect should leave the plan unchanged, got %v", got)
	}
}

// S5 — host-hop D2D.
func TestApplyD2DImplementationHostAtSource(t *testing.T) {
	layout := NewLayout(0x1000, 0, 1024)
	spec := NewCopySpec(Device(0), layout, Device(1), layout, PropNone)
	plan := CopyPlan{spec}

	got, err := ApplyD2DImplementation(plan, HostAtSource, NewBasicStagingProvider())
	if err != nil {
		t.Fatalf("ApplyD2DImplementation: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(plan) = %d, want 2", len(got))
	}
	first, second := got[0], got[1]
	if first.SourceDevice != Device(0) || first.TargetDevice != Host {
		t.Errorf("first step should go source-device -> host, got %v -> %v", first.SourceDevice, first.TargetDevice)
	}
	if !first.TargetLayout.IsUnplacedStaging() || !first.TargetLayout.StagingHandle().OnHost {
		t.Error("first step's target should be a host-resident staging handle")
	}
	if first.TargetLayout.StagingHandle().Device != Device(0) {
		t.Errorf("staging handle should be tagged with the source device, got %v", first.TargetLayout.StagingHandle().Device)
	}
	if second.SourceDevice != Host || second.TargetDevice != Device(1) {
		t.Errorf("second step should go host -> target-device, got %v -> %v", second.SourceDevice, second.TargetDevice)
	}
	if !second.SourceLayout.Equal(first.TargetLayout) {
		t.Error("second step's source should be the first step's target (the staging buffer)")
	}
	if !IsEquivalentPlan(got, spec) {
		t.Error("expanded plan should be equivalent to spec (P4)")
	}
}

func TestApplyD2DImplementationHostAtTarget(t *testing.T) {
	layout := NewLayout(0x1000, 0, 1024)
	spec := NewCopySpec(Device(0), layout, Device(1), layout, PropNone)
	plan := CopyPlan{spec}

	got, err := ApplyD2DImplementation(plan, HostAtTarget, NewBasicStagingProvider())
	if err != nil {
		t.Fatalf("ApplyD2DImplementation: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(plan) = %d, want 2", len(got))
	}
	if got[0].TargetLayout.StagingHandle().Device != Device(1) {
		t.Errorf("staging handle should be tagged with the target device, got %v", got[0].TargetLayout.StagingHandle().Device)
	}
}

func TestApplyD2DImplementationHostAtBoth(t *testing.T) {
	layout := NewLayout(0x1000, 0, 1024)
	spec := NewCopySpec(Device(0), layout, Device(1), layout, PropNone)
	plan := CopyPlan{spec}

	got, err := ApplyD2DImplementation(plan, HostAtBoth, NewBasicStagingProvider())
	if err != nil {
		t.Fatalf("ApplyD2DImplementation: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(plan) = %d, want 3", len(got))
	}
	if got[1].SourceDevice != Host || got[1].TargetDevice != Host {
		t.Errorf("middle step should be a host-to-host hop, got %v -> %v", got[1].SourceDevice, got[1].TargetDevice)
	}
	if got[0].TargetLayout.StagingHandle().Device != Device(0) {
		t.Error("first staging handle should be tagged with the source device")
	}
	if got[2].SourceLayout.StagingHandle().Device != Device(1) {
		t.Error("second staging handle should be tagged with the target device")
	}
	if !IsEquivalentPlan(got, spec) {
		t.Error("expanded plan should be equivalent to spec (P4)")
	}
}

func TestApplyD2DImplementationSkipsHostInvolvingSteps(t *testing.T) {
	layout := NewLayout(0x1000, 0, 1024)
	spec := NewCopySpec(Host, layout, Device(1), layout, PropNone)
	plan := CopyPlan{spec}

	got, err := ApplyD2DImplementation(plan, HostAtBoth, NewBasicStagingProvider())
	if err != nil {
		t.Fatalf("ApplyD2DImplementation: %v", err)
	}
	if !got.Equal(plan) {
		t.Errorf("host-involving step should not be rewritten, got %v", got)
	}
}

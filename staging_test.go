package xdcopy

import "testing"

func TestApplyStagingDirectLeavesSpecUnchangedButTagsProperties(t *testing.T) {
	src := NewLayout(0x1000, 0, 1024)
	tgt := NewLayout(0x2000, 0, 1024)
	spec := NewCopySpec(Device(0), src, Device(1), tgt, PropNone)
	strat := Strategy{Type: Direct, Properties: UseKernel, D2D: D2DDirect}

	plan, err := ApplyStaging(spec, strat, NewBasicStagingProvider())
	if err != nil {
		t.Fatalf("ApplyStaging: %v", err)
	}
	if len(plan) != 1 {
		t.Fatalf("len(plan) = %d, want 1", len(plan))
	}
	if plan[0].Properties != UseKernel {
		t.Errorf("expected strategy properties to be attached, got %v", plan[0].Properties)
	}
}

func TestApplyStagingContiguousNormalizes(t *testing.T) {
	src := NewStridedLayout(0x1000, 0, 32, 4, 32)
	tgt := NewStridedLayout(0x2000, 0, 32, 4, 32)
	spec := NewCopySpec(Device(0), src, Device(1), tgt, PropNone)
	strat := Strategy{Type: Staged, D2D: D2DDirect}

	plan, err := ApplyStaging(spec, strat, NewBasicStagingProvider())
	if err != nil {
		t.Fatalf("ApplyStaging: %v", err)
	}
	if len(plan) != 1 {
		t.Fatalf("len(plan) = %d, want 1", len(plan))
	}
	if plan[0].SourceLayout.FragmentCount != 1 {
		t.Errorf("expected normalized single-fragment source layout, got %v", plan[0].SourceLayout)
	}
}

// S4 — staged, both strided.
func TestApplyStagingBothStridedThreeSteps(t *testing.T) {
	layout := NewStridedLayout(0x1000, 0, 32, 16, 128)
	spec := NewCopySpec(Device(0), layout, Device(1), layout, PropNone)
	strat := Strategy{Type: Staged, D2D: D2DDirect}

	plan, err := ApplyStaging(spec, strat, NewBasicStagingProvider())
	if err != nil {
		t.Fatalf("ApplyStaging: %v", err)
	}
	if len(plan) != 3 {
		t.Fatalf("len(plan) = %d, want 3", len(plan))
	}

	stageAtSource, middle, unstageAtTarget := plan[0], plan[1], plan[2]

	if !stageAtSource.SourceLayout.Equal(layout) {
		t.Errorf("first step's source layout should be the original strided layout, got %v", stageAtSource.SourceLayout)
	}
	if stageAtSource.TargetLayout.UnitStride() == false {
		t.Error("staged source buffer should be unit stride")
	}
	if stageAtSource.TargetDevice != Device(0) {
		t.Errorf("source staging buffer should live on the source device, got %v", stageAtSource.TargetDevice)
	}
	if stageAtSource.TargetLayout.StagingHandle().OnHost {
		t.Error("source staging buffer should be device-resident, not host-resident, when the source device is not Host")
	}

	if !middle.SourceLayout.UnitStride() || !middle.TargetLayout.UnitStride() {
		t.Error("middle step should move between two unit-stride staging buffers")
	}
	if middle.SourceDevice != Device(0) || middle.TargetDevice != Device(1) {
		t.Errorf("middle step should hop from source device to target device, got %v -> %v", middle.SourceDevice, middle.TargetDevice)
	}

	if !unstageAtTarget.TargetLayout.Equal(layout) {
		t.Errorf("last step's target layout should be the original strided layout, got %v", unstageAtTarget.TargetLayout)
	}
	if unstageAtTarget.SourceDevice != Device(1) {
		t.Errorf("target staging buffer should live on the target device, got %v", unstageAtTarget.SourceDevice)
	}
	if unstageAtTarget.SourceLayout.StagingHandle().OnHost {
		t.Error("target staging buffer should be device-resident, not host-resident, when the target device is not Host")
	}

	if !IsEquivalentPlan(plan, spec) {
		t.Error("staged plan should be equivalent to its spec (P3)")
	}
}

// S4-variant — one end is host, per tests/core_tests.cpp's
// make_pair(host, d0) / make_pair(d0, host) generators: staging must land
// on the non-host device rather than being requested on Host.
func TestApplyStagingHostEndStagesOnOtherDevice(t *testing.T) {
	strided := NewStridedLayout(0x1000, 0, 32, 16, 128)
	contiguous := NewLayout(0x2000, 0, 32*16)
	strat := Strategy{Type: Staged, D2D: D2DDirect}

	t.Run("strided host source", func(t *testing.T) {
		spec := NewCopySpec(Host, strided, Device(1), contiguous, PropNone)
		plan, err := ApplyStaging(spec, strat, NewBasicStagingProvider())
		if err != nil {
			t.Fatalf("ApplyStaging: %v", err)
		}
		if len(plan) != 2 {
			t.Fatalf("len(plan) = %d, want 2", len(plan))
		}
		stageAtOther, final := plan[0], plan[1]
		if stageAtOther.SourceDevice != Host {
			t.Errorf("first step should read from host, got %v", stageAtOther.SourceDevice)
		}
		if stageAtOther.TargetDevice != Device(1) {
			t.Errorf("host-source staging buffer should live on the other (target) device, got %v", stageAtOther.TargetDevice)
		}
		if !stageAtOther.TargetLayout.StagingHandle().OnHost {
			t.Error("staging buffer for a host source should be host-resident even though it physically lives on the target device")
		}
		if final.SourceDevice != Device(1) || final.TargetDevice != Device(1) {
			t.Errorf("unstaging step should be local to the target device, got %v -> %v", final.SourceDevice, final.TargetDevice)
		}
		if !IsEquivalentPlan(plan, spec) {
			t.Error("staged plan should be equivalent to its spec (P3)")
		}
	})

	t.Run("strided host target", func(t *testing.T) {
		spec := NewCopySpec(Device(0), contiguous, Host, strided, PropNone)
		plan, err := ApplyStaging(spec, strat, NewBasicStagingProvider())
		if err != nil {
			t.Fatalf("ApplyStaging: %v", err)
		}
		if len(plan) != 2 {
			t.Fatalf("len(plan) = %d, want 2", len(plan))
		}
		stageAtOther, final := plan[0], plan[1]
		if stageAtOther.SourceDevice != Device(0) || stageAtOther.TargetDevice != Device(0) {
			t.Errorf("staging step should be local to the source device, got %v -> %v", stageAtOther.SourceDevice, stageAtOther.TargetDevice)
		}
		if final.SourceDevice != Device(0) {
			t.Errorf("host-target staging buffer should live on the other (source) device, got %v", final.SourceDevice)
		}
		if !final.SourceLayout.StagingHandle().OnHost {
			t.Error("staging buffer for a host target should be host-resident even though it physically lives on the source device")
		}
		if final.TargetDevice != Host {
			t.Errorf("last step should write to host, got %v", final.TargetDevice)
		}
		if !IsEquivalentPlan(plan, spec) {
			t.Error("staged plan should be equivalent to its spec (P3)")
		}
	})
}

// Both ends strided and one end host: exercises the three-step branch with
// a redirected staging device, making sure the middle step's devices track
// where the staging buffers actually landed rather than the original
// spec's (possibly host) device fields.
func TestApplyStagingBothStridedHostSourceThreeSteps(t *testing.T) {
	src := NewStridedLayout(0x1000, 0, 32, 4, 64)
	tgt := NewStridedLayout(0x2000, 0, 16, 8, 32)
	spec := NewCopySpec(Host, src, Device(1), tgt, PropNone)
	strat := Strategy{Type: Staged, D2D: D2DDirect}

	plan, err := ApplyStaging(spec, strat, NewBasicStagingProvider())
	if err != nil {
		t.Fatalf("ApplyStaging: %v", err)
	}
	if len(plan) != 3 {
		t.Fatalf("len(plan) = %d, want 3", len(plan))
	}
	if !plan.IsValid() {
		t.Fatalf("plan should satisfy adjacency between steps, got %v", plan)
	}
	if !IsEquivalentPlan(plan, spec) {
		t.Error("staged plan should be equivalent to its spec (P3)")
	}

	stageAtSource, middle, unstageAtTarget := plan[0], plan[1], plan[2]
	if stageAtSource.SourceDevice != Host {
		t.Errorf("first step should read from host, got %v", stageAtSource.SourceDevice)
	}
	if stageAtSource.TargetDevice != Device(1) {
		t.Errorf("host-source staging buffer should live on the other (target) device, got %v", stageAtSource.TargetDevice)
	}
	if !stageAtSource.TargetLayout.StagingHandle().OnHost {
		t.Error("staging buffer for a host source should be host-resident even though it physically lives on the target device")
	}
	if unstageAtTarget.SourceLayout.StagingHandle().OnHost {
		t.Error("staging buffer for a non-host target should be device-resident")
	}
	if middle.SourceDevice != stageAtSource.TargetDevice {
		t.Errorf("middle step should start where the source staging buffer landed, got %v, want %v", middle.SourceDevice, stageAtSource.TargetDevice)
	}
	if middle.TargetDevice != unstageAtTarget.SourceDevice {
		t.Errorf("middle step should end where the target staging buffer landed, got %v, want %v", middle.TargetDevice, unstageAtTarget.SourceDevice)
	}
	if unstageAtTarget.TargetDevice != Device(1) {
		t.Errorf("last step should write to the target device, got %v", unstageAtTarget.TargetDevice)
	}
}

func TestApplyStagingSetRejectsMultiStepPlans(t *testing.T) {
	a := NewLayout(0x1000, 0, 1024)
	b := NewLayout(0x2000, 0, 1024)
	c := NewLayout(0x3000, 0, 1024)
	multiStep := CopyPlan{
		NewCopySpec(Device(0), a, Device(1), b, PropNone),
		NewCopySpec(Device(1), b, Device(2), c, PropNone),
	}
	set := NewParallelCopySet(multiStep)
	strat := Strategy{Type: Direct, D2D: D2DDirect}

	_, err := ApplyStagingSet(set, strat, NewBasicStagingProvider())
	if err == nil || !IsContractError(err) {
		t.Fatalf("expected a contract error for a multi-step plan, got %v", err)
	}
}

func TestBasicStagingProviderRejectsHostDevice(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic requesting a staging buffer on the host device")
		}
	}()
	NewBasicStagingProvider().StagingBuffer(Host, false, 64)
}

func TestBasicStagingProviderIndicesIncrement(t *testing.T) {
	p := NewBasicStagingProvider()
	a := p.StagingBuffer(Device(0), false, 64)
	b := p.StagingBuffer(Device(0), false, 64)
	if a.Index == b.Index {
		t.Error("expected successive staging buffers to get distinct indices")
	}
}

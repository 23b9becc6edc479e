package xdcopy

// StagingProvider hands out fresh, not-yet-placed staging handles for a
// device and a requested buffer size. Implementations are free to track
// real backing storage; the planner only ever sees the symbolic StagingID
// they return.
type StagingProvider interface {
	StagingBuffer(dev DeviceID, onHost bool, size int64) StagingID
}

// BasicStagingProvider is the reference StagingProvider: it hands out
// sequentially-numbered handles and performs no real allocation. It is
// sufficient for planning (the executor resolves real addresses later) and
// for tests.
type BasicStagingProvider struct {
	next uint32
}

// NewBasicStagingProvider returns a BasicStagingProvider starting at index 0.
func NewBasicStagingProvider() *BasicStagingProvider {
	return &BasicStagingProvider{}
}

// StagingBuffer implements StagingProvider.
func (p *BasicStagingProvider) StagingBuffer(dev DeviceID, onHost bool, size int64) StagingID {
	ensure(size > 0, "StagingBuffer", "invalid staging buffer size: %d", size)
	ensure(dev != Host, "StagingBuffer", "invalid staging buffer request: device id is host")
	id := StagingID{OnHost: onHost, Device: dev, Index: p.next}
	p.next++
	return id
}

// stagingDeviceFor applies the staging placement rule: the buffer lives on
// endDevice, the device whose layout is being staged, unless endDevice is
// Host — the host side cannot own device-visible staging efficiently — in
// which case it lives on otherDevice instead. Which physical arena on that
// device (device-resident vs. host-resident) is a separate question,
// answered by whether endDevice itself is Host — see the onHost argument
// callers pass to StagingBuffer.
func stagingDeviceFor(endDevice, otherDevice DeviceID) DeviceID {
	if endDevice.IsHost() {
		return otherDevice
	}
	return endDevice
}

// ApplyStaging turns spec into a CopyPlan, linearizing non-unit-stride
// layouts through an on-device staging buffer so the cross-device hop (if
// any) always moves contiguous bytes. strat.Type == Direct returns the spec
// unchanged (with strat.Properties attached). strat.Type == Staged on a
// contiguous spec just normalizes both layouts.
//
// Otherwise, up to three steps are produced:
//   - if the source is not unit-stride: source → on-device staging buffer.
//   - the (possibly now-contiguous-on-both-ends) cross-device hop.
//   - if the target is not unit-stride: on-device staging buffer → target.
func ApplyStaging(spec CopySpec, strat Strategy, provider StagingProvider) (plan CopyPlan, err error) {
	defer recoverContractError(&err)
	ensure(spec.IsValid(), "ApplyStaging", "invalid copy specification, cannot stage: %v", spec)

	proper := spec.WithProperties(strat.Properties)
	switch strat.Type {
	case Direct:
		return CopyPlan{proper}, nil
	case Staged:
		// fall through
	default:
		ensure(false, "ApplyStaging", "unknown copy strategy type: %v", strat.Type)
	}

	if spec.IsContiguous() {
		return CopyPlan{NormalizeSpec(proper)}, nil
	}

	var sourceStaging, targetUnstaging *CopySpec

	if !spec.SourceLayout.UnitStride() {
		stageDevice := stagingDeviceFor(spec.SourceDevice, spec.TargetDevice)
		handle := provider.StagingBuffer(stageDevice, spec.SourceDevice.IsHost(), spec.SourceLayout.TotalBytes())
		staged := NewStagingLayout(handle, 0, spec.SourceLayout.TotalBytes())
		s := CopySpec{SourceDevice: spec.SourceDevice, SourceLayout: spec.SourceLayout, TargetDevice: stageDevice, TargetLayout: staged, Properties: strat.Properties}
		ensure(s.IsValid(), "ApplyStaging", "created invalid source staging copy %v from %v", s, spec)
		sourceStaging = &s
	}

	if !spec.TargetLayout.UnitStride() {
		stageDevice := stagingDeviceFor(spec.TargetDevice, spec.SourceDevice)
		handle := provider.StagingBuffer(stageDevice, spec.TargetDevice.IsHost(), spec.TargetLayout.TotalBytes())
		staged := NewStagingLayout(handle, 0, spec.TargetLayout.TotalBytes())
		s := CopySpec{SourceDevice: stageDevice, SourceLayout: staged, TargetDevice: spec.TargetDevice, TargetLayout: spec.TargetLayout, Properties: strat.Properties}
		ensure(s.IsValid(), "ApplyStaging", "created invalid target unstaging copy %v from %v", s, spec)
		targetUnstaging = &s
	}

	switch {
	case sourceStaging != nil && targetUnstaging != nil:
		return CopyPlan{
			*sourceStaging,
			{SourceDevice: sourceStaging.TargetDevice, SourceLayout: sourceStaging.TargetLayout, TargetDevice: targetUnstaging.SourceDevice, TargetLayout: targetUnstaging.SourceLayout, Properties: strat.Properties},
			*targetUnstaging,
		}, nil
	case sourceStaging != nil:
		return CopyPlan{
			*sourceStaging,
			{SourceDevice: sourceStaging.TargetDevice, SourceLayout: sourceStaging.TargetLayout, TargetDevice: spec.TargetDevice, TargetLayout: spec.TargetLayout, Properties: strat.Properties},
		}, nil
	case targetUnstaging != nil:
		return CopyPlan{
			{SourceDevice: spec.SourceDevice, SourceLayout: spec.SourceLayout, TargetDevice: targetUnstaging.SourceDevice, TargetLayout: targetUnstaging.SourceLayout, Properties: strat.Properties},
			*targetUnstaging,
		}, nil
	default:
		ensure(false, "ApplyStaging", "something strange is afoot when staging: %v", spec)
		return nil, nil
	}
}

// ApplyStagingSet maps ApplyStaging over every plan in set. Each plan must
// consist of exactly one step — the output of ApplyChunking, never a
// previously-staged plan.
func ApplyStagingSet(set ParallelCopySet, strat Strategy, provider StagingProvider) (out ParallelCopySet, err error) {
	defer recoverContractError(&err)
	for _, plan := range set.Plans() {
		ensure(len(plan) == 1, "ApplyStagingSet", "cannot stage a copy set with plans consisting of more than one copy (plan: %v)", plan)
		staged, serr := ApplyStaging(plan[0], strat, provider)
		if serr != nil {
			return ParallelCopySet{}, serr
		}
		out.Add(staged)
	}
	return out, nil
}

package xdcopy

// isD2DStep reports whether step is a direct hop between two distinct,
// non-host devices — the only kind of step ApplyD2DImplementation rewrites.
func isD2DStep(step CopySpec) bool {
	return !step.SourceDevice.IsHost() && !step.TargetDevice.IsHost() && step.SourceDevice != step.TargetDevice
}

// ApplyD2DImplementation rewrites every device-to-device step of plan
// according to d2d, leaving host-involving and same-device steps
// untouched. Host-staging layouts preserve the original step's fragment
// geometry: after a Staged ApplyStaging the D2D steps are contiguous, while
// under a Direct strategy a D2D step can still be strided and its host
// staging layouts then keep that stride and offset.
//
//   - D2DDirect: unchanged.
//   - HostAtSource: src → host-staging-on-src, host-staging-on-src → tgt.
//   - HostAtTarget: src → host-staging-on-tgt, host-staging-on-tgt → tgt.
//   - HostAtBoth: src → host-staging-on-src, host-staging-on-src →
//     host-staging-on-tgt (a host-to-host copy), host-staging-on-tgt → tgt.
func ApplyD2DImplementation(plan CopyPlan, d2d D2DImplementation, provider StagingProvider) (out CopyPlan, err error) {
	defer recoverContractError(&err)
	ensure(plan.IsValid(), "ApplyD2DImplementation", "invalid copy plan, cannot apply d2d implementation: %v", plan)

	for _, step := range plan {
		if !isD2DStep(step) {
			out = append(out, step)
			continue
		}
		out = append(out, expandD2DStep(step, d2d, provider)...)
	}
	return out, nil
}

func expandD2DStep(step CopySpec, d2d D2DImplementation, provider StagingProvider) []CopySpec {
	switch d2d {
	case D2DDirect:
		return []CopySpec{step}
	case HostAtSource:
		staged := hostStagingLayout(provider, step.SourceDevice, step.SourceLayout)
		return []CopySpec{
			{SourceDevice: step.SourceDevice, SourceLayout: step.SourceLayout, TargetDevice: Host, TargetLayout: staged, Properties: step.Properties},
			{SourceDevice: Host, SourceLayout: staged, TargetDevice: step.TargetDevice, TargetLayout: step.TargetLayout, Properties: step.Properties},
		}
	case HostAtTarget:
		staged := hostStagingLayout(provider, step.TargetDevice, step.SourceLayout)
		return []CopySpec{
			{SourceDevice: step.SourceDevice, SourceLayout: step.SourceLayout, TargetDevice: Host, TargetLayout: staged, Properties: step.Properties},
			{SourceDevice: Host, SourceLayout: staged, TargetDevice: step.TargetDevice, TargetLayout: step.TargetLayout, Properties: step.Properties},
		}
	case HostAtBoth:
		stagedSrc := hostStagingLayout(provider, step.SourceDevice, step.SourceLayout)
		stagedTgt := hostStagingLayout(provider, step.TargetDevice, step.SourceLayout)
		return []CopySpec{
			{SourceDevice: step.SourceDevice, SourceLayout: step.SourceLayout, TargetDevice: Host, TargetLayout: stagedSrc, Properties: step.Properties},
			{SourceDevice: Host, SourceLayout: stagedSrc, TargetDevice: Host, TargetLayout: stagedTgt, Properties: step.Properties},
			{SourceDevice: Host, SourceLayout: stagedTgt, TargetDevice: step.TargetDevice, TargetLayout: step.TargetLayout, Properties: step.Properties},
		}
	default:
		ensure(false, "ApplyD2DImplementation", "unknown d2d implementation: %v", d2d)
		return nil
	}
}

// hostStagingLayout requests a host-resident staging buffer tagged with dev
// and gives it the same fragment geometry as like (offset, length, count,
// stride preserved; only the base changes).
func hostStagingLayout(provider StagingProvider, dev DeviceID, like DataLayout) DataLayout {
	handle := provider.StagingBuffer(dev, true, like.TotalBytes())
	return NewStagingStridedLayout(handle, like.Offset, like.FragmentLength, like.FragmentCount, like.Stride)
}

// ApplyD2DImplementationSet maps ApplyD2DImplementation over every plan in set.
func ApplyD2DImplementationSet(set ParallelCopySet, d2d D2DImplementation, provider StagingProvider) (out ParallelCopySet, err error) {
	defer recoverContractError(&err)
	for _, plan := range set.Plans() {
		rewritten, rerr := ApplyD2DImplementation(plan, d2d, provider)
		if rerr != nil {
			return ParallelCopySet{}, rerr
		}
		out.Add(rewritten)
	}
	return out, nil
}

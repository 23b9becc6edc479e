package xdcopy

import "math"

// IsEquivalentPlan reports whether plan implements spec: the plan is
// non-empty, its first step's source side matches spec's source side, and
// its last step's target side matches spec's target side. This is one of
// the two oracle predicates (the other is IsEquivalentSet) the planner is
// verified against; every manifest_strategy-style transformation must
// preserve it.
func IsEquivalentPlan(plan CopyPlan, spec CopySpec) bool {
	ensure(spec.IsValid(), "IsEquivalentPlan", "invalid copy specification, cannot compare to plan: %v", spec)
	ensure(plan.IsValid(), "IsEquivalentPlan", "invalid copy plan, cannot compare to spec: %v", plan)

	if len(plan) == 0 {
		return false
	}
	first, last := plan[0], plan[len(plan)-1]
	return first.SourceDevice == spec.SourceDevice && first.SourceLayout.Equal(spec.SourceLayout) &&
		last.TargetDevice == spec.TargetDevice && last.TargetLayout.Equal(spec.TargetLayout)
}

// IsEquivalentSet reports whether the plans in set collectively implement
// spec: every plan's first-source-base and last-target-base agree with
// spec, every plan's first-source (resp. last-target) geometry either
// matches spec's geometry exactly or is unit-stride (a contiguous chunk),
// and the union of first-source byte ranges (resp. last-target) exactly
// covers spec's source (resp. target) range with no gaps or overlaps in
// total byte count.
func IsEquivalentSet(set ParallelCopySet, spec CopySpec) bool {
	ensure(spec.IsValid(), "IsEquivalentSet", "invalid copy specification, cannot compare to set: %v", spec)
	ensure(set.IsValid(), "IsEquivalentSet", "invalid copy set, cannot compare to spec: %v", spec)

	sourceStart, sourceEnd := int64(math.MaxInt64), int64(math.MinInt64)
	targetStart, targetEnd := int64(math.MaxInt64), int64(math.MinInt64)
	var sourceCopied, targetCopied int64

	srcFragLen, srcStride := spec.SourceLayout.FragmentLength, spec.SourceLayout.Stride
	tgtFragLen, tgtStride := spec.TargetLayout.FragmentLength, spec.TargetLayout.Stride

	for _, plan := range set.Plans() {
		ensure(plan.IsValid(), "IsEquivalentSet", "invalid copy plan in set, cannot compare to spec: %v", plan)
		first, last := plan[0], plan[len(plan)-1]

		if first.SourceDevice != spec.SourceDevice || !first.SourceLayout.base.equal(spec.SourceLayout.base) {
			return false
		}
		if last.TargetDevice != spec.TargetDevice || !last.TargetLayout.base.equal(spec.TargetLayout.base) {
			return false
		}
		if !first.SourceLayout.UnitStride() &&
			(first.SourceLayout.FragmentLength != srcFragLen || first.SourceLayout.Stride != srcStride) {
			return false
		}
		if !last.TargetLayout.UnitStride() &&
			(last.TargetLayout.FragmentLength != tgtFragLen || last.TargetLayout.Stride != tgtStride) {
			return false
		}

		sourceStart = min64(sourceStart, first.SourceLayout.Offset)
		sourceEnd = max64(sourceEnd, first.SourceLayout.EndOffset())
		sourceCopied += first.SourceLayout.TotalBytes()

		targetStart = min64(targetStart, last.TargetLayout.Offset)
		targetEnd = max64(targetEnd, last.TargetLayout.EndOffset())
		targetCopied += last.TargetLayout.TotalBytes()
	}

	return sourceStart == spec.SourceLayout.Offset && sourceEnd == spec.SourceLayout.EndOffset() && sourceCopied == spec.SourceLayout.TotalBytes() &&
		targetStart == spec.TargetLayout.Offset && targetEnd == spec.TargetLayout.EndOffset() && targetCopied == spec.TargetLayout.TotalBytes()
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

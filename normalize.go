package xdcopy

// Normalize collapses a unit-stride, multi-fragment layout into the
// equivalent single-fragment form (base, offset, total_bytes, 1,
// total_bytes). Layouts that are already single-fragment, or that are not
// unit-stride, are returned unchanged. Idempotent: Normalize(Normalize(l))
// == Normalize(l).
func Normalize(l DataLayout) DataLayout {
	if !l.UnitStride() || l.FragmentCount == 1 {
		return l
	}
	bytes := l.TotalBytes()
	return withBase(l.base, DataLayout{Offset: l.Offset, FragmentLength: bytes, FragmentCount: 1, Stride: bytes})
}

// NormalizeSpec applies Normalize to both layouts of a contiguous spec.
// Specs that are not fully contiguous, or whose layouts are already
// single-fragment, are returned unchanged.
func NormalizeSpec(s CopySpec) CopySpec {
	if !s.IsContiguous() || (s.SourceLayout.FragmentCount == 1 && s.TargetLayout.FragmentCount == 1) {
		return s
	}
	return CopySpec{
		SourceDevice: s.SourceDevice,
		SourceLayout: Normalize(s.SourceLayout),
		TargetDevice: s.TargetDevice,
		TargetLayout: Normalize(s.TargetLayout),
		Properties:   s.Properties,
	}
}

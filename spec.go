package xdcopy

import "strings"

// CopySpec describes one semantic transfer: move the bytes described by
// SourceLayout on SourceDevice to TargetLayout on TargetDevice.
type CopySpec struct {
	SourceDevice DeviceID
	SourceLayout DataLayout
	TargetDevice DeviceID
	TargetLayout DataLayout
	Properties   CopyProperties
}

// NewCopySpec constructs a CopySpec with the given properties.
func NewCopySpec(srcDev DeviceID, srcLayout DataLayout, tgtDev DeviceID, tgtLayout DataLayout, props CopyProperties) CopySpec {
	return CopySpec{SourceDevice: srcDev, SourceLayout: srcLayout, TargetDevice: tgtDev, TargetLayout: tgtLayout, Properties: props}
}

// WithProperties returns a copy of the spec with Properties replaced.
func (s CopySpec) WithProperties(p CopyProperties) CopySpec {
	s.Properties = p
	return s
}

// IsContiguous reports whether both the source and target layouts are
// unit-stride.
func (s CopySpec) IsContiguous() bool {
	return s.SourceLayout.UnitStride() && s.TargetLayout.UnitStride()
}

// Equal reports whether two specs are identical: same devices, layouts,
// and properties.
func (s CopySpec) Equal(o CopySpec) bool {
	return s.SourceDevice == o.SourceDevice && s.SourceLayout.Equal(o.SourceLayout) &&
		s.TargetDevice == o.TargetDevice && s.TargetLayout.Equal(o.TargetLayout) && s.Properties == o.Properties
}

func (s CopySpec) String() string {
	if s.Properties == PropNone {
		return "copy(" + s.SourceDevice.String() + s.SourceLayout.String() + ", " + s.TargetDevice.String() + s.TargetLayout.String() + ")"
	}
	return "copy(" + s.SourceDevice.String() + s.SourceLayout.String() + ", " + s.TargetDevice.String() + s.TargetLayout.String() + " (" + s.Properties.String() + "))"
}

// IsValid reports whether the spec is sound: both layouts are valid, they
// carry the same total byte count, use_kernel and use_2d are not both set,
// and if source and target share a base and device their byte ranges do
// not overlap.
func (s CopySpec) IsValid() bool {
	if s.SourceDevice == s.TargetDevice && s.SourceLayout.base.equal(s.TargetLayout.base) {
		srcEnd := s.SourceLayout.Offset + s.SourceLayout.TotalBytes()
		tgtEnd := s.TargetLayout.Offset + s.TargetLayout.TotalBytes()
		if s.SourceLayout.Offset < tgtEnd && srcEnd > s.TargetLayout.Offset {
			return false
		}
	}
	if s.Properties.Has(Use2D) && s.Properties.Has(UseKernel) {
		return false
	}
	return s.SourceLayout.IsValid() && s.TargetLayout.IsValid() && s.SourceLayout.TotalBytes() == s.TargetLayout.TotalBytes()
}

// CopyPlan is an ordered sequence of steps that must execute in order to
// implement one semantic transfer. The last step's (device, target layout)
// is the observable result.
type CopyPlan []CopySpec

// IsValid reports whether every step is valid and adjacent steps share an
// interface: step i's target device/layout equal step i+1's source
// device/layout.
func (p CopyPlan) IsValid() bool {
	for _, step := range p {
		if !step.IsValid() {
			return false
		}
	}
	for i := 0; i+1 < len(p); i++ {
		if p[i].TargetDevice != p[i+1].SourceDevice || !p[i].TargetLayout.Equal(p[i+1].SourceLayout) {
			return false
		}
	}
	return true
}

// Equal reports whether two plans have the same steps in the same order.
func (p CopyPlan) Equal(o CopyPlan) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !p[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (p CopyPlan) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ParallelCopySet is a set of independent copy plans that may execute
// concurrently. Membership is unordered and duplicate plans are
// suppressed; Hash is by content, not by insertion order. The type has no
// equality method of its own.
type ParallelCopySet struct {
	plans []CopyPlan
}

// NewParallelCopySet builds a set from the given plans, discarding exact
// duplicates.
func NewParallelCopySet(plans ...CopyPlan) ParallelCopySet {
	var set ParallelCopySet
	for _, p := range plans {
		set.Add(p)
	}
	return set
}

// Add inserts plan into the set unless an equal plan is already present.
func (s *ParallelCopySet) Add(plan CopyPlan) {
	for _, existing := range s.plans {
		if existing.Equal(plan) {
			return
		}
	}
	s.plans = append(s.plans, plan)
}

// Plans returns the set's plans. The returned slice must not be mutated.
func (s ParallelCopySet) Plans() []CopyPlan { return s.plans }

// Len returns the number of distinct plans in the set.
func (s ParallelCopySet) Len() int { return len(s.plans) }

// IsValid reports whether every plan in the set is individually valid.
// Plans within a set are assumed independent; no cross-plan check is made.
func (s ParallelCopySet) IsValid() bool {
	for _, p := range s.plans {
		if !p.IsValid() {
			return false
		}
	}
	return true
}

func (s ParallelCopySet) String() string {
	parts := make([]string, len(s.plans))
	for i, p := range s.plans {
		parts[i] = p.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

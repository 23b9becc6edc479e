package xdcopy

import "fmt"

// DeviceID names one memory space a copy can touch: the host, or one of a
// fixed set of accelerator devices. Device IDs are small integers so they
// can index directly into per-device slices in the backend and executor.
type DeviceID int32

// Host identifies the CPU-side memory space.
const Host DeviceID = -1

// MaxDevices is the fixed upper bound on accelerator devices a Backend may
// expose, matching the reference implementation this design is based on.
const MaxDevices = 8

// Device returns the DeviceID for accelerator index n (0 <= n < MaxDevices).
func Device(n int) DeviceID { return DeviceID(n) }

// IsHost reports whether id names the host memory space.
func (id DeviceID) IsHost() bool { return id == Host }

func (id DeviceID) String() string {
	if id.IsHost() {
		return "host"
	}
	return fmt.Sprintf("d%d", int(id))
}

// StagingID is a symbolic handle for a staging buffer that has not yet been
// placed by an Executor. It is emitted by the planner (via a
// StagingProvider) and is distinguishable from any real address: a
// DataLayout whose base is a StagingID is "unplaced" and must be resolved
// before it can be executed.
type StagingID struct {
	OnHost bool
	Device DeviceID
	Index  uint32
}

func (s StagingID) String() string {
	if s.OnHost {
		return fmt.Sprintf("S(%d, %shost)", s.Index, s.Device)
	}
	return fmt.Sprintf("S(%d, %s)", s.Index, s.Device)
}

// base is the tagged variant backing DataLayout.base: either a real address
// (addr, staged == false) or a not-yet-placed StagingID (staging, staged ==
// true). A discriminated union is used in preference to the bit-packed
// pointer representation of the reference implementation, per design intent:
// it is just as correct and leaves no low-bit encoding to get wrong.
type base struct {
	staged  bool
	addr    uintptr
	staging StagingID
}

func realBase(addr uintptr) base { return base{addr: addr} }

func stagingBase(s StagingID) base { return base{staged: true, staging: s} }

// IsStaging reports whether this base is an unplaced staging handle.
func (b base) IsStaging() bool { return b.staged }

// Addr returns the real address. It panics if the base is an unplaced
// staging handle; callers should check IsStaging first, or go through a
// StagingResolver.
func (b base) Addr() uintptr {
	if b.staged {
		panic(fmt.Sprintf("xdcopy: base is an unplaced staging handle %v, not a real address", b.staging))
	}
	return b.addr
}

// Staging returns the StagingID. It panics if the base is a real address.
func (b base) Staging() StagingID {
	if !b.staged {
		panic("xdcopy: base is a real address, not a staging handle")
	}
	return b.staging
}

func (b base) String() string {
	if b.staged {
		return b.staging.String()
	}
	return fmt.Sprintf("0x%x", b.addr)
}

func (b base) equal(o base) bool {
	if b.staged != o.staged {
		return false
	}
	if b.staged {
		return b.staging == o.staging
	}
	return b.addr == o.addr
}

// DataLayout describes a possibly-strided region of memory: fragment_count
// runs of fragment_length bytes each, stride bytes apart, starting at
// offset bytes past base. The degenerate case fragment_count == 1, stride
// == 0 denotes a single contiguous run.
type DataLayout struct {
	base           base
	Offset         int64
	FragmentLength int64
	FragmentCount  int64
	Stride         int64
}

// NewLayout constructs a contiguous (unit-stride) 1-D layout of length
// bytes at base+offset.
func NewLayout(addr uintptr, offset, length int64) DataLayout {
	return DataLayout{base: realBase(addr), Offset: offset, FragmentLength: length, FragmentCount: 1, Stride: length}
}

// NewStagingLayout constructs a contiguous layout whose base is an unplaced
// staging handle.
func NewStagingLayout(s StagingID, offset, length int64) DataLayout {
	return DataLayout{base: stagingBase(s), Offset: offset, FragmentLength: length, FragmentCount: 1, Stride: length}
}

// NewStridedLayout constructs a strided 1-D or 2-D layout: fragmentCount
// runs of fragmentLength bytes, stride bytes apart.
func NewStridedLayout(addr uintptr, offset, fragmentLength, fragmentCount, stride int64) DataLayout {
	return DataLayout{base: realBase(addr), Offset: offset, FragmentLength: fragmentLength, FragmentCount: fragmentCount, Stride: stride}
}

// NewStagingStridedLayout is NewStridedLayout with a not-yet-placed staging
// base; used internally by ApplyD2DImplementation to preserve a step's
// fragment geometry across a host hop.
func NewStagingStridedLayout(s StagingID, offset, fragmentLength, fragmentCount, stride int64) DataLayout {
	return DataLayout{base: stagingBase(s), Offset: offset, FragmentLength: fragmentLength, FragmentCount: fragmentCount, Stride: stride}
}

func withBase(b base, l DataLayout) DataLayout {
	l.base = b
	return l
}

// IsUnplacedStaging reports whether the layout's base is a StagingID that
// has not yet been resolved to a real address.
func (l DataLayout) IsUnplacedStaging() bool { return l.base.IsStaging() }

// Addr returns the real base address. Panics if the layout is unplaced.
func (l DataLayout) Addr() uintptr { return l.base.Addr() }

// StagingHandle returns the layout's staging handle. Panics if the layout
// is already placed.
func (l DataLayout) StagingHandle() StagingID { return l.base.Staging() }

// TotalBytes is the number of bytes actually moved by this layout:
// fragment_count * fragment_length.
func (l DataLayout) TotalBytes() int64 { return l.FragmentCount * l.FragmentLength }

// TotalExtent is the number of bytes spanned by this layout, including any
// padding between fragments: offset + fragment_count * effective stride
// (offset + fragment_length for the degenerate zero-stride form).
func (l DataLayout) TotalExtent() int64 { return l.Offset + l.FragmentCount*l.EffectiveStride() }

// EffectiveStride returns Stride, or FragmentLength for the degenerate
// single-fragment zero-stride case.
func (l DataLayout) EffectiveStride() int64 {
	if l.Stride == 0 {
		return l.FragmentLength
	}
	return l.Stride
}

// UnitStride reports whether the layout describes one contiguous run:
// either fragment_length == stride, or the degenerate single-fragment,
// zero-stride form.
func (l DataLayout) UnitStride() bool {
	return l.FragmentLength == l.Stride || (l.FragmentCount == 1 && l.Stride == 0)
}

// FragmentOffset returns the byte offset of fragment i, relative to base.
func (l DataLayout) FragmentOffset(i int64) int64 {
	if i < 0 || i >= l.FragmentCount {
		panic(fmt.Sprintf("xdcopy: invalid fragment index %d of %d", i, l.FragmentCount))
	}
	return l.Offset + i*l.Stride
}

// EndOffset returns the byte offset just past the last fragment.
func (l DataLayout) EndOffset() int64 {
	return l.FragmentOffset(l.FragmentCount-1) + l.FragmentLength
}

// IsValid reports whether the layout's shape is sound: positive fragment
// length and count, and a stride that is either at least the fragment
// length or the degenerate contiguous form.
func (l DataLayout) IsValid() bool {
	return l.FragmentLength > 0 && l.FragmentCount > 0 &&
		(l.Stride >= l.FragmentLength || (l.Stride == 0 && l.FragmentCount == 1))
}

// Equal reports whether two layouts describe the same region: same base,
// offset, fragment geometry, and stride.
func (l DataLayout) Equal(o DataLayout) bool {
	return l.base.equal(o.base) && l.Offset == o.Offset &&
		l.FragmentLength == o.FragmentLength && l.FragmentCount == o.FragmentCount && l.Stride == o.Stride
}

func (l DataLayout) String() string {
	return fmt.Sprintf("{%s+%d, [%d * %d, %d]}", l.base, l.Offset, l.FragmentLength, l.FragmentCount, l.Stride)
}

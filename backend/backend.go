// Package backend describes the capability surface a real accelerator
// runtime exposes to the xdcopy planner and executor: queues, device/host
// buffers, linear and strided copy primitives, and the introspection an
// executor needs to decide whether a plan step can run as-is or needs to be
// rewritten first.
package backend

import (
	"context"
	"fmt"
)

// Possibility reports whether a backend can execute a copy spec directly,
// mirroring the copylib executor::possibility enum: a spec is either
// possible as given, or needs a rewrite (2D-copy expansion, a
// device-to-device hop that this backend cannot do directly, or a kernel
// copy requested against a step that touches the host).
type Possibility int

const (
	Possible Possibility = iota
	Needs2DCopy
	NeedsD2DCopy
	NeedsKernelRewrite
)

func (p Possibility) String() string {
	switch p {
	case Possible:
		return "Possible"
	case Needs2DCopy:
		return "Needs2DCopy"
	case NeedsD2DCopy:
		return "NeedsD2DCopy"
	case NeedsKernelRewrite:
		return "NeedsKernelRewrite"
	default:
		return fmt.Sprintf("Possibility(%d)", int(p))
	}
}

// Target names a specific queue on a specific device, the unit of
// dispatch an executor schedules work onto.
type Target struct {
	Device   int
	QueueIdx int
}

// UnsupportedError reports that a backend was asked to perform an
// operation its configuration does not support, such as a 2D copy on a
// backend with no native 2D-copy primitive. Callers should have checked
// CanExecute first; this error means they didn't, or ignored the result.
type UnsupportedError struct {
	Op      string
	Message string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("backend: %s: %s", e.Op, e.Message)
}

// NewUnsupportedError constructs an UnsupportedError for operation op.
func NewUnsupportedError(op, message string) *UnsupportedError {
	return &UnsupportedError{Op: op, Message: message}
}

// DeviceProperties describes one accelerator's static capabilities and
// capacities, the Go analogue of copylib's device_id-indexed device list.
type DeviceProperties struct {
	Name          string
	QueueCount    int
	BufferSize    int64
	Has2DCopy     bool
	HasD2DCopy    bool
	HasPeerAccess bool
	PreferredWG   int32
}

// Buffer is an opaque handle to a region of backend-owned memory. What it
// addresses (a device allocation, a pinned host allocation, a staging
// arena) is backend-defined; callers only ever pass a Buffer back to the
// same Backend that produced it.
type Buffer interface {
	// Base is the byte offset within the backend's address space that this
	// buffer's fragment 0 starts at. Combined with a DataLayout's own
	// offset/stride fields, it is enough for a backend to resolve any
	// fragment of any layout that uses this buffer.
	Base() int64
	Size() int64
}

// CopyRequest is the fully-resolved description of one memory move: two
// concrete buffers (no staging handles left to resolve), their strided
// geometry, and which properties were requested for this step.
type CopyRequest struct {
	SourceDevice int // -1 means host
	TargetDevice int // -1 means host

	SourceBuffer Buffer
	TargetBuffer Buffer

	SourceOffset, TargetOffset             int64
	SourceFragmentLength, TargetFragmentLength int64
	SourceFragmentCount, TargetFragmentCount   int64
	SourceStride, TargetStride                 int64

	UseKernel bool
	Use2DCopy bool
}

// TotalBytes is the number of bytes the source side of this request
// addresses; ApplyChunking/ApplyStaging guarantee this equals the target
// side's total by the time a CopyRequest reaches a backend.
func (r CopyRequest) TotalBytes() int64 {
	return r.SourceFragmentLength * r.SourceFragmentCount
}

// Backend is the capability surface an executor drives. Implementations
// are expected to be safe for concurrent use across distinct Targets; a
// single Target's queue is a serial resource and callers must not submit
// concurrently to it.
type Backend interface {
	// Info is a short human-readable description of the backend and its
	// devices, analogous to executor::get_info().
	Info() string

	DeviceCount() int
	DeviceProperties(device int) (DeviceProperties, error)

	// CanExecute reports whether spec can run as a single CopyRequest on
	// this backend, or what kind of rewrite it needs first.
	CanExecute(req CopyRequest) Possibility

	// AllocateStaging reserves a staging region on device (or on the host,
	// when onHost is true) sized at least size bytes and returns a Buffer
	// for it. Repeated calls do not reuse space; callers own the lifetime
	// of arena reuse via a StagingResolver.
	AllocateStaging(device int, onHost bool, size int64) (Buffer, error)

	// DeviceBuffer and HostBuffer return the backend's resident data
	// buffer for a device, and its host-resident mirror, respectively.
	DeviceBuffer(device int) (Buffer, error)
	HostBuffer(device int) (Buffer, error)

	// CopyLinear performs a flat byte-range copy of length bytes.
	CopyLinear(ctx context.Context, target Target, req CopyRequest, length int64) error
	// Copy2D performs a strided copy using a native 2D-copy primitive.
	// Callers must check CanExecute does not report Needs2DCopy-as-missing
	// before calling this; backends without 2D-copy support return an error.
	Copy2D(ctx context.Context, target Target, req CopyRequest) error
	// CopyViaKernel performs a strided copy using a vectorized kernel
	// rather than a sequence of linear copies.
	CopyViaKernel(ctx context.Context, target Target, req CopyRequest) error

	// Wait blocks until every operation submitted to target has completed.
	Wait(ctx context.Context, target Target) error
	// Barrier blocks until every queue on every device has drained.
	Barrier(ctx context.Context) error
}

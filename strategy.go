package xdcopy

import (
	"fmt"
	"strings"
)

// CopyType selects the top-level implementation a Strategy asks the
// planner to use for a transfer.
type CopyType int

const (
	// Direct copies straight from source to destination with no staging.
	Direct CopyType = iota
	// Staged linearizes either or both ends through a contiguous staging
	// buffer before/after the cross-memory hop.
	Staged
)

func (t CopyType) String() string {
	switch t {
	case Direct:
		return "direct"
	case Staged:
		return "staged"
	default:
		panic(fmt.Sprintf("xdcopy: unknown copy type %d", int(t)))
	}
}

// CopyProperties is a bitset of optional copy-primitive hints attached to a
// CopySpec. UseKernel and Use2D are mutually exclusive.
type CopyProperties uint8

const (
	PropNone      CopyProperties = 0
	UseKernel     CopyProperties = 1 << 0
	Use2D         CopyProperties = 1 << 1
)

// Has reports whether every bit set in p is also set in the receiver.
func (c CopyProperties) Has(p CopyProperties) bool { return c&p == p }

func (c CopyProperties) String() string {
	var parts []string
	if c.Has(UseKernel) {
		parts = append(parts, "use_kernel")
	}
	if c.Has(Use2D) {
		parts = append(parts, "use_2d")
	}
	return strings.Join(parts, ",")
}

// D2DImplementation selects how a device-to-device step is realized when
// the backend cannot copy directly between two non-host devices.
type D2DImplementation int

const (
	// D2DDirect leaves device-to-device steps unchanged.
	D2DDirect D2DImplementation = iota
	// HostAtSource hops through a host staging buffer on the source device.
	HostAtSource
	// HostAtTarget hops through a host staging buffer on the target device.
	HostAtTarget
	// HostAtBoth hops through host staging buffers on both devices, with an
	// extra host-to-host copy between them.
	HostAtBoth
)

func (d D2DImplementation) String() string {
	switch d {
	case D2DDirect:
		return "direct"
	case HostAtSource:
		return "host_staging_at_source"
	case HostAtTarget:
		return "host_staging_at_target"
	case HostAtBoth:
		return "host_staging_at_both"
	default:
		panic(fmt.Sprintf("xdcopy: unknown d2d implementation %d", int(d)))
	}
}

// Strategy directs the planner: what kind of copy to synthesize, which
// copy-primitive hints to attach to every emitted step, how to realize
// device-to-device steps, and whether (and how finely) to chunk.
type Strategy struct {
	Type       CopyType
	Properties CopyProperties
	D2D        D2DImplementation
	// ChunkSize is the maximum size in bytes of each chunk ApplyChunking
	// produces. Zero disables chunking.
	ChunkSize int64
}

func (s Strategy) String() string {
	return fmt.Sprintf("strategy(%s, %s, d2d:%s, chunk:%d)", s.Type, s.Properties, s.D2D, s.ChunkSize)
}

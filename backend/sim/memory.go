package sim

import (
	"fmt"

	"github.com/LynnColeArt/xdcopy"
)

// allocAlignment is the byte alignment every arena bump-allocation rounds
// up to, matching the staging_alignment constant the reference backend
// uses for its staging arenas.
const allocAlignment = xdcopy.DefaultStagingAlignment

func alignUp(n, align int64) int64 {
	return (n + align - 1) &^ (align - 1)
}

// arena is a fixed-size, append-only byte buffer with a bump allocator.
// Four of these back each simDevice: a device-resident data buffer, a
// device-resident staging buffer, a host-resident mirror, and a
// host-resident staging buffer — the same four-buffer-per-device layout
// the reference executor allocates per GPU.
type arena struct {
	data []byte
	next int64
}

func newArena(size int64) *arena {
	return &arena{data: make([]byte, size)}
}

// alloc reserves size bytes, aligned to allocAlignment, and returns the
// offset of the reservation within the arena.
func (a *arena) alloc(size int64) (int64, error) {
	if size <= 0 {
		return 0, fmt.Errorf("sim: allocation size must be positive, got %d", size)
	}
	start := alignUp(a.next, allocAlignment)
	if start+size > int64(len(a.data)) {
		return 0, fmt.Errorf("sim: arena overflow: need %d bytes at offset %d, capacity %d", size, start, len(a.data))
	}
	a.next = start + size
	return start, nil
}

func (a *arena) slice(offset, length int64) []byte {
	if offset < 0 || length < 0 || offset+length > int64(len(a.data)) {
		panic(fmt.Sprintf("sim: slice [%d:%d) out of bounds for arena of size %d", offset, offset+length, len(a.data)))
	}
	return a.data[offset : offset+length]
}

// buffer is a handle into one of a simDevice's arenas. It implements
// backend.Buffer.
type buffer struct {
	arena *arena
	base  int64
	size  int64
}

func (b *buffer) Base() int64 { return b.base }
func (b *buffer) Size() int64 { return b.size }

func (b *buffer) bytes(offset, length int64) []byte {
	return b.arena.slice(b.base+offset, length)
}

package executor

import (
	"fmt"
	"sync"

	"github.com/LynnColeArt/xdcopy"
	"github.com/LynnColeArt/xdcopy/backend"
)

// StagingResolver turns the symbolic StagingIDs a planner emits into real
// backend buffers, caching by index so that every plan step referencing
// the same StagingID gets the same underlying storage. This is the sim
// analogue of the reference executor's staging_fulfiller, generalized to
// any Backend rather than one hardwired to a single SYCL executor.
//
// A resolver is shared across an entire ParallelCopySet's execution so
// that multiple plans requesting the same staging index reuse one buffer,
// exactly as the reference execute_copy(executor&, const parallel_copy_set&)
// shares one staging_fulfiller across every plan in the set.
type StagingResolver struct {
	be backend.Backend

	mu      sync.Mutex
	entries map[uint32]*stagingEntry
}

type stagingEntry struct {
	buf    backend.Buffer
	size   int64
	device xdcopy.DeviceID
	onHost bool
}

// NewStagingResolver returns a resolver backed by be.
func NewStagingResolver(be backend.Backend) *StagingResolver {
	return &StagingResolver{be: be, entries: make(map[uint32]*stagingEntry)}
}

// Resolve returns the backend buffer for handle, reserving size bytes on
// first use and validating consistency on reuse — a second layout naming
// the same StagingID.Index must agree on size, device, and host residency,
// matching the reference fulfiller's mismatch checks. Callers pass the
// staging layout's TotalExtent, not its TotalBytes, so a layout that keeps
// its original stride and offset reserves enough room for every byte its
// fragments span, not just the bytes actually moved.
func (r *StagingResolver) Resolve(handle xdcopy.StagingID, size int64) (backend.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[handle.Index]; ok {
		if e.size != size {
			return nil, fmt.Errorf("executor: staging buffer %d size mismatch: got %d, previously %d", handle.Index, size, e.size)
		}
		if e.device != handle.Device {
			return nil, fmt.Errorf("executor: staging buffer %d device mismatch: got %v, previously %v", handle.Index, handle.Device, e.device)
		}
		if e.onHost != handle.OnHost {
			return nil, fmt.Errorf("executor: staging buffer %d host-flag mismatch: got %v, previously %v", handle.Index, handle.OnHost, e.onHost)
		}
		return e.buf, nil
	}

	if handle.Device.IsHost() {
		return nil, fmt.Errorf("executor: staging handle %v names the host as its device, which is never valid", handle)
	}
	buf, err := r.be.AllocateStaging(int(handle.Device), handle.OnHost, size)
	if err != nil {
		return nil, err
	}
	r.entries[handle.Index] = &stagingEntry{buf: buf, size: size, device: handle.Device, onHost: handle.OnHost}
	return buf, nil
}

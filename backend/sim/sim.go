// Package sim is an in-process reference implementation of backend.Backend,
// used for tests and for running the planner end-to-end without any real
// accelerator hardware. It performs genuine byte movement between Go byte
// slices standing in for device and host memory, so callers can assert on
// the actual bytes a plan moved, not just on the shape of the plan.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/LynnColeArt/xdcopy"
	"github.com/LynnColeArt/xdcopy/backend"
)

// Config controls which capabilities a Backend simulates. Real hardware
// varies along exactly these axes: whether the SYCL/CUDA stack exposes a
// native 2D-copy primitive, and whether devices can DMA directly to each
// other or must hop through host memory.
type Config struct {
	DeviceCount     int
	BufferSize      int64
	QueuesPerDevice int
	Has2DCopy       bool
	HasD2DCopy      bool
	HasPeerAccess   bool
}

// DefaultConfig returns a Config with modest defaults suitable for tests:
// deviceCount devices, no native 2D-copy or peer access, forcing plans through
// staging and host-hop D2D — the conservative, always-correct path.
func DefaultConfig(deviceCount int) Config {
	return Config{
		DeviceCount:     deviceCount,
		BufferSize:      xdcopy.DefaultChunkSize * 4,
		QueuesPerDevice: xdcopy.DefaultQueuesPerDevice,
	}
}

// Backend is the sim reference backend.
type Backend struct {
	cfg     Config
	devices []*simDevice

	mu                sync.Mutex
	stagingOffsets     []int64
	hostStagingOffsets []int64
}

var _ backend.Backend = (*Backend)(nil)

// New builds a sim backend with cfg.DeviceCount devices, each with a
// dev_buffer/staging_buffer/host_buffer/host_staging_buffer arena of
// cfg.BufferSize bytes.
func New(cfg Config) *Backend {
	if cfg.QueuesPerDevice <= 0 {
		cfg.QueuesPerDevice = 1
	}
	if cfg.QueuesPerDevice > xdcopy.MaxQueuesPerDevice {
		cfg.QueuesPerDevice = xdcopy.MaxQueuesPerDevice
	}
	b := &Backend{
		cfg:                cfg,
		devices:            make([]*simDevice, cfg.DeviceCount),
		stagingOffsets:     make([]int64, cfg.DeviceCount),
		hostStagingOffsets: make([]int64, cfg.DeviceCount),
	}
	for i := range b.devices {
		b.devices[i] = newSimDevice(i, cfg.BufferSize, cfg.QueuesPerDevice)
	}
	return b
}

// Close stops every device's queues, waiting for outstanding work first.
func (b *Backend) Close() {
	for _, d := range b.devices {
		d.close()
	}
}

func (b *Backend) device(id int) (*simDevice, error) {
	if id < 0 || id >= len(b.devices) {
		return nil, fmt.Errorf("sim: invalid device id %d (%d device(s) available)", id, len(b.devices))
	}
	return b.devices[id], nil
}

func (b *Backend) Info() string {
	s := fmt.Sprintf("sim backend: %d device(s), 2d_copy=%v, d2d_copy=%v, peer_access=%v (%s)\n",
		len(b.devices), b.cfg.Has2DCopy, b.cfg.HasD2DCopy, b.cfg.HasPeerAccess, xdcopy.CPUInfo())
	for _, d := range b.devices {
		s += fmt.Sprintf("  device %d: %s, buffer=%d bytes, queues=%d\n", d.id, d.name, len(d.devBuffer.data), len(d.queues))
	}
	return s
}

func (b *Backend) DeviceCount() int { return len(b.devices) }

func (b *Backend) DeviceProperties(device int) (backend.DeviceProperties, error) {
	d, err := b.device(device)
	if err != nil {
		return backend.DeviceProperties{}, err
	}
	return backend.DeviceProperties{
		Name:          d.name,
		QueueCount:    len(d.queues),
		BufferSize:    int64(len(d.devBuffer.data)),
		Has2DCopy:     b.cfg.Has2DCopy,
		HasD2DCopy:    b.cfg.HasD2DCopy,
		HasPeerAccess: b.cfg.HasPeerAccess,
		PreferredWG:   256,
	}, nil
}

func (b *Backend) CanExecute(req backend.CopyRequest) backend.Possibility {
	oneSideHost := req.SourceDevice < 0 || req.TargetDevice < 0
	if req.UseKernel && oneSideHost {
		return backend.NeedsKernelRewrite
	}
	crossDevice := req.SourceDevice >= 0 && req.TargetDevice >= 0 && req.SourceDevice != req.TargetDevice
	if crossDevice && !b.cfg.HasD2DCopy {
		return backend.NeedsD2DCopy
	}
	if req.Use2DCopy && !b.cfg.Has2DCopy {
		return backend.Needs2DCopy
	}
	return backend.Possible
}

// AllocateStaging reserves size bytes (floored at xdcopy.MinStagingBufferSize,
// then rounded up to a 128-byte boundary) from the given device's staging
// arena (or its host-resident staging arena, when onHost is true). Unlike
// the reference backend's staging_fulfiller, which advances its offset by
// `size + staging_alignment % size` — a bug that only ever adds 0 or a
// remainder smaller than the requested size, so the next buffer does not
// in general start on an alignment boundary — this rounds the reservation
// itself up to the alignment boundary, so every allocation starts aligned
// and successive allocations never overlap.
func (b *Backend) AllocateStaging(device int, onHost bool, size int64) (backend.Buffer, error) {
	d, err := b.device(device)
	if err != nil {
		return nil, err
	}
	if size < xdcopy.MinStagingBufferSize {
		size = xdcopy.MinStagingBufferSize
	}
	aligned := alignUp(size, allocAlignment)

	b.mu.Lock()
	defer b.mu.Unlock()
	arena := d.stagingBuffer
	offsets := b.stagingOffsets
	if onHost {
		arena = d.hostStagingBuffer
		offsets = b.hostStagingOffsets
	}
	start := offsets[device]
	if start+aligned > int64(len(arena.data)) {
		return nil, fmt.Errorf("sim: staging buffer overflow on device %d (onHost=%v): need %d bytes at offset %d, capacity %d",
			device, onHost, aligned, start, len(arena.data))
	}
	offsets[device] = start + aligned
	return &buffer{arena: arena, base: start, size: size}, nil
}

func (b *Backend) DeviceBuffer(device int) (backend.Buffer, error) {
	d, err := b.device(device)
	if err != nil {
		return nil, err
	}
	return &buffer{arena: d.devBuffer, base: 0, size: int64(len(d.devBuffer.data))}, nil
}

func (b *Backend) HostBuffer(device int) (backend.Buffer, error) {
	d, err := b.device(device)
	if err != nil {
		return nil, err
	}
	return &buffer{arena: d.hostBuffer, base: 0, size: int64(len(d.hostBuffer.data))}, nil
}

func (b *Backend) targetQueue(t backend.Target) (*queue, error) {
	d, err := b.device(t.Device)
	if err != nil {
		return nil, err
	}
	return d.queue(t.QueueIdx), nil
}

func asBuf(buf backend.Buffer, op string) *buffer {
	sb, ok := buf.(*buffer)
	if !ok {
		panic(fmt.Sprintf("sim: %s given a buffer not allocated by this backend", op))
	}
	return sb
}

func (b *Backend) CopyLinear(ctx context.Context, target backend.Target, req backend.CopyRequest, length int64) error {
	src, tgt := asBuf(req.SourceBuffer, "CopyLinear"), asBuf(req.TargetBuffer, "CopyLinear")
	if req.SourceDevice < 0 && req.TargetDevice < 0 {
		copyViaRepeated1D(src, tgt, req)
		return nil
	}
	q, err := b.targetQueue(target)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	q.submit(func() {
		copyViaRepeated1D(src, tgt, req)
		close(done)
	})
	return waitOrCancel(ctx, done)
}

func (b *Backend) Copy2D(ctx context.Context, target backend.Target, req backend.CopyRequest) error {
	if !b.cfg.Has2DCopy {
		return backend.NewUnsupportedError("Copy2D", "sim backend not configured with a native 2D-copy primitive")
	}
	src, tgt := asBuf(req.SourceBuffer, "Copy2D"), asBuf(req.TargetBuffer, "Copy2D")
	q, err := b.targetQueue(target)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	q.submit(func() {
		copyViaRepeated1D(src, tgt, req)
		close(done)
	})
	return waitOrCancel(ctx, done)
}

func (b *Backend) CopyViaKernel(ctx context.Context, target backend.Target, req backend.CopyRequest) error {
	src, tgt := asBuf(req.SourceBuffer, "CopyViaKernel"), asBuf(req.TargetBuffer, "CopyViaKernel")
	commonFragLen := req.SourceFragmentLength
	for rem := req.TargetFragmentLength; rem != 0; {
		commonFragLen, rem = rem, commonFragLen%rem
	}
	lane := xdcopy.PreferredKernelCopyLane(commonFragLen)

	q, err := b.targetQueue(target)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	q.submit(func() {
		copyViaKernel(src, tgt, req, lane)
		close(done)
	})
	return waitOrCancel(ctx, done)
}

func (b *Backend) Wait(ctx context.Context, target backend.Target) error {
	q, err := b.targetQueue(target)
	if err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		q.wait()
		close(done)
	}()
	return waitOrCancel(ctx, done)
}

func (b *Backend) Barrier(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		for _, d := range b.devices {
			for _, q := range d.queues {
				q.wait()
			}
		}
		close(done)
	}()
	return waitOrCancel(ctx, done)
}

func waitOrCancel(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

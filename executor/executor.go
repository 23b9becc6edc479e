// Package executor binds a planner-produced ParallelCopySet to a
// backend.Backend: it resolves staging handles to real buffers, builds the
// concrete copy requests each plan step describes, and drives them to
// completion, fanning independent plans out across a worker pool the way
// the reference "TODO: actual parallelization" comment in
// execute_copy(executor&, const parallel_copy_set&) always meant to.
package executor

import (
	"context"
	"fmt"

	"github.com/LynnColeArt/xdcopy"
	"github.com/LynnColeArt/xdcopy/backend"
)

// Config controls how an Executor schedules work.
type Config struct {
	// Workers bounds how many plans within a ParallelCopySet run
	// concurrently. Zero means xdcopy.DefaultWorkerPoolSize.
	Workers int
}

// Executor drives CopySpecs, CopyPlans, and ParallelCopySets to completion
// against a Backend.
type Executor struct {
	be      backend.Backend
	workers int
}

// New returns an Executor bound to be.
func New(be backend.Backend, cfg Config) *Executor {
	workers := cfg.Workers
	if workers <= 0 {
		workers = xdcopy.DefaultWorkerPoolSize
	}
	return &Executor{be: be, workers: workers}
}

// Execute runs a single CopySpec with its own staging resolver, waiting on
// the queue it dispatched to before returning.
func (e *Executor) Execute(ctx context.Context, spec xdcopy.CopySpec) error {
	resolver := NewStagingResolver(e.be)
	target, dispatched := dispatchTarget(spec, 0)
	if err := e.executeStep(ctx, resolver, spec, target); err != nil {
		return err
	}
	if dispatched {
		return e.be.Wait(ctx, target)
	}
	return nil
}

// ExecutePlan runs plan's steps in order, sharing one StagingResolver so
// that a plan's own internal staging hops (e.g. stage-at-source, hop,
// unstage-at-target) reuse the same buffers. Each step waits for the
// previous one, since CopyPlan.IsValid requires step i+1's source to equal
// step i's target: later steps read what earlier steps wrote.
func (e *Executor) ExecutePlan(ctx context.Context, plan xdcopy.CopyPlan) error {
	resolver := NewStagingResolver(e.be)
	for i, step := range plan {
		target, dispatched := dispatchTarget(step, 0)
		if err := e.executeStep(ctx, resolver, step, target); err != nil {
			return fmt.Errorf("executor: step %d of %d: %w", i, len(plan), err)
		}
		if dispatched {
			if err := e.be.Wait(ctx, target); err != nil {
				return fmt.Errorf("executor: waiting on step %d: %w", i, err)
			}
		}
	}
	return nil
}

// ExecuteSet runs every plan in set, sharing one StagingResolver across the
// whole set (so identically-indexed staging handles across different
// plans reuse storage) and fanning plans out across a worker pool sized by
// Config.Workers. Plan i is assigned queue index i % e.workers on whatever
// device it dispatches to, so concurrently-running plans use disjoint
// queues on a shared device and never collide for ordering, matching the
// "each worker owns a disjoint queue-index" rule.
func (e *Executor) ExecuteSet(ctx context.Context, set xdcopy.ParallelCopySet) error {
	pool := newWorkerPool(e.workers)
	resolver := NewStagingResolver(e.be)
	for i, plan := range set.Plans() {
		plan, queueIdx := plan, i%e.workers
		pool.submit(func() error {
			for i, step := range plan {
				target, dispatched := dispatchTarget(step, queueIdx)
				if err := e.executeStep(ctx, resolver, step, target); err != nil {
					return fmt.Errorf("executor: step %d of plan %v: %w", i, plan, err)
				}
				if dispatched {
					if err := e.be.Wait(ctx, target); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	return pool.waitAndClose()
}

// dispatchTarget picks which device's queue a step dispatches onto: the
// non-host side, since a host-resident endpoint has no queue of its own.
// queueIdx selects which of that device's queues to use; callers fanning
// many plans out concurrently pass a distinct index per plan so they don't
// contend for the same queue. Host-to-host steps dispatch nowhere
// (reported via the second return).
func dispatchTarget(spec xdcopy.CopySpec, queueIdx int) (backend.Target, bool) {
	if !spec.SourceDevice.IsHost() {
		return backend.Target{Device: int(spec.SourceDevice), QueueIdx: queueIdx}, true
	}
	if !spec.TargetDevice.IsHost() {
		return backend.Target{Device: int(spec.TargetDevice), QueueIdx: queueIdx}, true
	}
	return backend.Target{Device: -1}, false
}

// executeStep resolves spec's source and target layouts to real buffers
// and dispatches to the backend's linear, 2D, or kernel copy primitive
// according to spec.Properties, mirroring the reference execute_copy's
// property-driven dispatch.
func (e *Executor) executeStep(ctx context.Context, resolver *StagingResolver, spec xdcopy.CopySpec, target backend.Target) error {
	srcBuf, srcOff, err := resolveLayout(e.be, resolver, spec.SourceDevice, spec.TargetDevice, spec.SourceLayout)
	if err != nil {
		return fmt.Errorf("executor: resolving source: %w", err)
	}
	tgtBuf, tgtOff, err := resolveLayout(e.be, resolver, spec.TargetDevice, spec.SourceDevice, spec.TargetLayout)
	if err != nil {
		return fmt.Errorf("executor: resolving target: %w", err)
	}

	req := backend.CopyRequest{
		SourceDevice:         deviceIndex(spec.SourceDevice),
		TargetDevice:         deviceIndex(spec.TargetDevice),
		SourceBuffer:         srcBuf,
		TargetBuffer:         tgtBuf,
		SourceOffset:         srcOff + spec.SourceLayout.Offset,
		TargetOffset:         tgtOff + spec.TargetLayout.Offset,
		SourceFragmentLength: spec.SourceLayout.FragmentLength,
		TargetFragmentLength: spec.TargetLayout.FragmentLength,
		SourceFragmentCount:  spec.SourceLayout.FragmentCount,
		TargetFragmentCount:  spec.TargetLayout.FragmentCount,
		SourceStride:         spec.SourceLayout.EffectiveStride(),
		TargetStride:         spec.TargetLayout.EffectiveStride(),
		UseKernel:            spec.Properties.Has(xdcopy.UseKernel),
		Use2DCopy:            spec.Properties.Has(xdcopy.Use2D),
	}

	// Host-to-host copies always go through the generic linear path: no
	// queue exists to dispatch a kernel or 2D-copy primitive onto, matching
	// the reference execute_copy's host<->host special case.
	if spec.SourceDevice.IsHost() && spec.TargetDevice.IsHost() {
		return e.be.CopyLinear(ctx, target, req, req.TotalBytes())
	}

	switch poss := e.be.CanExecute(req); poss {
	case backend.NeedsD2DCopy:
		return backend.NewUnsupportedError("Execute", fmt.Sprintf("step %v needs a device-to-device rewrite this backend cannot do directly; re-plan with a host-hop D2D implementation", spec))
	case backend.Needs2DCopy:
		return backend.NewUnsupportedError("Execute", fmt.Sprintf("step %v requests a 2D copy this backend cannot do natively", spec))
	case backend.NeedsKernelRewrite:
		return backend.NewUnsupportedError("Execute", fmt.Sprintf("step %v requests a kernel copy but touches the host; copy_via_kernel is only available for non-host<->non-host copies", spec))
	}

	// UseKernel only ever dispatches to CopyViaKernel when neither side is
	// host, matching the backend's stated limitation (kernel launches have
	// no host-resident analogue); the CanExecute check above already
	// rejects a host-touching UseKernel request, this is the second gate.
	switch {
	case req.UseKernel && req.SourceDevice >= 0 && req.TargetDevice >= 0:
		return e.be.CopyViaKernel(ctx, target, req)
	case req.Use2DCopy:
		return e.be.Copy2D(ctx, target, req)
	default:
		return e.be.CopyLinear(ctx, target, req, req.TotalBytes())
	}
}

// resolveLayout returns the backend buffer layout addresses into, and the
// base byte offset within that buffer that layout.Offset is relative to.
// A placed layout's Addr() is treated as a byte offset into dev's resident
// data buffer (device-resident, or host-resident for Host); an unplaced
// staging layout is resolved through resolver instead. The reservation is
// sized by TotalExtent, not TotalBytes: a staging layout that preserves its
// original stride and offset (as ApplyD2DImplementation's host hops do)
// spans more than the bytes it actually moves, and under-reserving would
// let one staging allocation's fragment-paired copy read or write into the
// next one.
//
// When dev is Host, its per-device host-resident mirror is chosen by
// otherDevice — the device on the other side of this step, the same
// pairing dispatchTarget uses to pick a queue — since a Backend keeps a
// distinct host buffer per device rather than one shared across all of
// them. A host-to-host step (otherDevice also Host) has no device to pair
// with, so it falls back to device 0's host buffer.
func resolveLayout(be backend.Backend, resolver *StagingResolver, dev, otherDevice xdcopy.DeviceID, layout xdcopy.DataLayout) (backend.Buffer, int64, error) {
	if layout.IsUnplacedStaging() {
		buf, err := resolver.Resolve(layout.StagingHandle(), layout.TotalExtent())
		return buf, 0, err
	}
	var buf backend.Buffer
	var err error
	if dev.IsHost() {
		hostDevice := 0
		if !otherDevice.IsHost() {
			hostDevice = int(otherDevice)
		}
		buf, err = be.HostBuffer(hostDevice)
	} else {
		buf, err = be.DeviceBuffer(int(dev))
	}
	if err != nil {
		return nil, 0, err
	}
	return buf, int64(layout.Addr()), nil
}

// deviceIndex converts a DeviceID to the plain int a backend.Target or
// backend.CopyRequest uses, preserving the -1-means-host convention both
// packages share.
func deviceIndex(d xdcopy.DeviceID) int {
	if d.IsHost() {
		return -1
	}
	return int(d)
}

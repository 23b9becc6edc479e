// Package xdcopy plans and describes bulk memory transfers between a host
// and a set of accelerator devices under arbitrary strided layouts.
//
// The package is split into three layers. This package, xdcopy, holds the
// pure data model and planner: DataLayout/CopySpec/CopyPlan/ParallelCopySet
// values, and the deterministic transformations (Normalize, ApplyChunking,
// ApplyStaging, ApplyD2DImplementation, ManifestStrategy) that turn a
// CopySpec and a Strategy into an executable ParallelCopySet. None of this
// package touches an accelerator: it has no notion of queues, buffers, or
// copy primitives.
//
// Package xdcopy/backend describes the capability surface a real
// accelerator runtime would implement (queues, device/host buffers, linear
// and strided copy primitives) and ships one in-process reference
// implementation, xdcopy/backend/sim, for testing.
//
// Package xdcopy/executor binds a ParallelCopySet to a backend: it resolves
// staging handles to real addresses, dispatches plan steps to queues, and
// fans independent plans out across a worker pool.
//
// Example:
//
//	spec := xdcopy.NewCopySpec(xdcopy.Device(0), src, xdcopy.Device(1), tgt, xdcopy.PropNone)
//	strat := xdcopy.Strategy{Type: xdcopy.Staged, D2D: xdcopy.HostAtSource, ChunkSize: 1 << 20}
//	set, err := xdcopy.ManifestStrategy(spec, strat, xdcopy.NewBasicStagingProvider())
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = executor.New(be, executor.Config{}).ExecuteSet(ctx, set)
package xdcopy
// Package xdcopy configuration constants
package xdcopy

// Staging parameters
const (
	// DefaultStagingAlignment is the byte alignment the sim backend's
	// AllocateStaging rounds every staging allocation up to.
	DefaultStagingAlignment = 128

	// MinStagingBufferSize is the smallest staging buffer the sim backend's
	// AllocateStaging will hand out; requests below this are rounded up.
	MinStagingBufferSize = 64
)

// Chunking parameters
const (
	// DefaultChunkSize is the chunk size a Strategy uses when the caller
	// wants chunking but has no specific size bound in mind.
	DefaultChunkSize = 1 << 20 // 1 MiB

	// MaxFragmentForChunking is the largest single fragment ApplyChunking
	// will accept without returning a contract error; larger fragments
	// cannot be sub-divided by this planner.
	MaxFragmentForChunking = 1 << 24 // 16 MiB
)

// Queue and worker-pool parameters
const (
	// DefaultQueuesPerDevice is how many independent command queues
	// the sim backend's DefaultConfig gives each device.
	DefaultQueuesPerDevice = 2

	// DefaultWorkerPoolSize bounds how many plans in a ParallelCopySet the
	// Executor dispatches concurrently when unset.
	DefaultWorkerPoolSize = 8

	// MaxQueuesPerDevice is the fixed upper bound the sim backend will
	// allocate per device.
	MaxQueuesPerDevice = 8
)

// Kernel-copy vectorization lane widths, in bytes, tried from widest to
// narrowest until one evenly divides the fragment length.
var KernelCopyLaneWidths = [...]int64{16, 8, 4, 2, 1}

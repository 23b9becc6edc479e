package xdcopy

import (
	"golang.org/x/sys/cpu"
)

// cpuFeaturesT tracks the CPU instruction set extensions relevant to
// backend/sim's reference copy_via_kernel implementation: selecting a wide
// vector load/store width when the host CPU and the fragment alignment
// both allow it is the only optimization this planner's kernel-copy path
// performs.
type cpuFeaturesT struct {
	HasAVX2    bool
	HasAVX512F bool
	HasSSE4    bool
}

var cpuFeat cpuFeaturesT

func init() {
	detectCPUFeatures()
}

func detectCPUFeatures() {
	cpuFeat = cpuFeaturesT{
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX2:    cpu.X86.HasAVX2 && cpu.X86.HasFMA,
		HasAVX512F: cpu.X86.HasAVX512F,
	}
}

// PreferredKernelCopyLane returns the widest lane width (in bytes, from
// KernelCopyLaneWidths) that both the host CPU supports and evenly divides
// fragmentLength. backend/sim's kernel-copy primitive uses this to decide
// how many bytes to move per loop iteration.
func PreferredKernelCopyLane(fragmentLength int64) int64 {
	for _, width := range KernelCopyLaneWidths {
		if width > maxLaneForCPU() {
			continue
		}
		if fragmentLength%width == 0 {
			return width
		}
	}
	return 1
}

func maxLaneForCPU() int64 {
	switch {
	case cpuFeat.HasAVX512F:
		return 16
	case cpuFeat.HasAVX2:
		return 8
	case cpuFeat.HasSSE4:
		return 4
	default:
		return 1
	}
}

// CPUInfo describes the CPU features detected, for diagnostics.
func CPUInfo() string {
	switch {
	case cpuFeat.HasAVX512F:
		return "AVX512F"
	case cpuFeat.HasAVX2:
		return "AVX2"
	case cpuFeat.HasSSE4:
		return "SSE4"
	default:
		return "scalar"
	}
}

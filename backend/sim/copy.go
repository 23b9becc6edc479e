package sim

import "github.com/LynnColeArt/xdcopy/backend"

// copyViaRepeated1D moves req's bytes as a sequence of contiguous runs,
// pairing up source and target fragments even when their fragment lengths
// differ. This is the sim analogue of copy_via_repeated_1D_copies: the
// generic fallback used whenever neither a kernel nor a native 2D-copy
// primitive is requested, and the only path used for host-to-host copies.
func copyViaRepeated1D(src, tgt *buffer, req backend.CopyRequest) {
	srcFragLen, tgtFragLen := req.SourceFragmentLength, req.TargetFragmentLength
	largerFragCount := req.SourceFragmentCount
	if req.TargetFragmentCount > largerFragCount {
		largerFragCount = req.TargetFragmentCount
	}
	smallerFragLen := srcFragLen
	if tgtFragLen < smallerFragLen {
		smallerFragLen = tgtFragLen
	}
	srcFactor := srcFragLen / smallerFragLen
	tgtFactor := tgtFragLen / smallerFragLen

	srcStride := req.SourceStride
	if srcStride == 0 {
		srcStride = srcFragLen
	}
	tgtStride := req.TargetStride
	if tgtStride == 0 {
		tgtStride = tgtFragLen
	}

	for frag := int64(0); frag < largerFragCount; frag++ {
		srcFragID := frag / srcFactor
		tgtFragID := frag / tgtFactor
		srcOffsetInFrag := (frag % srcFactor) * tgtFragLen
		tgtOffsetInFrag := (frag % tgtFactor) * srcFragLen

		srcOff := req.SourceOffset + srcFragID*srcStride + srcOffsetInFrag
		tgtOff := req.TargetOffset + tgtFragID*tgtStride + tgtOffsetInFrag

		copy(tgt.bytes(tgtOff, smallerFragLen), src.bytes(srcOff, smallerFragLen))
	}
}

// copyViaKernel moves req's bytes element-by-element at the given lane
// width, computing each element's source and target fragment independent
// of the other side's fragment length. This mirrors copy_with_kernel_impl,
// which is only correct when both fragment lengths are multiples of the
// lane width — the same precondition the reference backend's dispatch
// enforces by picking the widest lane that divides both.
func copyViaKernel(src, tgt *buffer, req backend.CopyRequest, lane int64) {
	srcFragElems := req.SourceFragmentLength / lane
	tgtFragElems := req.TargetFragmentLength / lane
	srcStride := req.SourceStride
	if srcStride == 0 {
		srcStride = req.SourceFragmentLength
	}
	tgtStride := req.TargetStride
	if tgtStride == 0 {
		tgtStride = req.TargetFragmentLength
	}
	srcStrideElems := srcStride / lane
	tgtStrideElems := tgtStride / lane

	totalElems := req.TotalBytes() / lane
	for idx := int64(0); idx < totalElems; idx++ {
		srcFrag := idx / srcFragElems
		tgtFrag := idx / tgtFragElems
		srcElemOff := srcFrag*srcStrideElems + idx%srcFragElems
		tgtElemOff := tgtFrag*tgtStrideElems + idx%tgtFragElems

		srcOff := req.SourceOffset + srcElemOff*lane
		tgtOff := req.TargetOffset + tgtElemOff*lane
		copy(tgt.bytes(tgtOff, lane), src.bytes(srcOff, lane))
	}
}

package xdcopy

// ApplyChunking partitions spec into a set of independent, same-geometry
// single-step plans, each moving at most strat.ChunkSize bytes. ChunkSize
// == 0 disables chunking: the result is the single unmodified spec.
//
// Four geometric cases are handled, matched on which side (if either) is
// unit-stride:
//
//   - both unit-stride: chunk linearly along the byte range.
//   - source unit-stride, target strided: chunk along whole target
//     fragments, pulling the matching contiguous byte range from source.
//   - source strided, target unit-stride: the mirror image.
//   - both strided: chunk along whichever side has the larger fragment,
//     splitting the smaller side's fragments proportionally. The larger
//     fragment length must be an exact multiple of the smaller.
func ApplyChunking(spec CopySpec, strat Strategy) (set ParallelCopySet, err error) {
	defer recoverContractError(&err)
	ensure(spec.IsValid(), "ApplyChunking", "invalid copy specification, cannot chunk: %v", spec)

	if strat.ChunkSize == 0 {
		set.Add(CopyPlan{spec})
		return set, nil
	}

	srcUnit, tgtUnit := spec.SourceLayout.UnitStride(), spec.TargetLayout.UnitStride()
	switch {
	case srcUnit && tgtUnit:
		chunkContiguous(&set, spec, strat)
	case srcUnit && !tgtUnit:
		chunkSourceUnitTargetStrided(&set, spec, strat)
	case !srcUnit && tgtUnit:
		chunkSourceStridedTargetUnit(&set, spec, strat)
	default:
		chunkBothStrided(&set, spec, strat)
	}
	return set, nil
}

func chunkContiguous(set *ParallelCopySet, spec CopySpec, strat Strategy) {
	total := spec.SourceLayout.TotalBytes()
	numChunks := ceilDiv(total, strat.ChunkSize)
	for i := int64(0); i < numChunks; i++ {
		start := i * strat.ChunkSize
		length := min64(strat.ChunkSize, total-start)
		src := DataLayout{base: spec.SourceLayout.base, Offset: spec.SourceLayout.Offset + start, FragmentLength: length, FragmentCount: 1, Stride: length}
		tgt := DataLayout{base: spec.TargetLayout.base, Offset: spec.TargetLayout.Offset + start, FragmentLength: length, FragmentCount: 1, Stride: length}
		set.Add(CopyPlan{{SourceDevice: spec.SourceDevice, SourceLayout: src, TargetDevice: spec.TargetDevice, TargetLayout: tgt, Properties: spec.Properties}})
	}
}

func chunkSourceUnitTargetStrided(set *ParallelCopySet, spec CopySpec, strat Strategy) {
	tgt := spec.TargetLayout
	ensure(tgt.FragmentLength <= MaxFragmentForChunking, "ApplyChunking", "cannot chunk, fragment length %d exceeds maximum %d", tgt.FragmentLength, MaxFragmentForChunking)
	ensure(tgt.FragmentLength <= strat.ChunkSize, "ApplyChunking", "cannot chunk, fragments too large for chunking (%d > %d)", tgt.FragmentLength, strat.ChunkSize)

	fragsPerChunk := strat.ChunkSize / tgt.FragmentLength
	numChunks := ceilDiv(tgt.FragmentCount, fragsPerChunk)

	for i := int64(0); i < numChunks; i++ {
		startFrag := i * fragsPerChunk
		endFrag := min64(startFrag+fragsPerChunk, tgt.FragmentCount)
		numFrags := endFrag - startFrag
		srcOffset := spec.SourceLayout.Offset + startFrag*tgt.FragmentLength
		tgtOffset := tgt.FragmentOffset(startFrag)

		src := DataLayout{base: spec.SourceLayout.base, Offset: srcOffset, FragmentLength: numFrags * tgt.FragmentLength, FragmentCount: 1, Stride: 0}
		tgtLayout := DataLayout{base: tgt.base, Offset: tgtOffset, FragmentLength: tgt.FragmentLength, FragmentCount: numFrags, Stride: tgt.Stride}
		set.Add(CopyPlan{{SourceDevice: spec.SourceDevice, SourceLayout: src, TargetDevice: spec.TargetDevice, TargetLayout: tgtLayout, Properties: spec.Properties}})
	}
}

func chunkSourceStridedTargetUnit(set *ParallelCopySet, spec CopySpec, strat Strategy) {
	src := spec.SourceLayout
	ensure(src.FragmentLength <= MaxFragmentForChunking, "ApplyChunking", "cannot chunk, fragment length %d exceeds maximum %d", src.FragmentLength, MaxFragmentForChunking)
	ensure(src.FragmentLength <= strat.ChunkSize, "ApplyChunking", "cannot chunk, fragments too large for chunking (%d > %d)", src.FragmentLength, strat.ChunkSize)

	fragsPerChunk := strat.ChunkSize / src.FragmentLength
	numChunks := ceilDiv(src.FragmentCount, fragsPerChunk)

	for i := int64(0); i < numChunks; i++ {
		startFrag := i * fragsPerChunk
		endFrag := min64(startFrag+fragsPerChunk, src.FragmentCount)
		numFrags := endFrag - startFrag
		srcOffset := src.FragmentOffset(startFrag)
		tgtOffset := spec.TargetLayout.Offset + startFrag*src.FragmentLength

		srcLayout := DataLayout{base: src.base, Offset: srcOffset, FragmentLength: src.FragmentLength, FragmentCount: numFrags, Stride: src.Stride}
		tgt := DataLayout{base: spec.TargetLayout.base, Offset: tgtOffset, FragmentLength: numFrags * src.FragmentLength, FragmentCount: 1, Stride: 0}
		set.Add(CopyPlan{{SourceDevice: spec.SourceDevice, SourceLayout: srcLayout, TargetDevice: spec.TargetDevice, TargetLayout: tgt, Properties: spec.Properties}})
	}
}

func chunkBothStrided(set *ParallelCopySet, spec CopySpec, strat Strategy) {
	src, tgt := spec.SourceLayout, spec.TargetLayout
	largerLen := max64(src.FragmentLength, tgt.FragmentLength)
	smallerLen := min64(src.FragmentLength, tgt.FragmentLength)
	ensure(largerLen <= MaxFragmentForChunking, "ApplyChunking", "cannot chunk, fragment length %d exceeds maximum %d", largerLen, MaxFragmentForChunking)
	ensure(largerLen <= strat.ChunkSize, "ApplyChunking", "cannot chunk, fragments too large for chunking (%d > %d)", largerLen, strat.ChunkSize)
	ensure(largerLen%smallerLen == 0, "ApplyChunking", "cannot chunk, fragment sizes not compatible (%d %% %d != 0)", largerLen, smallerLen)

	largerFragsPerChunk := strat.ChunkSize / largerLen
	smallerFragsPerLarger := largerLen / smallerLen
	smallerFragsPerChunk := largerFragsPerChunk * smallerFragsPerLarger
	largerFragCount := min64(src.FragmentCount, tgt.FragmentCount)
	numChunks := ceilDiv(largerFragCount, largerFragsPerChunk)

	sourceIsLarger := src.FragmentLength > tgt.FragmentLength
	for i := int64(0); i < numChunks; i++ {
		if sourceIsLarger {
			srcStart := i * largerFragsPerChunk
			ensure(srcStart < src.FragmentCount, "ApplyChunking", "invalid source fragment index %d of %d", srcStart, src.FragmentCount)
			srcEnd := min64(srcStart+largerFragsPerChunk, src.FragmentCount)
			numSrcFrags := srcEnd - srcStart
			srcOffset := src.FragmentOffset(srcStart)

			tgtStart := srcStart * smallerFragsPerLarger
			ensure(tgtStart < tgt.FragmentCount, "ApplyChunking", "invalid target fragment index %d of %d", tgtStart, tgt.FragmentCount)
			tgtEnd := srcEnd * smallerFragsPerLarger
			numTgtFrags := tgtEnd - tgtStart
			tgtOffset := tgt.FragmentOffset(tgtStart)

			srcLayout := DataLayout{base: src.base, Offset: srcOffset, FragmentLength: largerLen, FragmentCount: numSrcFrags, Stride: src.Stride}
			tgtLayout := DataLayout{base: tgt.base, Offset: tgtOffset, FragmentLength: smallerLen, FragmentCount: numTgtFrags, Stride: tgt.Stride}
			set.Add(CopyPlan{{SourceDevice: spec.SourceDevice, SourceLayout: srcLayout, TargetDevice: spec.TargetDevice, TargetLayout: tgtLayout, Properties: spec.Properties}})
		} else {
			srcStart := i * smallerFragsPerChunk
			ensure(srcStart < src.FragmentCount, "ApplyChunking", "invalid source fragment index %d of %d", srcStart, src.FragmentCount)
			srcEnd := min64(srcStart+smallerFragsPerChunk, src.FragmentCount)
			numSrcFrags := srcEnd - srcStart
			srcOffset := src.FragmentOffset(srcStart)

			tgtStart := srcStart / smallerFragsPerLarger
			ensure(tgtStart < tgt.FragmentCount, "ApplyChunking", "invalid target fragment index %d of %d", tgtStart, tgt.FragmentCount)
			tgtEnd := srcEnd / smallerFragsPerLarger
			numTgtFrags := tgtEnd - tgtStart
			tgtOffset := tgt.FragmentOffset(tgtStart)

			srcLayout := DataLayout{base: src.base, Offset: srcOffset, FragmentLength: smallerLen, FragmentCount: numSrcFrags, Stride: src.Stride}
			tgtLayout := DataLayout{base: tgt.base, Offset: tgtOffset, FragmentLength: largerLen, FragmentCount: numTgtFrags, Stride: tgt.Stride}
			set.Add(CopyPlan{{SourceDevice: spec.SourceDevice, SourceLayout: srcLayout, TargetDevice: spec.TargetDevice, TargetLayout: tgtLayout, Properties: spec.Properties}})
		}
	}
}

func ceilDiv(a, b int64) int64 {
	return a/b + boolToInt64(a%b != 0)
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

package xdcopy

// ManifestStrategy is the planner's top-level entry point: it turns one
// CopySpec and a Strategy into an executable ParallelCopySet by chunking,
// then staging, then resolving device-to-device hops, in that order.
//
//	chunked := ApplyChunking(spec, strat)                         // one step per plan
//	staged  := ApplyStaging(plan[0], strat, provider) for each     // up to 3 steps per plan
//	result  := ApplyD2DImplementation(plan, strat.D2D, provider)   // expands any D2D step
//
// The result always satisfies IsEquivalentSet(result, spec); this is the
// planner's single most important correctness property.
func ManifestStrategy(spec CopySpec, strat Strategy, provider StagingProvider) (ParallelCopySet, error) {
	chunked, err := ApplyChunking(spec, strat)
	if err != nil {
		return ParallelCopySet{}, err
	}
	staged, err := ApplyStagingSet(chunked, strat, provider)
	if err != nil {
		return ParallelCopySet{}, err
	}
	return ApplyD2DImplementationSet(staged, strat.D2D, provider)
}

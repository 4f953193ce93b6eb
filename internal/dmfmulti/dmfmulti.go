// Package dmfmulti computes the per-module, per-channel pattern-offset
// bookkeeping `--verbose` diagnostics need when a run compiles more than
// one DMF module in a single invocation (SPEC_FULL C.1). Each module
// still compiles to its own independent song (§4.12); this package only
// reports where each module's patterns would land if its per-channel
// pattern pools were laid out back to back, the way the original
// standalone multi-module merge tool reported it.
package dmfmulti

import "dmf2mlm/internal/dmf"

// Offsets holds, for one module, the index each of its channels'
// pattern list would start at inside a pool merged across every module
// compiled this run (module order, then channel order).
type Offsets [dmf.SystemTotalChannels]int

// ComputeOffsets returns one Offsets entry per module in modules, in
// the same order, mirroring `multi_dmf.py`'s `merge_patterns` running
// per-channel counters without actually concatenating the pattern data.
func ComputeOffsets(modules []*dmf.Module) []Offsets {
	var counts [dmf.SystemTotalChannels]int
	out := make([]Offsets, len(modules))

	for mi, m := range modules {
		for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
			out[mi][ch] = counts[ch]
			counts[ch] += len(m.Patterns[ch])
		}
	}
	return out
}

// PatternCounts returns, per channel, the total number of patterns
// across every module — the final value each ComputeOffsets counter
// would reach.
func PatternCounts(modules []*dmf.Module) [dmf.SystemTotalChannels]int {
	var counts [dmf.SystemTotalChannels]int
	for _, m := range modules {
		for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
			counts[ch] += len(m.Patterns[ch])
		}
	}
	return counts
}

package dmfmulti

import (
	"testing"

	"dmf2mlm/internal/dmf"
)

func moduleWithPatternCounts(counts map[int]int) *dmf.Module {
	m := &dmf.Module{}
	for ch, n := range counts {
		m.Patterns[ch] = make([]dmf.Pattern, n)
	}
	return m
}

func TestComputeOffsets(t *testing.T) {
	mods := []*dmf.Module{
		moduleWithPatternCounts(map[int]int{0: 2, 7: 1}),
		moduleWithPatternCounts(map[int]int{0: 3, 7: 4}),
	}

	offs := ComputeOffsets(mods)
	if len(offs) != 2 {
		t.Fatalf("expected 2 offset entries, got %d", len(offs))
	}
	if offs[0][0] != 0 || offs[0][7] != 0 {
		t.Errorf("first module's offsets = %v, want all zero", offs[0])
	}
	if offs[1][0] != 2 {
		t.Errorf("second module channel 0 offset = %d, want 2", offs[1][0])
	}
	if offs[1][7] != 1 {
		t.Errorf("second module channel 7 offset = %d, want 1", offs[1][7])
	}

	counts := PatternCounts(mods)
	if counts[0] != 5 {
		t.Errorf("total channel 0 pattern count = %d, want 5", counts[0])
	}
	if counts[7] != 5 {
		t.Errorf("total channel 7 pattern count = %d, want 5", counts[7])
	}
}

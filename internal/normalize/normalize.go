// Package normalize turns a raw dmf.Module pattern matrix into a form the
// assembler can walk row-by-row without reasoning about per-row tick
// speed or repeated matrix entries: every matrix slot becomes its own
// fully expanded pattern, POSITION_JUMP effects are broadcast to every
// live channel at the row they fire on, and (once merged by Optimize)
// identical patterns collapse to a single copy.
package normalize

import (
	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/mlmerr"
)

// Module is a dmf.Module after matrix unrolling and row expansion: every
// matrix slot holds its own (already tick-expanded) Pattern, so
// Matrix[ch][i] == i for every live channel, or Matrix[ch] == nil for a
// channel that never produces a row.
type Module struct {
	Source   *dmf.Module
	Patterns [dmf.SystemTotalChannels][]dmf.Pattern
	Matrix   [dmf.SystemTotalChannels][]int
}

// Normalize performs matrix unroll, row expansion by speed, and
// position-jump broadcast (§4.4).
func Normalize(m *dmf.Module) (*Module, error) {
	n := &Module{Source: m}

	rowsInMatrix := m.PatternMatrix.RowsInPatternMatrix
	s1 := m.TimeInfo.TimeBase * m.TimeInfo.TickTime1
	s2 := m.TimeInfo.TimeBase * m.TimeInfo.TickTime2
	if s1 < 1 {
		s1 = 1
	}
	if s2 < 1 {
		s2 = 1
	}

	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if m.PatternMatrix.Matrix[ch] == nil {
			continue
		}
		patterns := make([]dmf.Pattern, rowsInMatrix)
		for i := 0; i < rowsInMatrix; i++ {
			patIdx := m.PatternMatrix.Matrix[ch][i]
			src := m.Patterns[ch][patIdx]
			patterns[i] = expandPattern(src, s1, s2)
		}
		n.Patterns[ch] = patterns
		n.Matrix[ch] = identityMatrix(rowsInMatrix)
	}

	if err := broadcastPositionJump(n); err != nil {
		return nil, err
	}
	dropEmptyChannels(n)
	return n, nil
}

func identityMatrix(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// expandPattern inserts s1-1 or s2-1 blank rows after each source row,
// alternating by row parity, matching every row playing for s1 or s2
// driver ticks instead of one. A POS_JUMP effect on the source row moves
// to the last inserted blank row, since it must fire once the row has
// finished playing out, not when it starts.
func expandPattern(src dmf.Pattern, s1, s2 int) dmf.Pattern {
	out := dmf.Pattern{}
	for i, row := range src.Rows {
		s := s1
		if i%2 == 1 {
			s = s2
		}

		var posJump *dmf.Effect
		if s > 1 {
			// There's a blank row to move the jump onto; extract it so
			// it fires after the row finishes playing out rather than
			// when it starts.
			var rest []dmf.Effect
			posJump, rest = extractEffect(row.Effects, dmf.EffectPosJump)
			row.Effects = rest
		}
		out.Rows = append(out.Rows, row)

		for k := 0; k < s-1; k++ {
			blank := dmf.Row{}
			if k == s-2 && posJump != nil {
				blank.Effects = []dmf.Effect{*posJump}
			}
			out.Rows = append(out.Rows, blank)
		}
	}
	return out
}

func extractEffect(effects []dmf.Effect, code dmf.EffectCode) (*dmf.Effect, []dmf.Effect) {
	var found *dmf.Effect
	rest := make([]dmf.Effect, 0, len(effects))
	for _, e := range effects {
		if e.Code == code && found == nil {
			f := e
			found = &f
			continue
		}
		rest = append(rest, e)
	}
	return found, rest
}

// broadcastPositionJump propagates a POS_JUMP effect firing on any one
// live channel at a given row to every other live channel at that same
// row, since each channel's event list performs its own jump and every
// channel has to jump at the same row. Differing
// jump targets at the same row are a composition error.
func broadcastPositionJump(n *Module) error {
	var totalRows int
	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		for _, p := range n.Patterns[ch] {
			if len(p.Rows) > totalRows {
				totalRows = len(p.Rows)
			}
		}
	}

	rowsOf := func(ch int) []dmf.Row {
		var rows []dmf.Row
		for _, p := range n.Patterns[ch] {
			rows = append(rows, p.Rows...)
		}
		return rows
	}

	flat := [dmf.SystemTotalChannels][]dmf.Row{}
	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if n.Matrix[ch] != nil {
			flat[ch] = rowsOf(ch)
		}
	}

	for row := 0; row < totalRows; row++ {
		var target *int
		for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
			if flat[ch] == nil || row >= len(flat[ch]) {
				continue
			}
			eff, _ := extractEffect(flat[ch][row].Effects, dmf.EffectPosJump)
			if eff == nil || eff.Value == nil {
				continue
			}
			if target == nil {
				v := *eff.Value
				target = &v
			} else if *target != *eff.Value {
				return mlmerr.ClashErrorf("conflicting POS_JUMP targets at row %d: %d vs %d", row, *target, *eff.Value)
			}
		}
		if target == nil {
			continue
		}
		for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
			if flat[ch] == nil || row >= len(flat[ch]) {
				continue
			}
			eff, rest := extractEffect(flat[ch][row].Effects, dmf.EffectPosJump)
			v := *target
			newEff := dmf.Effect{Code: dmf.EffectPosJump, Value: &v}
			flat[ch][row].Effects = append(rest, newEff)
			_ = eff
		}
	}

	writeBack(n, flat)
	return nil
}

func writeBack(n *Module, flat [dmf.SystemTotalChannels][]dmf.Row) {
	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if n.Matrix[ch] == nil {
			continue
		}
		ofs := 0
		for pi := range n.Patterns[ch] {
			rows := n.Patterns[ch][pi].Rows
			copy(rows, flat[ch][ofs:ofs+len(rows)])
			ofs += len(rows)
		}
	}
}

// dropEmptyChannels silences any channel whose every expanded row is
// empty — it never produces a note, instrument change or effect.
func dropEmptyChannels(n *Module) {
	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if n.Matrix[ch] == nil {
			continue
		}
		empty := true
		for _, p := range n.Patterns[ch] {
			for _, row := range p.Rows {
				if !row.IsEmpty() {
					empty = false
					break
				}
			}
			if !empty {
				break
			}
		}
		if empty {
			n.Matrix[ch] = nil
			n.Patterns[ch] = nil
		}
	}
}

// Optimize merges structurally identical patterns within each channel,
// canonicalizing to the lowest original index (§4.5).
func Optimize(n *Module) {
	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if n.Matrix[ch] == nil {
			continue
		}
		patterns := n.Patterns[ch]
		canonical := make([]int, len(patterns)) // original index -> canonical original index
		for i := range patterns {
			canonical[i] = i
			for j := 0; j < i; j++ {
				if patterns[i].Equal(patterns[j]) {
					canonical[i] = canonical[j]
					break
				}
			}
		}

		var uniqueOrder []int
		seen := make(map[int]int) // canonical original index -> new index
		newMatrix := make([]int, len(n.Matrix[ch]))
		for i, m := range n.Matrix[ch] {
			c := canonical[m]
			newIdx, ok := seen[c]
			if !ok {
				newIdx = len(uniqueOrder)
				uniqueOrder = append(uniqueOrder, c)
				seen[c] = newIdx
			}
			newMatrix[i] = newIdx
		}

		newPatterns := make([]dmf.Pattern, len(uniqueOrder))
		for i, orig := range uniqueOrder {
			newPatterns[i] = patterns[orig]
		}
		n.Patterns[ch] = newPatterns
		n.Matrix[ch] = newMatrix
	}
}

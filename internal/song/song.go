package song

import (
	"sort"

	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/event"
	"dmf2mlm/internal/mlmerr"
	"dmf2mlm/internal/normalize"
	"dmf2mlm/internal/pcmenc"
	"dmf2mlm/internal/symtab"
)

const maxInstruments = 254

// Song is one fully assembled DMF module, ready for per-song compile
// (§4.7, §4.13): driver-ordered channels, instruments and auxiliary data.
type Song struct {
	TimeBase   int
	TMACounter int

	// Indexed in driver channel order (post-reorder), nil when silent.
	MainLists [dmf.SystemTotalChannels][]event.Event
	SubLists  [dmf.SystemTotalChannels][][]event.Event

	// OrigChannel maps a post-reorder slot back to the DMF-order channel
	// index its events were built with (event.JumpToSubEL/PositionJump
	// symbol names are keyed by that original index, not the slot).
	OrigChannel [dmf.SystemTotalChannels]int

	Instruments []Instrument
	OtherData   []OtherData
}

// Build assembles a Song from a normalized module, encoding samples with
// enc and laying them out in VROM starting at vromOfs.
func Build(n *normalize.Module, m *dmf.Module, enc *pcmenc.Encoder, vromOfs int, warn func(string)) (*Song, []CompiledSample, error) {
	timeBase, tmaCounter, err := ResolveTiming(float64(m.TimeInfo.HzValue) * float64(m.TimeInfo.TimeBase))
	if err != nil {
		return nil, nil, err
	}

	compiledSamples, err := LayoutSamples(m.Samples, enc, vromOfs)
	if err != nil {
		return nil, nil, err
	}

	s := &Song{TimeBase: timeBase, TMACounter: tmaCounter}

	if len(m.Instruments) > maxInstruments {
		return nil, nil, mlmerr.OverflowErrorf("instrument count %d exceeds the maximum of %d", len(m.Instruments), maxInstruments)
	}
	for _, inst := range m.Instruments {
		switch d := inst.(type) {
		case *dmf.FMInstrument:
			s.Instruments = append(s.Instruments, FMInstrumentFromDMF(d))
		case *dmf.STDInstrument:
			ssgInst, newOData := SSGInstrumentFromDMF(d, len(s.OtherData))
			s.Instruments = append(s.Instruments, ssgInst)
			s.OtherData = append(s.OtherData, newOData...)
		}
	}
	paInstIdx := len(s.Instruments)
	s.Instruments = append(s.Instruments, &ADPCMAInstrument{SampleListIndex: len(s.OtherData)})
	sampleList := &SampleList{}
	for _, cs := range compiledSamples {
		sampleList.Starts = append(sampleList.Starts, cs.StartAddr)
		sampleList.Ends = append(sampleList.Ends, cs.EndAddr)
	}
	s.OtherData = append(s.OtherData, sampleList)

	var mainLists [dmf.SystemTotalChannels][]event.Event
	var subLists [dmf.SystemTotalChannels][][]event.Event

	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if n.Matrix[ch] == nil {
			continue
		}
		kind := dmf.GetChannelKind(ch)

		uniquePatterns := uniqueSorted(n.Matrix[ch])
		var main []event.Event
		if kind == dmf.ChannelADPCMA {
			main = append(main, &event.ChangeInstrument{Instrument: paInstIdx})
		}
		for _, patIdx := range n.Matrix[ch] {
			subIdx := indexOf(uniquePatterns, patIdx)
			main = append(main, &event.JumpToSubEL{Channel: ch, Index: subIdx})
		}
		main = append(main, &event.EndOfList{})
		mainLists[ch] = main

		var subs [][]event.Event
		for _, patIdx := range uniquePatterns {
			subs = append(subs, TranslatePattern(n.Patterns[ch][patIdx], ch, len(compiledSamples), warn))
		}
		subLists[ch] = subs
	}

	for i := 0; i < dmf.SystemTotalChannels; i++ {
		dst := ChannelOrder[i]
		s.MainLists[dst] = mainLists[i]
		s.SubLists[dst] = subLists[i]
		s.OrigChannel[dst] = i
	}

	return s, compiledSamples, nil
}

func uniqueSorted(xs []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

// Compile serializes the song per §4.13, registering every symbol in
// symbols at addresses relative to this song's own byte image (address 0
// is this song's own start — the caller finalizes with the real base
// offset once the song's placement in SDATA is known).
func (s *Song) Compile(symbols *symtab.Table) ([]byte, error) {
	var out []byte

	if err := symbols.Define("HEADER", len(out)); err != nil {
		return nil, err
	}
	out = append(out, s.compileHeader(symbols, len(out))...)

	if err := symbols.Define("INSTRUMENTS", len(out)); err != nil {
		return nil, err
	}
	out = append(out, s.compileInstruments(symbols, len(out))...)

	odata, err := s.compileOtherData(symbols, len(out))
	if err != nil {
		return nil, err
	}
	out = append(out, odata...)

	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if s.MainLists[ch] == nil {
			continue
		}
		origCh := s.OrigChannel[ch]
		if err := symbols.Define(elSymbol(ch), len(out)); err != nil {
			return nil, err
		}

		c := &event.Compiler{Symbols: symbols, Base: len(out)}
		jselCount := 0
		for _, e := range s.MainLists[ch] {
			if _, ok := e.(*event.JumpToSubEL); ok {
				if err := symbols.Define(event.JumpSymbol(origCh, jselCount), len(out)+len(c.Buf)); err != nil {
					return nil, err
				}
				jselCount++
			}
			if err := e.Compile(c); err != nil {
				return nil, err
			}
		}
		out = append(out, c.Buf...)

		for idx, sub := range s.SubLists[ch] {
			if err := symbols.Define(event.SubELSymbol(origCh, idx), len(out)); err != nil {
				return nil, err
			}
			subC := &event.Compiler{Symbols: symbols, Base: len(out)}
			for _, e := range sub {
				if err := e.Compile(subC); err != nil {
					return nil, err
				}
			}
			out = append(out, subC.Buf...)
		}
	}

	return out, nil
}

func elSymbol(ch int) string {
	return "EL:" + hexDigits(ch, 2)
}

func hexDigits(v, width int) string {
	const hex = "0123456789ABCDEF"
	out := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		out[i] = hex[v&0xF]
		v >>= 4
	}
	return string(out)
}

func (s *Song) compileHeader(symbols *symtab.Table, headOfs int) []byte {
	out := make([]byte, 0, 26)
	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if s.MainLists[ch] == nil {
			out = append(out, 0x00, 0x00)
			continue
		}
		symbols.Reference(elSymbol(ch), headOfs+len(out))
		out = append(out, 0xFF, 0xFF)
	}
	out = append(out, byte(s.TMACounter&0xFF), byte(s.TMACounter>>8), byte(s.TimeBase))
	symbols.Reference("INSTRUMENTS", headOfs+len(out))
	out = append(out, 0xFF, 0xFF)
	return out
}

func (s *Song) compileInstruments(symbols *symtab.Table, headOfs int) []byte {
	var out []byte
	for _, inst := range s.Instruments {
		out = append(out, inst.Compile(symbols, headOfs+len(out))...)
	}
	return out
}

func (s *Song) compileOtherData(symbols *symtab.Table, headOfs int) ([]byte, error) {
	var out []byte
	for i, od := range s.OtherData {
		if err := symbols.Define(otherDataSymbol(i), headOfs+len(out)); err != nil {
			return nil, err
		}
		out = append(out, od.Compile()...)
	}
	return out, nil
}

package song

import (
	"os"
	"runtime"
	"testing"

	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/event"
	"dmf2mlm/internal/normalize"
	"dmf2mlm/internal/pcmenc"
	"dmf2mlm/internal/symtab"
)

// copyEncoderScript stands in for the real ADPCM-A encoder: it copies its
// input file to its output path verbatim, so sample layout tests don't
// depend on an external binary.
const copyEncoderScript = "#!/bin/sh\ncp \"$1\" \"$2\"\n"

func fakeEncoder(t *testing.T) *pcmenc.Encoder {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake encoder script requires a POSIX shell")
	}
	f, err := os.CreateTemp("", "fake-encoder-*.sh")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString(copyEncoderScript); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()
	if err := os.Chmod(f.Name(), 0o755); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	return pcmenc.New(f.Name())
}

func buildSilentModule() *dmf.Module {
	m := &dmf.Module{}
	m.TimeInfo = dmf.TimeInfo{TimeBase: 1, TickTime1: 1, TickTime2: 1, HzValue: 60}
	m.PatternMatrix.RowsPerPattern = 1
	m.PatternMatrix.RowsInPatternMatrix = 1
	return m
}

// TestSilentModuleProducesMinimalSong covers scenario S1: a module with
// every channel empty compiles to just HEADER + INSTRUMENTS (the single
// trailing ADPCM-A instrument) + an empty sample list, no channel bodies.
func TestSilentModuleProducesMinimalSong(t *testing.T) {
	m := buildSilentModule()
	n, err := normalize.Normalize(m)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	s, samples, err := Build(n, m, pcmenc.New("/unused"), 0, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(samples) != 0 {
		t.Fatalf("expected 0 compiled samples, got %d", len(samples))
	}
	if len(s.Instruments) != 1 {
		t.Fatalf("expected exactly the trailing ADPCM-A instrument, got %d instruments", len(s.Instruments))
	}
	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if s.MainLists[ch] != nil {
			t.Errorf("channel %d: expected nil main list for a silent module", ch)
		}
	}

	symbols := symtab.New()
	image, err := s.Compile(symbols)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	const headerSize = 2*dmf.SystemTotalChannels + 2 + 1 + 2
	wantLen := headerSize + MLMInstrumentSize + 1 // + the trailing empty sample list's single zero byte
	if len(image) != wantLen {
		t.Errorf("image length = %d, want %d (header + one instrument slot + empty sample list)", len(image), wantLen)
	}
	if err := symbols.Finalize(image, 0); err != nil {
		t.Errorf("Finalize failed on silent module: %v", err)
	}
}

// TestOneNoteADPCMAChannel covers scenario S2: a single C#-on-channel-7
// note compiles to ChangeInstrument|JumpToSubEL|EndOfList on the main
// list, and Wait|Note|ReturnFromSubEL on its sub-event list.
func TestOneNoteADPCMAChannel(t *testing.T) {
	enc := fakeEncoder(t)

	m := buildSilentModule()
	note := dmf.Note(1) // C#
	octave := 4
	m.Patterns[dmf.PACh1] = []dmf.Pattern{{Rows: []dmf.Row{{Note: &note, Octave: &octave}}}}
	m.PatternMatrix.Matrix[dmf.PACh1] = []int{0}
	m.Samples = []dmf.Sample{{Data: make([]int16, 128)}} // 256 bytes once encoded

	n, err := normalize.Normalize(m)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	s, samples, err := Build(n, m, enc, 0, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 compiled sample, got %d", len(samples))
	}
	if samples[0].StartAddr != 0 || samples[0].EndAddr != 1 {
		t.Errorf("sample span = [%d,%d), want [0,1) in 256-byte units", samples[0].StartAddr, samples[0].EndAddr)
	}

	dst := ChannelOrder[dmf.PACh1]
	main := s.MainLists[dst]
	if len(main) != 3 {
		t.Fatalf("expected 3 main-list events, got %d", len(main))
	}
	if _, ok := main[0].(*event.ChangeInstrument); !ok {
		t.Errorf("main[0] = %T, want *event.ChangeInstrument", main[0])
	}
	if _, ok := main[1].(*event.JumpToSubEL); !ok {
		t.Errorf("main[1] = %T, want *event.JumpToSubEL", main[1])
	}
	if _, ok := main[2].(*event.EndOfList); !ok {
		t.Errorf("main[2] = %T, want *event.EndOfList", main[2])
	}

	subs := s.SubLists[dst]
	if len(subs) != 1 {
		t.Fatalf("expected 1 sub-event list, got %d", len(subs))
	}
	foundNote, foundReturn := false, false
	for _, e := range subs[0] {
		switch ev := e.(type) {
		case *event.Note:
			foundNote = true
			if ev.Value != 1 {
				t.Errorf("note value = %d, want 1", ev.Value)
			}
		case *event.ReturnFromSubEL:
			foundReturn = true
		}
	}
	if !foundNote {
		t.Error("expected a Note event in the sub-event list")
	}
	if !foundReturn {
		t.Error("expected a ReturnFromSubEL event in the sub-event list")
	}

	symbols := symtab.New()
	image, err := s.Compile(symbols)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if err := symbols.Finalize(image, 0); err != nil {
		t.Errorf("Finalize failed: %v", err)
	}
}

// TestFineTuneInterpolation covers scenario S5: an FM C4 note followed by
// a SET_FINE_TUNE effect of 0xC0 must emit IncPitchOfs(19).
func TestFineTuneInterpolation(t *testing.T) {
	// DMF stores every C as note value 12 in the octave below the one it
	// actually sounds in, so octave 3 here is musical C4.
	note := dmf.NoteC
	octave := 3
	ftuneVal := 0xC0
	pattern := dmf.Pattern{Rows: []dmf.Row{
		{Note: &note, Octave: &octave},
		{Effects: []dmf.Effect{{Code: dmf.EffectSetFineTune, Value: &ftuneVal}}},
	}}

	events := TranslatePattern(pattern, dmf.FMCh1, 0, nil)

	var found *event.IncPitchOfs
	for _, e := range events {
		if p, ok := e.(*event.IncPitchOfs); ok {
			found = p
		}
	}
	if found == nil {
		t.Fatal("expected an IncPitchOfs event")
	}
	if found.Offset != 19 {
		t.Errorf("IncPitchOfs offset = %d, want 19", found.Offset)
	}
}

func TestInstrumentCountOverflow(t *testing.T) {
	m := buildSilentModule()
	for i := 0; i < maxInstruments+1; i++ {
		m.Instruments = append(m.Instruments, &dmf.FMInstrument{})
	}
	n, err := normalize.Normalize(m)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if _, _, err := Build(n, m, pcmenc.New("/unused"), 0, nil); err == nil {
		t.Fatal("expected an overflow error for too many instruments")
	}
}

func TestSSGBoundaryNotes(t *testing.T) {
	warnings := 0
	warn := func(string) { warnings++ }
	// DMF stores C as note 12 of the octave below, so (C, 1) is C2.
	if got := DmfNoteToMlmNote(dmf.ChannelSSG, dmf.NoteC, 1, warn); got != 0 {
		t.Errorf("SSG C2 = %d, want 0", got)
	}
	if got := DmfNoteToMlmNote(dmf.ChannelSSG, dmf.Note(11), 7, warn); got != 71 {
		t.Errorf("SSG B7 = %d, want 71", got)
	}
	if warnings != 0 {
		t.Errorf("expected no warnings for in-range SSG notes, got %d", warnings)
	}
	DmfNoteToMlmNote(dmf.ChannelSSG, dmf.NoteB, 1, warn) // B1
	if warnings != 1 {
		t.Errorf("expected a warning for an SSG note below C2, got %d", warnings)
	}
}

func TestResolveTimingBoundaries(t *testing.T) {
	if _, _, err := ResolveTiming(25); err != nil {
		t.Errorf("ResolveTiming(25) failed: %v", err)
	}
	if _, _, err := ResolveTiming(60000); err == nil {
		t.Error("expected ResolveTiming(60000) to fail (above TMA range)")
	}
	if _, _, err := ResolveTiming(0.1); err == nil {
		t.Error("expected ResolveTiming(0.1) to fail (below TMA range even at max time base)")
	}
}

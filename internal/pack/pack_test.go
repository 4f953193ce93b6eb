package pack

import (
	"strings"
	"testing"

	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/normalize"
	"dmf2mlm/internal/pcmenc"
	"dmf2mlm/internal/song"
	"dmf2mlm/internal/symtab"
)

func buildSilentSong(t *testing.T) CompiledSong {
	t.Helper()
	m := &dmf.Module{}
	m.TimeInfo = dmf.TimeInfo{TimeBase: 1, TickTime1: 1, TickTime2: 1, HzValue: 60}
	m.PatternMatrix.RowsPerPattern = 1
	m.PatternMatrix.RowsInPatternMatrix = 1

	n, err := normalize.Normalize(m)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	s, samples, err := song.Build(n, m, pcmenc.New("/unused"), 0, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return CompiledSong{Song: s, Samples: samples}
}

// TestSilentModuleGlobalHeader covers scenario S1: one silent song, no
// SFX samples, compiles to a global header whose song-offset slot is
// non-zero and whose VROM is empty.
func TestSilentModuleGlobalHeader(t *testing.T) {
	cs := buildSilentSong(t)

	result, err := Pack([]CompiledSong{cs}, nil)
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	const headerSize = 1*2 + 3 // song_count*2 + 3
	gotPtr := int(result.SDATA[0]) | int(result.SDATA[1])<<8
	if gotPtr != headerSize {
		t.Errorf("sample_list_ptr = %#x, want %#x", gotPtr, headerSize)
	}
	if result.SDATA[2] != 1 {
		t.Errorf("song_count = %d, want 1", result.SDATA[2])
	}
	songOfs := int(result.SDATA[3]) | int(result.SDATA[4])<<8
	if songOfs == 0 {
		t.Error("expected a non-zero song-body offset")
	}
	if len(result.VROM) != 0 {
		t.Errorf("VROM length = %d, want 0 for a sample-less module", len(result.VROM))
	}
}

// paddingOtherData lets a test song's compiled size be pinned to an
// exact byte count, by padding it with an otherwise-inert ODATA blob.
type paddingOtherData struct{ size int }

func (p paddingOtherData) Compile() []byte { return make([]byte, p.size) }

func songPaddedTo(t *testing.T, targetSize int) CompiledSong {
	t.Helper()
	cs := buildSilentSong(t)
	base, err := cs.Song.Compile(symtab.New())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if targetSize < len(base) {
		t.Fatalf("target size %d is smaller than the unpadded song (%d bytes)", targetSize, len(base))
	}
	cs.Song.OtherData = append(cs.Song.OtherData, paddingOtherData{size: targetSize - len(base)})
	return cs
}

// TestBankOverflow covers scenario S6: two songs sized so the first
// exactly fills bank 0 and the second overflows bank 1's budget.
func TestBankOverflow(t *testing.T) {
	const headerSize = 2*2 + 3 // 2 songs

	song0 := songPaddedTo(t, 0x9800-headerSize-1)
	song1 := songPaddedTo(t, 0x7801)

	_, err := Pack([]CompiledSong{song0, song1}, nil)
	if err == nil {
		t.Fatal("expected a bank overflow error")
	}
	if !strings.Contains(err.Error(), "song too big, bank 1") {
		t.Errorf("error = %q, want it to mention bank 1", err.Error())
	}
}

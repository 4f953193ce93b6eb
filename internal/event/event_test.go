package event

import (
	"bytes"
	"testing"

	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/symtab"
)

func newCompiler() *Compiler {
	return &Compiler{Symbols: symtab.New()}
}

func TestWaitBytesSmall(t *testing.T) {
	got := waitBytes(5)
	want := []byte{0x14} // 0x10 | (5-1)
	if !bytes.Equal(got, want) {
		t.Errorf("waitBytes(5) = % x, want % x", got, want)
	}
}

func TestWaitBytesLarge(t *testing.T) {
	got := waitBytes(0x20)
	want := []byte{0x03, 0x1F} // one long-form pair covers all 0x20 ticks
	if !bytes.Equal(got, want) {
		t.Errorf("waitBytes(0x20) = % x, want % x", got, want)
	}
}

func TestNoteCompileUnderThreshold(t *testing.T) {
	c := newCompiler()
	if err := (Note{Timing: 0x10, Value: 0x42}).Compile(c); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	want := []byte{0x80 | 0x10, 0x42}
	if !bytes.Equal(c.Buf, want) {
		t.Errorf("Note.Compile = % x, want % x", c.Buf, want)
	}
}

func TestNoteCompileWithTrailingWait(t *testing.T) {
	c := newCompiler()
	if err := (Note{Timing: 0x90, Value: 0x10}).Compile(c); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if c.Buf[0] != 0x80|0x7F || c.Buf[1] != 0x10 {
		t.Fatalf("Note leading bytes wrong: % x", c.Buf)
	}
	if len(c.Buf) <= 2 {
		t.Error("expected trailing wait bytes after the note")
	}
}

func TestOffsetChannelVolumeRejectsSSG(t *testing.T) {
	c := newCompiler()
	err := OffsetChannelVolume{Channel: dmf.SSGCh1, VolumeOffset: 3}.Compile(c)
	if err == nil {
		t.Fatal("expected error offsetting volume on an SSG channel")
	}
}

func TestOffsetChannelVolumeEncoding(t *testing.T) {
	c := newCompiler()
	if err := (OffsetChannelVolume{Channel: dmf.FMCh1, VolumeOffset: -3}).Compile(c); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	want := byte(0x30 | 8 | (3 - 1))
	if c.Buf[0] != want {
		t.Errorf("OffsetChannelVolume byte = %#x, want %#x", c.Buf[0], want)
	}
}

func TestSetChannelVolumeSSGShortForm(t *testing.T) {
	c := newCompiler()
	if err := (SetChannelVolume{Channel: dmf.SSGCh1, Volume: 0x50}).Compile(c); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	want := byte(0x30 | (0x50 >> 4))
	if c.Buf[0] != want {
		t.Errorf("SSG SetChannelVolume byte = %#x, want %#x", c.Buf[0], want)
	}
}

func TestSetChannelVolumeFMLongForm(t *testing.T) {
	c := newCompiler()
	if err := (SetChannelVolume{Channel: dmf.FMCh1, Volume: 0x7F}).Compile(c); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if c.Buf[0] != 0x05 || c.Buf[1] != 0x7F {
		t.Errorf("FM SetChannelVolume bytes = % x, want [05 7f]", c.Buf)
	}
}

func TestJumpToSubELEmitsPlaceholderAndReference(t *testing.T) {
	c := newCompiler()
	if err := (JumpToSubEL{Channel: 2, Index: 5}).Compile(c); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if c.Buf[0] != 0x09 || c.Buf[1] != 0xFF || c.Buf[2] != 0xFF {
		t.Errorf("JumpToSubEL bytes = % x, want [09 ff ff]", c.Buf)
	}
}

func TestPitchSlideZeroOffsetIsReset(t *testing.T) {
	c := newCompiler()
	if err := (PitchSlideUp{Offset: 0}).Compile(c); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if c.Buf[0] != 0x23 {
		t.Errorf("zero-offset PitchSlideUp byte = %#x, want 0x23", c.Buf[0])
	}
}

func TestSetFMTLRejectsOutOfRangeOp(t *testing.T) {
	c := newCompiler()
	if err := (SetFMTL{Op: 5, Level: 10}).Compile(c); err == nil {
		t.Fatal("expected error for out-of-range operator index")
	}
}

func TestSetPanningCompile(t *testing.T) {
	c := newCompiler()
	if err := (SetPanning{Timing: 0x10, Panning: PanLeft}).Compile(c); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if c.Buf[0] != 0x06 {
		t.Fatalf("SetPanning opcode = %#x, want 0x06", c.Buf[0])
	}
	if c.Buf[1] != byte((0x10&0x3F)|PanLeft) {
		t.Errorf("SetPanning packed byte = %#x, want %#x", c.Buf[1], byte((0x10&0x3F)|PanLeft))
	}
	if len(c.Buf) != 2 {
		t.Errorf("SetPanning.Compile = % x, want no trailing wait for timing <= 0x3F", c.Buf)
	}
}

func TestSetPanningCompileWithTrailingWait(t *testing.T) {
	c := newCompiler()
	if err := (SetPanning{Timing: 0x50, Panning: PanRight}).Compile(c); err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if c.Buf[0] != 0x06 || c.Buf[1] != byte((0x50&0x3F)|PanRight) {
		t.Fatalf("SetPanning leading bytes wrong: % x", c.Buf)
	}
	if len(c.Buf) <= 2 {
		t.Error("expected trailing wait bytes after the panning byte for timing > 0x3F")
	}
}

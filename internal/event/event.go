// Package event implements the bytecode event stream the driver reads
// for each channel: notes, rests, instrument/volume/panning changes,
// pitch slides, sub-event-list calls and position jumps (§4.6).
package event

import (
	"fmt"

	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/mlmerr"
	"dmf2mlm/internal/symtab"
)

// Compiler accumulates compiled bytes for one event list and registers
// each symbol reference at its address (Base plus its offset in Buf),
// leaving a placeholder there for symtab.Table.Finalize to patch later.
type Compiler struct {
	Buf     []byte
	Symbols *symtab.Table
	Base    int
}

// Addr returns the absolute address the next emitted byte will land at.
func (c *Compiler) Addr() int { return c.Base + len(c.Buf) }

func (c *Compiler) emit(bs ...byte) { c.Buf = append(c.Buf, bs...) }

func (c *Compiler) emitSymbolRef(name string) {
	c.Symbols.Reference(name, c.Addr())
	c.emit(0xFF, 0xFF)
}

// waitBytes renders a wait of t driver ticks: long form 0x03 tt covers
// up to 0x100 ticks per byte pair, short form 0x10|nibble covers 1-16.
func waitBytes(t int) []byte {
	var out []byte
	for t > 0 {
		if t > 0x10 {
			out = append(out, 0x03, byte((t-1)&0xFF))
			t -= 0x100
		} else {
			out = append(out, byte(0x10|((t-1)&0x0F)))
			t -= 0x10
		}
	}
	return out
}

// Event is one compiled bytecode entry in a channel's event list.
type Event interface {
	Compile(c *Compiler) error
}

// EndOfList terminates an event list.
type EndOfList struct{ Timing int }

func (e EndOfList) Compile(c *Compiler) error {
	c.emit(waitBytes(e.Timing)...)
	c.emit(0x00)
	return nil
}

// Note plays a note, clamping its leading timing nibble into the note
// byte itself (§4.6): any remainder beyond 0x7F ticks trails as a wait.
type Note struct {
	Timing int
	Value  byte // driver-encoded note byte (octave|note for FM, etc.)
}

func (e Note) Compile(c *Compiler) error {
	t := e.Timing
	lead := t
	if lead > 0x7F {
		lead = 0x7F
	}
	if lead < 0 {
		lead = 0
	}
	c.emit(0x80|byte(lead), e.Value)
	t -= 0x7F
	c.emit(waitBytes(t)...)
	return nil
}

// NoteOff silences the channel's currently playing note.
type NoteOff struct{ Timing int }

func (e NoteOff) Compile(c *Compiler) error {
	c.emit(0x01, byte(e.Timing&0xFF))
	t := e.Timing - 0xFF
	c.emit(waitBytes(t)...)
	return nil
}

// ChangeInstrument switches the active instrument for this channel.
type ChangeInstrument struct {
	Timing     int
	Instrument int
}

func (e ChangeInstrument) Compile(c *Compiler) error {
	c.emit(0x02, byte(e.Instrument))
	c.emit(waitBytes(e.Timing)...)
	return nil
}

// SetChannelVolume sets the channel's output volume. FM and ADPCM-A
// channels use the long form; SSG channels use a packed short form
// (§4.6, §4.11).
type SetChannelVolume struct {
	Timing  int
	Channel int
	Volume  int
}

func (e SetChannelVolume) Compile(c *Compiler) error {
	if dmf.GetChannelKind(e.Channel) == dmf.ChannelSSG {
		c.emit(byte(0x30 | (e.Volume >> 4)))
	} else {
		c.emit(0x05, byte(e.Volume))
	}
	c.emit(waitBytes(e.Timing)...)
	return nil
}

// Panning values, as packed into the top two bits of SetPanning's byte.
const (
	PanRight  = 0x40
	PanLeft   = 0x80
	PanCenter = 0xC0
)

// SetPanning sets stereo panning for the channel.
type SetPanning struct {
	Timing  int
	Panning int
}

func (e SetPanning) Compile(c *Compiler) error {
	c.emit(0x06, byte((e.Timing&0x3F)|e.Panning))
	c.emit(waitBytes(e.Timing - 0x3F)...)
	return nil
}

// JumpToSubEL calls into a channel's sub-event-list by sub-event-list index;
// the target address is resolved later by symtab.Table.Finalize.
type JumpToSubEL struct {
	Timing  int
	Channel int
	Index   int
}

func SubELSymbol(ch, idx int) string {
	return fmt.Sprintf("SUBEL:CH%01X;%02X", ch, idx)
}

func (e JumpToSubEL) Compile(c *Compiler) error {
	c.emit(waitBytes(e.Timing)...)
	c.emit(0x09)
	c.emitSymbolRef(SubELSymbol(e.Channel, e.Index))
	return nil
}

// PositionJump resets pitch slide state and jumps this channel's main
// event list to the matrix row named by the target jump-sub-event-list
// symbol.
type PositionJump struct {
	Timing  int
	Channel int
	Index   int
}

func JumpSymbol(ch, idx int) string {
	return fmt.Sprintf("JSEL:CH%01X;%02X", ch, idx)
}

func (e PositionJump) Compile(c *Compiler) error {
	c.emit(waitBytes(e.Timing)...)
	c.emit(0x23)
	c.emit(0x0B)
	c.emitSymbolRef(JumpSymbol(e.Channel, e.Index))
	return nil
}

// ReturnFromSubEL returns control to the calling event list.
type ReturnFromSubEL struct{ Timing int }

func (e ReturnFromSubEL) Compile(c *Compiler) error {
	c.emit(waitBytes(e.Timing)...)
	c.emit(0x20)
	return nil
}

// PitchSlideUp bends pitch upward by Offset per tick; Offset==0 is
// equivalent to ResetPitchSlide.
type PitchSlideUp struct {
	Timing int
	Offset int
}

func (e PitchSlideUp) Compile(c *Compiler) error {
	if e.Offset > 0 {
		c.emit(0x21, byte(e.Offset))
	} else {
		c.emit(0x23)
	}
	c.emit(waitBytes(e.Timing)...)
	return nil
}

// PitchSlideDown bends pitch downward by Offset per tick; Offset==0 is
// equivalent to ResetPitchSlide.
type PitchSlideDown struct {
	Timing int
	Offset int
}

func (e PitchSlideDown) Compile(c *Compiler) error {
	if e.Offset > 0 {
		c.emit(0x22, byte(e.Offset))
	} else {
		c.emit(0x23)
	}
	c.emit(waitBytes(e.Timing)...)
	return nil
}

// ResetPitchSlide clears any active pitch slide.
type ResetPitchSlide struct{ Timing int }

func (e ResetPitchSlide) Compile(c *Compiler) error {
	c.emit(waitBytes(e.Timing)...)
	c.emit(0x23)
	return nil
}

// SetFMTL sets one FM operator's total level (1-4).
type SetFMTL struct {
	Timing int
	Op     int // 1-4
	Level  int
}

func (e SetFMTL) Compile(c *Compiler) error {
	if e.Op < 1 || e.Op > 4 {
		return mlmerr.DomainErrorf("SetFMTL operator out of range: %d", e.Op)
	}
	c.emit(byte(0x23+e.Op), byte(e.Level))
	c.emit(waitBytes(e.Timing)...)
	return nil
}

// WaitTicks is a stand-alone wait with no side effect: used as the
// leading sentinel in a sub-event list and as the no-op substitute for
// an effect this driver doesn't translate (§4.9).
type WaitTicks struct{ Timing int }

func (e WaitTicks) Compile(c *Compiler) error {
	c.emit(waitBytes(e.Timing)...)
	return nil
}

// IncPitchOfs nudges the active note's fine-tune detune offset; emitted
// by the SET_FINE_TUNE interpolation (§4.9, §9 Open Questions — the
// distilled spec names this event but not its opcode; 0x28 is free in
// the opcode space just above the FM-TL block and is used here consistently).
type IncPitchOfs struct {
	Timing int
	Offset int
}

func (e IncPitchOfs) Compile(c *Compiler) error {
	c.emit(0x28, byte(e.Offset))
	c.emit(waitBytes(e.Timing)...)
	return nil
}

// OffsetChannelVolume nudges the channel's volume by a small signed
// amount (±1..±8); not available on SSG channels, which only have the
// absolute short form exposed through SetChannelVolume.
type OffsetChannelVolume struct {
	Timing      int
	Channel     int
	VolumeOffset int
}

func (e OffsetChannelVolume) Compile(c *Compiler) error {
	if dmf.GetChannelKind(e.Channel) == dmf.ChannelSSG {
		return mlmerr.DomainErrorf("OffsetChannelVolume is not valid on SSG channel %d", e.Channel)
	}
	if e.VolumeOffset == 0 || e.VolumeOffset > 8 || e.VolumeOffset < -8 {
		return mlmerr.DomainErrorf("OffsetChannelVolume out of range: %d", e.VolumeOffset)
	}
	abs := e.VolumeOffset
	sign := byte(0)
	if abs < 0 {
		abs = -abs
		sign = 8
	}
	nibble := byte(abs-1) | sign
	c.emit(byte(0x30 | nibble))
	c.emit(waitBytes(e.Timing)...)
	return nil
}

// Package dmf parses the decompressed DMF tracker container into an
// in-memory Module: time info, pattern matrix, instruments, patterns and
// PCM samples (§4.3). Parse takes the raw file bytes and undoes the
// container's zlib compression itself; file I/O is the driver's job.
package dmf

import "fmt"

// SystemTotalChannels is the NeoGeo channel count: 4 FM, 3 SSG, 6 ADPCM-A.
const SystemTotalChannels = 13

const (
	FMOpCount   = 4
	FMOpSize    = 12
	BaseRowSize = 8 // a row's fixed fields, excluding effects
	EffectSize  = 4

	FMCh1  = 0
	FMCh2  = 1
	FMCh3  = 2
	FMCh4  = 3
	SSGCh1 = 4
	SSGCh2 = 5
	SSGCh3 = 6
	PACh1  = 7
	PACh2  = 8
	PACh3  = 9
	PACh4  = 10
	PACh5  = 11
	PACh6  = 12
)

// Magic is the fixed 16-byte DMF container signature.
const Magic = ".DelekDefleMask."

// System identifies the tracker's target hardware profile.
type System byte

const (
	SystemGenesis    System = 0x02
	SystemGenesisExt System = 0x42
	SystemSMS        System = 0x03
	SystemGameBoy    System = 0x04
	SystemPCEngine   System = 0x05
	SystemNES        System = 0x06
	SystemC64_8580   System = 0x07
	SystemC64_6581   System = 0x47
	SystemYM2151     System = 0x08
	SystemNeoGeo     System = 0x09
	SystemNeoGeoExt  System = 0x49
)

// FramesMode selects the default refresh rate when no custom Hz is set.
type FramesMode byte

const (
	FramesPAL  FramesMode = 0
	FramesNTSC FramesMode = 1
)

// ChannelKind groups a channel into its YM2610 sub-system,
// used to pick volume shifts, note encodings and opcode dispatch.
type ChannelKind int

const (
	ChannelADPCMA ChannelKind = 0
	ChannelFM     ChannelKind = 1
	ChannelSSG    ChannelKind = 2
)

// GetChannelKind classifies a DMF-order channel index (FM 0..3, SSG 4..6,
// ADPCM-A 7..12).
func GetChannelKind(ch int) ChannelKind {
	switch {
	case ch <= FMCh4:
		return ChannelFM
	case ch <= SSGCh3:
		return ChannelSSG
	default:
		return ChannelADPCMA
	}
}

// Note values as stored in a DMF row; semitone C is stored as 12, not 0.
type Note int

const (
	NoteEmpty   Note = 0
	NoteCS      Note = 1
	NoteD       Note = 2
	NoteDS      Note = 3
	NoteE       Note = 4
	NoteF       Note = 5
	NoteFS      Note = 6
	NoteG       Note = 7
	NoteGS      Note = 8
	NoteA       Note = 9
	NoteAS      Note = 10
	NoteB       Note = 11
	NoteC       Note = 12
	NoteOff     Note = 100
)

// EffectCode enumerates every DMF effect, including the ones the
// assembler (internal/song) does not translate into events. Name gives a
// label to part of them for the "unknown effect" warning path (§9); the
// others are reported by their hex value.
type EffectCode int

const (
	EffectEmpty                   EffectCode = 0xFFFF
	EffectArpeggio                EffectCode = 0x00
	EffectPortamentoUp            EffectCode = 0x01
	EffectPortamentoDown          EffectCode = 0x02
	EffectPortaToNote             EffectCode = 0x03
	EffectVibrato                 EffectCode = 0x04
	EffectPortaToNoteAndVolSlide  EffectCode = 0x05
	EffectVibratoAndVolSlide      EffectCode = 0x06
	EffectTremolo                 EffectCode = 0x07
	EffectPanning                 EffectCode = 0x08
	EffectSetSpeed1                EffectCode = 0x09
	EffectVolSlide                 EffectCode = 0x0A
	EffectPosJump                  EffectCode = 0x0B
	EffectRetrig                   EffectCode = 0x0C
	EffectPatternBreak             EffectCode = 0x0D
	EffectSetSpeed2                EffectCode = 0x0F
	EffectLFOControl               EffectCode = 0x10
	EffectFeedbackControl          EffectCode = 0x11
	EffectFMTLOp1Control           EffectCode = 0x12
	EffectFMTLOp2Control           EffectCode = 0x13
	EffectFMTLOp3Control           EffectCode = 0x14
	EffectFMTLOp4Control           EffectCode = 0x15
	EffectFMMultControl            EffectCode = 0x16
	EffectFMDACEnable              EffectCode = 0x17
	EffectFMECTCh2Enable           EffectCode = 0x18
	EffectFMGlobalARControl        EffectCode = 0x19
	EffectFMAROp1Control           EffectCode = 0x1A
	EffectFMAROp2Control           EffectCode = 0x1B
	EffectFMAROp3Control           EffectCode = 0x1C
	EffectFMAROp4Control           EffectCode = 0x1D
	EffectSSGSetChannelMode        EffectCode = 0x20
	EffectSSGSetNoiseTone          EffectCode = 0x21
	EffectArpeggioTickSpeed        EffectCode = 0xE0
	EffectNoteSlideUp              EffectCode = 0xE1
	EffectNoteSlideDown            EffectCode = 0xE2
	EffectSetVibratoMode           EffectCode = 0xE3
	EffectSetFineVibratoDepth      EffectCode = 0xE4
	EffectSetFineTune              EffectCode = 0xE5
	EffectSetLegatoMode            EffectCode = 0xEA
	EffectSetSamplesBank           EffectCode = 0xEB
	EffectNoteCut                  EffectCode = 0xEC
	EffectNoteDelay                EffectCode = 0xED
	EffectSyncSignal               EffectCode = 0xEE
	EffectSetGlobalFineTune        EffectCode = 0xEF
)

// Name returns a human-readable label for warning messages; unknown
// codes fall back to a hex rendition.
func (c EffectCode) Name() string {
	switch c {
	case EffectArpeggio:
		return "ARPEGGIO"
	case EffectPortamentoUp:
		return "PORTAMENTO_UP"
	case EffectPortamentoDown:
		return "PORTAMENTO_DOWN"
	case EffectPortaToNote:
		return "PORTA_TO_NOTE"
	case EffectVibrato:
		return "VIBRATO"
	case EffectPortaToNoteAndVolSlide:
		return "PORTA_TO_NOTE_AND_VOL_SLIDE"
	case EffectVibratoAndVolSlide:
		return "VIBRATO_AND_VOL_SLIDE"
	case EffectTremolo:
		return "TREMOLO"
	case EffectPanning:
		return "PANNING"
	case EffectSetSpeed1:
		return "SET_SPEED_1"
	case EffectVolSlide:
		return "VOL_SLIDE"
	case EffectPosJump:
		return "POS_JUMP"
	case EffectRetrig:
		return "RETRIG"
	case EffectPatternBreak:
		return "PATTERN_BREAK"
	case EffectSetSpeed2:
		return "SET_SPEED_2"
	case EffectSSGSetChannelMode:
		return "SSG_SET_CHANNEL_MODE"
	case EffectSSGSetNoiseTone:
		return "SSG_SET_NOISE_TONE"
	case EffectSetFineTune:
		return "SET_FINE_TUNE"
	case EffectSetSamplesBank:
		return "SET_SAMPLES_BANK"
	case EffectEmpty:
		return "EMPTY"
	default:
		return fmt.Sprintf("0x%02X", int(c))
	}
}

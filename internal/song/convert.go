// Package song assembles a normalized dmf.Module into a compiled MZS-style
// song image: instruments, sub-event lists per channel, header, and the
// symbol table fixups that tie jump targets and instrument pointers
// together (§4.10-§4.13).
package song

import (
	"dmf2mlm/internal/dmf"
)

// ymVolShifts converts between the YM2610's per-chip volume range and the
// driver's unified 0x00-0xFF volume range, indexed by dmf.ChannelKind.
var ymVolShifts = [3]uint{3, 1, 4} // ADPCMA, FM, SSG

// YmvolToMlmvol widens a chip-range volume into the driver's 0-255 range.
func YmvolToMlmvol(kind dmf.ChannelKind, v int) int {
	return v << ymVolShifts[kind]
}

// MlmvolToYmvol narrows a driver-range volume back into chip range.
func MlmvolToYmvol(kind dmf.ChannelKind, v int) int {
	return v >> ymVolShifts[kind]
}

// DmfNoteToMlmNote encodes a DMF (note, octave) pair into the driver's
// packed note byte/index, per channel kind (§4.11).
func DmfNoteToMlmNote(kind dmf.ChannelKind, note dmf.Note, octave int, warn func(string)) int {
	n := int(note)
	if note == dmf.NoteC {
		n = 0
		octave++
	}

	switch kind {
	case dmf.ChannelFM:
		return (n | (octave << 4)) & 0xFF
	case dmf.ChannelSSG:
		if octave < 2 {
			if warn != nil {
				warn("SSG notes lower than C2 present")
			}
			return 0
		}
		return (octave-2)*12 + n
	default: // ADPCM-A
		return n
	}
}

// fmPitchLUT holds the YM2610 FM pitch values for C through B in the base
// octave; DmfNoteToYmPitch shifts this by octave.
var fmPitchLUT = [12]int{
	0x269, 0x28E, 0x2B5, 0x2DE, 0x30A, 0x338, 0x369, 0x39D,
	0x3D4, 0x40E, 0x44C, 0x48D,
}

// ssgBasePitches holds the SSG base frequencies (Hz) for C2 through B2.
var ssgBasePitches = [12]float64{
	65.41, 69.30, 73.42, 77.78, 82.41, 87.31,
	92.50, 98.00, 103.83, 110.0, 116.54, 123.47,
}

// DmfNoteToYmPitch computes the raw YM2610 pitch value for fine-tune
// interpolation; it is never written to the song image directly.
func DmfNoteToYmPitch(kind dmf.ChannelKind, note dmf.Note, octave int, warn func(string)) int {
	n := int(note)
	if note == dmf.NoteC {
		n = 0
		octave++
	}

	switch kind {
	case dmf.ChannelFM:
		return fmPitchLUT[n] | (octave << 11)
	case dmf.ChannelSSG:
		if octave < 2 {
			if warn != nil {
				warn("SSG notes lower than C2 present")
			}
			return 0
		}
		pitch := ssgBasePitches[n] * pow2(octave-2)
		return round(250000.0 / pitch)
	default:
		return 0
	}
}

// DmfNoteToYmPitchRange returns (middle, lower, higher) pitches one
// semitone apart, used to interpolate a fine-tune effect's offset.
func DmfNoteToYmPitchRange(kind dmf.ChannelKind, note dmf.Note, octave int, warn func(string)) (middle, lower, higher int) {
	n := int(note)
	lowerNote := n - 1
	lowerOctave := octave
	if lowerNote < 0 {
		lowerNote += 12
		lowerOctave--
	}
	if octave < 0 {
		lowerNote = 0
		lowerOctave = 0
	}

	higherNote := n + 1
	higherOctave := octave
	if higherNote > 11 {
		higherNote -= 12
		higherOctave++
	}

	middle = DmfNoteToYmPitch(kind, dmf.Note(n), octave, warn)
	lower = DmfNoteToYmPitch(kind, dmf.Note(lowerNote), lowerOctave, warn)
	higher = DmfNoteToYmPitch(kind, dmf.Note(higherNote), higherOctave, warn)
	return
}

func pow2(n int) float64 {
	if n >= 0 {
		r := 1.0
		for i := 0; i < n; i++ {
			r *= 2
		}
		return r
	}
	r := 1.0
	for i := 0; i < -n; i++ {
		r /= 2
	}
	return r
}

func round(f float64) int {
	if f >= 0 {
		return int(f + 0.5)
	}
	return -int(-f + 0.5)
}

// ChannelOrder maps a DMF channel index to its position in the driver's
// channel table, which holds ADPCM-A (0-5), then FM (6-9), then SSG
// (10-12) (§4.11).
var ChannelOrder = [dmf.SystemTotalChannels]int{
	6, 7, 8, 9, // FM channels
	10, 11, 12, // SSG channels
	0, 1, 2, 3, 4, 5, // ADPCM-A channels
}

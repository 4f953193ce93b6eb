package song

import (
	"math"

	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/event"
)

func panMaskFromDFFX(value int) int {
	switch value {
	case 0x01:
		return event.PanRight
	case 0x10:
		return event.PanLeft
	case 0x11:
		return event.PanCenter
	default:
		return 0x00
	}
}

// TranslatePattern converts one already-normalized (single-tick-per-row)
// pattern into the events of its sub-event list (§4.9).
func TranslatePattern(pattern dmf.Pattern, ch int, sampleCount int, warn func(string)) []event.Event {
	kind := dmf.GetChannelKind(ch)

	events := []event.Event{&event.WaitTicks{}}
	lastTiming := func() *int {
		switch e := events[len(events)-1].(type) {
		case *event.WaitTicks:
			return &e.Timing
		case *event.Note:
			return &e.Timing
		case *event.NoteOff:
			return &e.Timing
		case *event.ChangeInstrument:
			return &e.Timing
		case *event.SetChannelVolume:
			return &e.Timing
		case *event.SetPanning:
			return &e.Timing
		case *event.JumpToSubEL:
			return &e.Timing
		case *event.PositionJump:
			return &e.Timing
		case *event.ReturnFromSubEL:
			return &e.Timing
		case *event.PitchSlideUp:
			return &e.Timing
		case *event.PitchSlideDown:
			return &e.Timing
		case *event.ResetPitchSlide:
			return &e.Timing
		case *event.SetFMTL:
			return &e.Timing
		case *event.IncPitchOfs:
			return &e.Timing
		case *event.OffsetChannelVolume:
			return &e.Timing
		case *event.EndOfList:
			return &e.Timing
		}
		return nil
	}

	ticksSinceLastCom := 0
	var currentInstrument *int
	var currentVolume *int
	var currentNote *dmf.Note
	var currentOctave *int
	currentFineTune := 0
	sampleBank := 0
	doEndPattern := false

	for i := range pattern.Rows {
		row := pattern.Rows[i]

		if !row.IsEmpty() {
			if p := lastTiming(); p != nil {
				*p += ticksSinceLastCom
			}
			ticksSinceLastCom = 0

			for _, eff := range row.Effects {
				if eff.Code == dmf.EffectSetSamplesBank && eff.Value != nil {
					if float64(*eff.Value) < math.Ceil(float64(sampleCount)/12.0) {
						sampleBank = *eff.Value
					}
				}
			}

			if row.Note != nil && *row.Note == dmf.NoteOff {
				events = append(events, &event.NoteOff{})
				currentNote = nil
				currentOctave = nil
			}

			if row.Volume != nil && (currentVolume == nil || *currentVolume != *row.Volume) {
				mlmVol := YmvolToMlmvol(kind, *row.Volume)
				events = append(events, &event.SetChannelVolume{Channel: ch, Volume: mlmVol})
				v := *row.Volume
				currentVolume = &v
			}

			if row.Instrument != nil && kind != dmf.ChannelADPCMA &&
				(currentInstrument == nil || *currentInstrument != *row.Instrument) {
				i := *row.Instrument
				currentInstrument = &i
				events = append(events, &event.ChangeInstrument{Instrument: i})
			}

			if row.Note != nil && *row.Note != dmf.NoteOff && row.Octave != nil {
				currentNote = row.Note
				currentOctave = row.Octave
				currentFineTune = 0
				mlmNote := DmfNoteToMlmNote(kind, *row.Note, *row.Octave, warn)
				if kind == dmf.ChannelADPCMA {
					mlmNote += sampleBank * 12
				}
				events = append(events, &event.Note{Value: byte(mlmNote)})
			}

			for _, eff := range row.Effects {
				if eff.Code == dmf.EffectSetSamplesBank || eff.Value == nil {
					continue
				}
				v := *eff.Value

				switch eff.Code {
				case dmf.EffectSetFineTune:
					if currentNote != nil && currentOctave != nil {
						_, lower, higher := DmfNoteToYmPitchRange(kind, *currentNote, *currentOctave, warn)
						middle := DmfNoteToYmPitch(kind, *currentNote, *currentOctave, warn)
						newFtune := 0.0
						if v > 0x80 {
							newFtune = float64(higher-middle) * float64(v-128) / 127.0
						} else if v < 0x80 {
							newFtune = float64(lower-middle) * float64(128-v) / -128.0
						}
						nf := round(newFtune)
						events = append(events, &event.IncPitchOfs{Offset: nf - currentFineTune})
						currentFineTune = nf
					}
				case dmf.EffectPortamentoUp:
					events = append(events, &event.PitchSlideUp{Offset: v})
				case dmf.EffectPortamentoDown:
					events = append(events, &event.PitchSlideDown{Offset: v})
				case dmf.EffectPanning:
					events = append(events, &event.SetPanning{Panning: panMaskFromDFFX(v)})
				case dmf.EffectPosJump:
					events = append(events, &event.PositionJump{Channel: ch, Index: v})
					doEndPattern = true
				case dmf.EffectFMTLOp1Control:
					events = append(events, &event.SetFMTL{Op: 1, Level: v})
				case dmf.EffectFMTLOp2Control:
					events = append(events, &event.SetFMTL{Op: 2, Level: v})
				case dmf.EffectFMTLOp3Control:
					events = append(events, &event.SetFMTL{Op: 3, Level: v})
				case dmf.EffectFMTLOp4Control:
					events = append(events, &event.SetFMTL{Op: 4, Level: v})
				default:
					events = append(events, &event.WaitTicks{})
					if warn != nil {
						warn(eff.Code.Name() + " effect conversion isn't implemented and will be ignored")
					}
				}
			}
		}

		ticksSinceLastCom++
		if doEndPattern {
			break
		}
	}

	if p := lastTiming(); p != nil {
		*p += ticksSinceLastCom
	}
	if !doEndPattern {
		events = append(events, &event.ReturnFromSubEL{})
	}
	return events
}

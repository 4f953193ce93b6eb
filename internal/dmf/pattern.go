package dmf

import "dmf2mlm/internal/mlmerr"

// Effect is one DMF row effect slot.
type Effect struct {
	Code  EffectCode
	Value *int // nil when the slot is unset (DMF sentinel 0xFFFF)
}

func parseEffect(code EffectCode, raw int) Effect {
	e := Effect{Code: code}
	if raw != 0xFFFF {
		v := raw
		e.Value = &v
	}
	return e
}

func effectEqual(a, b Effect) bool {
	if a.Code != b.Code {
		return false
	}
	if (a.Value == nil) != (b.Value == nil) {
		return false
	}
	return a.Value == nil || *a.Value == *b.Value
}

// Row is one channel/pattern cell: optional note/octave/volume/instrument
// plus a fixed number of effect slots (the column count is per-channel).
type Row struct {
	Note       *Note
	Octave     *int
	Volume     *int
	Instrument *int
	Effects    []Effect
}

func parseRow(data []byte, effectCount int) (Row, error) {
	need := BaseRowSize + EffectSize*effectCount
	if len(data) < need {
		return Row{}, mlmerr.ParseErrorf("truncated pattern row")
	}
	note := Note(int(data[0]) | int(data[1])<<8)
	octave := int(data[2]) | int(data[3])<<8
	volume := int(data[4]) | int(data[5])<<8
	headOfs := 6

	row := Row{}
	for i := 0; i < effectCount; i++ {
		code := EffectCode(int(data[headOfs]) | int(data[headOfs+1])<<8)
		value := int(data[headOfs+2]) | int(data[headOfs+3])<<8
		row.Effects = append(row.Effects, parseEffect(code, value))
		headOfs += EffectSize
	}
	instrument := int(data[headOfs]) | int(data[headOfs+1])<<8

	if note == NoteEmpty && octave == 0 {
		// both-absent sentinel
	} else {
		row.Note = &note
		row.Octave = &octave
	}
	if volume != 0xFFFF {
		row.Volume = &volume
	}
	if instrument != 0xFFFF {
		row.Instrument = &instrument
	}
	return row, nil
}

// IsEmpty reports whether every field is absent and every effect is
// EMPTY with no value — the "nothing happens this row" case.
func (r Row) IsEmpty() bool {
	if r.Note != nil || r.Octave != nil || r.Volume != nil || r.Instrument != nil {
		return false
	}
	for _, e := range r.Effects {
		if e.Code != EffectEmpty || e.Value != nil {
			return false
		}
	}
	return true
}

// rowEqual implements the field-tuple equality from §3.
func rowEqual(a, b Row) bool {
	if (a.Note == nil) != (b.Note == nil) {
		return false
	}
	if a.Note != nil && *a.Note != *b.Note {
		return false
	}
	if (a.Octave == nil) != (b.Octave == nil) {
		return false
	}
	if a.Octave != nil && *a.Octave != *b.Octave {
		return false
	}
	if (a.Volume == nil) != (b.Volume == nil) {
		return false
	}
	if a.Volume != nil && *a.Volume != *b.Volume {
		return false
	}
	if (a.Instrument == nil) != (b.Instrument == nil) {
		return false
	}
	if a.Instrument != nil && *a.Instrument != *b.Instrument {
		return false
	}
	if len(a.Effects) != len(b.Effects) {
		return false
	}
	for i := range a.Effects {
		if !effectEqual(a.Effects[i], b.Effects[i]) {
			return false
		}
	}
	return true
}

// Pattern is a fixed-length sequence of rows for one channel.
type Pattern struct {
	Rows []Row
}

func parsePattern(data []byte, rowsPerPattern int, effectCount int) (Pattern, int, error) {
	p := Pattern{Rows: make([]Row, 0, rowsPerPattern)}
	headOfs := 0
	stride := BaseRowSize + EffectSize*effectCount
	for i := 0; i < rowsPerPattern; i++ {
		if headOfs+stride > len(data) {
			return Pattern{}, 0, mlmerr.ParseErrorf("truncated pattern at row %d", i)
		}
		row, err := parseRow(data[headOfs:headOfs+stride], effectCount)
		if err != nil {
			return Pattern{}, 0, err
		}
		p.Rows = append(p.Rows, row)
		headOfs += stride
	}
	return p, headOfs, nil
}

// Equal reports structural equality between two patterns, used for
// merging (§4.5).
func (p Pattern) Equal(o Pattern) bool {
	if len(p.Rows) != len(o.Rows) {
		return false
	}
	for i := range p.Rows {
		if !rowEqual(p.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

// PatternMatrix maps (channel, matrix row) to a pattern id.
type PatternMatrix struct {
	RowsPerPattern       int
	RowsInPatternMatrix  int
	Matrix               [SystemTotalChannels][]int // nil entry => channel silent
}

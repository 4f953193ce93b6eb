package dmf

import (
	"bytes"
	"compress/zlib"
	"io"
	"strconv"

	"dmf2mlm/internal/mlmerr"
)

// TimeInfo carries the module's speed and refresh-rate fields.
type TimeInfo struct {
	TimeBase   int
	TickTime1  int
	TickTime2  int
	HzValue    int
}

// Module is one parsed DMF file (§3, §4.3).
type Module struct {
	Version       byte
	System        System
	SongName      string
	SongAuthor    string
	TimeInfo      TimeInfo
	PatternMatrix PatternMatrix
	Instruments   []Instrument
	Patterns      [SystemTotalChannels][]Pattern
	Samples       []Sample
}

// Parse decompresses compressed (the raw DMF file bytes) and parses it
// into a Module, applying the pitch/amplitude sample rewrites eagerly.
func Parse(compressed []byte) (*Module, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, mlmerr.ParseErrorf("not a valid DMF container: %v", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, mlmerr.ParseErrorf("failed to decompress DMF container: %v", err)
	}

	p := &parser{data: data}
	return p.parse()
}

type parser struct {
	data    []byte
	headOfs int
}

func (p *parser) parse() (*Module, error) {
	m := &Module{}
	if err := p.checkMagic(); err != nil {
		return nil, err
	}
	if err := p.parseFormatFlagsAndSystem(m); err != nil {
		return nil, err
	}
	if err := p.parseVisualInfo(m); err != nil {
		return nil, err
	}
	if err := p.parseModuleInfo(m); err != nil {
		return nil, err
	}
	if err := p.parsePatternMatrix(m); err != nil {
		return nil, err
	}
	if err := p.parseInstruments(m); err != nil {
		return nil, err
	}
	if err := p.parseWavetables(); err != nil {
		return nil, err
	}
	if err := p.parsePatterns(m); err != nil {
		return nil, err
	}
	if err := p.parseSamples(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *parser) checkMagic() error {
	if len(p.data) < len(Magic) || string(p.data[:len(Magic)]) != Magic {
		return mlmerr.ParseErrorf("bad DMF magic")
	}
	p.headOfs = len(Magic)
	return nil
}

func (p *parser) parseFormatFlagsAndSystem(m *Module) error {
	if p.headOfs+2 > len(p.data) {
		return mlmerr.ParseErrorf("truncated format header")
	}
	m.Version = p.data[p.headOfs]
	m.System = System(p.data[p.headOfs+1])
	if m.System != SystemNeoGeo {
		return mlmerr.UnsupportedErrorf("unsupported system %#x (only NeoGeo is supported)", byte(m.System))
	}
	p.headOfs += 2
	return nil
}

func (p *parser) parseVisualInfo(m *Module) error {
	if p.headOfs >= len(p.data) {
		return mlmerr.ParseErrorf("truncated visual info")
	}
	nameLen := int(p.data[p.headOfs])
	if p.headOfs+1+nameLen > len(p.data) {
		return mlmerr.ParseErrorf("truncated song name")
	}
	m.SongName = string(p.data[p.headOfs+1 : p.headOfs+1+nameLen])
	p.headOfs += 1 + nameLen

	if p.headOfs >= len(p.data) {
		return mlmerr.ParseErrorf("truncated visual info")
	}
	authorLen := int(p.data[p.headOfs])
	if p.headOfs+1+authorLen+2 > len(p.data) {
		return mlmerr.ParseErrorf("truncated song author")
	}
	m.SongAuthor = string(p.data[p.headOfs+1 : p.headOfs+1+authorLen])
	p.headOfs += 1 + authorLen + 2 // skip highlight bytes
	return nil
}

func (p *parser) parseModuleInfo(m *Module) error {
	if p.headOfs+13 > len(p.data) {
		return mlmerr.ParseErrorf("truncated module info")
	}
	ti := TimeInfo{
		TimeBase:  int(p.data[p.headOfs]) + 1,
		TickTime1: int(p.data[p.headOfs+1]),
		TickTime2: int(p.data[p.headOfs+2]),
	}
	framesMode := FramesMode(p.data[p.headOfs+3])
	usingCustomHz := p.data[p.headOfs+4] != 0
	if usingCustomHz {
		hz, err := parseCustomHz(p.data[p.headOfs+5 : p.headOfs+8])
		if err != nil {
			return err
		}
		ti.HzValue = hz
	} else if framesMode == FramesPAL {
		ti.HzValue = 50
	} else {
		ti.HzValue = 60
	}
	m.TimeInfo = ti

	pm := PatternMatrix{}
	pm.RowsPerPattern = int(p.data[p.headOfs+8]) |
		int(p.data[p.headOfs+9])<<8 |
		int(p.data[p.headOfs+10])<<16 |
		int(p.data[p.headOfs+11])<<24
	pm.RowsInPatternMatrix = int(p.data[p.headOfs+12])
	m.PatternMatrix = pm

	p.headOfs += 13
	return nil
}

// parseCustomHz reads a NUL-terminated ASCII decimal integer from a
// fixed 3-byte field (§9 Open Questions: sources disagree on "ASCII
// digits" vs "single byte as hex"; this follows the ASCII-integer
// reading the spec calls out as the one to implement and verify).
func parseCustomHz(field []byte) (int, error) {
	end := len(field)
	for i, b := range field {
		if b == 0 {
			end = i
			break
		}
	}
	if end == 0 {
		return 0, mlmerr.ParseErrorf("empty custom Hz field")
	}
	hz, err := strconv.Atoi(string(field[:end]))
	if err != nil {
		return 0, mlmerr.ParseErrorf("invalid custom Hz field %q: %v", string(field[:end]), err)
	}
	return hz, nil
}

func (p *parser) parsePatternMatrix(m *Module) error {
	for ch := 0; ch < SystemTotalChannels; ch++ {
		rows := make([]int, m.PatternMatrix.RowsInPatternMatrix)
		for row := range rows {
			if p.headOfs >= len(p.data) {
				return mlmerr.ParseErrorf("truncated pattern matrix")
			}
			rows[row] = int(p.data[p.headOfs])
			p.headOfs++
		}
		m.PatternMatrix.Matrix[ch] = rows
	}
	return nil
}

const fmInstrumentModeByteFM = 1

func (p *parser) parseInstruments(m *Module) error {
	if p.headOfs >= len(p.data) {
		return mlmerr.ParseErrorf("truncated instrument count")
	}
	count := int(p.data[p.headOfs])
	p.headOfs++

	for i := 0; i < count; i++ {
		if p.headOfs >= len(p.data) {
			return mlmerr.ParseErrorf("truncated instrument %d", i)
		}
		nameLen := int(p.data[p.headOfs])
		if p.headOfs+1+nameLen >= len(p.data) {
			return mlmerr.ParseErrorf("truncated instrument %d name", i)
		}
		mode := p.data[p.headOfs+1+nameLen]

		var inst Instrument
		var err error
		if mode == fmInstrumentModeByteFM {
			inst, err = parseFMInstrument(p.data[p.headOfs:])
		} else {
			inst, err = parseSTDInstrument(p.data[p.headOfs:])
		}
		if err != nil {
			return err
		}
		m.Instruments = append(m.Instruments, inst)

		var size int
		switch v := inst.(type) {
		case *FMInstrument:
			size = v.size
		case *STDInstrument:
			size = v.size
		}
		p.headOfs += size
	}
	return nil
}

func (p *parser) parseWavetables() error {
	if p.headOfs >= len(p.data) {
		return mlmerr.ParseErrorf("truncated wavetable count")
	}
	count := int(p.data[p.headOfs])
	if count != 0 {
		return mlmerr.UnsupportedErrorf("wavetables are not supported")
	}
	p.headOfs++
	return nil
}

func (p *parser) parsePatterns(m *Module) error {
	for ch := 0; ch < SystemTotalChannels; ch++ {
		if p.headOfs >= len(p.data) {
			return mlmerr.ParseErrorf("truncated pattern effect count for channel %d", ch)
		}
		effectCount := int(p.data[p.headOfs])
		p.headOfs++

		patterns := make([]Pattern, 0, m.PatternMatrix.RowsInPatternMatrix)
		for j := 0; j < m.PatternMatrix.RowsInPatternMatrix; j++ {
			pattern, consumed, err := parsePattern(p.data[p.headOfs:], m.PatternMatrix.RowsPerPattern, effectCount)
			if err != nil {
				return err
			}
			patterns = append(patterns, pattern)
			p.headOfs += consumed
		}
		m.Patterns[ch] = patterns
	}
	return nil
}

func (p *parser) parseSamples(m *Module) error {
	if p.headOfs >= len(p.data) {
		return mlmerr.ParseErrorf("truncated sample count")
	}
	count := int(p.data[p.headOfs])
	p.headOfs++

	for i := 0; i < count; i++ {
		sample, consumed, err := parseSample(p.data[p.headOfs:])
		if err != nil {
			return err
		}
		sample = sample.ApplyPitch().ApplyAmplitude()
		m.Samples = append(m.Samples, sample)
		p.headOfs += consumed
	}
	return nil
}

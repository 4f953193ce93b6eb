package dmf

import "dmf2mlm/internal/mlmerr"

// Instrument is implemented by FMInstrument and STDInstrument; both
// self-delimit their on-disk size during parsing.
type Instrument interface {
	isInstrument()
}

// FMOperator holds one YM2610 FM operator's raw DMF fields.
type FMOperator struct {
	AM           bool
	AR           int
	DR           int
	Mult         int
	RR           int
	SL           int
	TL           int
	DT2          int
	RS           int
	DT           int
	D2R          int
	SSGEnabled   bool
	SSGMode      int
}

func parseFMOperator(data []byte) FMOperator {
	return FMOperator{
		AM:         data[0] != 0,
		AR:         int(data[1]),
		DR:         int(data[2]),
		Mult:       int(data[3]),
		RR:         int(data[4]),
		SL:         int(data[5]),
		TL:         int(data[6]),
		DT2:        int(data[7]),
		RS:         int(data[8]),
		DT:         int(data[9]) - 3,
		D2R:        int(data[10]),
		SSGEnabled: data[11]&8 != 0,
		SSGMode:    int(data[11] & 7),
	}
}

// fmOpIndex reorders DMF's on-disk operator order into storage order.
var fmOpIndex = [FMOpCount]int{0, 2, 1, 3}

// FMInstrument is a 4-operator FM instrument.
type FMInstrument struct {
	Name      string
	Algorithm int
	Feedback  int
	FMS       int
	AMS       int
	Operators [FMOpCount]FMOperator
	size      int
}

func (*FMInstrument) isInstrument() {}

func parseFMInstrument(data []byte) (*FMInstrument, error) {
	if len(data) < 1 {
		return nil, mlmerr.ParseErrorf("truncated instrument")
	}
	nameLen := int(data[0])
	headOfs := 1 + nameLen + 1 // name + mode byte (already known to be FM)
	if headOfs+4 > len(data) {
		return nil, mlmerr.ParseErrorf("truncated FM instrument header")
	}
	inst := &FMInstrument{
		Name:      string(data[1 : 1+nameLen]),
		Algorithm: int(data[headOfs]),
		Feedback:  int(data[headOfs+1]),
		FMS:       int(data[headOfs+2]),
		AMS:       int(data[headOfs+3]),
	}
	headOfs += 4
	for i := 0; i < FMOpCount; i++ {
		if headOfs+FMOpSize > len(data) {
			return nil, mlmerr.ParseErrorf("truncated FM operator %d", i)
		}
		inst.Operators[fmOpIndex[i]] = parseFMOperator(data[headOfs:])
		headOfs += FMOpSize
	}
	inst.size = headOfs
	return inst, nil
}

// STDMacro is a length-prefixed envelope with an optional loop point,
// used for SSG volume/arpeggio/channel-mode instrument macros.
type STDMacro struct {
	EnvelopeValues []int
	LoopPosition   int
	LoopEnabled    bool
	size           int
}

func parseSTDMacro(data []byte, valueOfs int) (STDMacro, error) {
	if len(data) < 1 {
		return STDMacro{}, mlmerr.ParseErrorf("truncated macro")
	}
	headOfs := 0
	envelopeSize := int(data[headOfs])
	headOfs++
	if envelopeSize > 127 {
		return STDMacro{}, mlmerr.ParseErrorf("corrupted envelope size %d (valid range is 0-127)", envelopeSize)
	}
	m := STDMacro{}
	for i := 0; i < envelopeSize; i++ {
		if headOfs+4 > len(data) {
			return STDMacro{}, mlmerr.ParseErrorf("truncated envelope value %d", i)
		}
		v := int(data[headOfs]) | int(data[headOfs+1])<<8 | int(data[headOfs+2])<<16 | int(data[headOfs+3])<<24
		m.EnvelopeValues = append(m.EnvelopeValues, v+valueOfs)
		headOfs += 4
	}
	if envelopeSize > 0 {
		if headOfs >= len(data) {
			return STDMacro{}, mlmerr.ParseErrorf("truncated macro loop byte")
		}
		m.LoopPosition = int(data[headOfs])
		m.LoopEnabled = true
		headOfs++
	} else {
		m.LoopEnabled = false
	}
	m.size = headOfs
	return m, nil
}

// STDArpeggioMode distinguishes relative from fixed arpeggio macros.
type STDArpeggioMode int

const (
	ArpeggioNormal STDArpeggioMode = 0
	ArpeggioFixed  STDArpeggioMode = 1
)

// STDInstrument is a DMF "standard" SSG instrument: four macros.
type STDInstrument struct {
	Name          string
	VolumeMacro   STDMacro
	ArpeggioMacro STDMacro
	ArpeggioMode  STDArpeggioMode
	NoiseMacro    STDMacro
	ChModeMacro   STDMacro
	size          int
}

func (*STDInstrument) isInstrument() {}

func parseSTDInstrument(data []byte) (*STDInstrument, error) {
	if len(data) < 1 {
		return nil, mlmerr.ParseErrorf("truncated instrument")
	}
	nameLen := int(data[0])
	headOfs := 1 + nameLen + 1
	inst := &STDInstrument{Name: string(data[1 : 1+nameLen])}

	vol, err := parseSTDMacro(data[headOfs:], 0)
	if err != nil {
		return nil, err
	}
	inst.VolumeMacro = vol
	headOfs += vol.size

	arp, err := parseSTDMacro(data[headOfs:], -12)
	if err != nil {
		return nil, err
	}
	inst.ArpeggioMacro = arp
	headOfs += arp.size

	if headOfs >= len(data) {
		return nil, mlmerr.ParseErrorf("truncated arpeggio mode byte")
	}
	inst.ArpeggioMode = STDArpeggioMode(data[headOfs])

	noise, err := parseSTDMacro(data[headOfs+1:], 0)
	if err != nil {
		return nil, err
	}
	inst.NoiseMacro = noise
	headOfs += noise.size + 1

	chmode, err := parseSTDMacro(data[headOfs:], 0)
	if err != nil {
		return nil, err
	}
	inst.ChModeMacro = chmode
	headOfs += chmode.size

	inst.size = headOfs
	return inst, nil
}

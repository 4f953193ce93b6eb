package song

import (
	"fmt"

	"dmf2mlm/internal/bits"
	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/symtab"
)

// MLMInstrumentSize is the fixed on-disk size of every instrument slot,
// FM and SSG alike, so the driver can index them uniformly.
const MLMInstrumentSize = 32

// fmOperatorSize is the compiled size of one FM operator's register block.
const fmOperatorSize = 7

// Instrument is implemented by FMInstrument, SSGInstrument and
// ADPCMAInstrument.
type Instrument interface {
	Compile(symbols *symtab.Table, headOfs int) []byte
}

// fmOperator holds one YM2610 FM operator's packed register bytes.
type fmOperator struct {
	DTMul, TL, KSAR, AMDR, SR, SLRR, EG int
}

func fmOperatorFromDMF(op dmf.FMOperator) fmOperator {
	return fmOperator{
		DTMul: op.Mult | (bits.Signed3(op.DT) << 4),
		TL:    op.TL,
		KSAR:  op.AR | (op.RS << 6),
		AMDR:  op.DR | (boolInt(op.AM) << 7),
		SR:    op.D2R,
		SLRR:  op.RR | (op.SL << 4),
		EG:    op.SSGMode | (boolInt(op.SSGEnabled) << 3),
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (o fmOperator) compile() []byte {
	return []byte{
		byte(o.DTMul), byte(o.TL), byte(o.KSAR), byte(o.AMDR),
		byte(o.SR), byte(o.SLRR), byte(o.EG),
	}
}

// FMInstrument is a 4-operator FM instrument (§4.11).
type FMInstrument struct {
	FBAlgo    int
	AMSPMS    int
	Operators [dmf.FMOpCount]fmOperator
}

func FMInstrumentFromDMF(d *dmf.FMInstrument) *FMInstrument {
	inst := &FMInstrument{
		FBAlgo: d.Algorithm | (d.Feedback << 3),
		AMSPMS: d.FMS | (d.AMS << 4),
	}
	for i, op := range d.Operators {
		inst.Operators[i] = fmOperatorFromDMF(op)
	}
	return inst
}

func (i *FMInstrument) Compile(_ *symtab.Table, _ int) []byte {
	comp := make([]byte, 3)
	comp[0] = byte(i.FBAlgo)
	comp[1] = byte(i.AMSPMS)
	opEnable := 0
	for k := 0; k < dmf.FMOpCount; k++ {
		opEnable |= 1 << (k + 4)
	}
	comp[2] = byte(opEnable)
	for _, op := range i.Operators {
		comp = append(comp, op.compile()...)
	}
	comp = append(comp, 0) // padding
	return comp
}

// SSGMixing selects which SSG sources (tone/noise) an instrument mixes.
type SSGMixing int

const (
	SSGMixNone  SSGMixing = 0
	SSGMixTone  SSGMixing = 1
	SSGMixNoise SSGMixing = 2
	SSGMixBoth  SSGMixing = 3
)

// SSGInstrument is a DMF "standard" instrument rendered for the SSG
// channels: a mixing mode plus up to three control-macro pointers.
type SSGInstrument struct {
	Mixing   SSGMixing
	MixMacro *int // other-data index, nil if unused
	VolMacro *int
	ArpMacro *int
}

// SSGInstrumentFromDMF converts a DMF STD instrument into an SSGInstrument
// plus the new OtherData entries it needs, starting at odataCount.
func SSGInstrumentFromDMF(d *dmf.STDInstrument, odataCount int) (*SSGInstrument, []OtherData) {
	inst := &SSGInstrument{Mixing: ssgMixingFromDMF(d)}
	var newOData []OtherData

	if m := SSGMacroFromDMF(d.ChModeMacro, "mixmode"); m != nil {
		newOData = append(newOData, m)
		idx := odataCount
		inst.MixMacro = &idx
		odataCount++
	}
	if m := SSGMacroFromDMF(d.VolumeMacro, "nibble"); m != nil {
		newOData = append(newOData, m)
		idx := odataCount
		inst.VolMacro = &idx
		odataCount++
	}
	if m := SSGMacroFromDMF(d.ArpeggioMacro, "byte"); m != nil {
		newOData = append(newOData, m)
		idx := odataCount
		inst.ArpMacro = &idx
		odataCount++
	}
	return inst, newOData
}

func ssgMixingFromDMF(d *dmf.STDInstrument) SSGMixing {
	if len(d.ChModeMacro.EnvelopeValues) == 0 {
		return SSGMixTone
	}
	return SSGMixing(d.ChModeMacro.EnvelopeValues[0] + 1)
}

func (i *SSGInstrument) Compile(symbols *symtab.Table, headOfs int) []byte {
	comp := make([]byte, MLMInstrumentSize)
	comp[0] = byte(i.Mixing)
	comp[1] = 0 // EG enable, unused

	macros := []*int{i.MixMacro, i.VolMacro, i.ArpMacro}
	for k, m := range macros {
		ofs := 5 + k*2
		if m == nil {
			comp[ofs] = 0x00
			comp[ofs+1] = 0x00
			continue
		}
		symbols.Reference(otherDataSymbol(*m), headOfs+ofs)
		comp[ofs] = 0xFF
		comp[ofs+1] = 0xFF
	}
	return comp
}

// ADPCMAInstrument points every ADPCM-A channel at the shared sample list.
type ADPCMAInstrument struct {
	SampleListIndex int
}

func (i *ADPCMAInstrument) Compile(symbols *symtab.Table, headOfs int) []byte {
	comp := make([]byte, MLMInstrumentSize)
	symbols.Reference(otherDataSymbol(i.SampleListIndex), headOfs)
	comp[0] = 0xFF
	comp[1] = 0xFF
	return comp
}

func otherDataSymbol(idx int) string {
	return fmt.Sprintf("ODATA:%02X", idx)
}

// OtherData is auxiliary compiled data referenced by instruments: SSG
// control macros and the shared ADPCM-A sample list.
type OtherData interface {
	Compile() []byte
}

// SSGMacro is a byte- or nibble-packed envelope with a loop point.
type SSGMacro struct {
	Data       []byte
	LoopPoint  int
}

// SSGMacroFromDMF packs a DMF macro's envelope values for elSize ("byte",
// "nibble", or "mixmode" — nibble-packed with each nibble pre-incremented
// by 1 to encode the SSG mixing variant); returns nil if the macro
// carries no data.
func SSGMacroFromDMF(d dmf.STDMacro, elSize string) *SSGMacro {
	n := len(d.EnvelopeValues)
	if n == 0 {
		return nil
	}
	m := &SSGMacro{LoopPoint: 0xFF}
	if d.LoopEnabled {
		m.LoopPoint = d.LoopPosition
	}

	switch {
	case elSize == "byte" || n == 1:
		m.Data = make([]byte, n)
		for i, v := range d.EnvelopeValues {
			m.Data[i] = byte(bits.Unsigned8(v))
		}
	case elSize == "nibble" || elSize == "mixmode":
		bump := 0
		if elSize == "mixmode" {
			bump = 1
		}
		for i := 0; i < n; i += 2 {
			b := (d.EnvelopeValues[i] + bump) & 0x0F
			if i+1 < n {
				b |= ((d.EnvelopeValues[i+1] + bump) & 0x0F) << 4
			}
			m.Data = append(m.Data, byte(b))
		}
	default:
		panic("invalid SSG macro element size " + elSize)
	}
	return m
}

// Compile serializes a control macro as length-1 byte, loop-position
// byte, then the packed payload (§4.10).
func (m *SSGMacro) Compile() []byte {
	out := make([]byte, 0, 2+len(m.Data))
	out = append(out, byte(len(m.Data)-1), byte(m.LoopPoint))
	out = append(out, m.Data...)
	return out
}

// SampleList is the shared ADPCM-A sample start/end VROM-address table.
type SampleList struct {
	Starts, Ends []int
}

// Compile serializes the sample list as a count byte followed by
// count*4 start/end address bytes; an empty list is a single zero byte
// (§4.10).
func (s *SampleList) Compile() []byte {
	if len(s.Starts) == 0 {
		return []byte{0x00}
	}
	out := make([]byte, 0, 1+len(s.Starts)*4)
	out = append(out, byte(len(s.Starts)))
	for i := range s.Starts {
		out = append(out,
			byte(s.Starts[i]&0xFF), byte(s.Starts[i]>>8),
			byte(s.Ends[i]&0xFF), byte(s.Ends[i]>>8),
		)
	}
	return out
}

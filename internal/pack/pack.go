// Package pack assembles every compiled song and SFX sample into the
// two binary images the driver loads at runtime: SDATA (the global
// header, SFX sample list, and bank-packed song bodies) and VROM (the
// flat ADPCM-A sample ROM) — §4.12.
package pack

import (
	"dmf2mlm/internal/bits"
	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/mlmerr"
	"dmf2mlm/internal/pcmenc"
	"dmf2mlm/internal/sfx"
	"dmf2mlm/internal/song"
	"dmf2mlm/internal/symtab"
)

// Bank-layout constants (§4.12). FixedBankSize is deliberately the
// value spec.md's §4.12 states (0x2000), not the 0x4000 the Python
// original's compile_sdata actually uses — see DESIGN.md.
const (
	FixedBankSize      = bits.FixedBankSize // 0x2000
	SwitchableBankSize = 0x7800
	BankPad            = 0x800
	maxVROMSize        = 16 * 1024 * 1024
	vromFillByte       = 0x80
)

// CompiledSong bundles a song ready to place with the VROM samples it
// references (its own ADPCM-A instrument's sample list already points
// at these, by 256-byte-page address).
type CompiledSong struct {
	Song    *song.Song
	Samples []song.CompiledSample
}

// Result is the packer's two output images.
type Result struct {
	SDATA []byte
	VROM  []byte
}

// Pack lays out the global SDATA header, the SFX sample list, and every
// song's independently-compiled, bank-placed body, then renders the
// flat VROM image holding every sample byte (§4.12).
func Pack(songs []CompiledSong, sfx []song.CompiledSample) (*Result, error) {
	// Structural size, not the literal value a worked single-song example
	// states elsewhere: this must equal the sample list's actual start
	// offset, or sample_list_ptr wouldn't point at the sample list.
	headerSize := len(songs)*2 + 3
	sdata := make([]byte, headerSize)

	sdata[0] = byte(headerSize & 0xFF)
	sdata[1] = byte(headerSize >> 8)
	sdata[2] = byte(len(songs))

	sampleList := &song.SampleList{}
	for _, s := range sfx {
		sampleList.Starts = append(sampleList.Starts, s.StartAddr)
		sampleList.Ends = append(sampleList.Ends, s.EndAddr)
	}
	sdata = append(sdata, sampleList.Compile()...)

	bank := 0
	for i, cs := range songs {
		symbols := symtab.New()
		body, err := cs.Song.Compile(symbols)
		if err != nil {
			return nil, err
		}

		// A song that doesn't fit in what's left of the current bank
		// moves to the next one first; the per-song budget check then
		// applies against whichever bank it actually lands in, so an
		// oversized song is reported against its real destination bank
		// rather than the one it overflowed out of.
		bankLimit := FixedBankSize + SwitchableBankSize*(bank+1)
		if len(sdata)+len(body) > bankLimit {
			nextBankOfs := bankLimit + BankPad*bank
			pad := nextBankOfs - len(sdata)
			sdata = append(sdata, make([]byte, pad)...)
			bank++
		}

		budget := SwitchableBankSize
		if bank == 0 {
			budget += FixedBankSize - headerSize
		}
		if len(body) > budget {
			return nil, mlmerr.OverflowErrorf("song too big, bank %d", bank)
		}

		songStart := len(sdata)
		sdata[3+i*2] = byte(songStart & 0xFF)
		sdata[3+i*2+1] = byte(songStart >> 8)

		if err := symbols.Finalize(body, songStart); err != nil {
			return nil, err
		}
		sdata = append(sdata, body...)
	}

	vrom, err := packVROM(songs, sfx)
	if err != nil {
		return nil, err
	}

	return &Result{SDATA: sdata, VROM: vrom}, nil
}

// LayoutSFXSamples encodes every scanned SFX sample with enc and lays
// them out in VROM page space starting at vromOfs, continuing on from
// wherever the last DMF song sample ended (§4.12's add_sfx ordering).
// SFX samples carry no pitch/amplitude rewrite, unlike DMF song samples.
func LayoutSFXSamples(samples []sfx.Sample, enc *pcmenc.Encoder, vromOfs int) ([]song.CompiledSample, error) {
	dsamples := make([]dmf.Sample, len(samples))
	for i, s := range samples {
		dsamples[i] = dmf.Sample{Name: s.Name, Data: s.Data}
	}
	return song.LayoutSamples(dsamples, enc, vromOfs)
}

// packVROM renders the flat sample ROM: sized to the furthest sample
// end (song samples or SFX, whichever reaches further), filled with
// 0x80, each sample written at its page-address byte offset (§4.12).
func packVROM(songs []CompiledSong, sfx []song.CompiledSample) ([]byte, error) {
	vromSize := 0
	if n := len(sfx); n > 0 {
		vromSize = sfx[n-1].EndAddr * 256
	}
	for _, cs := range songs {
		if n := len(cs.Samples); n > 0 {
			if end := cs.Samples[n-1].EndAddr * 256; end > vromSize {
				vromSize = end
			}
		}
	}
	if vromSize > maxVROMSize {
		return nil, mlmerr.OverflowErrorf("VROM size %d exceeds the 16MiB maximum", vromSize)
	}

	vrom := make([]byte, vromSize)
	for i := range vrom {
		vrom[i] = vromFillByte
	}

	for _, cs := range songs {
		for _, s := range cs.Samples {
			copy(vrom[s.StartAddr*256:s.EndAddr*256], s.Data)
		}
	}
	for _, s := range sfx {
		copy(vrom[s.StartAddr*256:s.EndAddr*256], s.Data)
	}

	return vrom, nil
}

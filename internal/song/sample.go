package song

import (
	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/pcmenc"
)

// CompiledSample is an ADPCM-A-encoded sample placed in VROM.
type CompiledSample struct {
	Data       []byte
	StartAddr  int // in 256-byte pages
	EndAddr    int // in 256-byte pages
}

// LayoutSamples encodes every DMF sample with enc and lays the results
// out in VROM page space starting at vromOfs, snapping a sample's start
// forward whenever it would otherwise straddle a 4KiB page boundary
// (§4.9: ADPCM-A playback cannot cross a page mid-sample).
func LayoutSamples(samples []dmf.Sample, enc *pcmenc.Encoder, vromOfs int) ([]CompiledSample, error) {
	out := make([]CompiledSample, 0, len(samples))
	startAddr := vromOfs

	for _, s := range samples {
		// Pitch/amplitude rewrites already happened at parse time
		// (dmf.parseSamples); by the time a sample reaches here it's
		// immutable raw PCM ready for the encoder.
		encoded, err := enc.Encode(s.Data)
		if err != nil {
			return nil, err
		}
		padded := padTo256(encoded)

		smpLenPages := len(padded) / 256
		endAddr := startAddr + smpLenPages

		saddrPage := startAddr >> 4
		eaddrPage := endAddr >> 4
		if saddrPage != eaddrPage {
			startAddr = eaddrPage << 4
			endAddr = startAddr + smpLenPages
		}

		out = append(out, CompiledSample{Data: padded, StartAddr: startAddr, EndAddr: endAddr})
		startAddr = endAddr + 1
	}
	return out, nil
}

func padTo256(data []byte) []byte {
	rem := len(data) % 256
	if rem == 0 {
		return data
	}
	pad := make([]byte, 256-rem)
	for i := range pad {
		pad[i] = 0x80
	}
	return append(data, pad...)
}

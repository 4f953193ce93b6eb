// Package pcmenc invokes the external ADPCM-A encoder binary that turns
// raw 18.5kHz mono PCM into YM2610 ADPCM-A sample data (§4.9). The
// encoder is a separate executable (not part of this module) so this
// package only manages the temp-file handoff and cleanup around it.
package pcmenc

import (
	"encoding/binary"
	"os"
	"os/exec"

	"dmf2mlm/internal/mlmerr"
)

// Encoder wraps an external ADPCM-A encoder command.
type Encoder struct {
	CommandPath string
}

// New returns an Encoder invoking the binary at commandPath.
func New(commandPath string) *Encoder {
	return &Encoder{CommandPath: commandPath}
}

// Encode writes samples to a temp PCM file, runs the external encoder
// against it, and reads back the encoded ADPCM-A bytes. Both temp files
// are removed before returning, on every exit path.
func (e *Encoder) Encode(samples []int16) ([]byte, error) {
	pcmFile, err := os.CreateTemp("", "dmf2mlm-*.pcm")
	if err != nil {
		return nil, mlmerr.IOErrorf(err, "failed to create temp PCM file")
	}
	pcmPath := pcmFile.Name()
	defer os.Remove(pcmPath)

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	if _, err := pcmFile.Write(buf); err != nil {
		pcmFile.Close()
		return nil, mlmerr.IOErrorf(err, "failed to write temp PCM file")
	}
	if err := pcmFile.Close(); err != nil {
		return nil, mlmerr.IOErrorf(err, "failed to close temp PCM file")
	}

	outFile, err := os.CreateTemp("", "dmf2mlm-*.pcma")
	if err != nil {
		return nil, mlmerr.IOErrorf(err, "failed to create temp ADPCM-A file")
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	cmd := exec.Command(e.CommandPath, pcmPath, outPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, mlmerr.ExternalToolErrorf(err, "ADPCM-A encoder %q failed: %s", e.CommandPath, output)
	}

	encoded, err := os.ReadFile(outPath)
	if err != nil {
		return nil, mlmerr.IOErrorf(err, "failed to read encoded ADPCM-A output")
	}
	return encoded, nil
}

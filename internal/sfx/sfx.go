// Package sfx scans a directory of standalone sound-effect samples and
// generates the C header the NeoGeo driver's user code includes to name
// them by index (§6, SPEC_FULL C.3).
package sfx

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dmf2mlm/internal/bits"
	"dmf2mlm/internal/mlmerr"
)

// MaxSampleCount is the largest number of SFX samples a single run
// accepts (§6).
const MaxSampleCount = 128

// Sample is one standalone SFX sound: its file-stem name and raw 16-bit
// mono PCM data (no rewrite applied — SFX samples have no pitch/
// amplitude fields, unlike DMF song samples).
type Sample struct {
	Name string
	Data []int16
}

// Scan reads every `*.raw` file in dir, sorted by file name, as 18.5kHz
// mono 16-bit little-endian PCM (§6). It fails if more than
// MaxSampleCount files are found.
func Scan(dir string) ([]Sample, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.raw"))
	if err != nil {
		return nil, mlmerr.IOErrorf(err, "failed to scan SFX directory %q", dir)
	}
	sort.Strings(matches)

	if len(matches) > MaxSampleCount {
		return nil, mlmerr.OverflowErrorf("SFX sample count %d exceeds the maximum of %d", len(matches), MaxSampleCount)
	}

	samples := make([]Sample, 0, len(matches))
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, mlmerr.IOErrorf(err, "failed to read SFX sample %q", path)
		}
		if len(raw)%2 != 0 {
			return nil, mlmerr.ParseErrorf("SFX sample %q has an odd byte length for 16-bit PCM", path)
		}

		data := make([]int16, len(raw)/2)
		for i := range data {
			u := binary.LittleEndian.Uint16(raw[i*2:])
			data[i] = int16(bits.Signed16(int(u)))
		}

		name := strings.TrimSuffix(filepath.Base(path), ".raw")
		samples = append(samples, Sample{Name: name, Data: data})
	}
	return samples, nil
}

// GenerateCHeader renders the `#define SFX_<NAME> (<index>)` header for
// samples, in order, matching the original tool's banner and naming
// convention verbatim (§6, SPEC_FULL C.3).
func GenerateCHeader(samples []Sample) string {
	var b strings.Builder
	b.WriteString("/*\n  [SFX CONSTANTS]\n  Header generated using 'dmf2mlm'\n*/\n\n")
	for i, s := range samples {
		b.WriteString(fmt.Sprintf("#define SFX_%s (%d)\n", constantCase(s.Name), i))
	}
	return b.String()
}

// constantCase upper-cases name and replaces runs of whitespace with a
// single underscore, matching the original's "_".join(name.upper().split()).
func constantCase(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(name)), "_")
}

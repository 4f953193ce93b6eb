// Command dmf2mlm compiles one or more DMF tracker modules into the
// SDATA/VROM image the NeoGeo MLM sound driver loads (§4.12/§6), plus an
// optional SFX sample bank and its C header.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/dmfmulti"
	"dmf2mlm/internal/mlmerr"
	"dmf2mlm/internal/normalize"
	"dmf2mlm/internal/pack"
	"dmf2mlm/internal/pcmenc"
	"dmf2mlm/internal/sfx"
	"dmf2mlm/internal/song"
)

var (
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
)

var (
	flagSFXDirectory string
	flagSFXHeader    string
	flagOutSDATA     string
	flagOutVROM      string
	flagEncoder      string
	flagVerbose      bool
)

func main() {
	root := &cobra.Command{
		Use:   "dmf2mlm [flags] <module.dmf> [<module.dmf> ...]",
		Short: "Compile DMF tracker modules into a NeoGeo MLM SDATA/VROM image",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCompile,
	}
	root.Flags().StringVar(&flagSFXDirectory, "sfx-directory", "", "directory of *.raw SFX samples")
	root.Flags().StringVar(&flagSFXHeader, "sfx-header", "", "path to write the generated SFX C header")
	root.Flags().StringVar(&flagOutSDATA, "out-sdata", "m1_sdata.bin", "path to write the compiled SDATA image")
	root.Flags().StringVar(&flagOutVROM, "out-vrom", "vrom.bin", "path to write the compiled VROM image")
	root.Flags().StringVar(&flagEncoder, "encoder", "adpcma", "path or name of the external ADPCM-A encoder binary")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "print per-song diagnostics")

	root.AddCommand(newDumpCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("FATAL: %v", err))
		os.Exit(1)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	warnings := mlmerr.NewWarnings(func(msg string) {
		fmt.Fprintln(os.Stderr, yellow("warning: %s", msg))
	})

	modules := make([]*dmf.Module, 0, len(args))
	for _, path := range args {
		raw, err := os.ReadFile(path)
		if err != nil {
			return mlmerr.IOErrorf(err, "failed to read %q", path)
		}
		m, err := dmf.Parse(raw)
		if err != nil {
			return err
		}
		modules = append(modules, m)
		fmt.Println(green("parsed %s", path))
	}

	if flagVerbose {
		printMultiModuleDiagnostics(args, modules)
	}

	enc := pcmenc.New(flagEncoder)

	var sfxSamples []sfx.Sample
	if flagSFXDirectory != "" {
		var err error
		sfxSamples, err = sfx.Scan(flagSFXDirectory)
		if err != nil {
			return err
		}
		fmt.Println(green("scanned %d SFX sample(s) from %s", len(sfxSamples), flagSFXDirectory))
	}

	vromOfs := 0
	songs := make([]pack.CompiledSong, 0, len(modules))
	for i, m := range modules {
		n, err := normalize.Normalize(m)
		if err != nil {
			return err
		}
		normalize.Optimize(n)
		warn := func(msg string) { warnings.Once(msg, msg) }
		s, samples, err := song.Build(n, m, enc, vromOfs, warn)
		if err != nil {
			return err
		}
		if n := len(samples); n > 0 {
			vromOfs = samples[n-1].EndAddr + 1
		}
		songs = append(songs, pack.CompiledSong{Song: s, Samples: samples})

		if flagVerbose {
			fmt.Printf("  %s: %d sample(s), vrom offset now %#x\n", args[i], len(samples), vromOfs)
		}
	}

	compiledSFX, err := pack.LayoutSFXSamples(sfxSamples, enc, vromOfs)
	if err != nil {
		return err
	}

	result, err := pack.Pack(songs, compiledSFX)
	if err != nil {
		return err
	}

	if err := os.WriteFile(flagOutSDATA, result.SDATA, 0o644); err != nil {
		return mlmerr.IOErrorf(err, "failed to write %q", flagOutSDATA)
	}
	fmt.Println(green("wrote %s (%d bytes)", flagOutSDATA, len(result.SDATA)))

	if err := os.WriteFile(flagOutVROM, result.VROM, 0o644); err != nil {
		return mlmerr.IOErrorf(err, "failed to write %q", flagOutVROM)
	}
	fmt.Println(green("wrote %s (%d bytes)", flagOutVROM, len(result.VROM)))

	if flagSFXHeader != "" {
		header := sfx.GenerateCHeader(sfxSamples)
		if err := os.WriteFile(flagSFXHeader, []byte(header), 0o644); err != nil {
			return mlmerr.IOErrorf(err, "failed to write %q", flagSFXHeader)
		}
		fmt.Println(green("wrote %s", flagSFXHeader))
	}

	return nil
}

// printMultiModuleDiagnostics reports where each module's patterns would
// land in a pattern pool merged across every module compiled this run,
// the way the standalone multi-module merge tool reported it (SPEC_FULL
// C.1). This is diagnostic only: each module still compiles to its own
// independent song.
func printMultiModuleDiagnostics(paths []string, modules []*dmf.Module) {
	offsets := dmfmulti.ComputeOffsets(modules)
	totals := dmfmulti.PatternCounts(modules)

	fmt.Println("pattern pool offsets (diagnostic only, each module still compiles independently):")
	for i, path := range paths {
		fmt.Printf("  %s:\n", filepath.Base(path))
		for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
			if len(modules[i].Patterns[ch]) == 0 {
				continue
			}
			fmt.Printf("    channel %2d: offset %d\n", ch, offsets[i][ch])
		}
	}
	fmt.Print("  totals: ")
	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		if totals[ch] == 0 {
			continue
		}
		fmt.Printf("ch%d=%d ", ch, totals[ch])
	}
	fmt.Println()
}

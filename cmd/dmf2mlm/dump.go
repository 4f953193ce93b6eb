package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dmf2mlm/internal/dmf"
	"dmf2mlm/internal/mlmerr"
)

// newDumpCommand builds the read-only module inspector, reproducing
// `original_source/__main__.py`'s text dump verbatim (SPEC_FULL C.2): no
// SDATA/VROM is produced, this just prints what the parser saw.
func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <module.dmf>",
		Short: "Print a parsed module's fields without compiling it",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	path := args[0]
	raw, err := os.ReadFile(path)
	if err != nil {
		return mlmerr.IOErrorf(err, "failed to read %q", path)
	}
	m, err := dmf.Parse(raw)
	if err != nil {
		return err
	}

	fmt.Println("========= Format flags & System =========")
	fmt.Printf("\tversion: %d\n", m.Version)
	fmt.Printf("\tsystem: %#02x\n", byte(m.System))
	fmt.Println()

	fmt.Println("========== Visual information ==========")
	fmt.Printf("\tname: %s\n", m.SongName)
	fmt.Printf("\tauthor: %s\n", m.SongAuthor)
	fmt.Println()

	fmt.Println("========== Module information ==========")
	fmt.Printf("\ttime base: %d\n", m.TimeInfo.TimeBase)
	fmt.Printf("\ttick time 1: %d\n", m.TimeInfo.TickTime1)
	fmt.Printf("\ttick time 2: %d\n", m.TimeInfo.TickTime2)
	fmt.Printf("\thz value: %d\n", m.TimeInfo.HzValue)
	fmt.Printf("\trows per pattern: %d\n", m.PatternMatrix.RowsPerPattern)
	fmt.Printf("\trows in pattern matrix: %d\n", m.PatternMatrix.RowsInPatternMatrix)
	fmt.Println()

	fmt.Println("=========== Pattern matrix ===========")
	for ch := 0; ch < dmf.SystemTotalChannels; ch++ {
		fmt.Print("[ ")
		for row := 0; row < m.PatternMatrix.RowsInPatternMatrix; row++ {
			if m.PatternMatrix.Matrix[ch] == nil {
				fmt.Print("$--, ")
				continue
			}
			fmt.Printf("$%02x, ", m.PatternMatrix.Matrix[ch][row])
		}
		fmt.Println("]")
	}

	return nil
}

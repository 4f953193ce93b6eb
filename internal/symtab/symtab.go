// Package symtab implements the compiler's forward-reference-tolerant
// symbol table (§4.2): names can be referenced before they're defined,
// and a single finalize pass patches every reference site once all
// addresses are known.
package symtab

import (
	"sort"

	"dmf2mlm/internal/bits"
	"dmf2mlm/internal/mlmerr"
)

type entry struct {
	def    int
	hasDef bool
	refs   []int
}

// Table is a name -> (definition address, reference sites) map.
type Table struct {
	entries map[string]*entry
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{entries: make(map[string]*entry)}
}

func (t *Table) get(name string) *entry {
	e, ok := t.entries[name]
	if !ok {
		e = &entry{}
		t.entries[name] = e
	}
	return e
}

// Define records name's definition address. Defining an already-defined
// name is a fatal SymbolError.
func (t *Table) Define(name string, addr int) error {
	e := t.get(name)
	if e.hasDef {
		return mlmerr.SymbolErrorf("%q is already defined", name)
	}
	e.def = addr
	e.hasDef = true
	return nil
}

// Reference records a site that needs name's definition address patched
// in once known. Referencing before definition is allowed.
func (t *Table) Reference(name string, addr int) {
	e := t.get(name)
	e.refs = append(e.refs, addr)
}

// Finalize walks every (name, refs) pair and overwrites the two bytes at
// each reference address in image with the little-endian encoding of
// WrapROMToMLMAddr(def + baseOffset). Any reference whose symbol was
// never defined is a fatal SymbolError.
func (t *Table) Finalize(image []byte, baseOffset int) error {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e := t.entries[name]
		if len(e.refs) == 0 {
			continue
		}
		if !e.hasDef {
			return mlmerr.SymbolErrorf("unresolved reference to %q", name)
		}
		addr := bits.WrapROMToMLMAddr(e.def + baseOffset)
		lo := byte(addr & 0xFF)
		hi := byte((addr >> 8) & 0xFF)
		for _, ref := range e.refs {
			if ref+1 >= len(image) {
				return mlmerr.SymbolErrorf("reference to %q at %#x falls outside the image", name, ref)
			}
			image[ref] = lo
			image[ref+1] = hi
		}
	}
	return nil
}

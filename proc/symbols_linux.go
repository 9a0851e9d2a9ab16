package proc

import (
	"debug/elf"
	"fmt"
)

// LookupSymbol returns the address of the named symbol in the tracee
// binary. The symbol table is read once and cached.
func (p *Process) LookupSymbol(name string) (uint64, error) {
	if p.symbols == nil {
		f, err := elf.Open(p.exe)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		syms, err := f.Symbols()
		if err != nil {
			return 0, fmt.Errorf("could not read symbol table of %s: %v", p.exe, err)
		}
		p.symbols = make(map[string]uint64, len(syms))
		for _, s := range syms {
			p.symbols[s.Name] = s.Value
		}
	}
	addr, ok := p.symbols[name]
	if !ok {
		return 0, fmt.Errorf("symbol %q not found in %s", name, p.exe)
	}
	return addr, nil
}

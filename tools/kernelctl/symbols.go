package main

import (
	"context"
	"debug/elf"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// requiredSymbols are the symbols the boot code and the interrupt path
// depend on. An image missing any of them was linked incorrectly.
var requiredSymbols = []string{
	"github.com/cyberphantom52/MoonlightOS/kernel/kmain.Kmain",
	"github.com/cyberphantom52/MoonlightOS/kernel/irq.dispatch",
	"github.com/cyberphantom52/MoonlightOS/kernel/irq.fillEntryPoints",
}

type symbol struct {
	name string
	addr uint64
}

// symbolsCmd implements subcommands.Command for the "symbols" command.
type symbolsCmd struct {
	kernel string
}

// Name implements subcommands.Command.Name.
func (*symbolsCmd) Name() string {
	return "symbols"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*symbolsCmd) Synopsis() string {
	return "check that a kernel image exports the symbols needed to boot"
}

// Usage implements subcommands.Command.Usage.
func (*symbolsCmd) Usage() string {
	return `symbols [flags] [symbol...]

Resolves the given symbols, or the symbols required to boot when none are
given, in the kernel image and prints their addresses.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *symbolsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kernel, "kernel", "", "kernel image; overrides kernel.image")
}

// Execute implements subcommands.Command.Execute.
func (c *symbolsCmd) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	imgFile := args[0].(*config).Kernel.Image
	if c.kernel != "" {
		imgFile = c.kernel
	}

	names := requiredSymbols
	if f.NArg() != 0 {
		names = f.Args()
	}

	entry, symbols, err := resolveSymbols(imgFile, names)
	if err != nil {
		logrus.WithError(err).Error("unable to resolve symbols")
		return subcommands.ExitFailure
	}

	printSymbols(os.Stdout, entry, symbols)
	return subcommands.ExitSuccess
}

// resolveSymbols looks up the addresses of names in the symbol table of the
// ELF image imgFile. It also returns the image entry point.
func resolveSymbols(imgFile string, names []string) (uint64, []symbol, error) {
	f, err := elf.Open(imgFile)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	elfSymbols, err := f.Symbols()
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", imgFile, err)
	}

	resolved := make([]symbol, len(names))
	for i, name := range names {
		resolved[i].name = name
		for _, elfSym := range elfSymbols {
			if elfSym.Name == name {
				resolved[i].addr = elfSym.Value
				break
			}
		}

		if resolved[i].addr == 0 {
			return 0, nil, fmt.Errorf("%s: could not locate address of %q", imgFile, name)
		}
	}

	return f.Entry, resolved, nil
}

func printSymbols(w io.Writer, entry uint64, symbols []symbol) {
	fmt.Fprintf(w, "entry point: 0x%016x\n", entry)
	for _, sym := range symbols {
		fmt.Fprintf(w, "0x%016x %s\n", sym.addr, sym.name)
	}
}

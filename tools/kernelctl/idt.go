package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/cyberphantom52/MoonlightOS/kernel/gate"
	"github.com/cyberphantom52/MoonlightOS/kernel/gdt"
	"github.com/cyberphantom52/MoonlightOS/kernel/irq"
)

const (
	// syntheticBase is the address assigned to the first synthetic
	// trampoline. Each vector gets its own stubStride sized slot; the
	// catch-all trampoline follows the last vector.
	syntheticBase = 0xffff_8000_0010_0000
	stubStride    = 16
)

// syntheticEntryPoints provides one entry point per vector at predictable
// addresses so the encoded table can be inspected without the kernel image.
type syntheticEntryPoints struct{}

func (syntheticEntryPoints) EntryPoint(v gate.Vector) (uintptr, bool) {
	return syntheticBase + uintptr(v)*stubStride, true
}

func (syntheticEntryPoints) CatchAll() uintptr {
	return syntheticBase + gate.NumEntries*stubStride
}

// idtCmd implements subcommands.Command for the "idt" command.
type idtCmd struct {
	all         bool
	trampolines bool
}

// Name implements subcommands.Command.Name.
func (*idtCmd) Name() string {
	return "idt"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*idtCmd) Synopsis() string {
	return "print the interrupt descriptor table the kernel builds at boot"
}

// Usage implements subcommands.Command.Usage.
func (*idtCmd) Usage() string {
	return `idt [flags] [vector...]

Builds the descriptor table with the kernel's own encoding code and prints
the requested entries. Without arguments the exception and IRQ vectors are
printed.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (c *idtCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "print all 256 vectors")
	f.BoolVar(&c.trampolines, "trampolines", false, "point entries to the trampolines linked into this tool instead of synthetic addresses")
}

// Execute implements subcommands.Command.Execute.
func (c *idtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	vectors, err := parseVectors(f.Args(), c.all)
	if err != nil {
		logrus.WithError(err).Error("invalid vector list")
		return subcommands.ExitUsageError
	}

	var ep gate.EntryPoints = syntheticEntryPoints{}
	if c.trampolines {
		ep = irq.NewTrampolines()
	}

	table, err := buildTable(ep)
	if err != nil {
		logrus.WithError(err).Error("unable to build descriptor table")
		return subcommands.ExitFailure
	}

	if err := dumpTable(os.Stdout, table, vectors); err != nil {
		logrus.WithError(err).Error("unable to print descriptor table")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// buildTable populates a table the same way the kernel does at boot.
func buildTable(ep gate.EntryPoints) (*gate.Table, error) {
	table := gate.New(gdt.KernelCode, ep)
	if kerr := table.RegisterAll(); kerr != nil {
		return nil, kerr
	}
	return table, nil
}

func parseVectors(args []string, all bool) ([]gate.Vector, error) {
	var vectors []gate.Vector

	switch {
	case len(args) != 0:
		for _, arg := range args {
			var v uint
			if _, err := fmt.Sscan(arg, &v); err != nil {
				return nil, fmt.Errorf("parsing %q: %w", arg, err)
			}
			if v >= gate.NumEntries {
				return nil, fmt.Errorf("vector %d out of range", v)
			}
			vectors = append(vectors, gate.Vector(v))
		}
	case all:
		for v := 0; v < gate.NumEntries; v++ {
			vectors = append(vectors, gate.Vector(v))
		}
	default:
		for v := gate.Vector(0); v < gate.IRQBase+gate.NumIRQs; v++ {
			vectors = append(vectors, v)
		}
	}

	return vectors, nil
}

// dumpTable writes one line per vector with its decoded attributes and the
// raw 16-byte descriptor as two quad words.
func dumpTable(w io.Writer, table *gate.Table, vectors []gate.Vector) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "VECTOR\tNAME\tSEL\tTYPE\tDPL\tIST\tTARGET\tRAW")

	for _, v := range vectors {
		entry := table.Entry(v)
		opts := entry.Options()

		kind := "interrupt"
		if opts.TrapGate() {
			kind = "trap"
		}
		if !opts.Present() {
			kind = "absent"
		}

		lo, hi := entry.Raw()
		fmt.Fprintf(tw, "%d\t%s\t0x%02x\t%s\t%d\t%d\t%#016x\t%016x:%016x\n",
			v, v.Name(), uint16(entry.Selector()), kind, opts.PrivilegeLevel(), opts.StackIndex(),
			entry.Target(), hi, lo,
		)
	}

	return tw.Flush()
}

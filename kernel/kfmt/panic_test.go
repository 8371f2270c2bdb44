package kfmt

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
)

func TestPanic(t *testing.T) {
	var halts int
	haltFn = func() { halts++ }
	defer func() {
		haltFn = cpu.Halt
		outputSink = nil
	}()

	var nilErr *kernel.Error

	specs := []struct {
		name string
		arg  interface{}
		exp  string
	}{
		{
			"boot error",
			&kernel.Error{Module: "gdt", Message: "task register could not be loaded"},
			"\n*** KERNEL PANIC ***\n[gdt] task register could not be loaded\nsystem halted\n",
		},
		{
			"runtime error",
			errors.New("index out of range"),
			"\n*** KERNEL PANIC ***\n[rt] index out of range\nsystem halted\n",
		},
		{
			"runtime message",
			"nil map write",
			"\n*** KERNEL PANIC ***\n[rt] nil map write\nsystem halted\n",
		},
		{
			"nil kernel error",
			nilErr,
			"\n*** KERNEL PANIC ***\nsystem halted\n",
		},
		{
			"no cause",
			nil,
			"\n*** KERNEL PANIC ***\nsystem halted\n",
		},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutputSink(&buf)
			halts = 0

			Panic(spec.arg)

			if got := buf.String(); got != spec.exp {
				t.Fatalf("expected report:\n%q\ngot:\n%q", spec.exp, got)
			}
			if halts != 1 {
				t.Fatalf("expected the CPU to be halted once; got %d", halts)
			}
		})
	}
}

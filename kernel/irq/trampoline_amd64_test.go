package irq

import (
	"testing"

	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
	"github.com/cyberphantom52/MoonlightOS/kernel/gate"
)

func TestTrampolines(t *testing.T) {
	tr := NewTrampolines()

	if tr.CatchAll() == 0 {
		t.Fatal("expected catch-all trampoline address to be set")
	}

	seen := map[uintptr]gate.Vector{tr.CatchAll(): UnassignedVector - 1}
	for v := 0; v < gate.NumEntries; v++ {
		addr, ok := tr.EntryPoint(gate.Vector(v))

		expOK := v < numTrampolines && (v >= int(gate.IRQBase) || gate.Vector(v).Name() != "reserved")
		if ok != expOK {
			t.Errorf("[vector %d] expected trampoline presence to be %t; got %t", v, expOK, ok)
			continue
		}
		if !ok {
			continue
		}

		if other, dup := seen[addr]; dup {
			t.Errorf("[vector %d] trampoline address %x is shared with vector %d", v, addr, other)
		}
		seen[addr] = gate.Vector(v)
	}
}

func TestTrampolinesBuildTable(t *testing.T) {
	tr := NewTrampolines()
	tbl := gate.New(0x8, tr)
	if err := tbl.RegisterAll(); err != nil {
		t.Fatal(err)
	}

	for _, v := range []gate.Vector{0, 6, 8, 13, 14, 32, 33, 47} {
		exp, _ := tr.EntryPoint(v)
		if got := tbl.Entry(v).Target(); got != exp {
			t.Errorf("[vector %d] expected table to point to %x; got %x", v, exp, got)
		}
	}

	for _, v := range []gate.Vector{15, 31, 48, 255} {
		if got := tbl.Entry(v).Target(); got != tr.CatchAll() {
			t.Errorf("[vector %d] expected table to point to the catch-all trampoline; got %x", v, got)
		}
	}
}

func TestDispatchWithoutDispatcher(t *testing.T) {
	defer func() {
		haltFn = cpu.Halt
		activeDispatcher = nil
	}()

	var haltCalled bool
	haltFn = func() { haltCalled = true }
	activeDispatcher = nil

	dispatch(&Regs{}, &Frame{}, 33, 0)
	if !haltCalled {
		t.Fatal("expected dispatch to halt when no dispatcher is active")
	}
}

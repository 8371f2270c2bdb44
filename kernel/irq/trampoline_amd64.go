package irq

import (
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
	"github.com/cyberphantom52/MoonlightOS/kernel/gate"
)

// numTrampolines is the number of vectors with a dedicated trampoline: the
// CPU exceptions and the IRQ lines that follow them.
const numTrampolines = int(gate.IRQBase) + gate.NumIRQs

var (
	// activeDispatcher is set by Dispatcher.Activate.
	activeDispatcher *Dispatcher

	haltFn = cpu.Halt
)

// fillEntryPoints stores the address of each vector's trampoline in addrs.
// Vectors without a trampoline are left at 0.
func fillEntryPoints(addrs *[numTrampolines]uintptr)

// catchAllEntryPoint returns the address of the trampoline shared by all
// unassigned vectors.
func catchAllEntryPoint() uintptr

// Trampolines implements gate.EntryPoints using the trampolines defined in
// trampoline_amd64.s.
type Trampolines struct {
	addrs    [numTrampolines]uintptr
	catchAll uintptr
}

// NewTrampolines collects the trampoline addresses.
func NewTrampolines() *Trampolines {
	t := &Trampolines{catchAll: catchAllEntryPoint()}
	fillEntryPoints(&t.addrs)
	return t
}

// EntryPoint implements gate.EntryPoints.
func (t *Trampolines) EntryPoint(v gate.Vector) (uintptr, bool) {
	if int(v) >= numTrampolines || t.addrs[v] == 0 {
		return 0, false
	}
	return t.addrs[v], true
}

// CatchAll implements gate.EntryPoints.
func (t *Trampolines) CatchAll() uintptr {
	return t.catchAll
}

// dispatch is called by trapCommon with interrupts disabled.
func dispatch(regs *Regs, frame *Frame, vector, errorCode uint64) {
	d := activeDispatcher
	if d == nil {
		haltFn()
		return
	}

	d.Dispatch(regs, frame, vector, errorCode)
}

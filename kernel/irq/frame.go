// Package irq turns the raw CPU interrupt calling convention into calls to
// ordinary Go handlers.
package irq

import (
	"io"

	"github.com/cyberphantom52/MoonlightOS/kernel/kfmt"
)

// Regs contains a snapshot of the general purpose register values when an
// interrupt occurred. The field order matches the order in which
// trapCommon leaves the registers on the stack.
type Regs struct {
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64
}

// DumpTo outputs the register contents to w.
func (r *Regs) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "RAX = %16x RBX = %16x\n", r.RAX, r.RBX)
	kfmt.Fprintf(w, "RCX = %16x RDX = %16x\n", r.RCX, r.RDX)
	kfmt.Fprintf(w, "RSI = %16x RDI = %16x\n", r.RSI, r.RDI)
	kfmt.Fprintf(w, "RBP = %16x\n", r.RBP)
	kfmt.Fprintf(w, "R8  = %16x R9  = %16x\n", r.R8, r.R9)
	kfmt.Fprintf(w, "R10 = %16x R11 = %16x\n", r.R10, r.R11)
	kfmt.Fprintf(w, "R12 = %16x R13 = %16x\n", r.R12, r.R13)
	kfmt.Fprintf(w, "R14 = %16x R15 = %16x\n", r.R14, r.R15)
}

// Frame describes the interrupt stack frame that is automatically pushed by
// the CPU when an interrupt or exception occurs. IRETQ consumes it to
// resume the interrupted code.
type Frame struct {
	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// DumpTo outputs the frame contents to w.
func (f *Frame) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "RIP = %16x CS  = %16x\n", f.RIP, f.CS)
	kfmt.Fprintf(w, "RSP = %16x SS  = %16x\n", f.RSP, f.SS)
	kfmt.Fprintf(w, "RFL = %16x\n", f.RFlags)
}

// trapFrame mirrors the stack contents seen by trapCommon once it has saved
// the general purpose registers. The assembly code addresses the fields
// through the trapFrame_* offsets generated into go_asm.h.
type trapFrame struct {
	regs Regs

	// Pushed by the per-vector stub.
	vector uint64

	// Pushed by the CPU, or by the stub for vectors without an error code.
	errorCode uint64

	frame Frame
}

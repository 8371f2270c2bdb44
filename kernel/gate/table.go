// Package gate builds and installs the interrupt descriptor table (IDT).
package gate

import (
	"unsafe"

	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
)

const (
	entrySize  = 16
	tableAlign = 16

	// tableLimit is the IDTR limit: the offset of the last valid byte.
	tableLimit = NumEntries*entrySize - 1
)

var (
	loadIDTFn = cpu.LoadIDT

	errTableInstalled = &kernel.Error{Module: "idt", Message: "table is installed and can no longer be modified"}
	errMisaligned     = &kernel.Error{Module: "idt", Message: "table is not 16-byte aligned"}
	errNoEntryPoint   = &kernel.Error{Module: "idt", Message: "no trampoline available for vector"}
)

// EntryPoints provides the code addresses the table entries point to.
type EntryPoints interface {
	// EntryPoint returns the trampoline address for v. It returns false
	// if no dedicated trampoline exists for v.
	EntryPoint(v Vector) (uintptr, bool)

	// CatchAll returns the address of the trampoline used by every vector
	// that has not been explicitly assigned.
	CatchAll() uintptr
}

// Descriptor is the operand of the LIDT instruction.
type Descriptor struct {
	Limit uint16
	Base  uintptr
}

// Pack encodes the descriptor as the packed 10-byte layout the CPU expects:
// a 16-bit limit immediately followed by the 64-bit base address.
func (d Descriptor) Pack(buf *[10]byte) {
	buf[0] = byte(d.Limit)
	buf[1] = byte(d.Limit >> 8)
	for i := 0; i < 8; i++ {
		buf[2+i] = byte(uint64(d.Base) >> (8 * i))
	}
}

// Table is an interrupt descriptor table. Its entries live inside storage at
// a 16-byte boundary; a Table must therefore never be copied once
// initialized.
type Table struct {
	storage [NumEntries*entrySize + tableAlign]byte
	idtr    [10]byte

	cs        Selector
	ep        EntryPoints
	installed bool
}

// New allocates a table and initializes it with Init.
func New(cs Selector, ep EntryPoints) *Table {
	t := new(Table)
	t.Init(cs, ep)
	return t
}

// Init points every entry of the table to the catch-all trampoline provided
// by ep using the cs code segment. Calling Init on an installed table has no
// effect.
func (t *Table) Init(cs Selector, ep EntryPoints) {
	if t.installed {
		return
	}

	t.cs, t.ep = cs, ep
	entries := t.entries()
	for v := range entries {
		entries[v].setTarget(ep.CatchAll(), cs)
		entries[v].options = minimalOptions()
	}
}

// entries returns the 16-byte aligned entry array backed by t.storage.
func (t *Table) entries() *[NumEntries]Entry {
	base := unsafe.Pointer(&t.storage[0])
	pad := (tableAlign - uintptr(base)%tableAlign) % tableAlign
	return (*[NumEntries]Entry)(unsafe.Add(base, pad))
}

// Set points vector v to addr and marks the entry as present. It returns the
// entry options so callers can adjust the stack index, privilege level or
// gate type. The returned pointer must not be used after Install.
func (t *Table) Set(v Vector, addr uintptr) (*Options, *kernel.Error) {
	if t.installed {
		return nil, errTableInstalled
	}

	e := &t.entries()[v]
	e.setTarget(addr, t.cs)
	e.options.SetPresent(true)
	return &e.options, nil
}

// Entry returns a copy of the entry for vector v.
func (t *Table) Entry(v Vector) Entry {
	return t.entries()[v]
}

// Descriptor returns the IDTR operand describing the table.
func (t *Table) Descriptor() Descriptor {
	return Descriptor{
		Limit: tableLimit,
		Base:  uintptr(unsafe.Pointer(t.entries())),
	}
}

// Installed returns true once Install has succeeded.
func (t *Table) Installed() bool {
	return t.installed
}

// Install loads the table into the CPU's IDT register. After a successful
// call the table can no longer be modified.
func (t *Table) Install() *kernel.Error {
	if t.installed {
		return errTableInstalled
	}

	desc := t.Descriptor()
	if desc.Base%tableAlign != 0 {
		return errMisaligned
	}

	desc.Pack(&t.idtr)
	loadIDTFn(uintptr(unsafe.Pointer(&t.idtr[0])))
	t.installed = true
	return nil
}

// RegisterFaults binds the fault vectors the kernel reports on to their
// trampolines: divide error, breakpoint, invalid opcode, double fault,
// general protection and page fault.
func (t *Table) RegisterFaults() *kernel.Error {
	for _, v := range []Vector{
		Vector(DivideError),
		Vector(Breakpoint),
		Vector(InvalidOpcode),
		Vector(DoubleFault),
		Vector(GeneralProtection),
		Vector(PageFault),
	} {
		addr, ok := t.ep.EntryPoint(v)
		if !ok {
			return errNoEntryPoint
		}
		if err := t.bind(v, addr); err != nil {
			return err
		}
	}

	return nil
}

// RegisterAll binds every vector with a dedicated trampoline. Vectors
// without one keep pointing to the catch-all trampoline.
func (t *Table) RegisterAll() *kernel.Error {
	for v := 0; v < NumEntries; v++ {
		addr, ok := t.ep.EntryPoint(Vector(v))
		if !ok {
			continue
		}
		if err := t.bind(Vector(v), addr); err != nil {
			return err
		}
	}

	return nil
}

// bind sets v to addr and applies the per-vector gate attributes.
func (t *Table) bind(v Vector, addr uintptr) *kernel.Error {
	opts, err := t.Set(v, addr)
	if err != nil {
		return err
	}

	switch v {
	case Vector(Breakpoint):
		// Allow INT3 from any ring.
		opts.SetPrivilegeLevel(3)
	case Vector(DoubleFault):
		opts.SetStackIndex(DoubleFaultStack)
	}

	return nil
}

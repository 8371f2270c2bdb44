// Package gdt sets up the global descriptor table: flat 64-bit kernel code
// and data segments plus a task state segment providing the interrupt stack
// used by the double fault handler.
package gdt

import (
	"unsafe"

	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
	"github.com/cyberphantom52/MoonlightOS/kernel/gate"
)

const (
	// KernelCode is the selector of the 64-bit kernel code segment.
	KernelCode = gate.Selector(1 << 3)

	// KernelData is the selector of the kernel data segment.
	KernelData = gate.Selector(2 << 3)

	// TSS is the selector of the task state segment descriptor.
	TSS = gate.Selector(3 << 3)

	// StackSize is the size of each interrupt stack.
	StackSize = 5 * 4096

	kernelCodeDescriptor = 0x00af9a000000ffff
	kernelDataDescriptor = 0x00cf92000000ffff
	tssTypeAvailable     = 0x89

	numDescriptors = 5 // null, code, data and the two TSS quad words
)

var (
	loadGDTFn          = cpu.LoadGDT
	reloadSegmentsFn   = cpu.ReloadSegments
	loadTaskRegisterFn = cpu.LoadTaskRegister

	errAlreadyLoaded = &kernel.Error{Module: "gdt", Message: "descriptor table already loaded"}
)

// TaskState is the 64-bit task state segment. Its 64-bit fields are not
// naturally aligned so the segment is stored as 32-bit words.
type TaskState struct {
	words [26]uint32
}

const (
	tssRSPWord    = 1
	tssISTWord    = 9
	tssIOMapWord  = 25
	taskStateSize = 104
)

// SetInterruptStack sets the stack pointer the CPU loads when invoking a gate
// with interrupt stack table index (1-7).
func (t *TaskState) SetInterruptStack(index uint8, sp uintptr) {
	if index < 1 || index > 7 {
		return
	}

	w := tssISTWord + 2*int(index-1)
	t.words[w] = uint32(sp)
	t.words[w+1] = uint32(uint64(sp) >> 32)
}

// InterruptStack returns the stack pointer configured for index (1-7).
func (t *TaskState) InterruptStack(index uint8) uintptr {
	if index < 1 || index > 7 {
		return 0
	}

	w := tssISTWord + 2*int(index-1)
	return uintptr(uint64(t.words[w]) | uint64(t.words[w+1])<<32)
}

// Table holds the descriptors, the task state segment and the interrupt
// stacks it references. A Table must not be moved once loaded.
type Table struct {
	descriptors [numDescriptors]uint64
	tss         TaskState
	gdtr        [10]byte

	doubleFaultStack [StackSize]byte

	loaded bool
}

// Init populates the descriptors and points the double fault interrupt
// stack to the top of its dedicated stack.
func (t *Table) Init() {
	// The I/O permission bitmap offset points past the segment limit,
	// which leaves every port restricted to ring 0.
	t.tss.words[tssIOMapWord] = taskStateSize << 16

	stackTop := uintptr(unsafe.Pointer(&t.doubleFaultStack[0])) + StackSize
	t.tss.SetInterruptStack(gate.DoubleFaultStack, stackTop&^15)

	t.descriptors[0] = 0
	t.descriptors[KernelCode>>3] = kernelCodeDescriptor
	t.descriptors[KernelData>>3] = kernelDataDescriptor
	t.descriptors[TSS>>3], t.descriptors[TSS>>3+1] = tssDescriptor(uintptr(unsafe.Pointer(&t.tss)))
}

// tssDescriptor encodes the 16-byte system descriptor for a TSS at base.
func tssDescriptor(base uintptr) (lo, hi uint64) {
	b := uint64(base)
	limit := uint64(taskStateSize - 1)

	lo = limit&0xffff |
		(b&0xffffff)<<16 |
		uint64(tssTypeAvailable)<<40 |
		((limit>>16)&0xf)<<48 |
		((b>>24)&0xff)<<56
	hi = b >> 32
	return lo, hi
}

// TaskState returns the task state segment of the table.
func (t *Table) TaskState() *TaskState {
	return &t.tss
}

// Descriptor returns the quad word stored at index.
func (t *Table) Descriptor(index int) uint64 {
	return t.descriptors[index]
}

// Load installs the table, reloads the segment registers with the kernel
// selectors and loads the task register.
func (t *Table) Load() *kernel.Error {
	if t.loaded {
		return errAlreadyLoaded
	}

	gate.Descriptor{
		Limit: uint16(numDescriptors*8 - 1),
		Base:  uintptr(unsafe.Pointer(&t.descriptors[0])),
	}.Pack(&t.gdtr)

	loadGDTFn(uintptr(unsafe.Pointer(&t.gdtr[0])))
	reloadSegmentsFn(uint16(KernelCode), uint16(KernelData))
	loadTaskRegisterFn(uint16(TSS))

	t.loaded = true
	return nil
}

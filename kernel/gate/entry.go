package gate

// Selector is a segment selector as loaded into CS.
type Selector uint16

// Options holds the type and attribute bits of a gate entry.
//
//	bits 0-2   interrupt stack table index (0 = keep the current stack)
//	bit 8      0 = interrupt gate, 1 = trap gate
//	bits 9-11  must be 1
//	bit 12     must be 0
//	bits 13-14 descriptor privilege level
//	bit 15     present
type Options uint16

const (
	optStackIndexMask = 0x7
	optTrapGate       = 1 << 8
	optMustBeOne      = 0b1110_0000_0000
	optDPLShift       = 13
	optDPLMask        = 0x3 << optDPLShift
	optPresent        = 1 << 15
)

// minimalOptions returns the options of a present interrupt gate running on
// the current stack at privilege level 0.
func minimalOptions() Options {
	return Options(optMustBeOne | optPresent)
}

// SetPresent sets or clears the present bit.
func (o *Options) SetPresent(present bool) *Options {
	*o = setBits(*o, optPresent, present)
	return o
}

// SetTrapGate turns the gate into a trap gate, which leaves interrupts
// enabled while the handler runs. Interrupt gates clear IF on entry.
func (o *Options) SetTrapGate(trap bool) *Options {
	*o = setBits(*o, optTrapGate, trap)
	return o
}

// SetPrivilegeLevel sets the minimum privilege level (0-3) required to
// invoke the gate with a software INT instruction.
func (o *Options) SetPrivilegeLevel(dpl uint8) *Options {
	*o = (*o &^ optDPLMask) | Options(dpl&0x3)<<optDPLShift
	return o
}

// SetStackIndex selects the interrupt stack table entry (1-7) the CPU
// switches to before invoking the gate. Index 0 keeps the current stack.
func (o *Options) SetStackIndex(index uint8) *Options {
	*o = (*o &^ optStackIndexMask) | Options(index&optStackIndexMask)
	return o
}

// Present returns true if the present bit is set.
func (o Options) Present() bool { return o&optPresent != 0 }

// TrapGate returns true for trap gates and false for interrupt gates.
func (o Options) TrapGate() bool { return o&optTrapGate != 0 }

// PrivilegeLevel returns the descriptor privilege level.
func (o Options) PrivilegeLevel() uint8 { return uint8((o & optDPLMask) >> optDPLShift) }

// StackIndex returns the interrupt stack table index.
func (o Options) StackIndex() uint8 { return uint8(o & optStackIndexMask) }

func setBits(o, mask Options, set bool) Options {
	if set {
		return o | mask
	}
	return o &^ mask
}

// Entry is a 16-byte gate descriptor as defined by the x86-64 architecture.
type Entry struct {
	offsetLow  uint16
	selector   Selector
	options    Options
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

func (e *Entry) setTarget(addr uintptr, cs Selector) {
	e.offsetLow = uint16(addr)
	e.offsetMid = uint16(addr >> 16)
	e.offsetHigh = uint32(uint64(addr) >> 32)
	e.selector = cs
	e.reserved = 0
}

// Target returns the address of the code invoked through this gate.
func (e Entry) Target() uintptr {
	return uintptr(uint64(e.offsetLow) | uint64(e.offsetMid)<<16 | uint64(e.offsetHigh)<<32)
}

// Selector returns the code segment selector loaded when the gate is taken.
func (e Entry) Selector() Selector { return e.selector }

// Options returns the gate options.
func (e Entry) Options() Options { return e.options }

// Raw returns the entry as the two quad words the CPU reads.
func (e Entry) Raw() (lo, hi uint64) {
	lo = uint64(e.offsetLow) |
		uint64(e.selector)<<16 |
		uint64(e.options)<<32 |
		uint64(e.offsetMid)<<48
	hi = uint64(e.offsetHigh) | uint64(e.reserved)<<32
	return lo, hi
}

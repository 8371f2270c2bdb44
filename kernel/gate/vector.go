package gate

// Vector is an index into the interrupt descriptor table.
type Vector uint8

// Exception is a CPU exception vector for which the CPU does not push an
// error code.
type Exception Vector

// ExceptionWithCode is a CPU exception vector for which the CPU pushes an
// error code before transferring control to the handler.
type ExceptionWithCode Vector

// Abort is a CPU exception vector after which execution cannot resume.
type Abort Vector

const (
	// DivideError occurs when dividing any number by 0 using the DIV or
	// IDIV instruction or when the quotient does not fit the destination.
	DivideError = Exception(0)

	// Debug is raised by the debug registers and single stepping.
	Debug = Exception(1)

	// NMI (non-maskable-interrupt) is a hardware interrupt that indicates
	// issues with RAM or unrecoverable hardware problems.
	NMI = Exception(2)

	// Breakpoint is raised by the INT3 instruction.
	Breakpoint = Exception(3)

	// Overflow is raised by INTO when the overflow flag is set.
	Overflow = Exception(4)

	// BoundRangeExceeded occurs when the BOUND instruction is invoked with
	// an index out of range.
	BoundRangeExceeded = Exception(5)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid or
	// undefined instruction opcode.
	InvalidOpcode = Exception(6)

	// DeviceNotAvailable occurs when the CPU attempts to execute an
	// FPU/MMX/SSE instruction while no FPU is available.
	DeviceNotAvailable = Exception(7)

	// CoprocessorSegmentOverrun is a legacy exception never raised by
	// 64-bit CPUs.
	CoprocessorSegmentOverrun = Exception(9)

	// X87FloatingPoint occurs on an x87 instruction while CR0.NE = 1 and
	// an unmasked FP exception is pending.
	X87FloatingPoint = Exception(16)

	// SIMDFloatingPoint occurs when an unmasked SSE exception occurs while
	// CR4.OSXMMEXCPT is set.
	SIMDFloatingPoint = Exception(19)

	// Virtualization is raised on EPT violations.
	Virtualization = Exception(20)
)

const (
	// InvalidTSS occurs when the TSS points to an invalid task segment
	// selector.
	InvalidTSS = ExceptionWithCode(10)

	// SegmentNotPresent occurs when loading a segment or gate whose
	// present bit is clear.
	SegmentNotPresent = ExceptionWithCode(11)

	// StackSegmentFault occurs when attempting to push/pop from a
	// non-canonical stack address or when the stack limit checks fail.
	StackSegmentFault = ExceptionWithCode(12)

	// GeneralProtection occurs on protection violations not covered by
	// another exception.
	GeneralProtection = ExceptionWithCode(13)

	// PageFault occurs when a page table entry is not present or when a
	// privilege or RW protection check fails. The faulting address is
	// stored in CR2.
	PageFault = ExceptionWithCode(14)

	// AlignmentCheck occurs when alignment checks are enabled and an
	// unaligned memory access is performed.
	AlignmentCheck = ExceptionWithCode(17)

	// ControlProtection is raised by control-flow enforcement violations.
	ControlProtection = ExceptionWithCode(21)

	// VMMCommunication is raised by SEV-ES guests.
	VMMCommunication = ExceptionWithCode(29)

	// Security is raised by SVM security events.
	Security = ExceptionWithCode(30)
)

const (
	// DoubleFault occurs when an exception is raised while the CPU is
	// trying to deliver another one. The pushed error code is always 0.
	DoubleFault = Abort(8)

	// MachineCheck occurs when the CPU detects internal errors such as
	// memory-, bus- or cache-related errors.
	MachineCheck = Abort(18)
)

const (
	// NumEntries is the number of vectors supported by the CPU.
	NumEntries = 256

	// IRQBase is the first vector available to hardware interrupts once
	// the CPU exceptions have been skipped.
	IRQBase = Vector(32)

	// NumIRQs is the number of lines served by a chained 8259 pair.
	NumIRQs = 16

	// DoubleFaultStack is the interrupt stack table index used by the
	// double fault handler.
	DoubleFaultStack = 1
)

var vectorNames = [...]string{
	0:  "divide error",
	1:  "debug",
	2:  "non-maskable interrupt",
	3:  "breakpoint",
	4:  "overflow",
	5:  "bound range exceeded",
	6:  "invalid opcode",
	7:  "device not available",
	8:  "double fault",
	9:  "coprocessor segment overrun",
	10: "invalid TSS",
	11: "segment not present",
	12: "stack-segment fault",
	13: "general protection fault",
	14: "page fault",
	16: "x87 floating point exception",
	17: "alignment check",
	18: "machine check",
	19: "SIMD floating point exception",
	20: "virtualization exception",
	21: "control protection exception",
	29: "VMM communication exception",
	30: "security exception",
}

// Name returns a human readable name for the vector.
func (v Vector) Name() string {
	switch {
	case int(v) < len(vectorNames) && vectorNames[v] != "":
		return vectorNames[v]
	case v < IRQBase:
		return "reserved"
	case v < IRQBase+NumIRQs:
		return "hardware interrupt"
	default:
		return "unassigned"
	}
}

// HasErrorCode returns true if the CPU pushes an error code when delivering
// the vector.
func (v Vector) HasErrorCode() bool {
	switch v {
	case Vector(DoubleFault), Vector(InvalidTSS), Vector(SegmentNotPresent),
		Vector(StackSegmentFault), Vector(GeneralProtection), Vector(PageFault),
		Vector(AlignmentCheck), Vector(ControlProtection), Vector(VMMCommunication),
		Vector(Security):
		return true
	}
	return false
}

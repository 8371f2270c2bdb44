// Package cpu exposes the privileged x86-64 instructions used by the kernel.
// Everything declared here without a body is implemented in cpu_amd64.s.
package cpu

var (
	cpuidFn = ID
)

// EnableInterrupts enables interrupt handling (STI).
func EnableInterrupts()

// DisableInterrupts disables interrupt handling (CLI).
func DisableInterrupts()

// InterruptsEnabled reports whether the IF bit of RFLAGS is set.
func InterruptsEnabled() bool

// Halt disables interrupts and parks the CPU in a HLT loop. It never returns;
// only an NMI can wake the CPU and it is sent straight back to HLT.
func Halt()

// WaitForInterrupt enables interrupts and halts until the next one is
// delivered.
func WaitForInterrupt()

// Breakpoint raises a breakpoint exception (INT3).
func Breakpoint()

// ReadCR2 returns the value stored in the CR2 register.
func ReadCR2() uint64

// ReadCS returns the active code segment selector.
func ReadCS() uint16

// LoadIDT loads the IDT register from the 10-byte descriptor at descAddr.
func LoadIDT(descAddr uintptr)

// LoadGDT loads the GDT register from the 10-byte descriptor at descAddr.
func LoadGDT(descAddr uintptr)

// LoadTaskRegister loads the task register with the given TSS selector.
func LoadTaskRegister(sel uint16)

// ReloadSegments reloads CS with code (via a far return) and DS, ES and SS
// with data. FS and GS are left alone as the Go runtime owns them.
func ReloadSegments(code, data uint16)

// ID returns information about the CPU and its features. It
// is implemented as a CPUID instruction with EAX=leaf and
// returns the values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// Vendor writes the 12-byte CPU vendor string (e.g. "GenuineIntel") to buf.
func Vendor(buf *[12]byte) {
	_, ebx, ecx, edx := cpuidFn(0)
	for i, reg := range [3]uint32{ebx, edx, ecx} {
		buf[i*4] = byte(reg)
		buf[i*4+1] = byte(reg >> 8)
		buf[i*4+2] = byte(reg >> 16)
		buf[i*4+3] = byte(reg >> 24)
	}
}

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortWriteWord writes a uint16 value to the requested port.
func PortWriteWord(port uint16, val uint16)

// PortWriteDword writes a uint32 value to the requested port.
func PortWriteDword(port uint16, val uint32)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8

// PortReadWord reads a uint16 value from the requested port.
func PortReadWord(port uint16) uint16

// PortReadDword reads a uint32 value from the requested port.
func PortReadDword(port uint16) uint32

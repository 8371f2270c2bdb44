// Package qemu drives the isa-debug-exit device QEMU exposes when started
// with "-device isa-debug-exit,iobase=0xf4,iosize=0x04".
package qemu

import (
	"io"

	"github.com/cyberphantom52/MoonlightOS/device"
	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
)

// ExitPort is the I/O port the exit device listens on.
const ExitPort = 0xf4

// ExitCode is the value written to the exit device. QEMU terminates with
// status (code << 1) | 1.
type ExitCode uint32

const (
	// ExitSuccess reports that all kernel self tests passed.
	ExitSuccess ExitCode = 0x10

	// ExitFailure reports a failed kernel self test.
	ExitFailure ExitCode = 0x11
)

// ProcessStatus returns the exit status of the QEMU process after the kernel
// wrote code to the exit device.
func (c ExitCode) ProcessStatus() int {
	return int(c)<<1 | 1
}

// PortWriter writes a 32-bit value to the I/O port space.
type PortWriter interface {
	PortWriteDword(port uint16, val uint32)
}

// ExitDevice terminates the emulator.
type ExitDevice struct {
	ports PortWriter
}

// New returns an exit device driver using ports.
func New(ports PortWriter) *ExitDevice {
	return &ExitDevice{ports: ports}
}

// Probe returns the exit device driver. The device cannot be detected so the
// driver is always returned; writing to the port on real hardware or under a
// VM without the device has no effect.
func Probe() device.Driver {
	return New(cpu.Ports{})
}

// Exit asks QEMU to terminate with the given code. If the device is missing
// the call returns.
func (d *ExitDevice) Exit(code ExitCode) {
	d.ports.PortWriteDword(ExitPort, uint32(code))
}

// DriverName implements device.Driver.
func (d *ExitDevice) DriverName() string {
	return "qemu-exit"
}

// DriverVersion implements device.Driver.
func (d *ExitDevice) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit implements device.Driver.
func (d *ExitDevice) DriverInit(_ io.Writer) *kernel.Error {
	return nil
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderLast,
		Probe: Probe,
	})
}

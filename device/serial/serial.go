// Package serial implements a driver for 16550 compatible UARTs.
package serial

import (
	"io"

	"github.com/cyberphantom52/MoonlightOS/device"
	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
	"github.com/cyberphantom52/MoonlightOS/kernel/kfmt"
	"github.com/cyberphantom52/MoonlightOS/kernel/sync"
)

// COM1 is the base I/O port of the first serial port.
const COM1 = 0x3f8

// Register offsets from the base port.
const (
	regData        = 0 // DLL while DLAB is set
	regIntrEnable  = 1 // DLM while DLAB is set
	regFIFOControl = 2
	regLineControl = 3
	regModemCtrl   = 4
	regLineStatus  = 5

	lineStatusTxEmpty = 0x20
	loopbackTestByte  = 0xae
)

// PortIO provides access to the I/O port space.
type PortIO interface {
	PortReadByte(port uint16) uint8
	PortWriteByte(port uint16, val uint8)
}

var errFaultyPort = &kernel.Error{Module: "serial", Message: "loopback test failed"}

// Port is a 16550 UART. Writes are serialized by a spinlock.
type Port struct {
	base  uint16
	ports PortIO
	lock  sync.Spinlock
}

// New returns a driver for the UART at base.
func New(base uint16, ports PortIO) *Port {
	return &Port{base: base, ports: ports}
}

// Probe returns a driver for COM1.
func Probe() device.Driver {
	return New(COM1, cpu.Ports{})
}

func (p *Port) out(reg uint16, val uint8) {
	p.ports.PortWriteByte(p.base+reg, val)
}

func (p *Port) in(reg uint16) uint8 {
	return p.ports.PortReadByte(p.base + reg)
}

// DriverName implements device.Driver.
func (p *Port) DriverName() string {
	return "serial"
}

// DriverVersion implements device.Driver.
func (p *Port) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit programs the UART for 38400 baud 8N1 with FIFOs enabled and
// verifies it with a loopback test.
func (p *Port) DriverInit(w io.Writer) *kernel.Error {
	p.out(regIntrEnable, 0x00)
	p.out(regLineControl, 0x80) // DLAB on
	p.out(regData, 0x03)        // divisor 3 (lo byte)
	p.out(regIntrEnable, 0x00)  //           (hi byte)
	p.out(regLineControl, 0x03) // 8 bits, no parity, one stop bit
	p.out(regFIFOControl, 0xc7) // enable FIFO, clear them, 14-byte threshold
	p.out(regModemCtrl, 0x0b)   // RTS/DSR set, IRQs enabled

	p.out(regModemCtrl, 0x1e) // loopback mode
	p.out(regData, loopbackTestByte)
	if p.in(regData) != loopbackTestByte {
		return errFaultyPort
	}

	// Leave loopback mode.
	p.out(regModemCtrl, 0x0f)

	kfmt.Fprintf(w, "port 0x%x, ", p.base)
	return nil
}

// Write implements io.Writer. It busy-waits for the transmit holding
// register before sending each byte.
func (p *Port) Write(data []byte) (int, error) {
	p.lock.Acquire()
	defer p.lock.Release()

	for _, b := range data {
		for p.in(regLineStatus)&lineStatusTxEmpty == 0 {
		}
		p.out(regData, b)
	}

	return len(data), nil
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: Probe,
	})
}

// Package vga implements a driver for the 80x25 VGA text mode console.
package vga

import (
	"io"
	"unsafe"

	"github.com/cyberphantom52/MoonlightOS/device"
	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
	"github.com/cyberphantom52/MoonlightOS/kernel/kfmt"
	"github.com/cyberphantom52/MoonlightOS/kernel/sync"
)

const (
	// Width and Height are the console dimensions in characters.
	Width  = 80
	Height = 25

	// FramebufferAddr is the physical address of the text framebuffer.
	FramebufferAddr = 0xb8000

	crtcAddrPort  = 0x3d4
	crtcDataPort  = 0x3d5
	cursorLocHigh = 0x0e
	cursorLocLow  = 0x0f

	// nonPrintable replaces bytes outside the printable ASCII range.
	nonPrintable = 0xfe
)

// Color is one of the 16 text mode colors.
type Color uint8

// The supported text mode colors.
const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	Pink
	LightMagenta
	Yellow
	White
)

const (
	defaultFg = Yellow
	defaultBg = Black
)

// PortWriter writes to the I/O port space.
type PortWriter interface {
	PortWriteByte(port uint16, val uint8)
}

// screen is the console state guarded by the console lock. Output is always
// written to the bottom row; a new line scrolls the screen up.
type screen struct {
	fb   []uint16
	col  uint16
	attr uint16
}

// Console is a text mode console. It implements io.Writer and is safe to
// use from interrupt handlers as long as normal code writes to it with
// interrupts disabled.
type Console struct {
	ports PortWriter
	state sync.Cell[screen]
}

// New returns a console backed by fb, which must hold Width*Height cells.
func New(fb []uint16, ports PortWriter) *Console {
	c := &Console{ports: ports}
	c.state.With(func(s *screen) {
		s.fb = fb
		s.attr = makeAttr(defaultFg, defaultBg)
	})
	return c
}

// Probe returns a console driver for the VGA text framebuffer.
func Probe() device.Driver {
	fb := unsafe.Slice((*uint16)(unsafe.Pointer(uintptr(FramebufferAddr))), Width*Height)
	return New(fb, cpu.Ports{})
}

func makeAttr(fg, bg Color) uint16 {
	return uint16(bg&0xf)<<12 | uint16(fg&0xf)<<8
}

// SetColors changes the colors used for subsequent output.
func (c *Console) SetColors(fg, bg Color) {
	c.state.With(func(s *screen) {
		s.attr = makeAttr(fg, bg)
	})
}

// ResetColors restores the default colors.
func (c *Console) ResetColors() {
	c.SetColors(defaultFg, defaultBg)
}

// Clear blanks the screen and moves the cursor to the start of the bottom
// row.
func (c *Console) Clear() {
	c.state.With(func(s *screen) {
		for i := range s.fb {
			s.fb[i] = s.attr | ' '
		}
		s.col = 0
		c.moveCursor(s.col)
	})
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	c.state.With(func(s *screen) {
		for _, b := range p {
			s.writeByte(b)
		}
		c.moveCursor(s.col)
	})

	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (c *Console) WriteByte(b byte) error {
	c.state.With(func(s *screen) {
		s.writeByte(b)
		c.moveCursor(s.col)
	})

	return nil
}

func (s *screen) writeByte(b byte) {
	switch {
	case b == '\n':
		s.newLine()
	case b == '\r':
		s.col = 0
	case b == '\b':
		if s.col > 0 {
			s.col--
			s.fb[(Height-1)*Width+int(s.col)] = s.attr | ' '
		}
	default:
		if b < 0x20 || b > 0x7e {
			b = nonPrintable
		}
		if s.col >= Width {
			s.newLine()
		}
		s.fb[(Height-1)*Width+int(s.col)] = s.attr | uint16(b)
		s.col++
	}
}

func (s *screen) newLine() {
	copy(s.fb, s.fb[Width:])
	for i := (Height - 1) * Width; i < Height*Width; i++ {
		s.fb[i] = s.attr | ' '
	}
	s.col = 0
}

// moveCursor places the hardware cursor at col on the bottom row.
func (c *Console) moveCursor(col uint16) {
	if col >= Width {
		col = Width - 1
	}

	pos := uint16(Height-1)*Width + col
	c.ports.PortWriteByte(crtcAddrPort, cursorLocLow)
	c.ports.PortWriteByte(crtcDataPort, uint8(pos))
	c.ports.PortWriteByte(crtcAddrPort, cursorLocHigh)
	c.ports.PortWriteByte(crtcDataPort, uint8(pos>>8))
}

// DriverName implements device.Driver.
func (c *Console) DriverName() string {
	return "vga"
}

// DriverVersion implements device.Driver.
func (c *Console) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit implements device.Driver.
func (c *Console) DriverInit(w io.Writer) *kernel.Error {
	c.Clear()
	kfmt.Fprintf(w, "%dx%d text mode, ", Width, Height)
	return nil
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly + 1,
		Probe: Probe,
	})
}

package cpu

var (
	interruptsEnabledFn = InterruptsEnabled
	disableInterruptsFn = DisableInterrupts
	enableInterruptsFn  = EnableInterrupts
)

// WithoutInterrupts runs fn with interrupts disabled. The interrupt flag is
// restored to its previous state once fn returns, so calls can be nested and
// are safe to make from code that already runs with interrupts masked.
func WithoutInterrupts(fn func()) {
	enabled := interruptsEnabledFn()
	if enabled {
		disableInterruptsFn()
	}
	defer restoreInterrupts(enabled)

	fn()
}

func restoreInterrupts(enabled bool) {
	if enabled {
		enableInterruptsFn()
	}
}

// Ports exposes the port I/O instructions through a value that can be passed
// to drivers expecting an interface.
type Ports struct{}

// PortReadByte reads a byte from the requested port.
func (Ports) PortReadByte(port uint16) uint8 { return PortReadByte(port) }

// PortWriteByte writes a byte to the requested port.
func (Ports) PortWriteByte(port uint16, val uint8) { PortWriteByte(port, val) }

// PortWriteDword writes a uint32 to the requested port.
func (Ports) PortWriteDword(port uint16, val uint32) { PortWriteDword(port, val) }

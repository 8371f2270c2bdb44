// Package pic drives a pair of chained 8259 programmable interrupt
// controllers. The slave controller is wired to line 2 of the master one.
package pic

const (
	masterCmdPort  = 0x20
	masterDataPort = 0x21
	slaveCmdPort   = 0xa0
	slaveDataPort  = 0xa1

	// waitPort is an unused port; writing to it gives the controllers time
	// to process the previous command.
	waitPort = 0x80

	cmdInit       = 0x11 // ICW1: edge triggered, cascade mode, ICW4 needed
	cmdEndOfIntr  = 0x20 // OCW2: non-specific EOI
	cmdReadISR    = 0x0b // OCW3: read in-service register
	mode8086      = 0x01 // ICW4
	slaveOnLine2  = 0x04 // ICW3 for the master: slave attached to line 2
	slaveIdentity = 0x02 // ICW3 for the slave: cascade identity

	linesPerChip = 8
	spuriousLine = 7
)

// PortIO provides access to the x86 I/O port space.
type PortIO interface {
	PortReadByte(port uint16) uint8
	PortWriteByte(port uint16, val uint8)
}

// chip is a single 8259 controller.
type chip struct {
	offset   uint8
	cmdPort  uint16
	dataPort uint16
}

// handlesInterrupt returns true if v is one of the 8 vectors starting at the
// chip offset.
func (c *chip) handlesInterrupt(v uint8) bool {
	return c.offset <= v && uint16(v) < uint16(c.offset)+linesPerChip
}

// ChainedPICs is a master/slave pair of 8259 controllers.
type ChainedPICs struct {
	master chip
	slave  chip
	ports  PortIO
}

// New returns a driver for the standard PC controller pair. The controllers
// must be initialized before any IRQ is unmasked.
func New(ports PortIO) *ChainedPICs {
	return &ChainedPICs{
		master: chip{cmdPort: masterCmdPort, dataPort: masterDataPort},
		slave:  chip{cmdPort: slaveCmdPort, dataPort: slaveDataPort},
		ports:  ports,
	}
}

// Offsets returns the first vector of the master and slave controllers.
func (p *ChainedPICs) Offsets() (master, slave uint8) {
	return p.master.offset, p.slave.offset
}

// Initialize remaps the master controller to deliver its lines on vectors
// masterOffset to masterOffset+7 and the slave controller on slaveOffset to
// slaveOffset+7. The interrupt masks in place before the call are preserved.
func (p *ChainedPICs) Initialize(masterOffset, slaveOffset uint8) {
	p.master.offset = masterOffset
	p.slave.offset = slaveOffset

	masterMask, slaveMask := p.Masks()

	p.writeAndWait(p.master.cmdPort, cmdInit)
	p.writeAndWait(p.slave.cmdPort, cmdInit)

	p.writeAndWait(p.master.dataPort, masterOffset)
	p.writeAndWait(p.slave.dataPort, slaveOffset)

	p.writeAndWait(p.master.dataPort, slaveOnLine2)
	p.writeAndWait(p.slave.dataPort, slaveIdentity)

	p.writeAndWait(p.master.dataPort, mode8086)
	p.writeAndWait(p.slave.dataPort, mode8086)

	p.ports.PortWriteByte(p.master.dataPort, masterMask)
	p.ports.PortWriteByte(p.slave.dataPort, slaveMask)
}

func (p *ChainedPICs) writeAndWait(port uint16, val uint8) {
	p.ports.PortWriteByte(port, val)
	p.ports.PortWriteByte(waitPort, 0)
}

// HandlesInterrupt returns true if v is delivered by either controller.
func (p *ChainedPICs) HandlesInterrupt(v uint8) bool {
	return p.master.handlesInterrupt(v) || p.slave.handlesInterrupt(v)
}

// NotifyEndOfInterrupt acknowledges the interrupt delivered on vector v.
// Interrupts raised by the slave controller must be acknowledged on both
// controllers, slave first. Vectors not owned by either controller are
// ignored.
func (p *ChainedPICs) NotifyEndOfInterrupt(v uint8) {
	switch {
	case p.slave.handlesInterrupt(v):
		p.ports.PortWriteByte(p.slave.cmdPort, cmdEndOfIntr)
		p.ports.PortWriteByte(p.master.cmdPort, cmdEndOfIntr)
	case p.master.handlesInterrupt(v):
		p.ports.PortWriteByte(p.master.cmdPort, cmdEndOfIntr)
	}
}

// IsSpurious returns true if v is the last line of a controller and the
// controller does not report it as in service. Such interrupts are raised
// when an IRQ is withdrawn before the CPU acknowledged it.
func (p *ChainedPICs) IsSpurious(v uint8) bool {
	for _, c := range []*chip{&p.master, &p.slave} {
		if c.handlesInterrupt(v) && v-c.offset == spuriousLine {
			p.ports.PortWriteByte(c.cmdPort, cmdReadISR)
			return p.ports.PortReadByte(c.cmdPort)&(1<<spuriousLine) == 0
		}
	}
	return false
}

// NotifySpurious handles a spurious interrupt on vector v. Nothing is
// acknowledged for a spurious master interrupt while a spurious slave
// interrupt is only acknowledged on the master, which did see a real IRQ on
// its cascade line.
func (p *ChainedPICs) NotifySpurious(v uint8) {
	if p.slave.handlesInterrupt(v) {
		p.ports.PortWriteByte(p.master.cmdPort, cmdEndOfIntr)
	}
}

// Masks returns the interrupt masks of the master and slave controllers. A
// set bit means the line is masked.
func (p *ChainedPICs) Masks() (master, slave uint8) {
	return p.ports.PortReadByte(p.master.dataPort), p.ports.PortReadByte(p.slave.dataPort)
}

// Mask disables IRQ line (0-15).
func (p *ChainedPICs) Mask(line uint8) {
	port, bit := p.lineMask(line)
	p.ports.PortWriteByte(port, p.ports.PortReadByte(port)|bit)
}

// Unmask enables IRQ line (0-15). Unmasking a slave line also unmasks the
// cascade line on the master.
func (p *ChainedPICs) Unmask(line uint8) {
	port, bit := p.lineMask(line)
	p.ports.PortWriteByte(port, p.ports.PortReadByte(port)&^bit)

	if line >= linesPerChip {
		p.Unmask(2)
	}
}

// DisableAll masks every line on both controllers.
func (p *ChainedPICs) DisableAll() {
	p.ports.PortWriteByte(p.master.dataPort, 0xff)
	p.ports.PortWriteByte(p.slave.dataPort, 0xff)
}

func (p *ChainedPICs) lineMask(line uint8) (uint16, uint8) {
	if line < linesPerChip {
		return p.master.dataPort, 1 << line
	}
	return p.slave.dataPort, 1 << ((line - linesPerChip) % linesPerChip)
}

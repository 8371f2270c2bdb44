// Package trap contains the policies the kernel applies to CPU exceptions and
// hardware interrupts.
package trap

import (
	"io"
	"sync/atomic"

	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
	"github.com/cyberphantom52/MoonlightOS/kernel/gate"
	"github.com/cyberphantom52/MoonlightOS/kernel/irq"
	"github.com/cyberphantom52/MoonlightOS/kernel/kbd"
	"github.com/cyberphantom52/MoonlightOS/kernel/kfmt"
)

const (
	// IRQ lines.
	timerLine         = 0
	keyboardLine      = 1
	masterSpuriousIRQ = 7
	slaveSpuriousIRQ  = 15
)

var readCR2Fn = cpu.ReadCR2

// InterruptController acknowledges hardware interrupts.
type InterruptController interface {
	// Offsets returns the vectors the master and slave lines start at.
	Offsets() (master, slave uint8)
	NotifyEndOfInterrupt(v uint8)
	IsSpurious(v uint8) bool
	NotifySpurious(v uint8)
}

// PortReader reads from the I/O port space.
type PortReader interface {
	PortReadByte(port uint16) uint8
}

// KeySink consumes decoded keyboard characters.
type KeySink interface {
	HandleKey(ch byte)
}

// Policies holds the state shared by the kernel's interrupt handlers.
type Policies struct {
	out   io.Writer
	pic   InterruptController
	ports PortReader

	keys    KeySink
	decoder kbd.Decoder

	ticks uint64

	// haltFn stops the CPU after a fatal exception. It is bound to the
	// dispatcher's halt function by Register.
	haltFn func()

	// TickHook, if set, is invoked by the timer handler with the updated
	// tick count.
	TickHook func(ticks uint64)
}

// New returns the handler policies. Diagnostics are written to out; keys may
// be nil if keyboard input is to be discarded.
func New(out io.Writer, pic InterruptController, ports PortReader, keys KeySink) *Policies {
	return &Policies{out: out, pic: pic, ports: ports, keys: keys}
}

// Ticks returns the number of timer interrupts served so far.
func (p *Policies) Ticks() uint64 {
	return atomic.LoadUint64(&p.ticks)
}

// Register binds the policies to d.
func (p *Policies) Register(d *irq.Dispatcher) *kernel.Error {
	p.haltFn = d.Halt

	for _, v := range []gate.Exception{gate.DivideError, gate.InvalidOpcode} {
		if err := d.HandleException(v, p.fatalException(gate.Vector(v))); err != nil {
			return err
		}
	}

	for _, v := range []gate.ExceptionWithCode{gate.GeneralProtection, gate.PageFault} {
		if err := d.HandleExceptionWithCode(v, p.fatalExceptionWithCode(v)); err != nil {
			return err
		}
	}

	if err := d.HandleException(gate.Breakpoint, p.breakpoint); err != nil {
		return err
	}

	for _, v := range []gate.Abort{gate.DoubleFault, gate.MachineCheck} {
		if err := d.HandleAbort(v, p.abort(gate.Vector(v))); err != nil {
			return err
		}
	}

	if err := d.HandleUnassigned(p.unassigned); err != nil {
		return err
	}

	irqs := [...]struct {
		line    uint8
		handler irq.IRQHandler
	}{
		{timerLine, p.timer},
		{keyboardLine, p.keyboard},
		{masterSpuriousIRQ, p.spurious(masterSpuriousIRQ)},
		{slaveSpuriousIRQ, p.spurious(slaveSpuriousIRQ)},
	}
	for _, entry := range irqs {
		if err := d.HandleIRQ(entry.line, entry.handler); err != nil {
			return err
		}
	}

	return nil
}

func (p *Policies) banner(v gate.Vector) {
	kfmt.Fprintf(p.out, "\n*** EXCEPTION: %s (vector %d) ***\n", v.Name(), uint8(v))
}

func (p *Policies) dump(frame *irq.Frame, regs *irq.Regs) {
	frame.DumpTo(p.out)
	regs.DumpTo(p.out)
}

func (p *Policies) fatalException(v gate.Vector) irq.ExceptionHandler {
	return func(frame *irq.Frame, regs *irq.Regs) {
		p.banner(v)
		p.dump(frame, regs)
		p.halt()
	}
}

func (p *Policies) fatalExceptionWithCode(v gate.ExceptionWithCode) irq.ExceptionHandlerWithCode {
	return func(code uint64, frame *irq.Frame, regs *irq.Regs) {
		p.banner(gate.Vector(v))
		kfmt.Fprintf(p.out, "error code: 0x%x\n", code)
		if v == gate.PageFault {
			p.describePageFault(code)
		}
		p.dump(frame, regs)
		p.halt()
	}
}

// Page fault error code bits.
const (
	pfPresent = 1 << iota
	pfWrite
	pfUser
	pfReserved
	pfFetch
)

func (p *Policies) describePageFault(code uint64) {
	access := "read"
	switch {
	case code&pfFetch != 0:
		access = "instruction fetch"
	case code&pfWrite != 0:
		access = "write"
	}

	reason := "non-present page"
	switch {
	case code&pfReserved != 0:
		reason = "reserved bit violation"
	case code&pfPresent != 0:
		reason = "protection violation"
	}

	mode := "kernel"
	if code&pfUser != 0 {
		mode = "user"
	}

	kfmt.Fprintf(p.out, "CR2 = %16x (%s %s, %s mode)\n", readCR2Fn(), access, reason, mode)
}

// breakpoint reports the INT3 location and resumes execution.
func (p *Policies) breakpoint(frame *irq.Frame, _ *irq.Regs) {
	p.banner(gate.Vector(gate.Breakpoint))
	frame.DumpTo(p.out)
}

// abort reports an abort. The dispatcher halts once it returns.
func (p *Policies) abort(v gate.Vector) irq.AbortHandler {
	return func(code uint64, frame *irq.Frame, regs *irq.Regs) {
		p.banner(v)
		if v.HasErrorCode() {
			kfmt.Fprintf(p.out, "error code: 0x%x\n", code)
		}
		p.dump(frame, regs)
	}
}

// unassigned reports a vector nobody handles. The dispatcher halts once it
// returns.
func (p *Policies) unassigned(vector uint64, frame *irq.Frame, regs *irq.Regs) {
	if vector >= irq.UnassignedVector {
		kfmt.Fprintf(p.out, "\n*** unexpected interrupt on an unassigned vector ***\n")
	} else {
		kfmt.Fprintf(p.out, "\n*** unexpected interrupt: %s (vector %d) ***\n", gate.Vector(vector).Name(), vector)
	}
	p.dump(frame, regs)
}

func (p *Policies) halt() {
	kfmt.Fprintf(p.out, "system halted\n")
	p.haltFn()
}

func (p *Policies) timer(_ *irq.Frame, _ *irq.Regs) {
	ticks := atomic.AddUint64(&p.ticks, 1)
	if p.TickHook != nil {
		p.TickHook(ticks)
	}
	p.pic.NotifyEndOfInterrupt(p.lineVector(timerLine))
}

func (p *Policies) keyboard(_ *irq.Frame, _ *irq.Regs) {
	sc := p.ports.PortReadByte(kbd.DataPort)
	if ch, ok := p.decoder.Feed(sc); ok && p.keys != nil {
		switch {
		case ch == '\n', ch == '\b', ch >= 0x20 && ch <= 0x7e:
			p.keys.HandleKey(ch)
		}
	}
	p.pic.NotifyEndOfInterrupt(p.lineVector(keyboardLine))
}

// spurious acknowledges line unless the controller reports it as a spurious
// interrupt.
func (p *Policies) spurious(line uint8) irq.IRQHandler {
	return func(_ *irq.Frame, _ *irq.Regs) {
		v := p.lineVector(line)
		if p.pic.IsSpurious(v) {
			p.pic.NotifySpurious(v)
			return
		}
		p.pic.NotifyEndOfInterrupt(v)
	}
}

// lineVector returns the vector the controllers deliver line on. The offsets
// are read on every interrupt since the handlers are registered before the
// controllers are remapped.
func (p *Policies) lineVector(line uint8) uint8 {
	master, slave := p.pic.Offsets()
	if line < 8 {
		return master + line
	}
	return slave + line - 8
}

package irq

import (
	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/gate"
)

// UnassignedVector is the vector number reported by the catch-all
// trampoline. It lies outside the range of valid vectors since the
// catch-all cannot tell which vector fired.
const UnassignedVector = gate.NumEntries

// ExceptionHandler handles an exception for which the CPU does not push an
// error code.
type ExceptionHandler func(frame *Frame, regs *Regs)

// ExceptionHandlerWithCode handles an exception for which the CPU pushes an
// error code.
type ExceptionHandlerWithCode func(code uint64, frame *Frame, regs *Regs)

// AbortHandler handles an exception after which execution cannot resume. The
// CPU is halted if the handler returns. code is always 0 for aborts that do
// not push an error code.
type AbortHandler func(code uint64, frame *Frame, regs *Regs)

// IRQHandler handles a hardware interrupt.
type IRQHandler func(frame *Frame, regs *Regs)

// UnassignedHandler handles vectors that no handler was registered for. The
// CPU is halted if the handler returns.
type UnassignedHandler func(vector uint64, frame *Frame, regs *Regs)

var (
	errDispatcherActive = &kernel.Error{Module: "irq", Message: "handlers cannot be registered after activation"}
	errBadIRQLine       = &kernel.Error{Module: "irq", Message: "IRQ line out of range"}
)

type routeKind uint8

const (
	routeNone routeKind = iota
	routeException
	routeExceptionWithCode
	routeAbort
	routeIRQ
)

type route struct {
	kind              routeKind
	exception         ExceptionHandler
	exceptionWithCode ExceptionHandlerWithCode
	abort             AbortHandler
	irq               IRQHandler
}

// Dispatcher routes the vectors reported by the trampolines to the handler
// registered for them. Handlers are registered while the kernel boots; once
// the dispatcher is activated its routes are fixed.
type Dispatcher struct {
	routes     [gate.NumEntries]route
	unassigned UnassignedHandler
	halt       func()
	active     bool
}

// NewDispatcher returns a dispatcher that invokes halt after an abort or
// unassigned handler returns.
func NewDispatcher(halt func()) *Dispatcher {
	return &Dispatcher{halt: halt}
}

// HandleException registers the handler for an exception without an error
// code.
func (d *Dispatcher) HandleException(v gate.Exception, h ExceptionHandler) *kernel.Error {
	return d.set(gate.Vector(v), route{kind: routeException, exception: h})
}

// HandleExceptionWithCode registers the handler for an exception with an
// error code.
func (d *Dispatcher) HandleExceptionWithCode(v gate.ExceptionWithCode, h ExceptionHandlerWithCode) *kernel.Error {
	return d.set(gate.Vector(v), route{kind: routeExceptionWithCode, exceptionWithCode: h})
}

// HandleAbort registers the handler for an abort.
func (d *Dispatcher) HandleAbort(v gate.Abort, h AbortHandler) *kernel.Error {
	return d.set(gate.Vector(v), route{kind: routeAbort, abort: h})
}

// HandleIRQ registers the handler for a hardware interrupt line (0-15). Line
// N is delivered on vector gate.IRQBase+N.
func (d *Dispatcher) HandleIRQ(line uint8, h IRQHandler) *kernel.Error {
	if line >= gate.NumIRQs {
		return errBadIRQLine
	}
	return d.set(gate.IRQBase+gate.Vector(line), route{kind: routeIRQ, irq: h})
}

// HandleUnassigned registers the handler for vectors without a route.
func (d *Dispatcher) HandleUnassigned(h UnassignedHandler) *kernel.Error {
	if d.active {
		return errDispatcherActive
	}
	d.unassigned = h
	return nil
}

func (d *Dispatcher) set(v gate.Vector, r route) *kernel.Error {
	if d.active {
		return errDispatcherActive
	}
	d.routes[v] = r
	return nil
}

// Activate makes d the target of every trampoline and freezes its routes.
func (d *Dispatcher) Activate() {
	d.active = true
	activeDispatcher = d
}

// Dispatch invokes the handler registered for vector.
func (d *Dispatcher) Dispatch(regs *Regs, frame *Frame, vector, code uint64) {
	if vector >= gate.NumEntries {
		d.dispatchUnassigned(vector, frame, regs)
		return
	}

	switch r := &d.routes[vector]; r.kind {
	case routeException:
		r.exception(frame, regs)
	case routeExceptionWithCode:
		r.exceptionWithCode(code, frame, regs)
	case routeAbort:
		r.abort(code, frame, regs)
		d.halt()
	case routeIRQ:
		r.irq(frame, regs)
	default:
		d.dispatchUnassigned(vector, frame, regs)
	}
}

// Halt stops the CPU using the halt function d was created with. Handlers
// that need to stop the machine after reporting call it.
func (d *Dispatcher) Halt() {
	d.halt()
}

func (d *Dispatcher) dispatchUnassigned(vector uint64, frame *Frame, regs *Regs) {
	if d.unassigned != nil {
		d.unassigned(vector, frame, regs)
	}
	d.halt()
}

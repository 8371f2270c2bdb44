// Package kmain contains the kernel entry point and the boot sequence that
// brings up the descriptor tables, the interrupt controllers and the shell.
package kmain

import (
	"github.com/cyberphantom52/MoonlightOS/device/qemu"
	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
	"github.com/cyberphantom52/MoonlightOS/kernel/gate"
	"github.com/cyberphantom52/MoonlightOS/kernel/gdt"
	"github.com/cyberphantom52/MoonlightOS/kernel/hal"
	"github.com/cyberphantom52/MoonlightOS/kernel/irq"
	"github.com/cyberphantom52/MoonlightOS/kernel/kfmt"
	"github.com/cyberphantom52/MoonlightOS/kernel/pic"
	"github.com/cyberphantom52/MoonlightOS/kernel/shell"
	"github.com/cyberphantom52/MoonlightOS/kernel/trap"
)

const (
	// OSName and OSVersion are reported by the shell.
	OSName    = "MoonlightOS"
	OSVersion = "1.0.0"

	// selfTestExit makes the kernel terminate the emulator once booted.
	selfTestExit = "exit"
)

var (
	// selfTestMode is set at link time with
	// -ldflags "-X github.com/cyberphantom52/MoonlightOS/kernel/kmain.selfTestMode=exit".
	selfTestMode string

	// The following functions are mocked by tests.
	detectHardwareFn    = hal.DetectHardware
	activeConsoleFn     = hal.ActiveConsole
	exitDeviceFn        = hal.ExitDevice
	loadSegmentsFn      = (*gdt.Table).Load
	installIDTFn        = (*gate.Table).Install
	initPICFn           = (*pic.ChainedPICs).Initialize
	enableInterruptsFn  = cpu.EnableInterrupts
	withoutInterruptsFn = cpu.WithoutInterrupts
	breakpointFn        = cpu.Breakpoint
	waitForInterruptFn  = cpu.WaitForInterrupt
	haltFn              = cpu.Halt
	panicFn             = kfmt.Panic

	// bootedKernel keeps the descriptor tables and the interrupt stack
	// reachable for as long as the CPU references them.
	bootedKernel *Kernel
)

// PortIO provides access to the I/O port space.
type PortIO interface {
	PortReadByte(port uint16) uint8
	PortWriteByte(port uint16, val uint8)
}

// Kernel holds the state set up during boot. The descriptor tables are
// referenced by the CPU once loaded so a Kernel must never be copied.
type Kernel struct {
	ports PortIO

	gdt gdt.Table
	idt gate.Table

	pics       *pic.ChainedPICs
	dispatcher *irq.Dispatcher
	policies   *trap.Policies
	shell      *shell.Shell
}

// New returns a kernel that accesses devices through ports.
func New(ports PortIO) *Kernel {
	return &Kernel{
		ports: ports,
		pics:  pic.New(ports),
	}
}

// Boot brings the system up. The steps run in a fixed order: the segment
// registers and task register are loaded before the IDT that refers to
// them, the IDT is installed before the interrupt controllers are remapped
// and interrupts are only enabled once all of the above are in place.
func (k *Kernel) Boot() *kernel.Error {
	detectHardwareFn()
	kfmt.Printf("Starting %s %s\n", OSName, OSVersion)

	k.gdt.Init()
	if err := loadSegmentsFn(&k.gdt); err != nil {
		return err
	}

	k.idt.Init(gdt.KernelCode, irq.NewTrampolines())
	if err := k.idt.RegisterAll(); err != nil {
		return err
	}
	if err := installIDTFn(&k.idt); err != nil {
		return err
	}

	var keys trap.KeySink
	if cons := activeConsoleFn(); cons != nil {
		k.shell = shell.New(cons, systemInfo())
		keys = k.shell
	}

	k.dispatcher = irq.NewDispatcher(haltFn)
	k.policies = trap.New(kfmt.ActiveSink{}, k.pics, k.ports, keys)
	if err := k.policies.Register(k.dispatcher); err != nil {
		return err
	}
	k.dispatcher.Activate()

	initPICFn(k.pics, uint8(gate.IRQBase), uint8(gate.IRQBase)+8)
	k.pics.Unmask(timerLine)
	k.pics.Unmask(keyboardLine)

	// From here on the console lock is shared with the keyboard handler so
	// every write from this path runs with interrupts masked.
	enableInterruptsFn()
	withoutInterruptsFn(func() {
		kfmt.Printf("[kmain] interrupts enabled\n")
	})

	breakpointFn()
	withoutInterruptsFn(func() {
		kfmt.Printf("[kmain] breakpoint self-test passed\n")
		if k.shell != nil {
			k.shell.Start()
		}
	})

	return nil
}

const (
	timerLine    = 0
	keyboardLine = 1
)

func systemInfo() shell.Info {
	info := shell.Info{Name: OSName, Version: OSVersion}
	cpu.Vendor(&info.CPUVendor)
	return info
}

// Ticks returns the number of timer interrupts served since boot.
func (k *Kernel) Ticks() uint64 {
	return k.policies.Ticks()
}

// reportSelfTest terminates the emulator with a status reflecting bootErr
// when the kernel was built in self-test mode.
func reportSelfTest(bootErr *kernel.Error) {
	if selfTestMode != selfTestExit {
		return
	}

	dev := exitDeviceFn()
	if dev == nil {
		kfmt.Printf("[kmain] self-test: no exit device\n")
		return
	}

	if bootErr != nil {
		dev.Exit(qemu.ExitFailure)
		return
	}
	dev.Exit(qemu.ExitSuccess)
}

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. It is invoked by the rt0 assembly code once the Go
// runtime has been set up and is not expected to return.
//
//go:noinline
func Kmain() {
	run(cpu.Ports{})
}

func run(ports PortIO) {
	bootedKernel = New(ports)

	err := bootedKernel.Boot()
	reportSelfTest(err)
	if err != nil {
		panicFn(err)
	}

	for {
		waitForInterruptFn()
	}
}

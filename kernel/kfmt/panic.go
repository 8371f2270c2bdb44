package kfmt

import (
	"github.com/cyberphantom52/MoonlightOS/kernel"
	"github.com/cyberphantom52/MoonlightOS/kernel/cpu"
)

// haltFn stops the CPU once the report is written.
var haltFn = cpu.Halt

// Panic reports an unrecoverable condition to the active output sink and
// halts the CPU. It never returns.
//
// Boot failures arrive as *kernel.Error and are tagged with the module that
// raised them. Anything else is reported under the "rt" tag.
func Panic(e interface{}) {
	Printf("\n*** KERNEL PANIC ***\n")

	switch t := e.(type) {
	case *kernel.Error:
		if t != nil {
			Printf("[%s] %s\n", t.Module, t.Message)
		}
	case string:
		Printf("[rt] %s\n", t)
	case error:
		Printf("[rt] %s\n", t.Error())
	}

	Printf("system halted\n")
	haltFn()
}

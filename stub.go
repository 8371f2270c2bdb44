package main

import "github.com/cyberphantom52/MoonlightOS/kernel/kmain"

// main makes a dummy call to the actual kernel main entrypoint function. It
// is intentionally defined to prevent the Go compiler from optimizing away the
// real kernel code.
//
// The boot code jumps to kmain.Kmain directly once the Go runtime is set up;
// main itself is never executed.
func main() {
	kmain.Kmain()
}

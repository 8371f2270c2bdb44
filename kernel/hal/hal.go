// Package hal probes for the devices the kernel knows how to drive and keeps
// track of the ones that were successfully initialized.
package hal

import (
	"bytes"
	"io"
	"sort"

	"github.com/cyberphantom52/MoonlightOS/device"
	"github.com/cyberphantom52/MoonlightOS/device/qemu"
	"github.com/cyberphantom52/MoonlightOS/device/serial"
	"github.com/cyberphantom52/MoonlightOS/device/vga"
	"github.com/cyberphantom52/MoonlightOS/kernel/kfmt"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole *vga.Console
	debugPort     *serial.Port
	exitDevice    *qemu.ExitDevice

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer

	driverListFn = device.DriverList
)

// ActiveConsole returns the console used for kernel output, or nil if no
// console was detected.
func ActiveConsole() *vga.Console {
	return devices.activeConsole
}

// ExitDevice returns the emulator exit device, or nil if it was not probed.
func ExitDevice() *qemu.ExitDevice {
	return devices.exitDevice
}

// ActiveDrivers returns the drivers that were successfully initialized.
func ActiveDrivers() []device.Driver {
	return devices.activeDrivers
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := driverListFn()
	sort.Stable(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver.
func probe(driverInfoList device.DriverInfoList) {
	// Driver output follows the sink switch made when a console comes up
	// halfway through probing.
	var w = kfmt.PrefixWriter{Sink: kfmt.ActiveSink{}}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		onDriverInit(drv)
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized. The first console and serial port found
// become the kfmt output sink; when both are present output is mirrored to
// the two of them.
func onDriverInit(drv device.Driver) {
	switch drvImpl := drv.(type) {
	case *vga.Console:
		if devices.activeConsole != nil {
			return
		}
		devices.activeConsole = drvImpl
		updateOutputSink()
	case *serial.Port:
		if devices.debugPort != nil {
			return
		}
		devices.debugPort = drvImpl
		updateOutputSink()
	case *qemu.ExitDevice:
		devices.exitDevice = drvImpl
	}
}

func updateOutputSink() {
	switch {
	case devices.activeConsole != nil && devices.debugPort != nil:
		kfmt.SetOutputSink(io.MultiWriter(devices.activeConsole, devices.debugPort))
	case devices.activeConsole != nil:
		kfmt.SetOutputSink(devices.activeConsole)
	default:
		kfmt.SetOutputSink(devices.debugPort)
	}
}

// Package device defines the interface implemented by device drivers and the
// metadata used to probe for them.
package device

import (
	"io"

	"github.com/cyberphantom52/MoonlightOS/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it.
type ProbeFn func() Driver

// DetectOrder specifies when a driver is probed relative to other drivers.
type DetectOrder int8

const (
	// DetectOrderEarly is used by drivers that provide diagnostic output
	// and must come up before anything else.
	DetectOrderEarly DetectOrder = -128 + iota

	// DetectOrderNormal is the default order.
	DetectOrderNormal DetectOrder = 0

	// DetectOrderLast is used by drivers that depend on every other
	// driver being initialized.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo describes a driver that can be probed.
type DriverInfo struct {
	// Order controls when the driver is probed.
	Order DetectOrder

	// Probe returns a driver instance if the hardware is present.
	Probe ProbeFn
}

// DriverInfoList implements sort.Interface, ordering drivers by their
// detection order.
type DriverInfoList []*DriverInfo

func (l DriverInfoList) Len() int           { return len(l) }
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }
func (l DriverInfoList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

var registeredDrivers DriverInfoList

// RegisterDriver adds the supplied driver info to the list of drivers that
// the hal probes for at boot. Drivers call it from their init function.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the list of registered drivers.
func DriverList() DriverInfoList {
	return registeredDrivers
}

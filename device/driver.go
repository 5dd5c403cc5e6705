// Package device implements the Device Inspector (component A): querying
// OpenCL platforms/devices and exposing a stable identifier and a power
// index for each device found.
package device

import "errors"

// ErrInfoUnavailable is returned when a device or platform query fails at
// the driver level. Callers (the diagnostics engine) treat this as "skip
// this device" rather than a fatal condition.
var ErrInfoUnavailable = errors.New("device: info unavailable")

// Info is the subset of OpenCL device properties this server needs,
// independent of the concrete driver binding used to obtain them.
type Info struct {
	Vendor            string
	Name              string
	DriverVersion     string
	MaxComputeUnits   uint32
	MaxClockFrequency uint32
}

// RawDevice abstracts a single OpenCL device handle.
type RawDevice interface {
	Info() (Info, error)
}

// RawPlatform abstracts a single OpenCL platform handle.
type RawPlatform interface {
	Devices() ([]RawDevice, error)
}

// Driver abstracts platform enumeration. The production implementation
// (CLDriver, in driver_cl.go) wraps github.com/samuel/go-opencl/cl; tests
// substitute a fake so the selection algorithm can be exercised without a
// real OpenCL ICD loader present.
type Driver interface {
	Platforms() ([]RawPlatform, error)
}

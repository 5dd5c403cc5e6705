package device

import (
	"fmt"

	"github.com/samuel/go-opencl/cl"
)

// CLDriver is the production Driver backed by a real OpenCL ICD loader via
// github.com/samuel/go-opencl/cl (a cgo binding). See SPEC_FULL.md §4.3 and
// DESIGN.md for why this dependency is named rather than grounded in the
// retrieved example pack.
type CLDriver struct{}

// NewCLDriver returns the production OpenCL driver.
func NewCLDriver() CLDriver { return CLDriver{} }

func (CLDriver) Platforms() ([]RawPlatform, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, fmt.Errorf("cl.GetPlatforms: %w", err)
	}

	out := make([]RawPlatform, len(platforms))
	for i, p := range platforms {
		out[i] = clPlatform{p}
	}

	return out, nil
}

type clPlatform struct {
	platform *cl.Platform
}

func (p clPlatform) Devices() ([]RawDevice, error) {
	devices, err := p.platform.GetDevices(cl.DeviceTypeAll)
	if err != nil {
		return nil, fmt.Errorf("platform.GetDevices: %w", err)
	}

	out := make([]RawDevice, len(devices))
	for i, d := range devices {
		out[i] = clDevice{d}
	}

	return out, nil
}

type clDevice struct {
	device *cl.Device
}

func (d clDevice) Info() (Info, error) {
	return Info{
		Vendor:            d.device.Vendor(),
		Name:              d.device.Name(),
		DriverVersion:     d.device.DriverVersion(),
		MaxComputeUnits:   uint32(d.device.MaxComputeUnits()),
		MaxClockFrequency: uint32(d.device.MaxClockFrequency()),
	}, nil
}

// Underlying returns the driver-native *cl.Device. CLCompiler, in this
// package, reads the device field directly and does not call it.
func (d clDevice) Underlying() *cl.Device {
	return d.device
}

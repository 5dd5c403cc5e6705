package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	info Info
	err  error
}

func (f fakeDevice) Info() (Info, error) { return f.info, f.err }

type fakePlatform struct {
	devices []RawDevice
	err     error
}

func (f fakePlatform) Devices() ([]RawDevice, error) { return f.devices, f.err }

type fakeDriver struct {
	platforms []RawPlatform
	err       error
}

func (f fakeDriver) Platforms() ([]RawPlatform, error) { return f.platforms, f.err }

func TestEnumerateSkipsDeviceWithoutInfo(t *testing.T) {
	driver := fakeDriver{platforms: []RawPlatform{
		fakePlatform{devices: []RawDevice{
			fakeDevice{info: Info{Vendor: "Acme", Name: "GPU-1", DriverVersion: "1.0", MaxComputeUnits: 8, MaxClockFrequency: 1000}},
			fakeDevice{err: errors.New("boom")},
		}},
	}}

	records, err := Enumerate(driver)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(8000), records[0].PowerIndex)
}

func TestEnumerateSkipsFailingPlatform(t *testing.T) {
	driver := fakeDriver{platforms: []RawPlatform{
		fakePlatform{err: errors.New("platform offline")},
		fakePlatform{devices: []RawDevice{
			fakeDevice{info: Info{Vendor: "Acme", Name: "GPU-2", DriverVersion: "1.0", MaxComputeUnits: 4, MaxClockFrequency: 500}},
		}},
	}}

	records, err := Enumerate(driver)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestEnumeratePropagatesDriverFailure(t *testing.T) {
	driver := fakeDriver{err: errors.New("no ICD loader")}

	_, err := Enumerate(driver)
	assert.Error(t, err)
}

func TestStableIDIsDeterministic(t *testing.T) {
	info := Info{Vendor: "Acme", Name: "GPU-1", DriverVersion: "1.0"}
	assert.Equal(t, StableID(info), StableID(info))

	other := Info{Vendor: "Acme", Name: "GPU-2", DriverVersion: "1.0"}
	assert.NotEqual(t, StableID(info), StableID(other))
}

func TestPowerIndex(t *testing.T) {
	assert.Equal(t, uint64(16*100), PowerIndex(Info{MaxComputeUnits: 16, MaxClockFrequency: 100}))
}

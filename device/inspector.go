package device

import (
	"fmt"
	"hash/fnv"
)

// Describe concatenates vendor, name, and driver version for human
// display, per spec.md §4.3.
func Describe(info Info) string {
	return fmt.Sprintf("%s %s (driver %s)", info.Vendor, info.Name, info.DriverVersion)
}

// StableID hashes vendor/name/driver version into a 32-bit unsigned
// integer suitable for transmission through JSON numbers, per spec.md
// §3/§4.3. FNV-1a is used because it is a standard-library, allocation-free
// 32-bit hash with good distribution for short strings — no corpus repo
// reaches for a third-party hash library for this kind of small, uncached
// identifier derivation (see DESIGN.md).
func StableID(info Info) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(info.Vendor))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(info.Name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(info.DriverVersion))

	return h.Sum32()
}

// PowerIndex is compute-unit count times clock frequency, per the
// GLOSSARY's "power index" definition.
func PowerIndex(info Info) uint64 {
	return uint64(info.MaxComputeUnits) * uint64(info.MaxClockFrequency)
}

// Record is the Device Record of spec.md §3: a device paired with its
// derived identifiers and a handle back to the raw driver device, which
// the diagnostics engine needs to create a compilation context.
type Record struct {
	Handle      RawDevice
	StableID    uint32
	Description string
	PowerIndex  uint64
}

// NewRecord builds a Record for handle, deriving its stable id,
// description and power index from info.
func NewRecord(handle RawDevice, info Info) Record {
	return Record{
		Handle:      handle,
		StableID:    StableID(info),
		Description: Describe(info),
		PowerIndex:  PowerIndex(info),
	}
}

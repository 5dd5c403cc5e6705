// Package diagnostics implements the Diagnostics Engine (component B): an
// OpenCL platform/device selection policy, a source-compilation driver,
// and a build-log parser that produces LSP Diagnostic records.
package diagnostics

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rockerboo/opencl-language-server/device"
	"github.com/rockerboo/opencl-language-server/logger"
	"github.com/rockerboo/opencl-language-server/protocol"
)

const defaultMaxProblems = 100

// Compiler drives a single compile-and-fetch-build-log pass against a
// selected device. Implementations must never return an error for compile
// failures — those are expected and show up as text in the build log
// (spec.md §4.2); internal/driver failures are logged internally rather
// than propagated, so Compile always returns whatever log text it could
// recover, even if empty.
type Compiler interface {
	Compile(handle device.RawDevice, source, buildOptions string) string
}

// Engine is the Diagnostics Engine (component B). It holds zero or one
// selected device and is re-selectable, matching the lifecycle described
// in spec.md §3.
type Engine struct {
	mu sync.Mutex

	driver   device.Driver
	compiler Compiler

	buildOptions string
	maxProblems  int

	selected *device.Record
}

// NewEngine constructs an Engine with spec.md's documented default of 100
// max problems and no device selected.
func NewEngine(driver device.Driver, compiler Compiler) *Engine {
	return &Engine{
		driver:      driver,
		compiler:    compiler,
		maxProblems: defaultMaxProblems,
	}
}

// SetBuildOptions concatenates the given flags with a single space and
// stores them as the compiler invocation string. A non-string entry aborts
// the update, logs an error, and leaves the previous value in place, per
// spec.md §4.2.
func (e *Engine) SetBuildOptions(items []any) error {
	flags := make([]string, 0, len(items))

	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			err := fmt.Errorf("diagnostics: build option %#v is not a string", item)
			logger.Error(err.Error())

			return err
		}

		flags = append(flags, s)
	}

	joined := strings.Join(flags, " ")

	e.mu.Lock()
	e.buildOptions = joined
	e.mu.Unlock()

	return nil
}

// SetMaxProblems sets the diagnostic count cap applied per Get call.
func (e *Engine) SetMaxProblems(n int) {
	e.mu.Lock()
	e.maxProblems = n
	e.mu.Unlock()
}

// SetDevice runs the device selection algorithm of spec.md §4.2: if
// stableID (0 meaning "auto") matches an enumerated device exactly, that
// device is selected; otherwise the device with the greatest power index
// wins, ties broken by enumeration order. An enumeration that yields zero
// devices leaves the selection empty.
func (e *Engine) SetDevice(stableID uint32) error {
	records, err := device.Enumerate(e.driver)
	if err != nil {
		logger.Error(fmt.Sprintf("diagnostics: device enumeration failed: %v", err))
		return fmt.Errorf("%w: %v", ErrCompilerUnavailable, err)
	}

	selected := selectDevice(records, stableID)

	e.mu.Lock()
	e.selected = selected
	e.mu.Unlock()

	if selected == nil {
		logger.Warn("diagnostics: no OpenCL devices found; get() will fail until a device appears")
	} else {
		logger.Info(fmt.Sprintf("diagnostics: selected device %q (stableId=%d, power=%d)", selected.Description, selected.StableID, selected.PowerIndex))
	}

	return nil
}

func selectDevice(records []device.Record, stableID uint32) *device.Record {
	if len(records) == 0 {
		return nil
	}

	if stableID != 0 {
		for i := range records {
			if records[i].StableID == stableID {
				r := records[i]
				return &r
			}
		}
	}

	best := records[0]
	for _, r := range records[1:] {
		if r.PowerIndex > best.PowerIndex {
			best = r
		}
	}

	return &best
}

// Get compiles job.Text on the selected device and returns diagnostics
// parsed from the build log, capped at the configured max problems.
func (e *Engine) Get(job SourceJob) ([]protocol.Diagnostic, error) {
	e.mu.Lock()
	selected := e.selected
	buildOptions := e.buildOptions
	maxProblems := e.maxProblems
	e.mu.Unlock()

	if selected == nil {
		return nil, ErrNoDevice
	}

	buildLog := e.compiler.Compile(selected.Handle, job.Text, buildOptions)

	return parseBuildLog(buildLog, job, maxProblems), nil
}

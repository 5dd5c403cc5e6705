package device

import (
	"fmt"

	"github.com/samuel/go-opencl/cl"

	"github.com/rockerboo/opencl-language-server/logger"
)

// CLCompiler drives the compile-and-fetch-build-log pass of spec.md §4.2
// against a real OpenCL device obtained from CLDriver. It implements
// diagnostics.Compiler without diagnostics importing this package's cl
// dependency directly, keeping the cgo-backed binding isolated to device.
type CLCompiler struct{}

// NewCLCompiler returns the production compiler.
func NewCLCompiler() CLCompiler { return CLCompiler{} }

// Compile never returns an error: compile failures are expected (they show
// up as text in the build log) and infrastructure failures are logged here
// and swallowed, per spec.md §4.2 and §7.
func (CLCompiler) Compile(handle RawDevice, source, buildOptions string) string {
	d, ok := handle.(clDevice)
	if !ok {
		logger.Error("diagnostics: compile requested against a non-OpenCL device handle")
		return ""
	}

	ctx, err := cl.CreateContext([]*cl.Device{d.device})
	if err != nil {
		logger.Error(fmt.Sprintf("diagnostics: failed to create OpenCL context: %v", err))
		return ""
	}
	defer ctx.Release()

	program, err := ctx.CreateProgramWithSource([]string{source})
	if err != nil {
		logger.Error(fmt.Sprintf("diagnostics: failed to create OpenCL program: %v", err))
		return ""
	}
	defer program.Release()

	// A non-nil error here is expected whenever the kernel source has
	// compile errors; the build log (fetched below regardless) is what
	// carries that information, not this error value.
	if err := program.BuildProgram([]*cl.Device{d.device}, buildOptions); err != nil {
		logger.Debug(fmt.Sprintf("diagnostics: program build reported: %v", err))
	}

	buildLog, err := program.GetBuildLog(d.device)
	if err != nil {
		logger.Error(fmt.Sprintf("diagnostics: failed to fetch OpenCL build log: %v", err))
		return ""
	}

	return buildLog
}

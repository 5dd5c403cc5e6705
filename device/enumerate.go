package device

import (
	"context"
	"fmt"

	"github.com/rockerboo/opencl-language-server/async"
	"github.com/rockerboo/opencl-language-server/logger"
	"github.com/rockerboo/opencl-language-server/utils"
)

// Enumerate walks every platform and every device of any type, per the
// device selection algorithm's first two steps in spec.md §4.2. Platforms
// are queried concurrently with async.Map (kept from the teacher, which
// used it to fan out requests across multiple language-server clients);
// results are merged with utils.FlattenResults (kept from the teacher,
// which used it to merge per-language results into one slice). A platform
// or device that fails to report itself is skipped and logged rather than
// failing the whole enumeration, matching "Diagnostics Engine treats
// failures as skip this device" in spec.md §4.3.
func Enumerate(driver Driver) ([]Record, error) {
	platforms, err := driver.Platforms()
	if err != nil {
		return nil, fmt.Errorf("device: platform enumeration failed: %w", err)
	}

	ops := make([]func() ([]Record, error), len(platforms))
	for i, p := range platforms {
		p := p
		ops[i] = func() ([]Record, error) { return devicesForPlatform(p) }
	}

	results, err := async.Map(context.Background(), ops)
	if err != nil {
		return nil, fmt.Errorf("device: enumeration cancelled: %w", err)
	}

	flattened := utils.FlattenResults(results)
	for _, platErr := range flattened.Errors {
		logger.Warn(fmt.Sprintf("device: skipping platform, %v", platErr))
	}

	return flattened.Values, nil
}

func devicesForPlatform(p RawPlatform) ([]Record, error) {
	devices, err := p.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInfoUnavailable, err)
	}

	records := make([]Record, 0, len(devices))

	for _, d := range devices {
		info, err := d.Info()
		if err != nil {
			logger.Warn(fmt.Sprintf("device: skipping device, %v: %v", ErrInfoUnavailable, err))
			continue
		}

		records = append(records, NewRecord(d, info))
	}

	return records, nil
}

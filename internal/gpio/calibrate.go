package gpio

import (
	"errors"
	"fmt"
	"time"
)

// CalibrateCenter averages n samples of an axis taken delay apart and returns
// the rest value. sleep is injected so tests don't wait.
func CalibrateCenter(r AxisReader, a Axis, n int, delay time.Duration, sleep func(time.Duration)) (int, error) {
	if n <= 0 {
		return 0, errors.New("calibration needs at least one sample")
	}
	sum := 0
	for i := 0; i < n; i++ {
		v, err := r.ReadAxis(a)
		if err != nil {
			return 0, fmt.Errorf("calibrate axis %s sample %d: %w", a, i, err)
		}
		sum += v
		if sleep != nil && delay > 0 {
			sleep(delay)
		}
	}
	return sum / n, nil
}

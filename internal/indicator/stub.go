//go:build !linux

package indicator

import "errors"

// RealSink is not available on non-Linux platforms.
type RealSink struct{}

// NewRealSink returns an error on non-Linux platforms.
func NewRealSink(pins Pins) (*RealSink, error) {
	return nil, errors.New("indicator: not supported on this platform (requires Linux)")
}

func (s *RealSink) SetHeater(active bool, intensity float64) error {
	return errors.New("indicator: not supported")
}

func (s *RealSink) SetCompletionLamp(on bool) error {
	return errors.New("indicator: not supported")
}

func (s *RealSink) SetAlarm(active bool) error {
	return errors.New("indicator: not supported")
}

func (s *RealSink) SetFlameAnimation(active bool, intensity float64, frame int) error {
	return errors.New("indicator: not supported")
}

func (s *RealSink) Close() error {
	return nil
}

// Package adc reads the analog joystick. An attached microcontroller samples
// both axes and streams one "x,y" line per sample over a serial port.
package adc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"go.bug.st/serial"

	"github.com/sweeney/mash-controller/internal/gpio"
)

const (
	// DefaultBaudRate matches the joystick firmware.
	DefaultBaudRate = 115200
	// MaxReading is the 12-bit ADC full scale.
	MaxReading = 4095
)

var (
	// ErrNoSample is returned until the first valid line arrives.
	ErrNoSample = errors.New("adc: no sample received yet")
	// ErrStreamClosed is returned once the sample stream has ended
	// without Close being called. The last sample is stale from then on.
	ErrStreamClosed = errors.New("adc: sample stream closed")
)

// Serial keeps the latest joystick sample read from a serial port.
// It implements gpio.AxisReader.
type Serial struct {
	port     string
	baudRate int

	mu     sync.RWMutex
	conn   serial.Port
	x, y   int
	have   bool
	err    error // sticky, set when the stream ends
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Serial for the named port. baudRate 0 means DefaultBaudRate.
func New(port string, baudRate int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Serial{
		port:     port,
		baudRate: baudRate,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Connect opens the port and starts reading samples in the background.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.port, err)
	}
	s.conn = port
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.consume(port)
	}()
	return nil
}

// ReadAxis returns the latest value of one axis.
func (s *Serial) ReadAxis(a gpio.Axis) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return 0, s.err
	}
	if !s.have {
		return 0, ErrNoSample
	}
	if a == gpio.AxisX {
		return s.x, nil
	}
	return s.y, nil
}

// Close stops the reader and closes the port.
func (s *Serial) Close() error {
	s.cancel()

	s.mu.Lock()
	conn, done := s.conn, s.done
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-done
	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}

// consume parses lines from r until EOF, a read error or Close. A stream
// that ends on its own leaves a sticky error for ReadAxis.
func (s *Serial) consume(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if s.ctx.Err() != nil {
			return
		}
		s.record(scanner.Text())
	}
	if s.ctx.Err() != nil {
		return
	}

	cause := scanner.Err()
	if cause == nil {
		cause = io.EOF
	}
	slog.Warn("adc: serial read stopped", "error", cause)
	s.mu.Lock()
	s.err = fmt.Errorf("%w: %w", ErrStreamClosed, cause)
	s.mu.Unlock()
}

// record stores the sample on one line. Blank and malformed lines are skipped.
func (s *Serial) record(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	x, y, err := parseLine(line)
	if err != nil {
		slog.Debug("adc: skipping line", "line", line, "error", err)
		return
	}
	s.mu.Lock()
	s.x, s.y, s.have = x, y, true
	s.mu.Unlock()
}

// parseLine parses "x,y" with both values in 0..MaxReading.
func parseLine(line string) (int, int, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid line format: expected 2 comma-separated values, got %d", len(parts))
	}
	x, err := parseReading(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x: %w", err)
	}
	y, err := parseReading(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y: %w", err)
	}
	return x, y, nil
}

func parseReading(s string) (int, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, err
	}
	if v > MaxReading {
		return 0, fmt.Errorf("reading out of range: %d (max %d)", v, MaxReading)
	}
	return int(v), nil
}

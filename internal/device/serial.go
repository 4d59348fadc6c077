package device

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/slactjohnson/pfts-overlap/internal/monitoring"
	"github.com/slactjohnson/pfts-overlap/internal/units"
)

// Porter defines the minimal interface needed for a serial connection.
// This abstraction enables unit testing without real serial hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// DefaultSerialMode returns the default mode for the stage controller and
// digitizer serial links.
func DefaultSerialMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// motionPollInterval is how often a blocking move re-queries the stage
// controller for motion-complete.
const motionPollInterval = 20 * time.Millisecond

// StagePort drives a delay-line positioner over an ASCII line protocol:
//
//	:GP?          query motor position, response ":P <seconds>"
//	:MPA <sec>    absolute move, response ":OK" or ":E <code>"
//	:MPR <sec>    relative move, same responses
//	:STA?         motion status, response ":S 0" when idle, ":S 1" while moving
//
// The controller works in raw motor travel time; StagePort converts to and
// from effective optical delay using the configured bounce count.
type StagePort struct {
	mu      sync.Mutex
	port    Porter
	rd      *bufio.Reader
	bounces int
}

// OpenStage opens the serial port at path and returns a stage driver.
func OpenStage(path string, bounces int) (*StagePort, error) {
	port, err := serial.Open(path, DefaultSerialMode())
	if err != nil {
		return nil, fmt.Errorf("failed to open stage port %s: %w", path, err)
	}
	return NewStagePort(port, bounces), nil
}

// NewStagePort wraps an already-open connection. Used directly by tests.
func NewStagePort(port Porter, bounces int) *StagePort {
	return &StagePort{
		port:    port,
		rd:      bufio.NewReader(port),
		bounces: bounces,
	}
}

// Close closes the underlying serial connection.
func (s *StagePort) Close() error {
	return s.port.Close()
}

// command sends one command line and returns the response line with the
// trailing newline trimmed. The mutex serialises command/response pairs; the
// protocol has no unsolicited traffic.
func (s *StagePort) command(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.port.Write([]byte(cmd + "\r\n")); err != nil {
		return "", fmt.Errorf("failed to write command %q: %w", cmd, err)
	}
	line, err := s.rd.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read response to %q: %w", cmd, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Position reads the current effective optical delay in seconds.
func (s *StagePort) Position() (float64, error) {
	resp, err := s.command(":GP?")
	if err != nil {
		return 0, err
	}
	value, ok := strings.CutPrefix(resp, ":P ")
	if !ok {
		return 0, fmt.Errorf("unexpected position response %q", resp)
	}
	motor, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid position value %q: %w", value, err)
	}
	return units.MotorToDelay(motor, s.bounces), nil
}

// Move commands an absolute move to the given optical delay.
func (s *StagePort) Move(delaySeconds float64, wait bool) error {
	motor := units.DelayToMotor(delaySeconds, s.bounces)
	if err := s.checkedCommand(fmt.Sprintf(":MPA %.15e", motor)); err != nil {
		return err
	}
	monitoring.Debugf("stage move to %s", units.FormatDelay(delaySeconds))
	if wait {
		return s.awaitIdle()
	}
	return nil
}

// MoveRelative commands a move by delta from the current position.
func (s *StagePort) MoveRelative(deltaSeconds float64, wait bool) error {
	motor := units.DelayToMotor(deltaSeconds, s.bounces)
	if err := s.checkedCommand(fmt.Sprintf(":MPR %.15e", motor)); err != nil {
		return err
	}
	monitoring.Debugf("stage move by %s", units.FormatDelay(deltaSeconds))
	if wait {
		return s.awaitIdle()
	}
	return nil
}

// checkedCommand sends a command that answers ":OK" on success.
func (s *StagePort) checkedCommand(cmd string) error {
	resp, err := s.command(cmd)
	if err != nil {
		return err
	}
	if resp != ":OK" {
		return fmt.Errorf("stage rejected %q: %s", cmd, resp)
	}
	return nil
}

// awaitIdle polls the motion status until the controller reports idle.
func (s *StagePort) awaitIdle() error {
	for {
		resp, err := s.command(":STA?")
		if err != nil {
			return err
		}
		switch resp {
		case ":S 0":
			return nil
		case ":S 1":
			time.Sleep(motionPollInterval)
		default:
			return fmt.Errorf("unexpected status response %q", resp)
		}
	}
}

// DigitizerPort reads waveform records from a multi-channel digitizer over an
// ASCII line protocol:
//
//	?W<n>    read channel n, response is one comma-separated line of samples
//	?L       query useful record length, response is one integer line
//
// DigitizerPort implements BufferGauge; Channel returns a WaveformSource view
// of one channel sharing the connection.
type DigitizerPort struct {
	mu   sync.Mutex
	port Porter
	rd   *bufio.Reader
}

// OpenDigitizer opens the serial port at path and returns a digitizer driver.
func OpenDigitizer(path string) (*DigitizerPort, error) {
	port, err := serial.Open(path, DefaultSerialMode())
	if err != nil {
		return nil, fmt.Errorf("failed to open digitizer port %s: %w", path, err)
	}
	return NewDigitizerPort(port), nil
}

// NewDigitizerPort wraps an already-open connection. Used directly by tests.
func NewDigitizerPort(port Porter) *DigitizerPort {
	return &DigitizerPort{
		port: port,
		rd:   bufio.NewReader(port),
	}
}

// Close closes the underlying serial connection.
func (d *DigitizerPort) Close() error {
	return d.port.Close()
}

func (d *DigitizerPort) command(cmd string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.port.Write([]byte(cmd + "\r\n")); err != nil {
		return "", fmt.Errorf("failed to write command %q: %w", cmd, err)
	}
	line, err := d.rd.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read response to %q: %w", cmd, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// UsefulLength queries how many leading samples of each record are valid.
func (d *DigitizerPort) UsefulLength() (int, error) {
	resp, err := d.command("?L")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return 0, fmt.Errorf("invalid length response %q: %w", resp, err)
	}
	return n, nil
}

// Channel returns a WaveformSource for digitizer channel n.
func (d *DigitizerPort) Channel(n int) WaveformSource {
	return &digitizerChannel{port: d, n: n}
}

type digitizerChannel struct {
	port *DigitizerPort
	n    int
}

func (c *digitizerChannel) Read() ([]float64, error) {
	resp, err := c.port.command(fmt.Sprintf("?W%d", c.n))
	if err != nil {
		return nil, err
	}
	samples, err := parseSampleLine(resp)
	if err != nil {
		return nil, fmt.Errorf("channel %d: %w", c.n, err)
	}
	return samples, nil
}

// parseSampleLine parses a comma-separated list of sample amplitudes.
func parseSampleLine(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sample '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

package device

import (
	"sync"
	"time"
)

// SimStage implements DelayStage in memory with configurable behaviour for
// testing. It provides fine-grained control over errors, latency, and call
// accounting.
type SimStage struct {
	mu sync.Mutex

	// position is the current delay in seconds
	position float64

	// PositionError is returned by Position calls if set
	PositionError error

	// MoveError is returned by Move and MoveRelative calls if set
	MoveError error

	// MoveLatency adds a delay to each blocking move
	MoveLatency time.Duration

	// PositionCalls records the number of Position calls
	PositionCalls int

	// MoveCalls records the number of Move and MoveRelative calls
	MoveCalls int
}

// NewSimStage creates a simulated stage parked at the given delay.
func NewSimStage(delaySeconds float64) *SimStage {
	return &SimStage{position: delaySeconds}
}

// Position returns the current simulated delay.
func (s *SimStage) Position() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PositionCalls++
	if s.PositionError != nil {
		return 0, s.PositionError
	}
	return s.position, nil
}

// Move commands an absolute move.
func (s *SimStage) Move(delaySeconds float64, wait bool) error {
	s.mu.Lock()
	if s.MoveError != nil {
		s.MoveCalls++
		err := s.MoveError
		s.mu.Unlock()
		return err
	}
	s.MoveCalls++
	s.position = delaySeconds
	latency := s.MoveLatency
	s.mu.Unlock()

	if wait && latency > 0 {
		time.Sleep(latency)
	}
	return nil
}

// MoveRelative commands a move by delta from the current position.
func (s *SimStage) MoveRelative(deltaSeconds float64, wait bool) error {
	s.mu.Lock()
	current := s.position
	s.mu.Unlock()
	return s.Move(current+deltaSeconds, wait)
}

// SimWaveform implements WaveformSource for testing. If Generate is set the
// returned samples are a function of the attached stage's position, which is
// how tests model signals that respond to delay motion. Otherwise the static
// Samples slice is returned.
type SimWaveform struct {
	mu sync.Mutex

	// Stage, when set with Generate, supplies the delay each read is
	// evaluated at
	Stage *SimStage

	// Generate produces the sample array for a given delay
	Generate func(delaySeconds float64) []float64

	// Samples is returned by Read when Generate is nil
	Samples []float64

	// ReadError is returned by Read calls if set
	ReadError error

	// ReadCalls records the number of Read calls
	ReadCalls int
}

// Read returns one waveform snapshot.
func (w *SimWaveform) Read() ([]float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ReadCalls++
	if w.ReadError != nil {
		return nil, w.ReadError
	}
	if w.Generate != nil {
		delay := 0.0
		if w.Stage != nil {
			delay, _ = w.Stage.Position()
		}
		return w.Generate(delay), nil
	}
	out := make([]float64, len(w.Samples))
	copy(out, w.Samples)
	return out, nil
}

// SimGauge implements BufferGauge with a fixed useful length.
type SimGauge struct {
	// Length is the reported useful length
	Length int

	// LengthError is returned by UsefulLength calls if set
	LengthError error

	// Calls records the number of UsefulLength calls
	Calls int
}

// UsefulLength reports the configured length.
func (g *SimGauge) UsefulLength() (int, error) {
	g.Calls++
	if g.LengthError != nil {
		return 0, g.LengthError
	}
	return g.Length, nil
}

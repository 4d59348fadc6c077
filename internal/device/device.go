// Package device defines the hardware collaborators consumed by the overlap
// core: the motorized delay stage and the digitizer waveform channels. The
// interfaces are deliberately small so the core can run against simulated
// devices in tests and against serial-attached hardware in production.
package device

// WaveformSource reads one snapshot of a digitizer sample array. The array has
// a fixed capacity; only a leading prefix of it carries valid data (see
// BufferGauge).
type WaveformSource interface {
	Read() ([]float64, error)
}

// BufferGauge reports how many leading samples of the digitizer arrays are
// currently valid.
type BufferGauge interface {
	UsefulLength() (int, error)
}

// DelayStage is a motorized optical delay line. Positions are expressed in
// seconds of effective optical delay; drivers apply any bounce-count scaling
// between motor travel and optical delay internally.
//
// When wait is true, Move and MoveRelative block until the stage confirms the
// motion is complete.
type DelayStage interface {
	Position() (float64, error)
	Move(delaySeconds float64, wait bool) error
	MoveRelative(deltaSeconds float64, wait bool) error
}

package experiment

import "fmt"

// Phase is a state of the Driver.
type Phase int

const (
	PhaseGenerating Phase = iota
	PhaseMeasuring
	PhasePruning
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseGenerating:
		return "generating"
	case PhaseMeasuring:
		return "measuring"
	case PhasePruning:
		return "pruning"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// StepError is a realization-fatal failure. Batch is the batch being
// measured or produced; Step is the in-batch removal index during
// Pruning and -1 otherwise.
type StepError struct {
	Seed  int64
	Phase Phase
	Batch int
	Step  int
	Err   error
}

func (e *StepError) Error() string {
	switch {
	case e.Phase == PhaseGenerating:
		return fmt.Sprintf("seed %d: %s: %v", e.Seed, e.Phase, e.Err)
	case e.Step >= 0:
		return fmt.Sprintf("seed %d: %s batch %d step %d: %v", e.Seed, e.Phase, e.Batch, e.Step, e.Err)
	default:
		return fmt.Sprintf("seed %d: %s batch %d: %v", e.Seed, e.Phase, e.Batch, e.Err)
	}
}

func (e *StepError) Unwrap() error { return e.Err }

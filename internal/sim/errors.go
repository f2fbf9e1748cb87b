package sim

import "errors"

var (
	// ErrInvalidScene wraps scene validation failures.
	ErrInvalidScene = errors.New("sim: invalid scene")

	// ErrInvalidOptions indicates a bad timestep or bound.
	ErrInvalidOptions = errors.New("sim: invalid options")

	// ErrBusy is returned by a Step that overlaps another.
	ErrBusy = errors.New("sim: engine is already stepping")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

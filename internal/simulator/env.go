package simulator

import (
	"errors"
	"io"
	"math"
)

var (
	// ErrEpisodeDone is returned by Step once the episode reached a terminal state.
	ErrEpisodeDone = errors.New("episode is terminal, call Reset")
	// ErrEmptySeries is returned when a simulator is built over no rows.
	ErrEmptySeries = errors.New("indicator series is empty")
	// ErrInvalidAction is returned for actions outside the action space.
	ErrInvalidAction = errors.New("invalid action")
)

// Observation is the indicator row at the current step followed by
// balance and shares held.
type Observation []float64

// Info carries auxiliary step data. The simulator always returns it empty.
type Info map[string]any

// StepResult is the outcome of one transition.
type StepResult struct {
	Observation Observation
	Reward      float64
	Terminal    bool
	Info        Info
}

// Box describes a continuous observation space.
type Box struct {
	Low   float64
	High  float64
	Shape []int
}

// Discrete describes a discrete action space of N choices.
type Discrete struct {
	N int
}

// Environment is the capability set an optimizer drives episodes through.
type Environment interface {
	Reset() Observation
	Step(action Action) (StepResult, error)
	Render(w io.Writer) error
	ObservationSpace() Box
	ActionSpace() Discrete
}

// Factory builds a fresh, independent environment.
type Factory func() (Environment, error)

func unboundedBox(n int) Box {
	return Box{Low: math.Inf(-1), High: math.Inf(1), Shape: []int{n}}
}

// Package policy holds the decision policies queried by the advisor and the
// trainers that fit them against a simulator.
package policy

import (
	"context"
	"errors"
	"fmt"
	"math"

	"swing_advisor/internal/simulator"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimension     = errors.New("observation dimension mismatch")
	ErrInvalidBudget = errors.New("training budget must be positive")
)

// Policy maps an observation to an action. Predict is deterministic.
type Policy interface {
	Predict(obs simulator.Observation) (simulator.Action, error)
}

// Trainer fits a policy by driving environments created by factory for at
// most totalSteps simulator steps.
type Trainer interface {
	Train(ctx context.Context, factory simulator.Factory, totalSteps int) (Policy, error)
}

// LinearPolicy standardises the observation and scores each action with a
// linear function. The highest score wins, ties go to Hold first and then
// to the lowest action.
type LinearPolicy struct {
	mean    []float64
	std     []float64
	weights *mat.Dense // NumActions x dim
	bias    []float64
}

var _ Policy = (*LinearPolicy)(nil)

// NewLinearPolicy builds a policy from feature statistics and a row-major
// NumActions x dim weight slice. Std entries that are not positive and finite count as 1.
func NewLinearPolicy(mean, std, weights, bias []float64) (*LinearPolicy, error) {
	dim := len(mean)
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty feature statistics", ErrDimension)
	}
	if len(std) != dim {
		return nil, fmt.Errorf("%w: %d means, %d deviations", ErrDimension, dim, len(std))
	}
	if len(weights) != simulator.NumActions*dim {
		return nil, fmt.Errorf("%w: %d weights for %d features", ErrDimension, len(weights), dim)
	}
	if len(bias) != simulator.NumActions {
		return nil, fmt.Errorf("%w: %d biases", ErrDimension, len(bias))
	}

	s := make([]float64, dim)
	for i, v := range std {
		if !(v > 0) || math.IsInf(v, 0) {
			v = 1
		}
		s[i] = v
	}
	return &LinearPolicy{
		mean:    append([]float64(nil), mean...),
		std:     s,
		weights: mat.NewDense(simulator.NumActions, dim, append([]float64(nil), weights...)),
		bias:    append([]float64(nil), bias...),
	}, nil
}

// Dim is the observation length the policy expects.
func (p *LinearPolicy) Dim() int { return len(p.mean) }

func (p *LinearPolicy) Predict(obs simulator.Observation) (simulator.Action, error) {
	if len(obs) != p.Dim() {
		return simulator.Hold, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(obs), p.Dim())
	}

	z := mat.NewVecDense(p.Dim(), nil)
	for i, v := range obs {
		z.SetVec(i, (v-p.mean[i])/p.std[i])
	}

	var scores mat.VecDense
	scores.MulVec(p.weights, z)
	scores.AddVec(&scores, mat.NewVecDense(simulator.NumActions, append([]float64(nil), p.bias...)))

	best := simulator.Hold
	for a := simulator.Sell; a < simulator.NumActions; a++ {
		if scores.AtVec(int(a)) > scores.AtVec(int(best)) {
			best = a
		}
	}
	return best, nil
}

// Params returns copies of the policy parameters.
func (p *LinearPolicy) Params() (mean, std, weights, bias []float64) {
	w := mat.DenseCopyOf(p.weights).RawMatrix().Data
	return append([]float64(nil), p.mean...),
		append([]float64(nil), p.std...),
		w,
		append([]float64(nil), p.bias...)
}

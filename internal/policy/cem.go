package policy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"swing_advisor/internal/simulator"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// CEMConfig tunes the cross-entropy method trainer.
type CEMConfig struct {
	Population int     `default:"16" validate:"gte=2"`
	EliteFrac  float64 `default:"0.25" validate:"gt=0,lte=1"`
	InitStd    float64 `default:"1" validate:"gt=0"`
	MinStd     float64 `default:"0.05" validate:"gte=0"`
	Seed       int64   `default:"42"`
}

func DefaultCEMConfig() CEMConfig {
	return CEMConfig{Population: 16, EliteFrac: 0.25, InitStd: 1, MinStd: 0.05, Seed: 42}
}

// TrainStats summarises a finished training run.
type TrainStats struct {
	Steps       int
	Episodes    int
	Generations int
	BestReturn  float64
}

// CEMTrainer searches linear policy weights with the cross-entropy method.
// Every episode is driven only through the environment interface. Runs with
// the same seed and environment are reproducible.
type CEMTrainer struct {
	cfg   CEMConfig
	log   zerolog.Logger
	stats TrainStats
}

var _ Trainer = (*CEMTrainer)(nil)

func NewCEMTrainer(cfg CEMConfig, log zerolog.Logger) *CEMTrainer {
	if cfg.Population < 2 {
		cfg.Population = 2
	}
	return &CEMTrainer{cfg: cfg, log: log.With().Str("component", "trainer").Logger()}
}

// Stats returns the statistics of the last Train call.
func (t *CEMTrainer) Stats() TrainStats { return t.stats }

type budget struct {
	left int
	used int
}

func (b *budget) take() bool {
	if b.left <= 0 {
		return false
	}
	b.left--
	b.used++
	return true
}

func (t *CEMTrainer) Train(ctx context.Context, factory simulator.Factory, totalSteps int) (Policy, error) {
	if totalSteps <= 0 {
		return nil, ErrInvalidBudget
	}
	env, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create environment: %w", err)
	}

	b := &budget{left: totalSteps}
	t.stats = TrainStats{}

	// A holding rollout yields the feature statistics and the baseline return.
	mean, std, baseline, err := t.featureStats(env, b)
	if err != nil {
		return nil, err
	}
	dim := len(mean)
	nParams := simulator.NumActions*dim + simulator.NumActions

	best, err := NewLinearPolicy(mean, std, make([]float64, simulator.NumActions*dim), make([]float64, simulator.NumActions))
	if err != nil {
		return nil, err
	}
	bestReturn := baseline
	t.stats.Episodes = 2

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	mu := make([]float64, nParams)
	sigma := make([]float64, nParams)
	for i := range sigma {
		sigma[i] = t.cfg.InitStd
	}

	nElite := int(float64(t.cfg.Population) * t.cfg.EliteFrac)
	if nElite < 2 {
		nElite = 2
	}

	type sample struct {
		theta []float64
		ret   float64
	}

	for b.left > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		samples := make([]sample, 0, t.cfg.Population)
		for i := 0; i < t.cfg.Population && b.left > 0; i++ {
			theta := make([]float64, nParams)
			for j := range theta {
				theta[j] = mu[j] + sigma[j]*rng.NormFloat64()
			}
			cand, err := fromTheta(mean, std, theta, dim)
			if err != nil {
				return nil, err
			}
			ret, complete, err := rollout(env, cand, b)
			if err != nil {
				return nil, err
			}
			t.stats.Episodes++
			samples = append(samples, sample{theta: theta, ret: ret})
			if complete && ret > bestReturn {
				bestReturn = ret
				best = cand
			}
		}
		t.stats.Generations++

		if len(samples) < nElite {
			break
		}
		sort.SliceStable(samples, func(i, j int) bool { return samples[i].ret > samples[j].ret })

		col := make([]float64, nElite)
		for j := 0; j < nParams; j++ {
			for k := 0; k < nElite; k++ {
				col[k] = samples[k].theta[j]
			}
			m, s := stat.MeanStdDev(col, nil)
			mu[j] = m
			sigma[j] = max(s, t.cfg.MinStd)
		}

		t.log.Debug().
			Int("generation", t.stats.Generations).
			Float64("elite_return", samples[0].ret).
			Float64("best_return", bestReturn).
			Int("steps_left", b.left).
			Msg("generation done")
	}

	t.stats.Steps = b.used
	t.stats.BestReturn = bestReturn
	t.log.Info().
		Int("steps", b.used).
		Int("episodes", t.stats.Episodes).
		Int("generations", t.stats.Generations).
		Float64("baseline_return", baseline).
		Float64("best_return", bestReturn).
		Msg("training finished")
	return best, nil
}

// featureStats plays a holding and an all-in rollout so both cash and
// position states are represented in the feature statistics. The holding
// return is the baseline every candidate has to beat.
func (t *CEMTrainer) featureStats(env simulator.Environment, b *budget) ([]float64, []float64, float64, error) {
	var rows [][]float64
	var baseline float64
	for i, action := range []simulator.Action{simulator.Hold, simulator.Buy} {
		obs := env.Reset()
		rows = append(rows, append([]float64(nil), obs...))
		total := 0.0
		for b.take() {
			res, err := env.Step(action)
			if errors.Is(err, simulator.ErrEpisodeDone) {
				break
			}
			if err != nil {
				return nil, nil, 0, err
			}
			total += res.Reward
			rows = append(rows, append([]float64(nil), res.Observation...))
			if res.Terminal {
				break
			}
		}
		if i == 0 {
			baseline = total
		}
	}

	dim := len(rows[0])
	mean := make([]float64, dim)
	std := make([]float64, dim)
	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean[j], std[j] = stat.MeanStdDev(col, nil)
	}
	return mean, std, baseline, nil
}

func fromTheta(mean, std, theta []float64, dim int) (*LinearPolicy, error) {
	nw := simulator.NumActions * dim
	return NewLinearPolicy(mean, std, theta[:nw], theta[nw:])
}

// rollout plays one episode from Reset and returns the undiscounted return.
// complete is false when the budget ran out before a terminal state.
func rollout(env simulator.Environment, p Policy, b *budget) (total float64, complete bool, err error) {
	obs := env.Reset()
	for b.take() {
		a, err := p.Predict(obs)
		if err != nil {
			return 0, false, err
		}
		res, err := env.Step(a)
		if errors.Is(err, simulator.ErrEpisodeDone) {
			return total, true, nil
		}
		if err != nil {
			return 0, false, err
		}
		total += res.Reward
		if res.Terminal {
			return total, true, nil
		}
		obs = res.Observation
	}
	return total, false, nil
}

// Evaluate plays one full episode with p and returns its return.
func Evaluate(env simulator.Environment, p Policy) (float64, error) {
	b := &budget{left: math.MaxInt}
	total, _, err := rollout(env, p, b)
	return total, err
}

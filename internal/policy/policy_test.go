package policy

import (
	"context"
	"testing"
	"time"

	"swing_advisor/internal/models"
	"swing_advisor/internal/simulator"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFromCloses(closes ...float64) *models.IndicatorSeries {
	rows := make([]models.IndicatorRow, len(closes))
	for i, c := range closes {
		rows[i] = models.IndicatorRow{Open: c, High: c, Low: c, Close: c, Volume: 1000, SMA10: c, SMA30: c, SMA50: c, RSI14: 50}
	}
	return &models.IndicatorSeries{Ticker: "TEST", Rows: rows}
}

func rising(n int) *models.IndicatorSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}
	return seriesFromCloses(closes...)
}

// countingEnv counts Step calls made through the interface.
type countingEnv struct {
	simulator.Environment
	steps *int
}

func (c countingEnv) Step(a simulator.Action) (simulator.StepResult, error) {
	*c.steps++
	return c.Environment.Step(a)
}

func countingFactory(series *models.IndicatorSeries, steps *int) simulator.Factory {
	return func() (simulator.Environment, error) {
		env, err := simulator.New(series, simulator.DefaultConfig())
		if err != nil {
			return nil, err
		}
		return countingEnv{Environment: env, steps: steps}, nil
	}
}

func TestLinearPolicy_ArgmaxAndHoldTieBreak(t *testing.T) {
	dim := 2
	zero, err := NewLinearPolicy([]float64{0, 0}, []float64{1, 1}, make([]float64, 3*dim), make([]float64, 3))
	require.NoError(t, err)

	a, err := zero.Predict(simulator.Observation{5, -5})
	require.NoError(t, err)
	assert.Equal(t, simulator.Hold, a, "all-equal scores fall back to Hold")

	// Buy scores feature 0, Sell scores feature 1.
	w := []float64{
		0, 1, // sell
		0, 0, // hold
		1, 0, // buy
	}
	p, err := NewLinearPolicy([]float64{0, 0}, []float64{1, 1}, w, []float64{0, 0, 0})
	require.NoError(t, err)

	a, _ = p.Predict(simulator.Observation{3, 1})
	assert.Equal(t, simulator.Buy, a)
	a, _ = p.Predict(simulator.Observation{1, 3})
	assert.Equal(t, simulator.Sell, a)
	a, _ = p.Predict(simulator.Observation{-1, -1})
	assert.Equal(t, simulator.Hold, a)
}

func TestLinearPolicy_Standardises(t *testing.T) {
	p, err := NewLinearPolicy([]float64{100}, []float64{10}, []float64{0, 0, 1}, []float64{0, 0, 0})
	require.NoError(t, err)

	a, _ := p.Predict(simulator.Observation{90})
	assert.Equal(t, simulator.Hold, a, "below mean scores negative for Buy")
	a, _ = p.Predict(simulator.Observation{110})
	assert.Equal(t, simulator.Buy, a)
}

func TestLinearPolicy_DimensionErrors(t *testing.T) {
	_, err := NewLinearPolicy(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrDimension)
	_, err = NewLinearPolicy([]float64{0}, []float64{1}, []float64{1}, []float64{0, 0, 0})
	assert.ErrorIs(t, err, ErrDimension)

	p, err := NewLinearPolicy([]float64{0}, []float64{0}, []float64{0, 0, 0}, []float64{0, 0, 0})
	require.NoError(t, err)
	_, err = p.Predict(simulator.Observation{1, 2})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestCEMTrainer_RespectsBudget(t *testing.T) {
	steps := 0
	trainer := NewCEMTrainer(DefaultCEMConfig(), zerolog.Nop())

	_, err := trainer.Train(context.Background(), countingFactory(rising(40), &steps), 500)

	require.NoError(t, err)
	assert.LessOrEqual(t, steps, 500)
	assert.Equal(t, steps, trainer.Stats().Steps)
	assert.Greater(t, trainer.Stats().Generations, 0)
}

func TestCEMTrainer_NeverWorseThanHolding(t *testing.T) {
	series := rising(40)
	trainer := NewCEMTrainer(DefaultCEMConfig(), zerolog.Nop())
	steps := 0

	p, err := trainer.Train(context.Background(), countingFactory(series, &steps), 3000)
	require.NoError(t, err)

	env, err := simulator.New(series, simulator.DefaultConfig())
	require.NoError(t, err)
	ret, err := Evaluate(env, p)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, ret, 0.0)
	assert.InDelta(t, trainer.Stats().BestReturn, ret, 1e-6)
	assert.Greater(t, ret, 0.0, "a steadily rising series rewards buying")
}

func TestCEMTrainer_SeedIsReproducible(t *testing.T) {
	series := rising(30)
	train := func() []float64 {
		steps := 0
		p, err := NewCEMTrainer(DefaultCEMConfig(), zerolog.Nop()).Train(context.Background(), countingFactory(series, &steps), 1000)
		require.NoError(t, err)
		_, _, w, _ := p.(*LinearPolicy).Params()
		return w
	}

	assert.Equal(t, train(), train())
}

func TestCEMTrainer_Errors(t *testing.T) {
	steps := 0
	trainer := NewCEMTrainer(DefaultCEMConfig(), zerolog.Nop())

	_, err := trainer.Train(context.Background(), countingFactory(rising(10), &steps), 0)
	assert.ErrorIs(t, err, ErrInvalidBudget)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = trainer.Train(ctx, countingFactory(rising(10), &steps), 1000)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = trainer.Train(context.Background(), countingFactory(&models.IndicatorSeries{}, &steps), 1000)
	assert.ErrorIs(t, err, simulator.ErrEmptySeries)
}

func TestCEMTrainer_SingleRowSeries(t *testing.T) {
	steps := 0
	p, err := NewCEMTrainer(DefaultCEMConfig(), zerolog.Nop()).Train(context.Background(), countingFactory(seriesFromCloses(10), &steps), 100)

	require.NoError(t, err)
	a, err := p.Predict(make(simulator.Observation, len(models.IndicatorColumns)+2))
	require.NoError(t, err)
	assert.True(t, a.Valid())
}

func TestArtifact_RoundTripPreservesDecisions(t *testing.T) {
	steps := 0
	trained, err := NewCEMTrainer(DefaultCEMConfig(), zerolog.Nop()).Train(context.Background(), countingFactory(rising(30), &steps), 800)
	require.NoError(t, err)
	lp := trained.(*LinearPolicy)

	art := NewArtifact(lp)
	art.Ticker = "TEST"
	art.TrainedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b, err := Encode(art)
	require.NoError(t, err)

	decoded, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "TEST", decoded.Ticker)
	assert.True(t, art.TrainedAt.Equal(decoded.TrainedAt))

	restored, err := decoded.Policy()
	require.NoError(t, err)

	env, err := simulator.New(rising(30), simulator.DefaultConfig())
	require.NoError(t, err)
	obs := env.Reset()
	for {
		want, _ := lp.Predict(obs)
		got, err := restored.Predict(obs)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		res, err := env.Step(want)
		require.NoError(t, err)
		if res.Terminal {
			break
		}
		obs = res.Observation
	}
}

func TestArtifact_Errors(t *testing.T) {
	_, err := Decode([]byte{0xc1})
	assert.Error(t, err)

	_, err = (&Artifact{Version: 99}).Policy()
	assert.ErrorIs(t, err, ErrArtifactVersion)
}

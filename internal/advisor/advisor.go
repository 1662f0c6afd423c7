// Package advisor turns a trained policy artifact and the latest market data
// into a single BUY, SELL or HOLD recommendation.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"swing_advisor/internal/market"
	"swing_advisor/internal/models"
	"swing_advisor/internal/policy"
	"swing_advisor/internal/simulator"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrModelNotFound    = errors.New("no trained model found, train it first")
	ErrInsufficientData = errors.New("could not fetch recent data")
)

// ModelLoader retrieves a stored artifact by ticker.
type ModelLoader interface {
	Load(ticker string) (*policy.Artifact, error)
	Path(ticker string) string
}

// Advisor only reads artifacts and market data; it never trains.
type Advisor struct {
	models ModelLoader
	source market.SeriesSource
	simCfg simulator.Config
	period string
	log    zerolog.Logger
}

func New(loader ModelLoader, source market.SeriesSource, simCfg simulator.Config, period string, log zerolog.Logger) *Advisor {
	return &Advisor{
		models: loader,
		source: source,
		simCfg: simCfg,
		period: period,
		log:    log.With().Str("component", "advisor").Logger(),
	}
}

// Advise produces a recommendation for ticker from its stored policy and
// the initial observation of a fresh simulator over the latest series.
func (a *Advisor) Advise(ctx context.Context, ticker string) (*models.Advice, error) {
	art, err := a.models.Load(ticker)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (expected at %s)", ErrModelNotFound, ticker, a.models.Path(ticker))
	}
	if err != nil {
		return nil, err
	}
	p, err := art.Policy()
	if err != nil {
		return nil, fmt.Errorf("load policy %s: %w", ticker, err)
	}

	series, err := a.source.Series(ctx, ticker, a.period)
	if err != nil || series.Len() == 0 {
		return nil, fmt.Errorf("%w for %s", ErrInsufficientData, ticker)
	}

	env, err := simulator.New(series, a.simCfg)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInsufficientData, ticker, err)
	}
	obs := env.Reset()

	action, err := p.Predict(obs)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", ticker, err)
	}

	advice := &models.Advice{
		Ticker:         ticker,
		Recommendation: Recommend(action),
		Price:          decimal.NewFromFloat(series.Last().Close),
		Rationale:      Rationale(action),
	}
	a.log.Info().
		Str("ticker", ticker).
		Str("action", action.String()).
		Str("price", advice.Price.StringFixed(2)).
		Msg("advice produced")
	return advice, nil
}

// Recommend maps Sell, Hold and Buy to their recommendation.
func Recommend(a simulator.Action) models.Recommendation {
	switch a {
	case simulator.Buy:
		return models.RecommendBuy
	case simulator.Sell:
		return models.RecommendSell
	default:
		return models.RecommendHold
	}
}

func Rationale(a simulator.Action) string {
	switch a {
	case simulator.Buy:
		return "The model detects a strong buy signal."
	case simulator.Sell:
		return "The model suggests exiting the position or taking profits."
	default:
		return "No clear signal. Patience is recommended."
	}
}

// Format renders advice as plain text for the CLI and the chat.
func Format(adv *models.Advice) string {
	return fmt.Sprintf("Advice for %s: %s\n  - %s\n  - Current price: %s",
		adv.Ticker, adv.Recommendation, adv.Rationale, adv.Price.StringFixed(2))
}

package yahoo

import (
	"context"
	"fmt"
	"sort"

	"swing_advisor/internal/market"
	"swing_advisor/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	yfmodels "github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// Provider fetches daily history from Yahoo Finance.
// Yahoo symbols cover futures (GC=F), indices (^GDAXI), EU listings and crypto pairs.
type Provider struct {
	log zerolog.Logger
}

var _ market.HistoryProvider = (*Provider)(nil)

func NewProvider(log zerolog.Logger) *Provider {
	return &Provider{log: log.With().Str("component", "yahoo").Logger()}
}

// History returns auto-adjusted daily bars for symbol over period, oldest first.
func (p *Provider) History(ctx context.Context, symbol string, period string) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	raw, err := t.History(yfmodels.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}

	bars := convert(raw)
	p.log.Debug().Str("symbol", symbol).Str("period", period).Int("bars", len(bars)).Msg("history fetched")
	return bars, nil
}

func convert(raw []yfmodels.Bar) []models.Bar {
	bars := make([]models.Bar, 0, len(raw))
	for _, b := range raw {
		if b.Close <= 0 {
			continue
		}
		bars = append(bars, models.Bar{
			Time:   b.Date,
			Open:   decimal.NewFromFloat(b.Open),
			High:   decimal.NewFromFloat(b.High),
			Low:    decimal.NewFromFloat(b.Low),
			Close:  decimal.NewFromFloat(b.Close),
			Volume: int64(b.Volume),
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars
}

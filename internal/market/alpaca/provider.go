package alpaca

import (
	"context"
	"fmt"
	"time"

	"swing_advisor/internal/market"
	"swing_advisor/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Provider serves daily bars for US equities from the Alpaca market data API.
type Provider struct {
	mdClient *marketdata.Client
	log      zerolog.Logger
	now      func() time.Time
}

// Ensure Provider implements the interface
var _ market.HistoryProvider = (*Provider)(nil)

// NewProvider returns a new Alpaca provider. Empty credentials fall back to
// the APCA_API_KEY_ID / APCA_API_SECRET_KEY environment variables.
func NewProvider(apiKey, apiSecret string, log zerolog.Logger) *Provider {
	return &Provider{
		mdClient: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		log: log.With().Str("component", "alpaca").Logger(),
		now: time.Now,
	}
}

func (p *Provider) History(ctx context.Context, ticker string, period string) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start, err := market.PeriodStart(period, p.now())
	if err != nil {
		return nil, err
	}

	bars, err := p.mdClient.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      start,
		Adjustment: marketdata.All,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", ticker, err)
	}

	result := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		result = append(result, models.Bar{
			Time:   b.Timestamp,
			Open:   decimal.NewFromFloat(b.Open),
			High:   decimal.NewFromFloat(b.High),
			Low:    decimal.NewFromFloat(b.Low),
			Close:  decimal.NewFromFloat(b.Close),
			Volume: int64(b.Volume),
		})
	}
	p.log.Debug().Str("ticker", ticker).Time("start", start).Int("bars", len(result)).Msg("bars fetched")
	return result, nil
}

package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"swing_advisor/internal/indicators"
	"swing_advisor/internal/models"

	"github.com/rs/zerolog"
)

// ErrDataUnavailable marks a series that is missing, empty or too short.
var ErrDataUnavailable = errors.New("data unavailable")

// HistoryProvider is an Interface.
// Any data source returning daily bars for a ticker satisfies it, which lets
// the scanner and the advisor run on Yahoo, Alpaca or a test fake.
type HistoryProvider interface {
	History(ctx context.Context, ticker string, period string) ([]models.Bar, error)
}

// SeriesSource delivers indicator-annotated series.
type SeriesSource interface {
	Series(ctx context.Context, ticker string, period string) (*models.IndicatorSeries, error)
}

// SeriesLoader fetches bars and enriches them with indicators.
type SeriesLoader struct {
	provider HistoryProvider
	log      zerolog.Logger
}

var _ SeriesSource = (*SeriesLoader)(nil)

// NewSeriesLoader wraps provider.
func NewSeriesLoader(provider HistoryProvider, log zerolog.Logger) *SeriesLoader {
	return &SeriesLoader{
		provider: provider,
		log:      log.With().Str("component", "series").Logger(),
	}
}

// Series returns the enriched series for ticker over period. Every failure
// is reported as ErrDataUnavailable.
func (l *SeriesLoader) Series(ctx context.Context, ticker string, period string) (*models.IndicatorSeries, error) {
	bars, err := l.provider.History(ctx, ticker, period)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, ticker, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: no bars returned", ErrDataUnavailable, ticker)
	}

	series, err := indicators.Enrich(ticker, bars)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, ticker, err)
	}
	l.log.Debug().Str("ticker", ticker).Int("bars", len(bars)).Int("rows", series.Len()).Msg("series loaded")
	return series, nil
}

// PeriodStart converts a period such as "2y", "6mo" or "90d" into the
// start time counted back from now. "max" returns the zero time.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(period))
	if p == "max" {
		return time.Time{}, nil
	}

	var unit string
	switch {
	case strings.HasSuffix(p, "mo"):
		unit = "mo"
	case strings.HasSuffix(p, "y"):
		unit = "y"
	case strings.HasSuffix(p, "d"):
		unit = "d"
	default:
		return time.Time{}, fmt.Errorf("invalid period %q", period)
	}

	n, err := strconv.Atoi(strings.TrimSuffix(p, unit))
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid period %q", period)
	}

	switch unit {
	case "mo":
		return now.AddDate(0, -n, 0), nil
	case "y":
		return now.AddDate(-n, 0, 0), nil
	default:
		return now.AddDate(0, 0, -n), nil
	}
}

// Package indicators enriches raw bars with the moving averages and RSI the
// scanner and the simulator read.
package indicators

import (
	"errors"
	"math"

	"swing_advisor/internal/models"

	"github.com/markcheno/go-talib"
)

const (
	SMAShort  = 10
	SMAMedium = 30
	SMALong   = 50
	RSIPeriod = 14
)

// ErrNotEnoughBars is returned when no row survives the indicator warm-up.
var ErrNotEnoughBars = errors.New("not enough bars to compute indicators")

// WarmUp is the number of leading bars without a full set of indicators.
func WarmUp() int {
	// talib SMA lookback is period-1, RSI lookback is period.
	return max(SMALong-1, RSIPeriod)
}

// Enrich computes SMA(10/30/50) and RSI(14) on closes and drops the
// warm-up rows, so every returned row is fully defined.
func Enrich(ticker string, bars []models.Bar) (*models.IndicatorSeries, error) {
	skip := WarmUp()
	if len(bars) <= skip {
		return nil, ErrNotEnoughBars
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close.InexactFloat64()
	}

	sma10 := talib.Sma(closes, SMAShort)
	sma30 := talib.Sma(closes, SMAMedium)
	sma50 := talib.Sma(closes, SMALong)
	rsi := talib.Rsi(closes, RSIPeriod)

	rows := make([]models.IndicatorRow, 0, len(bars)-skip)
	for i := skip; i < len(bars); i++ {
		row := models.IndicatorRow{
			Time:   bars[i].Time,
			Open:   bars[i].Open.InexactFloat64(),
			High:   bars[i].High.InexactFloat64(),
			Low:    bars[i].Low.InexactFloat64(),
			Close:  closes[i],
			Volume: float64(bars[i].Volume),
			SMA10:  sma10[i],
			SMA30:  sma30[i],
			SMA50:  sma50[i],
			RSI14:  rsi[i],
		}
		if !defined(row) {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNotEnoughBars
	}
	return &models.IndicatorSeries{Ticker: ticker, Rows: rows}, nil
}

func defined(r models.IndicatorRow) bool {
	for _, v := range r.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MeanVolume returns the mean of volumes over [from, to) counted from the
// end of the series, e.g. MeanVolume(s, -22, -2).
func MeanVolume(s *models.IndicatorSeries, from, to int) (float64, bool) {
	n := s.Len()
	start, end := n+from, n+to
	if start < 0 || end > n || start >= end {
		return 0, false
	}
	sum := 0.0
	for _, r := range s.Rows[start:end] {
		sum += r.Volume
	}
	return sum / float64(end-start), true
}

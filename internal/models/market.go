package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents a daily candlestick as delivered by a market data provider.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// IndicatorColumns names the values of IndicatorRow.Values, in order.
var IndicatorColumns = []string{"open", "high", "low", "close", "volume", "sma10", "sma30", "sma50", "rsi14"}

// IndicatorRow is one bar enriched with its technical indicators.
// Every field is defined: warm-up rows are never part of a series.
type IndicatorRow struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	SMA10  float64
	SMA30  float64
	SMA50  float64
	RSI14  float64
}

// Values returns the row in IndicatorColumns order.
func (r IndicatorRow) Values() []float64 {
	return []float64{r.Open, r.High, r.Low, r.Close, r.Volume, r.SMA10, r.SMA30, r.SMA50, r.RSI14}
}

// IndicatorSeries is the read-only, time ordered input of the scanner and the simulator.
type IndicatorSeries struct {
	Ticker string
	Rows   []IndicatorRow
}

// Len returns the number of rows.
func (s *IndicatorSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Last returns the most recent row. The series must not be empty.
func (s *IndicatorSeries) Last() IndicatorRow {
	return s.Rows[len(s.Rows)-1]
}

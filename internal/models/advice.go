package models

import "github.com/shopspring/decimal"

// Recommendation is the categorical output of the advisor.
type Recommendation string

const (
	RecommendBuy  Recommendation = "BUY"
	RecommendSell Recommendation = "SELL"
	RecommendHold Recommendation = "HOLD"
)

// Advice is a single recommendation for one asset.
type Advice struct {
	Ticker         string          `json:"ticker"`
	Recommendation Recommendation  `json:"recommendation"`
	Price          decimal.Decimal `json:"price"` // latest close
	Rationale      string          `json:"rationale"`
}

// CandidateScore pairs an asset with its momentum score (latest RSI).
type CandidateScore struct {
	Ticker string  `json:"ticker"`
	Score  float64 `json:"score"`
}

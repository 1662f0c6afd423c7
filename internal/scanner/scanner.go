// Package scanner screens a universe of assets for short-term bullish
// momentum and ranks the survivors by RSI.
package scanner

import (
	"context"
	"errors"
	"sort"
	"strings"

	"swing_advisor/internal/indicators"
	"swing_advisor/internal/market"
	"swing_advisor/internal/models"

	"github.com/rs/zerolog"
)

// Config holds the screen tunables.
type Config struct {
	Period           string  `default:"2y" validate:"required"`
	MinHistory       int     `default:"60" validate:"gte=1"`
	RSIOverbought    float64 `default:"70" validate:"gt=0,lte=100"`
	VolumeMultiplier float64 `default:"1.2" validate:"gt=0"`
	RecentWindow     int     `default:"2" validate:"gte=1"`
	BaselineWindow   int     `default:"20" validate:"gte=1"`
}

// DefaultConfig returns the standard momentum screen.
func DefaultConfig() Config {
	return Config{
		Period:           "2y",
		MinHistory:       60,
		RSIOverbought:    70,
		VolumeMultiplier: 1.2,
		RecentWindow:     2,
		BaselineWindow:   20,
	}
}

// SkipReason tells why an asset left the screen.
type SkipReason string

const (
	SkipUnavailable  SkipReason = "unavailable"
	SkipShortHistory SkipReason = "short_history"
	SkipNoSignal     SkipReason = "no_signal"
)

// Observer receives per-asset outcomes. Both methods may be no-ops.
type Observer interface {
	AssetSkipped(reason SkipReason)
	CandidateFound()
}

// Scanner is safe for concurrent use; it keeps no state between calls.
type Scanner struct {
	cfg      Config
	source   market.SeriesSource
	observer Observer
	log      zerolog.Logger
}

// New creates a scanner reading series from source. observer may be nil.
func New(cfg Config, source market.SeriesSource, observer Observer, log zerolog.Logger) *Scanner {
	return &Scanner{
		cfg:      cfg,
		source:   source,
		observer: observer,
		log:      log.With().Str("component", "scanner").Logger(),
	}
}

// Scan returns at most n identifiers from universe passing every momentum
// predicate, ordered by score descending. Assets that cannot be evaluated
// are skipped. An empty result is valid.
func (s *Scanner) Scan(ctx context.Context, universe []string, n int) []string {
	if n <= 0 {
		return []string{}
	}

	scores := s.Scores(ctx, universe)
	if len(scores) > n {
		scores = scores[:n]
	}

	out := make([]string, len(scores))
	for i, c := range scores {
		out[i] = c.Ticker
	}
	return out
}

// Scores evaluates every asset of universe and returns all qualifying
// candidates, sorted by score descending with ties in lexicographic order.
func (s *Scanner) Scores(ctx context.Context, universe []string) []models.CandidateScore {
	assets := Normalize(universe)
	s.log.Info().Int("assets", len(assets)).Msg("scan started")

	candidates := make([]models.CandidateScore, 0)
	for _, asset := range assets {
		if ctx.Err() != nil {
			s.log.Warn().Err(ctx.Err()).Msg("scan interrupted")
			break
		}

		score, ok := s.evaluate(ctx, asset)
		if !ok {
			continue
		}
		s.log.Info().Str("ticker", asset).Float64("score", score).Msg("candidate found")
		if s.observer != nil {
			s.observer.CandidateFound()
		}
		candidates = append(candidates, models.CandidateScore{Ticker: asset, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func (s *Scanner) evaluate(ctx context.Context, asset string) (float64, bool) {
	series, err := s.source.Series(ctx, asset, s.cfg.Period)
	if err != nil {
		if !errors.Is(err, market.ErrDataUnavailable) {
			s.log.Warn().Err(err).Str("ticker", asset).Msg("unexpected series error")
		}
		s.skip(asset, SkipUnavailable)
		return 0, false
	}
	if series.Len() < s.cfg.MinHistory {
		s.skip(asset, SkipShortHistory)
		return 0, false
	}

	if !s.qualifies(series) {
		s.skip(asset, SkipNoSignal)
		return 0, false
	}
	return series.Last().RSI14, true
}

// qualifies applies the four predicates to the latest row.
func (s *Scanner) qualifies(series *models.IndicatorSeries) bool {
	last := series.Last()

	uptrend := last.Close > last.SMA50
	momentum := last.SMA10 > last.SMA30
	notOverbought := last.RSI14 < s.cfg.RSIOverbought

	recent, ok := indicators.MeanVolume(series, -s.cfg.RecentWindow, 0)
	if !ok {
		return false
	}
	baseline, ok := indicators.MeanVolume(series, -(s.cfg.RecentWindow + s.cfg.BaselineWindow), -s.cfg.RecentWindow)
	if !ok {
		return false
	}
	volumeInterest := recent > baseline*s.cfg.VolumeMultiplier

	return uptrend && momentum && notOverbought && volumeInterest
}

func (s *Scanner) skip(asset string, reason SkipReason) {
	s.log.Debug().Str("ticker", asset).Str("reason", string(reason)).Msg("asset skipped")
	if s.observer != nil {
		s.observer.AssetSkipped(reason)
	}
}

// Normalize trims, drops blanks, de-duplicates and sorts identifiers.
func Normalize(universe []string) []string {
	seen := make(map[string]struct{}, len(universe))
	out := make([]string, 0, len(universe))
	for _, a := range universe {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swing_advisor/internal/advisor"
	"swing_advisor/internal/market"
	"swing_advisor/internal/models"
	"swing_advisor/internal/policy"
	"swing_advisor/internal/scanner"
	"swing_advisor/internal/simulator"
	"swing_advisor/internal/storage"

	"github.com/google/uuid"
)

// Scan screens the universe, keeps the top N and overwrites the candidates
// list, truncating it when nothing qualifies.
func (a *Assistant) Scan(ctx context.Context) (*ScanReport, error) {
	start := time.Now()
	defer func() { a.deps.Metrics.RecordLatency("scan", time.Since(start).Seconds()) }()

	universe := scanner.Normalize(a.opts.Universe)
	a.log.Info().Int("assets", len(universe)).Int("top_n", a.opts.TopN).Msg("scan started")

	candidates := a.deps.Scanner.Scan(ctx, universe, a.opts.TopN)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.deps.Metrics.RecordScan()

	if err := a.deps.Candidates.Save(candidates); err != nil {
		return nil, fmt.Errorf("save candidates: %w", err)
	}

	a.mu.Lock()
	a.lastScan = time.Now()
	a.mu.Unlock()

	a.log.Info().Strs("candidates", candidates).Dur("took", time.Since(start)).Msg("scan finished")
	return &ScanReport{
		Universe:   len(universe),
		TopN:       a.opts.TopN,
		Candidates: candidates,
		File:       a.deps.Candidates.Path(),
	}, nil
}

// Train fits and stores one policy per target. Targets are the whole
// universe when all is set, otherwise the saved candidates. Per-asset
// failures are reported and never stop the batch.
func (a *Assistant) Train(ctx context.Context, all bool) (*TrainReport, error) {
	start := time.Now()
	defer func() { a.deps.Metrics.RecordLatency("train", time.Since(start).Seconds()) }()

	var targets []string
	if all {
		targets = scanner.Normalize(a.opts.Universe)
	} else {
		loaded, err := a.deps.Candidates.Load()
		if err != nil {
			return nil, err
		}
		targets = loaded
	}

	runID := uuid.NewString()
	rep := &TrainReport{RunID: runID, All: all}
	for _, ticker := range targets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		res := a.trainOne(ctx, runID, ticker)
		a.deps.Metrics.RecordTraining(string(res.Status))
		rep.Results = append(rep.Results, res)
	}

	a.mu.Lock()
	a.lastTrain = time.Now()
	a.mu.Unlock()
	a.log.Info().Str("run_id", runID).Int("assets", len(targets)).Dur("took", time.Since(start)).Msg("training complete")
	return rep, nil
}

func (a *Assistant) trainOne(ctx context.Context, runID, ticker string) TrainResult {
	log := a.log.With().Str("ticker", ticker).Str("tag", storage.LogName(ticker)).Str("run_id", runID).Logger()

	series, err := a.deps.Source.Series(ctx, ticker, a.opts.TrainPeriod)
	if err != nil || series.Len() == 0 {
		log.Warn().Err(err).Msg("insufficient data, training skipped")
		return TrainResult{Ticker: ticker, Status: TrainSkipped, Err: err}
	}

	log.Info().Int("rows", series.Len()).Int("timesteps", a.opts.TrainTimesteps).Msg("training started")
	trainer := a.deps.NewTrainer()
	factory := simulator.NewFactory(series, a.opts.Simulator)
	trained, err := trainer.Train(ctx, factory, a.opts.TrainTimesteps)
	if err != nil {
		log.Error().Err(err).Msg("training failed")
		return TrainResult{Ticker: ticker, Status: TrainFailed, Err: err}
	}

	lp, ok := trained.(*policy.LinearPolicy)
	if !ok {
		err := fmt.Errorf("policy type %T cannot be stored", trained)
		log.Error().Err(err).Msg("training failed")
		return TrainResult{Ticker: ticker, Status: TrainFailed, Err: err}
	}

	env, err := factory()
	if err != nil {
		log.Error().Err(err).Msg("training failed")
		return TrainResult{Ticker: ticker, Status: TrainFailed, Err: err}
	}
	ret, err := policy.Evaluate(env, lp)
	if err != nil {
		log.Error().Err(err).Msg("evaluating trained policy failed")
		return TrainResult{Ticker: ticker, Status: TrainFailed, Err: err}
	}

	art := policy.NewArtifact(lp)
	art.Ticker = ticker
	art.RunID = runID
	art.TrainedAt = time.Now().UTC()
	art.Columns = append([]string(nil), models.IndicatorColumns...)
	art.Steps = a.opts.TrainTimesteps
	art.BestReturn = ret
	if st, ok := trainer.(interface{ Stats() policy.TrainStats }); ok {
		art.Steps = st.Stats().Steps
	}

	path, err := a.deps.Models.Save(ticker, art)
	if err != nil {
		log.Error().Err(err).Msg("saving model failed")
		return TrainResult{Ticker: ticker, Status: TrainFailed, Err: err}
	}
	log.Info().Str("path", path).Float64("episode_return", ret).Msg("model trained and saved")
	return TrainResult{Ticker: ticker, Status: TrainOK, Path: path, Return: ret}
}

// Advise returns one recommendation per target: asset when given,
// otherwise every saved candidate.
func (a *Assistant) Advise(ctx context.Context, asset string) (*AdviceReport, error) {
	start := time.Now()
	defer func() { a.deps.Metrics.RecordLatency("advise", time.Since(start).Seconds()) }()

	var targets []string
	if asset != "" {
		targets = []string{asset}
	} else {
		loaded, err := a.deps.Candidates.Load()
		if err != nil {
			return nil, err
		}
		targets = loaded
	}

	rep := &AdviceReport{Single: asset != ""}
	for _, ticker := range targets {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		adv, err := a.deps.Advisor.Advise(ctx, ticker)
		if err != nil {
			a.log.Warn().Err(err).Str("ticker", ticker).Msg("no advice")
			rep.Items = append(rep.Items, AdviceItem{Ticker: ticker, Err: err})
			continue
		}
		a.deps.Metrics.RecordAdvice(string(adv.Recommendation))
		rep.Items = append(rep.Items, AdviceItem{Ticker: ticker, Advice: adv})
	}
	return rep, nil
}

// FormatError turns the operation errors into user guidance.
func FormatError(err error) string {
	switch {
	case errors.Is(err, storage.ErrNoCandidates):
		return "No candidates found. Run scan first to build today's list."
	case errors.Is(err, advisor.ErrModelNotFound):
		return err.Error()
	case errors.Is(err, advisor.ErrInsufficientData), errors.Is(err, market.ErrDataUnavailable):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "Operation cancelled."
	default:
		return "Error: " + err.Error()
	}
}

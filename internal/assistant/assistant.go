// Package assistant implements the scan, train and advise operations shared
// by the CLI and the chat front end, and the chat command dispatcher.
package assistant

import (
	"context"
	"errors"
	"sync"
	"time"

	"swing_advisor/internal/market"
	"swing_advisor/internal/models"
	"swing_advisor/internal/policy"
	"swing_advisor/internal/scanner"
	"swing_advisor/internal/simulator"
	"swing_advisor/internal/storage"

	"github.com/rs/zerolog"
)

// ErrBusy is returned when a long job is requested while another one runs.
var ErrBusy = errors.New("another job is already running")

var startTime = time.Now()

// Scanner screens a universe for candidates.
type Scanner interface {
	Scan(ctx context.Context, universe []string, n int) []string
}

// Advisor produces one recommendation per asset.
type Advisor interface {
	Advise(ctx context.Context, ticker string) (*models.Advice, error)
}

// Notifier pushes the outcome of background jobs to the user.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Recorder receives operation metrics. The prometheus recorder satisfies it.
type Recorder interface {
	scanner.Observer
	RecordScan()
	RecordTraining(result string)
	RecordAdvice(recommendation string)
	RecordLatency(op string, seconds float64)
}

// Options are the tunables of the assistant operations.
type Options struct {
	Universe       []string
	TopN           int
	TrainPeriod    string
	TrainTimesteps int
	Simulator      simulator.Config
}

// Deps wires the assistant to its collaborators. Notifier and Metrics may be nil.
type Deps struct {
	Scanner    Scanner
	Source     market.SeriesSource
	Advisor    Advisor
	Candidates *storage.CandidateStore
	Models     *storage.ModelStore
	NewTrainer func() policy.Trainer
	Notifier   Notifier
	Metrics    Recorder
}

type CommandDoc struct {
	Name        string
	Description string
	Example     string
}

type Assistant struct {
	opts     Options
	deps     Deps
	log      zerolog.Logger
	commands []CommandDoc

	mu         sync.Mutex
	running    string
	jobStarted time.Time
	lastScan   time.Time
	lastTrain  time.Time
	wg         sync.WaitGroup
}

func New(opts Options, deps Deps, log zerolog.Logger) *Assistant {
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	return &Assistant{
		opts: opts,
		deps: deps,
		log:  log.With().Str("component", "assistant").Logger(),
		commands: []CommandDoc{
			{"/scan", "Scan the watchlist for the top momentum opportunities", "/scan"},
			{"/train", "Train models for today's candidates, or the whole watchlist", "/train [--all]"},
			{"/advise", "BUY/SELL/HOLD advice for today's candidates or one asset", "/advise [--asset X]"},
			{"/status", "Running job and last runs", "/status"},
			{"/ping", "Connectivity check", "/ping"},
			{"/help", "This list", "/help"},
		},
	}
}

// StartJob runs fn in the background unless another job is running. The
// text fn returns is sent through the notifier.
func (a *Assistant) StartJob(ctx context.Context, name string, fn func(ctx context.Context) string) error {
	a.mu.Lock()
	if a.running != "" {
		running := a.running
		a.mu.Unlock()
		a.log.Warn().Str("job", name).Str("running", running).Msg("job refused")
		return ErrBusy
	}
	a.running = name
	a.jobStarted = time.Now()
	a.mu.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			a.mu.Lock()
			a.running = ""
			a.mu.Unlock()
		}()

		text := fn(ctx)
		if ctx.Err() != nil {
			a.log.Warn().Str("job", name).Msg("job cancelled")
			return
		}
		a.notify(ctx, text)
	}()
	return nil
}

// SetNotifier replaces the notifier used by background jobs.
func (a *Assistant) SetNotifier(n Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deps.Notifier = n
}

// Running returns the name of the background job in progress, if any.
func (a *Assistant) Running() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Wait blocks until background jobs have returned.
func (a *Assistant) Wait() { a.wg.Wait() }

// StartScan launches a background scan. It is also the scheduler entry point.
func (a *Assistant) StartScan(ctx context.Context) error {
	return a.StartJob(ctx, "scan", func(ctx context.Context) string {
		rep, err := a.Scan(ctx)
		if err != nil {
			return "Scan failed: " + err.Error()
		}
		return rep.String()
	})
}

func (a *Assistant) StartTrain(ctx context.Context, all bool) error {
	return a.StartJob(ctx, "train", func(ctx context.Context) string {
		rep, err := a.Train(ctx, all)
		if err != nil {
			return FormatError(err)
		}
		return rep.String()
	})
}

func (a *Assistant) notify(ctx context.Context, text string) {
	a.mu.Lock()
	n := a.deps.Notifier
	a.mu.Unlock()
	if n == nil || text == "" {
		return
	}
	if err := n.Notify(ctx, text); err != nil {
		a.log.Error().Err(err).Msg("notification failed")
	}
}

type nopRecorder struct{}

func (nopRecorder) AssetSkipped(scanner.SkipReason) {}
func (nopRecorder) CandidateFound()                 {}
func (nopRecorder) RecordScan()                     {}
func (nopRecorder) RecordTraining(string)           {}
func (nopRecorder) RecordAdvice(string)             {}
func (nopRecorder) RecordLatency(string, float64)   {}

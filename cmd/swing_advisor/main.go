package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"swing_advisor/internal/advisor"
	"swing_advisor/internal/assistant"
	"swing_advisor/internal/config"
	"swing_advisor/internal/logger"
	"swing_advisor/internal/market"
	"swing_advisor/internal/market/alpaca"
	"swing_advisor/internal/market/yahoo"
	"swing_advisor/internal/metrics"
	"swing_advisor/internal/policy"
	"swing_advisor/internal/scanner"
	"swing_advisor/internal/scheduler"
	"swing_advisor/internal/simulator"
	"swing_advisor/internal/storage"
	"swing_advisor/internal/telegram"

	"github.com/rs/zerolog"
)

const VersionFile = "version.latest"

const usage = `Swing trading assistant.

Usage:
  swing_advisor scan                 scan the watchlist for today's top opportunities
  swing_advisor train [--all]        train models for today's candidates (or the whole watchlist)
  swing_advisor advise [--asset X]   BUY/SELL/HOLD advice for today's candidates (or one asset)
  swing_advisor bot                  run the Telegram bot
`

type command struct {
	name  string
	all   bool
	asset string
}

func parseArgs(args []string, stderr io.Writer) (command, error) {
	if len(args) == 0 {
		return command{}, errors.New("missing command")
	}

	cmd := command{name: args[0]}
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch cmd.name {
	case "scan", "bot":
	case "train":
		fs.BoolVar(&cmd.all, "all", false, "train every watchlist asset (long)")
	case "advise":
		fs.StringVar(&cmd.asset, "asset", "", "advise a single asset")
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return command{}, err
	}
	if fs.NArg() > 0 {
		return command{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	cmd.asset = strings.TrimSpace(cmd.asset)
	return cmd, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n\n%s", err, usage)
		return 2
	}

	// Load configuration first to get logger settings
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	log, closer := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Pretty:     true,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	defer closer.Close()

	if err := cfg.EnsureDirs(); err != nil {
		log.Error().Err(err).Msg("startup failed")
		return 1
	}

	// Create a context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := build(cfg, log)

	switch cmd.name {
	case "scan":
		fmt.Fprintln(stdout, "Running the momentum scan for today's opportunities...")
		rep, err := app.asst.Scan(ctx)
		return report(stdout, rep, err)
	case "train":
		if cmd.all {
			fmt.Fprintln(stdout, "Training ALL watchlist assets. This can take a long time...")
		} else {
			fmt.Fprintln(stdout, "Training today's candidates...")
		}
		rep, err := app.asst.Train(ctx, cmd.all)
		return report(stdout, rep, err)
	case "advise":
		rep, err := app.asst.Advise(ctx, cmd.asset)
		return report(stdout, rep, err)
	default:
		return runBot(ctx, cfg, app, log)
	}
}

// report prints an operation result. Guidance errors (no candidates, no
// model) are not failures.
func report(w io.Writer, rep fmt.Stringer, err error) int {
	if err != nil {
		fmt.Fprintln(w, assistant.FormatError(err))
		if errors.Is(err, storage.ErrNoCandidates) || errors.Is(err, advisor.ErrModelNotFound) {
			return 0
		}
		return 1
	}
	fmt.Fprintln(w, rep.String())
	return 0
}

type app struct {
	asst    *assistant.Assistant
	metrics *metrics.Recorder
}

func build(cfg *config.Config, log zerolog.Logger) *app {
	var provider market.HistoryProvider
	switch cfg.MarketProvider {
	case "alpaca":
		provider = alpaca.NewProvider(cfg.AlpacaKeyID, cfg.AlpacaSecret, log)
	default:
		provider = yahoo.NewProvider(log)
	}

	rec := metrics.New()
	source := market.NewSeriesLoader(provider, log)
	simCfg := simulator.Config{InitialBalance: cfg.InitialBalance, TransactionPenalty: cfg.TransactionPenalty}
	modelStore := storage.NewModelStore(cfg.ModelsDir)

	asst := assistant.New(assistant.Options{
		Universe:       cfg.Universe,
		TopN:           cfg.TopN,
		TrainPeriod:    cfg.TrainPeriod,
		TrainTimesteps: cfg.TrainTimesteps,
		Simulator:      simCfg,
	}, assistant.Deps{
		Scanner:    scanner.New(cfg.Scanner, source, rec, log),
		Source:     source,
		Advisor:    advisor.New(modelStore, source, simCfg, cfg.AdvisePeriod, log),
		Candidates: storage.NewCandidateStore(cfg.CandidatesFile),
		Models:     modelStore,
		NewTrainer: func() policy.Trainer { return policy.NewCEMTrainer(cfg.Trainer, log) },
		Metrics:    rec,
	}, log)

	return &app{asst: asst, metrics: rec}
}

func runBot(ctx context.Context, cfg *config.Config, a *app, log zerolog.Logger) int {
	if err := cfg.ValidateBot(); err != nil {
		log.Error().Err(err).Msg("bot startup failed")
		return 1
	}
	cfg.Print(log)

	client, err := telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID, log)
	if err != nil {
		log.Error().Err(err).Msg("bot startup failed")
		return 1
	}
	a.asst.SetNotifier(client)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(a.metrics), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	if cfg.ScanSchedule != "" {
		sched := scheduler.New(log)
		job := scheduler.NewFuncJob("daily_scan", func() error { return a.asst.StartScan(ctx) })
		if err := sched.AddJob(cfg.ScanSchedule, job); err != nil {
			log.Error().Err(&config.Error{Field: "SCAN_SCHEDULE", Reason: err.Error(), Err: err}).Msg("bot startup failed")
			return 1
		}
		sched.Start()
		defer sched.Stop()
	}

	log.Info().Str("version", readVersion()).Int("universe", len(cfg.Universe)).Msg("swing advisor bot initialized")
	if err := client.Notify(ctx, "Swing advisor online. Send /help for the command list."); err != nil {
		log.Warn().Err(err).Msg("startup notification failed")
	}

	err = client.Listen(ctx, a.asst.HandleCommand, time.Duration(cfg.PollTimeoutSec)*time.Second)
	log.Info().Msg("shutting down, waiting for running jobs")
	a.asst.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("listener stopped")
		return 1
	}
	return 0
}

func metricsMux(rec *metrics.Recorder) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

func readVersion() string {
	version, err := os.ReadFile(VersionFile)
	if err != nil {
		return "v0.0.0-dev"
	}
	return strings.TrimSpace(string(version))
}

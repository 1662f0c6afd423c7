package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"swing_advisor/internal/policy"
	"swing_advisor/internal/scanner"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config is the single structure holding every tunable. Core operations
// need no environment variables; the chat front end adds its credentials.
type Config struct {
	Universe       []string `validate:"min=1,dive,required"`
	UniverseFile   string
	TopN           int    `default:"5" validate:"gte=1"`
	CandidatesFile string `default:"daily_candidates.txt" validate:"required"`
	ModelsDir      string `default:"data/trained_models" validate:"required"`

	Scanner scanner.Config

	InitialBalance     float64 `default:"10000" validate:"gt=0"`
	TransactionPenalty float64 `default:"5" validate:"gte=0"`
	TrainPeriod        string  `default:"5y" validate:"required"`
	AdvisePeriod       string  `default:"2y" validate:"required"`
	TrainTimesteps     int     `default:"30000" validate:"gte=1"`
	Trainer            policy.CEMConfig

	MarketProvider string `default:"yahoo" validate:"oneof=yahoo alpaca"`
	AlpacaKeyID    string
	AlpacaSecret   string

	LogLevel      string `default:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	LogFile       string `default:"swing_advisor.log"`
	LogMaxSizeMB  int64  `default:"10" validate:"gte=1"`
	LogMaxBackups int    `default:"3" validate:"gte=0"`

	TelegramToken  string
	TelegramChatID string
	PollTimeoutSec int `default:"30" validate:"gte=1,lte=60"`
	ScanSchedule   string
	MetricsAddr    string
}

// Error is the ConfigurationError class: malformed universe, invalid
// tunables or missing required paths. It is fatal at startup.
type Error struct {
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// secretVars are masked whenever configuration is printed.
var secretVars = map[string]bool{
	"APCA_API_KEY_ID":     true,
	"APCA_API_SECRET_KEY": true,
	"TELEGRAM_BOT_TOKEN":  true,
	"TELEGRAM_CHAT_ID":    true,
}

var validate = validator.New()

// Load initializes the configuration.
// It reads an optional .env file, applies defaults, overrides them from the
// environment and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, using system environment variables")
	}
	return FromEnv()
}

// FromEnv builds the configuration from defaults and the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, &Error{Reason: "apply defaults", Err: err}
	}

	cfg.TopN = getEnvAsInt("TOP_N", cfg.TopN)
	cfg.CandidatesFile = getEnvAsString("CANDIDATES_FILE", cfg.CandidatesFile)
	cfg.ModelsDir = getEnvAsString("MODELS_DIR", cfg.ModelsDir)

	cfg.Scanner.Period = getEnvAsString("SCAN_PERIOD", cfg.Scanner.Period)
	cfg.Scanner.MinHistory = getEnvAsInt("SCAN_MIN_HISTORY", cfg.Scanner.MinHistory)
	cfg.Scanner.RSIOverbought = getEnvAsFloat64("SCAN_RSI_OVERBOUGHT", cfg.Scanner.RSIOverbought)
	cfg.Scanner.VolumeMultiplier = getEnvAsFloat64("SCAN_VOLUME_MULTIPLIER", cfg.Scanner.VolumeMultiplier)

	cfg.InitialBalance = getEnvAsFloat64("INITIAL_BALANCE", cfg.InitialBalance)
	cfg.TransactionPenalty = getEnvAsFloat64("TRANSACTION_PENALTY", cfg.TransactionPenalty)
	cfg.TrainPeriod = getEnvAsString("TRAIN_PERIOD", cfg.TrainPeriod)
	cfg.AdvisePeriod = getEnvAsString("ADVISE_PERIOD", cfg.AdvisePeriod)
	cfg.TrainTimesteps = getEnvAsInt("TRAIN_TIMESTEPS", cfg.TrainTimesteps)
	cfg.Trainer.Seed = getEnvAsInt64("TRAIN_SEED", cfg.Trainer.Seed)

	cfg.MarketProvider = strings.ToLower(getEnvAsString("MARKET_PROVIDER", cfg.MarketProvider))
	cfg.AlpacaKeyID = os.Getenv("APCA_API_KEY_ID")
	cfg.AlpacaSecret = os.Getenv("APCA_API_SECRET_KEY")

	cfg.LogLevel = strings.ToUpper(getEnvAsString("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFile = getEnvAsString("LOG_FILE", cfg.LogFile)
	cfg.LogMaxSizeMB = getEnvAsInt64("LOG_MAX_SIZE_MB", cfg.LogMaxSizeMB)
	cfg.LogMaxBackups = getEnvAsInt("LOG_MAX_BACKUPS", cfg.LogMaxBackups)

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.PollTimeoutSec = getEnvAsInt("TELEGRAM_POLL_TIMEOUT", cfg.PollTimeoutSec)
	cfg.ScanSchedule = os.Getenv("SCAN_SCHEDULE")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	universe, err := resolveUniverse(os.Getenv("UNIVERSE_FILE"), os.Getenv("UNIVERSE"))
	if err != nil {
		return nil, err
	}
	cfg.Universe = universe
	cfg.UniverseFile = os.Getenv("UNIVERSE_FILE")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every tunable and reports the first violation as *Error.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &Error{
				Field:  fe.Namespace(),
				Reason: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
				Err:    err,
			}
		}
		return &Error{Reason: err.Error(), Err: err}
	}
	return nil
}

// ValidateBot checks the settings only the chat front end needs.
func (c *Config) ValidateBot() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.TelegramChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return &Error{Field: "telegram", Reason: fmt.Sprintf("missing required environment variables: %v", missing)}
	}
	return nil
}

// EnsureDirs creates the models directory. Failing to do so is a
// configuration error.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.ModelsDir, 0o755); err != nil {
		return &Error{Field: "ModelsDir", Reason: err.Error(), Err: err}
	}
	return nil
}

// universeFile is the YAML layout of UNIVERSE_FILE.
type universeFile struct {
	Assets []string `yaml:"assets"`
}

func resolveUniverse(file, list string) ([]string, error) {
	switch {
	case file != "":
		return LoadUniverseFile(file)
	case strings.TrimSpace(list) != "":
		var out []string
		for _, a := range strings.Split(list, ",") {
			if a = strings.TrimSpace(a); a != "" {
				out = append(out, a)
			}
		}
		if len(out) == 0 {
			return nil, &Error{Field: "UNIVERSE", Reason: "no asset identifiers"}
		}
		return out, nil
	default:
		return DefaultUniverse(), nil
	}
}

// LoadUniverseFile reads a YAML document with an "assets" list.
func LoadUniverseFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Field: "UNIVERSE_FILE", Reason: err.Error(), Err: err}
	}
	var uf universeFile
	if err := yaml.Unmarshal(b, &uf); err != nil {
		return nil, &Error{Field: "UNIVERSE_FILE", Reason: "malformed universe: " + err.Error(), Err: err}
	}
	var out []string
	for _, a := range uf.Assets {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return nil, &Error{Field: "UNIVERSE_FILE", Reason: "malformed universe: no assets listed"}
	}
	return out, nil
}

// Print logs the effective environment with secrets masked.
func (c *Config) Print(l zerolog.Logger) {
	vars := map[string]string{
		"APCA_API_KEY_ID":     c.AlpacaKeyID,
		"APCA_API_SECRET_KEY": c.AlpacaSecret,
		"TELEGRAM_BOT_TOKEN":  c.TelegramToken,
		"TELEGRAM_CHAT_ID":    c.TelegramChatID,
		"MARKET_PROVIDER":     c.MarketProvider,
		"MODELS_DIR":          c.ModelsDir,
		"CANDIDATES_FILE":     c.CandidatesFile,
		"SCAN_SCHEDULE":       c.ScanSchedule,
		"METRICS_ADDR":        c.MetricsAddr,
	}
	ev := l.Info().Int("universe", len(c.Universe)).Int("timesteps", c.TrainTimesteps)
	for key, val := range vars {
		if val == "" {
			continue
		}
		if secretVars[key] {
			val = Mask(val)
		}
		ev = ev.Str(key, val)
	}
	ev.Msg("configuration loaded")
}

// Mask shows only the last 4 characters of a secret.
func Mask(val string) string {
	if len(val) > 4 {
		return "***" + val[len(val)-4:]
	}
	return "***"
}

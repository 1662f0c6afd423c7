package simulator

import (
	"fmt"
	"io"

	"swing_advisor/internal/models"
)

// Config holds the simulator tunables.
type Config struct {
	InitialBalance     float64
	TransactionPenalty float64
}

// DefaultConfig returns the reference tunables.
func DefaultConfig() Config {
	return Config{
		InitialBalance:     10000,
		TransactionPenalty: 5,
	}
}

// PortfolioState is owned by one simulator and only changes through Reset and Step.
type PortfolioState struct {
	Balance    float64
	SharesHeld float64
	NetWorth   float64
	Step       int
}

// Simulator replays one indicator series as a single-asset trading episode.
type Simulator struct {
	cfg    Config
	rows   []models.IndicatorRow
	state  PortfolioState
	done   bool
	obsLen int
}

var _ Environment = (*Simulator)(nil)

// New builds a simulator over series and resets it.
func New(series *models.IndicatorSeries, cfg Config) (*Simulator, error) {
	if series.Len() == 0 {
		return nil, ErrEmptySeries
	}
	s := &Simulator{
		cfg:    cfg,
		rows:   series.Rows,
		obsLen: len(models.IndicatorColumns) + 2,
	}
	s.Reset()
	return s, nil
}

// NewFactory returns a Factory producing independent simulators over the same series.
func NewFactory(series *models.IndicatorSeries, cfg Config) Factory {
	return func() (Environment, error) {
		return New(series, cfg)
	}
}

// Reset starts a new episode and returns the initial observation.
func (s *Simulator) Reset() Observation {
	s.state = PortfolioState{
		Balance:    s.cfg.InitialBalance,
		SharesHeld: 0,
		NetWorth:   s.cfg.InitialBalance,
		Step:       0,
	}
	s.done = s.terminal()
	return s.observation()
}

// Step applies action at the next row. The call that reaches the last row
// returns before the action is applied, with reward equal to the carried
// net-worth delta.
func (s *Simulator) Step(action Action) (StepResult, error) {
	if !action.Valid() {
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
	}
	if s.done {
		return StepResult{}, ErrEpisodeDone
	}

	prevNetWorth := s.state.NetWorth
	s.state.Step++

	if s.terminal() {
		s.done = true
		return StepResult{
			Observation: s.observation(),
			Reward:      s.state.NetWorth - prevNetWorth,
			Terminal:    true,
			Info:        Info{},
		}, nil
	}

	price := s.rows[s.state.Step].Close
	traded := false
	switch action {
	case Sell:
		if s.state.SharesHeld > 0 {
			s.state.Balance += s.state.SharesHeld * price
			s.state.SharesHeld = 0
			traded = true
		}
	case Buy:
		if s.state.Balance > price {
			s.state.SharesHeld += s.state.Balance / price
			s.state.Balance = 0
			traded = true
		}
	}

	s.state.NetWorth = s.state.Balance + s.state.SharesHeld*price

	reward := s.state.NetWorth - prevNetWorth
	if traded {
		reward -= s.cfg.TransactionPenalty
	}

	return StepResult{
		Observation: s.observation(),
		Reward:      reward,
		Terminal:    false,
		Info:        Info{},
	}, nil
}

// Render writes a human readable snapshot of the portfolio.
func (s *Simulator) Render(w io.Writer) error {
	profit := s.state.NetWorth - s.cfg.InitialBalance
	_, err := fmt.Fprintf(w, "Step: %d\nBalance: %.2f\nShares held: %.4f\nNet Worth: %.2f (Profit: %.2f)\n",
		s.state.Step, s.state.Balance, s.state.SharesHeld, s.state.NetWorth, profit)
	return err
}

// ObservationSpace describes the observation vector.
func (s *Simulator) ObservationSpace() Box {
	return unboundedBox(s.obsLen)
}

// ActionSpace describes the three discrete actions.
func (s *Simulator) ActionSpace() Discrete {
	return Discrete{N: NumActions}
}

// State returns a copy of the portfolio state.
func (s *Simulator) State() PortfolioState {
	return s.state
}

// Done reports whether the episode is terminal.
func (s *Simulator) Done() bool {
	return s.done
}

// Price returns the close at the current step.
func (s *Simulator) Price() float64 {
	return s.rows[s.state.Step].Close
}

func (s *Simulator) lastIndex() int {
	return len(s.rows) - 1
}

func (s *Simulator) terminal() bool {
	return s.state.NetWorth <= 0 || s.state.Step >= s.lastIndex()
}

func (s *Simulator) observation() Observation {
	obs := make(Observation, 0, s.obsLen)
	obs = append(obs, s.rows[s.state.Step].Values()...)
	return append(obs, s.state.Balance, s.state.SharesHeld)
}

package policy

import (
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ArtifactVersion is bumped whenever the encoded layout changes.
const ArtifactVersion = 1

// Extension is the file extension of encoded artifacts.
const Extension = ".msgpack"

var ErrArtifactVersion = errors.New("unsupported artifact version")

// Artifact is the persisted form of a trained LinearPolicy.
type Artifact struct {
	Version    int       `msgpack:"version"`
	Ticker     string    `msgpack:"ticker"`
	RunID      string    `msgpack:"run_id"`
	TrainedAt  time.Time `msgpack:"trained_at"`
	Steps      int       `msgpack:"steps"`
	BestReturn float64   `msgpack:"best_return"`
	Columns    []string  `msgpack:"columns"`
	Mean       []float64 `msgpack:"mean"`
	Std        []float64 `msgpack:"std"`
	Weights    []float64 `msgpack:"weights"`
	Bias       []float64 `msgpack:"bias"`
}

// NewArtifact captures p's parameters. Metadata fields are left to the caller.
func NewArtifact(p *LinearPolicy) *Artifact {
	mean, std, weights, bias := p.Params()
	return &Artifact{
		Version: ArtifactVersion,
		Mean:    mean,
		Std:     std,
		Weights: weights,
		Bias:    bias,
	}
}

// Policy rebuilds the policy stored in a.
func (a *Artifact) Policy() (*LinearPolicy, error) {
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("%w: %d", ErrArtifactVersion, a.Version)
	}
	return NewLinearPolicy(a.Mean, a.Std, a.Weights, a.Bias)
}

func Encode(a *Artifact) ([]byte, error) {
	b, err := msgpack.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return b, nil
}

func Decode(b []byte) (*Artifact, error) {
	var a Artifact
	if err := msgpack.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}

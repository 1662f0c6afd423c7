package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"swing_advisor/internal/policy"
)

// ErrModelMissing wraps os.ErrNotExist for absent artifacts.
var ErrModelMissing = fmt.Errorf("model artifact missing: %w", os.ErrNotExist)

// Sanitize strips '=' and '^' so futures and index symbols make valid file names.
func Sanitize(ticker string) string {
	return strings.NewReplacer("=", "", "^", "").Replace(ticker)
}

// LogName is the per-asset training log tag, e.g. ppo_SAP_DE for SAP.DE.
func LogName(ticker string) string {
	name := strings.NewReplacer(".DE", "_DE", ".PA", "_PA", "-USD", "_USD").Replace(Sanitize(ticker))
	return "ppo_" + name
}

// ModelPath is {dir}/{sanitized}_model.msgpack.
func ModelPath(dir, ticker string) string {
	return filepath.Join(dir, Sanitize(ticker)+"_model"+policy.Extension)
}

// ModelStore reads and writes policy artifacts under one directory.
type ModelStore struct {
	dir string
}

func NewModelStore(dir string) *ModelStore {
	return &ModelStore{dir: dir}
}

func (s *ModelStore) Dir() string { return s.dir }

func (s *ModelStore) Path(ticker string) string { return ModelPath(s.dir, ticker) }

// Save encodes a and writes it atomically, returning the artifact path.
func (s *ModelStore) Save(ticker string, a *policy.Artifact) (string, error) {
	b, err := policy.Encode(a)
	if err != nil {
		return "", err
	}
	path := s.Path(ticker)
	if err := writeFileAtomic(path, b); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the artifact of ticker. A missing file yields ErrModelMissing.
func (s *ModelStore) Load(ticker string) (*policy.Artifact, error) {
	path := s.Path(ticker)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	return policy.Decode(b)
}

func (s *ModelStore) Exists(ticker string) bool {
	_, err := os.Stat(s.Path(ticker))
	return err == nil
}

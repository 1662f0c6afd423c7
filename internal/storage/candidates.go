package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoCandidates is returned when the candidates list is missing or empty.
var ErrNoCandidates = errors.New("no candidates found, run scan first")

// CandidateStore keeps the latest scan result as plain text, one identifier per line.
type CandidateStore struct {
	path string
}

func NewCandidateStore(path string) *CandidateStore {
	return &CandidateStore{path: path}
}

func (s *CandidateStore) Path() string { return s.path }

// Save replaces the whole list. An empty list truncates the file.
func (s *CandidateStore) Save(tickers []string) error {
	var b strings.Builder
	for _, t := range tickers {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	return writeFileAtomic(s.path, []byte(b.String()))
}

// Load returns the saved identifiers, ignoring blank lines.
func (s *CandidateStore) Load() ([]string, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found", ErrNoCandidates, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}

	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoCandidates, s.path)
	}
	return out, nil
}

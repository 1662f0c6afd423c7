package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"swing_advisor/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily_candidates.txt")
	store := NewCandidateStore(path)

	if err := store.Save([]string{"NVDA", "GC=F", "^GDAXI"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(b) != "NVDA\nGC=F\n^GDAXI\n" {
		t.Errorf("unexpected file content %q", string(b))
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assert.Equal(t, []string{"NVDA", "GC=F", "^GDAXI"}, got)

	// No temp file left behind
	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files should not exist after save: %v", leftovers)
	}
}

func TestCandidateStore_ConcurrentSaves(t *testing.T) {
	dir := t.TempDir()
	store := NewCandidateStore(filepath.Join(dir, "daily_candidates.txt"))
	lists := [][]string{{"AAPL", "MSFT"}, {"GC=F"}, {"NVDA", "TSLA", "AMD"}, {"BTC-USD"}}

	var wg sync.WaitGroup
	errs := make(chan error, len(lists)*10)
	for i := 0; i < 10; i++ {
		for _, l := range lists {
			wg.Add(1)
			go func(l []string) {
				defer wg.Done()
				errs <- store.Save(l)
			}(l)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// The file holds exactly one of the written lists, never a mix.
	got, err := store.Load()
	require.NoError(t, err)
	assert.Contains(t, lists, got)

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	assert.Empty(t, leftovers)
}

func TestCandidateStore_IgnoresBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.txt")
	require.NoError(t, os.WriteFile(path, []byte("\nAAPL\n\n  \nMSFT\n"), 0o644))

	got, err := NewCandidateStore(path).Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)
}

func TestCandidateStore_EmptyAndMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := NewCandidateStore(filepath.Join(dir, "missing.txt")).Load()
	assert.ErrorIs(t, err, ErrNoCandidates)

	store := NewCandidateStore(filepath.Join(dir, "c.txt"))
	require.NoError(t, store.Save([]string{"AAPL"}))
	require.NoError(t, store.Save(nil))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "empty scan truncates the list")

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"GC=F":    "GCF",
		"^GDAXI":  "GDAXI",
		"AAPL":    "AAPL",
		"BTC-USD": "BTC-USD",
		"SAP.DE":  "SAP.DE",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), in)
	}
}

func TestLogName(t *testing.T) {
	assert.Equal(t, "ppo_SAP_DE", LogName("SAP.DE"))
	assert.Equal(t, "ppo_MC_PA", LogName("MC.PA"))
	assert.Equal(t, "ppo_BTC_USD", LogName("BTC-USD"))
	assert.Equal(t, "ppo_GCF", LogName("GC=F"))
	assert.Equal(t, "ppo_ASML.AS", LogName("ASML.AS"))
}

func TestModelPath(t *testing.T) {
	assert.Equal(t, filepath.Join("models", "GDAXI_model.msgpack"), ModelPath("models", "^GDAXI"))
	assert.Equal(t, filepath.Join("models", "SIF_model.msgpack"), ModelPath("models", "SI=F"))
}

func TestModelStore_SaveLoad(t *testing.T) {
	store := NewModelStore(filepath.Join(t.TempDir(), "trained_models"))
	lp, err := policy.NewLinearPolicy([]float64{1, 2}, []float64{1, 1}, []float64{1, 0, 0, 1, 1, 1}, []float64{0, 1, 0})
	require.NoError(t, err)

	assert.False(t, store.Exists("GC=F"))

	art := policy.NewArtifact(lp)
	art.Ticker = "GC=F"
	path, err := store.Save("GC=F", art)
	require.NoError(t, err)
	assert.Equal(t, store.Path("GC=F"), path)
	assert.True(t, store.Exists("GC=F"))

	loaded, err := store.Load("GC=F")
	require.NoError(t, err)
	assert.Equal(t, "GC=F", loaded.Ticker)
	assert.Equal(t, art.Weights, loaded.Weights)
}

func TestModelStore_LoadMissing(t *testing.T) {
	_, err := NewModelStore(t.TempDir()).Load("AAPL")

	assert.ErrorIs(t, err, ErrModelMissing)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

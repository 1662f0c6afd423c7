package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())

	err := s.AddJob("every tuesday", NewFuncJob("scan", func() error { return nil }))

	assert.Error(t, err)
	assert.Zero(t, s.Entries())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := New(zerolog.Nop())
	var runs atomic.Int32
	ran := make(chan struct{}, 4)

	require.NoError(t, s.AddJob("@every 1s", NewFuncJob("scan", func() error {
		runs.Add(1)
		ran <- struct{}{}
		return errors.New("busy")
	})))
	assert.Equal(t, 1, s.Entries())

	s.Start()
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
	s.Stop()

	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestFuncJob(t *testing.T) {
	j := NewFuncJob("daily_scan", func() error { return nil })
	assert.Equal(t, "daily_scan", j.Name())
	assert.NoError(t, j.Run())
}

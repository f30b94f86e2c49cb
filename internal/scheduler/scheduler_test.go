package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kahakai/mentionmap/internal/observability"
)

func TestSchedule_InvalidExpression(t *testing.T) {
	s := New(observability.NewTestLogger())

	err := s.Schedule(context.Background(), "not a cron expression", func(context.Context) {})
	require.Error(t, err)
}

func TestSchedule_ValidExpression(t *testing.T) {
	s := New(observability.NewTestLogger())

	err := s.Schedule(context.Background(), "*/5 * * * *", func(context.Context) {})
	require.NoError(t, err)
}

func TestSchedule_SkipsOverlappingRuns(t *testing.T) {
	s := New(observability.NewTestLogger())

	var started atomic.Int32
	release := make(chan struct{})
	run := func(context.Context) {
		started.Add(1)
		<-release
	}

	require.NoError(t, s.Schedule(context.Background(), "* * * * *", run))

	// Drive the job function directly the way cron would, from two
	// goroutines; the second entry must be skipped while the first holds
	// the running flag.
	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	job := entries[0].Job

	go job.Run()
	require.Eventually(t, func() bool { return started.Load() == 1 }, time.Second, 5*time.Millisecond)

	job.Run() // overlapping tick
	assert.Equal(t, int32(1), started.Load())

	close(release)
	require.Eventually(t, func() bool {
		return s.running.Load() == false
	}, time.Second, 5*time.Millisecond)

	// After the first run finishes the next tick runs again.
	release = make(chan struct{})
	close(release)
	job.Run()
	assert.Equal(t, int32(2), started.Load())
}

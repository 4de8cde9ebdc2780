package scheduler

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qaoa/internal/modules/runs"

	_ "modernc.org/sqlite"
)

type countingJob struct {
	runs int64
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run() error {
	atomic.AddInt64(&j.runs, 1)
	return nil
}

func TestAddJobRejectsInvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &countingJob{})
	assert.Error(t, err)
}

func TestScheduledJobRuns(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 10ms", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&job.runs) >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPruneRunsJob(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo, err := runs.NewRepository(db, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	save := func(id string, age time.Duration) {
		require.NoError(t, repo.Save(ctx, runs.Record{
			ID:        id,
			Backend:   "simulator",
			Depth:     1,
			Shots:     100,
			Status:    runs.StatusCompleted,
			CreatedAt: time.Now().Add(-age),
		}))
	}
	save("expired", 48*time.Hour)
	save("recent", time.Hour)

	job := NewPruneRunsJob(repo, 24*time.Hour, zerolog.Nop())
	assert.Equal(t, "prune_runs", job.Name())
	require.NoError(t, job.Run())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = repo.Get(ctx, "recent")
	assert.NoError(t, err)
	_, err = repo.Get(ctx, "expired")
	assert.ErrorIs(t, err, runs.ErrNotFound)
}

package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/qaoa/internal/modules/runs"
)

// PruneRunsJob removes run records older than the retention window. Run
// history is an operational cache, not an audit trail, so bounded growth
// matters more than completeness.
type PruneRunsJob struct {
	repo      *runs.Repository
	retention time.Duration
	log       zerolog.Logger
}

// NewPruneRunsJob creates the retention job
func NewPruneRunsJob(repo *runs.Repository, retention time.Duration, log zerolog.Logger) *PruneRunsJob {
	return &PruneRunsJob{
		repo:      repo,
		retention: retention,
		log:       log.With().Str("job", "prune_runs").Logger(),
	}
}

// Name returns the job name
func (j *PruneRunsJob) Name() string {
	return "prune_runs"
}

// Run prunes expired run records
func (j *PruneRunsJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	removed, err := j.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.log.Info().
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("Pruned expired runs")
	}
	return nil
}

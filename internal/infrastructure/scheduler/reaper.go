package scheduler

import (
	"context"
	"time"
)

// StaleActivationReaper is the name of the task failing orphaned activations
const StaleActivationReaper = "stale-activation-reaper"

// ActivationReaper fails activations that outlived maxAge
type ActivationReaper interface {
	ReapStaleActivations(ctx context.Context, maxAge time.Duration) (int64, error)
}

// NewStaleActivationTask returns a task that fails connections stuck in
// CONNECTING for longer than maxAge
func NewStaleActivationTask(reaper ActivationReaper, maxAge time.Duration) Task {
	return TaskFunc{
		TaskName: StaleActivationReaper,
		Fn: func(ctx context.Context) error {
			_, err := reaper.ReapStaleActivations(ctx, maxAge)
			return err
		},
	}
}

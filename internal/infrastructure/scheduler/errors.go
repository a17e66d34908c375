package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a task on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrTaskNotFound is returned when triggering a task that was never added
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidConfig is returned when a task interval is not positive
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

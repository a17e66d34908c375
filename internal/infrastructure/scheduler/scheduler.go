// Package scheduler runs periodic maintenance tasks in the background.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of periodic work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to Task
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

// Name returns the task name
func (f TaskFunc) Name() string { return f.TaskName }

// Run calls Fn
func (f TaskFunc) Run(ctx context.Context) error { return f.Fn(ctx) }

// Config holds scheduler configuration
type Config struct {
	// TaskTimeout bounds a single run of any task
	TaskTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{TaskTimeout: 30 * time.Second}
}

type entry struct {
	task     Task
	interval time.Duration
	trigger  chan struct{}
}

// Scheduler runs each added task on its own ticker. Runs of the same task
// never overlap.
type Scheduler struct {
	config Config
	logger *zap.Logger

	entries   map[string]*entry
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a new scheduler instance
func New(config Config, logger *zap.Logger) *Scheduler {
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = DefaultConfig().TaskTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:  config,
		logger:  logger.Named("scheduler"),
		entries: make(map[string]*entry),
	}
}

// Add registers a task to run every interval once the scheduler starts
func (s *Scheduler) Add(task Task, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: task %s interval must be positive", ErrInvalidConfig, task.Name())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return fmt.Errorf("%w: cannot add task %s while running", ErrInvalidConfig, task.Name())
	}
	s.entries[task.Name()] = &entry{task: task, interval: interval, trigger: make(chan struct{}, 1)}
	return nil
}

// Start starts one loop per task
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, e := range s.entries {
		s.wg.Add(1)
		go s.loop(ctx, e)
	}

	s.logger.Info("Scheduler started", zap.Int("tasks", len(s.entries)))
	return nil
}

// Stop cancels running tasks and waits for the loops to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Trigger asks a task to run now instead of waiting for its next tick. A
// trigger while one is already pending is coalesced.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	e, ok := s.entries[name]
	if !ok {
		return ErrTaskNotFound
	}
	select {
	case e.trigger <- struct{}{}:
	default:
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-e.trigger:
		}
		s.run(ctx, e.task)
	}
}

func (s *Scheduler) run(ctx context.Context, task Task) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.TaskTimeout)
	defer cancel()

	start := time.Now()
	if err := task.Run(runCtx); err != nil {
		s.logger.Error("Task failed",
			zap.String("task", task.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Task completed",
		zap.String("task", task.Name()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

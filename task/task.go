package task

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/ircmesh/logging"
)

// Task is a handle to one supervised unit of work. The unit runs to
// completion whether or not the caller keeps the handle; interested callers
// use Wait or Done to observe the outcome.
type Task struct {
	id   string
	name string
	done chan struct{}
	err  error // written once, before done is closed
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// Name returns the human readable task name used in logs.
func (t *Task) Name() string { return t.name }

// Done returns a channel closed when the task has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task's terminal error, or nil. It returns nil while the
// task is still running.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx is cancelled.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return t.err
	}
}

// Options holds configuration overrides passed to NewSupervisor().
type Options struct {
	// Logger receives task failures and panics.
	Logger logging.Logger
}

// Supervisor schedules fire-and-forget work while retaining ownership of
// every running task until it completes. Failures and panics are isolated to
// the failing task and surfaced through the logger; they never affect
// sibling tasks. Public methods are safe for concurrent use.
type Supervisor struct {
	logger logging.Logger

	mu     sync.Mutex
	active map[*Task]struct{}
	wg     sync.WaitGroup
}

// NewSupervisor constructs a Supervisor with optional overrides.
func NewSupervisor(optFns ...func(o *Options)) *Supervisor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Supervisor{
		logger: opts.Logger,
		active: make(map[*Task]struct{}),
	}
}

// Spawn runs fn in its own goroutine and returns a handle to it. The
// supervisor keeps a reference until fn returns, so the caller may drop the
// handle immediately. A panic inside fn is recovered and recorded as the
// task's error.
func (s *Supervisor) Spawn(ctx context.Context, name string, fn func(ctx context.Context) error) *Task {
	t := &Task{
		id:   uuid.New().String(),
		name: name,
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.active[t] = struct{}{}
	s.mu.Unlock()
	s.wg.Add(1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("task %q panicked: %v", name, r)
			}
			if t.err != nil {
				s.logger.Error("task failed", "task", name, "task_id", t.id, "error", t.err)
			}
			s.mu.Lock()
			delete(s.active, t)
			s.mu.Unlock()
			close(t.done)
			s.wg.Done()
		}()

		t.err = fn(ctx)
	}()

	return t
}

// Join returns a task that resolves once every input task has resolved.
// Errors are aggregated with errors.Join; a failing input never cancels its
// siblings.
func (s *Supervisor) Join(ctx context.Context, name string, tasks ...*Task) *Task {
	return s.Spawn(ctx, name, func(ctx context.Context) error {
		var errs []error
		for _, t := range tasks {
			if err := t.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Active returns the number of tasks currently running.
func (s *Supervisor) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.active)
}

// WaitIdle blocks until every task spawned so far has finished or ctx is
// cancelled. Mostly useful for tests and graceful shutdown.
func (s *Supervisor) WaitIdle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

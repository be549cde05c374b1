package scheduler

import (
	"fmt"
	"time"
)

// Runner is a unit of work owned by the scheduler until it runs.
type Runner interface {
	Run() error
}

// Func adapts a plain closure to a Runner.
type Func func()

func (f Func) Run() error {
	f()
	return nil
}

// ErrFunc adapts a closure that reports failure by returning an error.
type ErrFunc func() error

func (f ErrFunc) Run() error {
	return f()
}

// Task pairs a priority with a unit of work. Higher priorities run first.
type Task struct {
	priority    int
	runner      Runner
	seq         uint64
	submittedAt time.Time
}

func NewTask(priority int, r Runner) Task {
	return Task{priority: priority, runner: r, submittedAt: time.Now()}
}

func (t Task) Priority() int { return t.priority }

func (t Task) SubmittedAt() time.Time { return t.submittedAt }

// Run invokes the task's work on the calling goroutine.
func (t Task) Run() error {
	return t.runner.Run()
}

type Mode string

const (
	// ModeWorkerPool runs tasks inline on N long-lived workers.
	ModeWorkerPool Mode = "worker-pool"
	// ModeAsyncDispatch pops tasks on a single dispatcher and runs each one
	// on its own goroutine. Stop does not wait for those goroutines.
	ModeAsyncDispatch Mode = "async-dispatch"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeWorkerPool:
		return ModeWorkerPool, nil
	case ModeAsyncDispatch:
		return ModeAsyncDispatch, nil
	default:
		return "", fmt.Errorf("invalid scheduler mode: %s", s)
	}
}

type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time snapshot of the scheduler. Counters may be stale
// as soon as they are returned.
type Stats struct {
	Name        string
	Mode        Mode
	Workers     int
	LiveWorkers int
	State       State
	Queued      int
	Active      int64
	// Executed counts finished task bodies, including the failed ones.
	Executed int64
	Failed   int64
	Rejected int64
}

// ErrorSink receives failures of task bodies: returned errors and recovered panics.
type ErrorSink func(priority int, err error)

// Observer is notified about task lifecycle events. Implementations must be
// safe for concurrent use. A panic in a callback is recovered and logged.
type Observer interface {
	TaskQueued(priority int)
	TaskStarted(priority int, wait time.Duration)
	TaskFinished(priority int, duration time.Duration, err error)
	TaskRejected(reason string)
}

type nopObserver struct{}

func (nopObserver) TaskQueued(int)                         {}
func (nopObserver) TaskStarted(int, time.Duration)         {}
func (nopObserver) TaskFinished(int, time.Duration, error) {}
func (nopObserver) TaskRejected(string)                    {}

type Option func(*Scheduler)

func WithMode(m Mode) Option {
	return func(s *Scheduler) {
		s.mode = m
	}
}

// WithWorkers sets the number of workers. Ignored in async-dispatch mode.
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		s.workers = n
	}
}

func WithErrorSink(sink ErrorSink) Option {
	return func(s *Scheduler) {
		if sink != nil {
			s.sink = sink
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithName(name string) Option {
	return func(s *Scheduler) {
		s.name = name
	}
}

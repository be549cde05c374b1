// Package scheduler implements an in-memory priority task scheduler.
//
// Producers submit work tagged with an integer priority from any goroutine.
// Work is kept in a single blocking max-priority queue and consumed either by
// a fixed pool of workers or by a single dispatcher that launches every task
// on its own goroutine.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                           Scheduler                                 │
//	│                                                                     │
//	│            Submit(priority, runner)   (any goroutine)               │
//	│                               │                                     │
//	│                               ▼                                     │
//	│  ┌─────────────────────────────────────────────────────────┐        │
//	│  │                 PriorityTaskQueue                       │        │
//	│  │  mutex + sync.Cond, max-heap on priority                │        │
//	│  │  [p=5] [p=3] [p=2] [p=1] ...                            │        │
//	│  └────────────────────────────┬────────────────────────────┘        │
//	│                               │ PopBlocking()                       │
//	│         ┌─────────────────────┼─────────────────────┐               │
//	│         ▼                     ▼                     ▼               │
//	│  ┌──────────────┐      ┌──────────────┐      ┌──────────────┐       │
//	│  │   Worker 1   │      │   Worker 2   │      │   Worker N   │       │
//	│  └──────────────┘      └──────────────┘      └──────────────┘       │
//	│                                                                     │
//	│  async-dispatch: one Dispatcher replaces the workers and runs       │
//	│  every popped task with `go execute(task)`                          │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Execution Modes
//
//	┌────────────────┬───────────────────────┬──────────────────────────────┐
//	│ Mode           │ Concurrency           │ Stop() guarantees            │
//	├────────────────┼───────────────────────┼──────────────────────────────┤
//	│ worker-pool    │ at most N task bodies │ every accepted task finished │
//	│ async-dispatch │ unbounded             │ every accepted task launched │
//	└────────────────┴───────────────────────┴──────────────────────────────┘
//
// Callers that pick async-dispatch must not assume that task side effects are
// visible when Stop returns.
//
// # Lifecycle
//
//	┌─────────┐  Start()  ┌─────────┐  Stop()  ┌──────────┐  joined  ┌─────────┐
//	│ Created │──────────►│ Running │─────────►│ Stopping │─────────►│ Stopped │
//	└─────────┘           └─────────┘          └──────────┘          └─────────┘
//	     │                                           ▲
//	     └──────────────── Stop() ───────────────────┘
//
// Transitions are one-way; a stopped scheduler cannot be restarted and Start
// returns a ConstructionError when the scheduler is not in Created.
//
// Submissions are accepted in Created and Running. Stop closes the queue under
// its lock, so every submission either lands before the close (and is drained)
// or fails with a SchedulerStoppedError. No accepted task is silently lost.
//
// # Ordering
//
// Tasks pushed while no consumer is racing pop in non-increasing priority
// order. Equal priorities currently pop in submission order; callers should
// not depend on that.
//
// # Failures
//
// A task that returns an error or panics is reported to the ErrorSink
// (by default a zap logger) and the worker moves on to the next task:
//
//	defer func() {
//	    if rec := recover(); rec != nil {
//	        err = errors.NewTaskPanicError(rec, debug.Stack())
//	    }
//	}()
//
// Panics raised by the ErrorSink or by an Observer callback are recovered and
// logged as well; they never take a worker down.
//
// # Usage Example
//
//	sched, err := scheduler.New(
//	    scheduler.WithMode(scheduler.ModeWorkerPool),
//	    scheduler.WithWorkers(4),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := sched.Start(); err != nil {
//	    return err
//	}
//	defer sched.Stop()
//
//	_ = sched.SubmitFunc(5, func() {
//	    fmt.Println("very high priority task executed")
//	})
package scheduler

package scheduler

import (
	"context"
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	srvErrors "github.com/kubev2v/priority-scheduler/pkg/errors"
)

var ErrNilRunner = errors.New("runner is nil")

const (
	rejectReasonStopped      = "stopped"
	rejectReasonNeverStarted = "never_started"
)

type Scheduler struct {
	name     string
	mode     Mode
	workers  int
	queue    *PriorityTaskQueue
	sink     ErrorSink
	observer Observer

	// mu serializes lifecycle transitions so Stop never waits on a
	// WaitGroup that Start is still adding to.
	mu       sync.Mutex
	state    atomic.Int32
	wg       sync.WaitGroup
	stopOnce sync.Once
	done     chan struct{}

	live     atomic.Int32
	active   atomic.Int64
	executed atomic.Int64
	failed   atomic.Int64
	rejected atomic.Int64
}

// New builds a scheduler in the Created state. Tasks may be submitted before
// Start; they are consumed once Start spawns the workers.
func New(opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		name:     "default",
		mode:     ModeWorkerPool,
		workers:  runtime.NumCPU(),
		queue:    NewPriorityTaskQueue(),
		observer: nopObserver{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink == nil {
		s.sink = logErrorSink(s.name)
	}

	switch s.mode {
	case ModeWorkerPool:
		if s.workers < 1 {
			return nil, srvErrors.NewConstructionError("worker-pool mode requires at least 1 worker, got %d", s.workers)
		}
	case ModeAsyncDispatch:
		s.workers = 1
	default:
		return nil, srvErrors.NewConstructionError("unknown mode %q", s.mode)
	}

	return s, nil
}

// Start spawns the workers (or the dispatcher). It fails if the scheduler
// has already been started or stopped.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return srvErrors.NewAlreadyStartedError(s.State().String())
	}

	switch s.mode {
	case ModeAsyncDispatch:
		s.wg.Add(1)
		go s.dispatch()
	default:
		s.wg.Add(s.workers)
		for i := range s.workers {
			go s.work(i)
		}
	}

	zap.S().Named("scheduler").Infow("scheduler started", "name", s.name, "mode", s.mode, "workers", s.workers)
	return nil
}

// Submit enqueues r with the given priority and returns immediately. It is
// safe to call from any goroutine, including from inside a running task.
// Once Stop has begun every submission fails with a SchedulerStoppedError
// and the work is not enqueued.
func (s *Scheduler) Submit(priority int, r Runner) error {
	if r == nil {
		return ErrNilRunner
	}

	if err := s.queue.Push(NewTask(priority, r)); err != nil {
		s.rejected.Add(1)
		s.notify("rejected", func() { s.observer.TaskRejected(rejectReasonStopped) })
		return srvErrors.NewSchedulerStoppedError(s.name)
	}

	s.notify("queued", func() { s.observer.TaskQueued(priority) })
	return nil
}

func (s *Scheduler) SubmitFunc(priority int, fn func()) error {
	if fn == nil {
		return ErrNilRunner
	}
	return s.Submit(priority, Func(fn))
}

// Stop stops consumption and blocks until every owned goroutine has exited.
//
// In worker-pool mode all tasks accepted before Stop have finished running
// when Stop returns. In async-dispatch mode Stop only guarantees that every
// accepted task has been launched; launched tasks may still be running.
//
// Stopping a scheduler that was never started drops its pending tasks.
// Stop is idempotent and safe to call concurrently.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(s.stop)
	<-s.done
}

// Shutdown is Stop with a bounded wait. If ctx ends first it returns
// ctx.Err() while the workers keep draining in the background.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	go s.Stop()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the scheduler reaches the Stopped state.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) Len() int {
	return s.queue.Len()
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Name:        s.name,
		Mode:        s.mode,
		Workers:     s.workers,
		LiveWorkers: int(s.live.Load()),
		State:       s.State(),
		Queued:      s.queue.Len(),
		Active:      s.active.Load(),
		Executed:    s.executed.Load(),
		Failed:      s.failed.Load(),
		Rejected:    s.rejected.Load(),
	}
}

func (s *Scheduler) stop() {
	log := zap.S().Named("scheduler")

	s.mu.Lock()
	wasRunning := s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping))
	if !wasRunning {
		s.state.Store(int32(StateStopping))
	}
	s.mu.Unlock()

	log.Infow("stopping scheduler", "name", s.name, "pending", s.queue.Len())

	s.queue.Close()

	if !wasRunning {
		dropped := s.queue.Drain()
		for range dropped {
			s.rejected.Add(1)
			s.notify("rejected", func() { s.observer.TaskRejected(rejectReasonNeverStarted) })
		}
		if len(dropped) > 0 {
			log.Warnw("scheduler stopped before start, dropping pending tasks", "name", s.name, "count", len(dropped))
		}
	}

	s.wg.Wait()
	s.state.Store(int32(StateStopped))
	close(s.done)

	log.Infow("scheduler stopped", "name", s.name, "executed", s.executed.Load(), "failed", s.failed.Load())
}

func (s *Scheduler) work(id int) {
	s.live.Add(1)
	defer func() {
		s.live.Add(-1)
		s.wg.Done()
	}()

	for {
		t, ok := s.queue.PopBlocking()
		if !ok {
			zap.S().Named("scheduler").Debugw("worker exiting", "name", s.name, "worker", id)
			return
		}
		s.execute(t)
	}
}

func (s *Scheduler) dispatch() {
	s.live.Add(1)
	defer func() {
		s.live.Add(-1)
		s.wg.Done()
	}()

	for {
		t, ok := s.queue.PopBlocking()
		if !ok {
			zap.S().Named("scheduler").Debugw("dispatcher exiting", "name", s.name)
			return
		}
		go s.execute(t)
	}
}

func (s *Scheduler) execute(t Task) {
	s.active.Add(1)
	start := time.Now()
	s.notify("started", func() { s.observer.TaskStarted(t.priority, start.Sub(t.submittedAt)) })

	err := invoke(t)

	s.active.Add(-1)
	s.executed.Add(1)
	if err != nil {
		s.failed.Add(1)
		s.report(t.priority, err)
	}
	duration := time.Since(start)
	s.notify("finished", func() { s.observer.TaskFinished(t.priority, duration, err) })
}

func invoke(r Runner) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = srvErrors.NewTaskPanicError(rec, debug.Stack())
		}
	}()
	return r.Run()
}

// report hands err to the sink. A panicking sink must not take the worker down.
func (s *Scheduler) report(priority int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.S().Named("scheduler").Errorw("error sink panicked", "name", s.name, "panic", rec, "error", err)
		}
	}()
	s.sink(priority, err)
}

// notify runs an observer callback. A panicking observer is logged and the
// event is lost; the task and the worker are unaffected.
func (s *Scheduler) notify(event string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.S().Named("scheduler").Errorw("observer panicked", "name", s.name, "event", event, "panic", rec)
		}
	}()
	fn()
}

func logErrorSink(name string) ErrorSink {
	return func(priority int, err error) {
		var panicErr *srvErrors.TaskPanicError
		if errors.As(err, &panicErr) {
			zap.S().Named("scheduler").Errorw("task panicked", "name", name, "priority", priority, "panic", panicErr.Value, "stack", string(panicErr.Stack))
			return
		}
		zap.S().Named("scheduler").Errorw("task failed", "name", name, "priority", priority, "error", err)
	}
}

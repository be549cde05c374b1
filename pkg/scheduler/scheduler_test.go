package scheduler_test

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/kubev2v/priority-scheduler/pkg/errors"
	"github.com/kubev2v/priority-scheduler/pkg/scheduler"
)

type sinkRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *sinkRecorder) sink(_ int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *sinkRecorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

type countingObserver struct {
	queued, started, finished, rejected atomic.Int64
}

func (o *countingObserver) TaskQueued(int)                         { o.queued.Add(1) }
func (o *countingObserver) TaskStarted(int, time.Duration)         { o.started.Add(1) }
func (o *countingObserver) TaskFinished(int, time.Duration, error) { o.finished.Add(1) }
func (o *countingObserver) TaskRejected(string)                    { o.rejected.Add(1) }

type panickingObserver struct{}

func (panickingObserver) TaskQueued(int)                         { panic("queued") }
func (panickingObserver) TaskStarted(int, time.Duration)         { panic("started") }
func (panickingObserver) TaskFinished(int, time.Duration, error) { panic("finished") }
func (panickingObserver) TaskRejected(string)                    { panic("rejected") }

var _ = Describe("Scheduler", func() {
	var s *scheduler.Scheduler

	BeforeEach(func() {
		s = nil
	})

	AfterEach(func() {
		if s != nil {
			s.Stop()
		}
	})

	Describe("New", func() {
		It("should fail when worker-pool mode has no workers", func() {
			_, err := scheduler.New(scheduler.WithWorkers(0))
			Expect(err).To(HaveOccurred())
			Expect(srvErrors.IsConstructionError(err)).To(BeTrue())
		})

		It("should fail on an unknown mode", func() {
			_, err := scheduler.New(scheduler.WithMode("round-robin"))
			Expect(srvErrors.IsConstructionError(err)).To(BeTrue())
		})

		It("should use a single dispatcher in async-dispatch mode", func() {
			var err error
			s, err = scheduler.New(scheduler.WithMode(scheduler.ModeAsyncDispatch), scheduler.WithWorkers(8))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Stats().Workers).To(Equal(1))
			Expect(s.State()).To(Equal(scheduler.StateCreated))
		})
	})

	Describe("ParseMode", func() {
		It("should parse known modes", func() {
			m, err := scheduler.ParseMode("worker-pool")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(scheduler.ModeWorkerPool))

			m, err = scheduler.ParseMode("async-dispatch")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(scheduler.ModeAsyncDispatch))

			_, err = scheduler.ParseMode("threads")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Priority ordering", func() {
		// Given tasks submitted with priorities 1, 3, 2, 5 before any worker runs
		// When a single worker starts consuming
		// Then they execute in the order 5, 3, 2, 1
		It("should run tasks submitted before Start highest priority first", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1))
			Expect(err).NotTo(HaveOccurred())

			var mu sync.Mutex
			var order []int
			for _, p := range []int{1, 3, 2, 5} {
				prio := p
				Expect(s.SubmitFunc(prio, func() {
					mu.Lock()
					defer mu.Unlock()
					order = append(order, prio)
				})).To(Succeed())
			}

			Expect(s.Start()).To(Succeed())
			s.Stop()

			Expect(order).To(Equal([]int{5, 3, 2, 1}))
		})
	})

	Describe("No loss under concurrency", func() {
		// Given 8 producers each submitting 250 tasks to a running pool
		// When every producer is done and the scheduler is stopped
		// Then every task ran exactly once
		It("should execute every submitted task exactly once", func() {
			const producers = 8
			const perProducer = 250

			var err error
			s, err = scheduler.New(scheduler.WithWorkers(4))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			var executed atomic.Int64
			var duplicates atomic.Int64
			var seen sync.Map

			var wg sync.WaitGroup
			for p := range producers {
				wg.Add(1)
				go func(producer int) {
					defer GinkgoRecover()
					defer wg.Done()
					for i := range perProducer {
						id := producer*perProducer + i
						err := s.SubmitFunc(i%7, func() {
							if _, loaded := seen.LoadOrStore(id, struct{}{}); loaded {
								duplicates.Add(1)
							}
							executed.Add(1)
						})
						Expect(err).NotTo(HaveOccurred())
					}
				}(p)
			}
			wg.Wait()
			s.Stop()

			Expect(executed.Load()).To(Equal(int64(producers * perProducer)))
			Expect(duplicates.Load()).To(BeZero())
			Expect(s.Stats().Executed).To(Equal(int64(producers * perProducer)))
		})
	})

	Describe("Bounded concurrency", func() {
		It("should never run more than N task bodies at once", func() {
			const workers = 3

			var err error
			s, err = scheduler.New(scheduler.WithWorkers(workers))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			var current, peak atomic.Int64
			for i := range 60 {
				Expect(s.SubmitFunc(i, func() {
					n := current.Add(1)
					for {
						old := peak.Load()
						if n <= old || peak.CompareAndSwap(old, n) {
							break
						}
					}
					time.Sleep(2 * time.Millisecond)
					current.Add(-1)
				})).To(Succeed())
			}
			s.Stop()

			Expect(peak.Load()).To(BeNumerically(">", 0))
			Expect(peak.Load()).To(BeNumerically("<=", workers))
		})
	})

	Describe("Graceful drain", func() {
		// Given a busy worker and 10 queued tasks
		// When Stop is called
		// Then Stop does not return until all queued tasks have run
		It("should finish queued tasks before Stop returns", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			started := make(chan struct{})
			unblock := make(chan struct{})
			var executed atomic.Int64

			Expect(s.SubmitFunc(100, func() {
				close(started)
				<-unblock
				executed.Add(1)
			})).To(Succeed())
			Eventually(started, time.Second).Should(BeClosed())

			for i := range 10 {
				Expect(s.SubmitFunc(i, func() { executed.Add(1) })).To(Succeed())
			}

			stopDone := make(chan struct{})
			go func() {
				s.Stop()
				close(stopDone)
			}()

			Consistently(stopDone, 200*time.Millisecond).ShouldNot(BeClosed())
			close(unblock)
			Eventually(stopDone, time.Second).Should(BeClosed())

			Expect(executed.Load()).To(Equal(int64(11)))
			Expect(s.State()).To(Equal(scheduler.StateStopped))
		})
	})

	Describe("Idle shutdown", func() {
		It("should stop without deadlock when nothing was submitted", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(4))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			stopDone := make(chan struct{})
			go func() {
				s.Stop()
				close(stopDone)
			}()

			Eventually(stopDone, time.Second).Should(BeClosed())
			Expect(s.Stats().Executed).To(BeZero())
			Expect(s.Stats().LiveWorkers).To(BeZero())
		})

		It("should not leak goroutines after Stop", func() {
			base := runtime.NumGoroutine()

			var err error
			s, err = scheduler.New(scheduler.WithWorkers(16))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())
			s.Stop()

			Eventually(func() int {
				return runtime.NumGoroutine()
			}, 5*time.Second, 100*time.Millisecond).Should(BeNumerically("<=", base+2))
		})
	})

	Describe("Fault isolation", func() {
		// Given a pool of 2 workers
		// When a task panics and another returns an error
		// Then later tasks still run, both faults reach the sink and no worker is lost
		It("should keep serving after a task panics or fails", func() {
			rec := &sinkRecorder{}

			var err error
			s, err = scheduler.New(scheduler.WithWorkers(2), scheduler.WithErrorSink(rec.sink))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			Expect(s.SubmitFunc(10, func() { panic("boom") })).To(Succeed())
			Expect(s.Submit(10, scheduler.ErrFunc(func() error { return errors.New("failed") }))).To(Succeed())

			var executed atomic.Int64
			for i := range 10 {
				Expect(s.SubmitFunc(i, func() { executed.Add(1) })).To(Succeed())
			}

			Eventually(executed.Load, 2*time.Second).Should(Equal(int64(10)))
			Eventually(func() int { return len(rec.errors()) }, time.Second).Should(Equal(2))

			var panics int
			for _, e := range rec.errors() {
				if srvErrors.IsTaskPanicError(e) {
					panics++
				}
			}
			Expect(panics).To(Equal(1))
			Expect(rec.errors()).To(ContainElement(MatchError("failed")))

			stats := s.Stats()
			Expect(stats.LiveWorkers).To(Equal(2))
			Expect(stats.Failed).To(Equal(int64(2)))
		})

		It("should survive a panicking error sink", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1), scheduler.WithErrorSink(func(int, error) {
				panic("sink is broken")
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			Expect(s.SubmitFunc(1, func() { panic("boom") })).To(Succeed())

			done := make(chan struct{})
			Expect(s.SubmitFunc(0, func() { close(done) })).To(Succeed())
			Eventually(done, time.Second).Should(BeClosed())
			Expect(s.Stats().LiveWorkers).To(Equal(1))
		})

		// Given an observer that panics on every event
		// When tasks are submitted, run, and rejected after stop
		// Then every task still runs and no worker is lost
		It("should survive a panicking observer", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(2), scheduler.WithObserver(panickingObserver{}))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			var ran atomic.Int64
			for i := range 10 {
				Expect(s.SubmitFunc(i, func() { ran.Add(1) })).To(Succeed())
			}

			Eventually(ran.Load, time.Second).Should(Equal(int64(10)))
			Expect(s.Stats().LiveWorkers).To(Equal(2))

			s.Stop()
			Expect(srvErrors.IsSchedulerStoppedError(s.SubmitFunc(1, func() {}))).To(BeTrue())
			Expect(s.Stats().Executed).To(Equal(int64(10)))
		})
	})

	Describe("Lifecycle", func() {
		It("should reject a second Start", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			err = s.Start()
			Expect(srvErrors.IsConstructionError(err)).To(BeTrue())
		})

		It("should not restart after Stop", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())
			s.Stop()

			Expect(srvErrors.IsConstructionError(s.Start())).To(BeTrue())
			Expect(s.State()).To(Equal(scheduler.StateStopped))
		})

		It("should reject submissions after Stop", func() {
			obs := &countingObserver{}

			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1), scheduler.WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())
			s.Stop()

			err = s.SubmitFunc(1, func() {})
			Expect(srvErrors.IsSchedulerStoppedError(err)).To(BeTrue())
			Expect(s.Len()).To(BeZero())
			Expect(s.Stats().Rejected).To(Equal(int64(1)))
			Expect(obs.rejected.Load()).To(Equal(int64(1)))
		})

		It("should reject nil work", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Submit(1, nil)).To(MatchError(scheduler.ErrNilRunner))
			Expect(s.SubmitFunc(1, nil)).To(MatchError(scheduler.ErrNilRunner))
		})

		It("should drop pending tasks when stopped before Start", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1))
			Expect(err).NotTo(HaveOccurred())

			var executed atomic.Int64
			for i := range 3 {
				Expect(s.SubmitFunc(i, func() { executed.Add(1) })).To(Succeed())
			}
			s.Stop()

			Expect(executed.Load()).To(BeZero())
			Expect(s.Stats().Rejected).To(Equal(int64(3)))
			Expect(s.State()).To(Equal(scheduler.StateStopped))
		})

		It("should allow concurrent and repeated Stop calls", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(2))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			var wg sync.WaitGroup
			for range 5 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					s.Stop()
				}()
			}

			allDone := make(chan struct{})
			go func() {
				wg.Wait()
				close(allDone)
			}()
			Eventually(allDone, time.Second).Should(BeClosed())
			Eventually(s.Done(), time.Second).Should(BeClosed())
		})

		It("should accept submissions from inside a running task", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			inner := make(chan struct{})
			Expect(s.SubmitFunc(1, func() {
				_ = s.SubmitFunc(2, func() { close(inner) })
			})).To(Succeed())

			Eventually(inner, time.Second).Should(BeClosed())
		})

		It("should notify the observer for every task", func() {
			obs := &countingObserver{}

			var err error
			s, err = scheduler.New(scheduler.WithWorkers(2), scheduler.WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			for i := range 20 {
				Expect(s.SubmitFunc(i, func() {})).To(Succeed())
			}
			s.Stop()

			Expect(obs.queued.Load()).To(Equal(int64(20)))
			Expect(obs.started.Load()).To(Equal(int64(20)))
			Expect(obs.finished.Load()).To(Equal(int64(20)))
		})
	})

	Describe("Shutdown", func() {
		It("should return the context error when draining takes too long", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			started := make(chan struct{})
			unblock := make(chan struct{})
			Expect(s.SubmitFunc(1, func() {
				close(started)
				<-unblock
			})).To(Succeed())
			Eventually(started, time.Second).Should(BeClosed())

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			Expect(s.Shutdown(ctx)).To(MatchError(context.DeadlineExceeded))
			Expect(s.State()).To(Equal(scheduler.StateStopping))

			close(unblock)
			Eventually(s.Done(), time.Second).Should(BeClosed())
		})

		It("should return nil once the scheduler stopped in time", func() {
			var err error
			s, err = scheduler.New(scheduler.WithWorkers(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			Expect(s.Shutdown(ctx)).To(Succeed())
		})
	})

	Describe("Async dispatch", func() {
		It("should run every submitted task", func() {
			var err error
			s, err = scheduler.New(scheduler.WithMode(scheduler.ModeAsyncDispatch))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			var executed atomic.Int64
			for i := range 50 {
				Expect(s.SubmitFunc(i, func() { executed.Add(1) })).To(Succeed())
			}

			Eventually(executed.Load, 2*time.Second).Should(Equal(int64(50)))
		})

		It("should run tasks concurrently beyond a single dispatcher", func() {
			var err error
			s, err = scheduler.New(scheduler.WithMode(scheduler.ModeAsyncDispatch))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			const n = 5
			var arrived sync.WaitGroup
			arrived.Add(n)
			release := make(chan struct{})
			for i := range n {
				Expect(s.SubmitFunc(i, func() {
					arrived.Done()
					<-release
				})).To(Succeed())
			}

			allArrived := make(chan struct{})
			go func() {
				arrived.Wait()
				close(allArrived)
			}()
			Eventually(allArrived, 2*time.Second).Should(BeClosed())
			Expect(s.Stats().Active).To(Equal(int64(n)))
			close(release)
		})

		// Given a launched task that is still blocked
		// When Stop is called
		// Then Stop returns without waiting for that task
		It("should not wait for in-flight tasks on Stop", func() {
			var err error
			s, err = scheduler.New(scheduler.WithMode(scheduler.ModeAsyncDispatch))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Start()).To(Succeed())

			started := make(chan struct{})
			release := make(chan struct{})
			finished := make(chan struct{})
			Expect(s.SubmitFunc(1, func() {
				close(started)
				<-release
				close(finished)
			})).To(Succeed())
			Eventually(started, time.Second).Should(BeClosed())

			stopDone := make(chan struct{})
			go func() {
				s.Stop()
				close(stopDone)
			}()

			Eventually(stopDone, time.Second).Should(BeClosed())
			Expect(finished).NotTo(BeClosed())

			close(release)
			Eventually(finished, time.Second).Should(BeClosed())
		})
	})
})

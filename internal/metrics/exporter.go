package metrics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/kubev2v/priority-scheduler/pkg/scheduler"
)

const defaultNamespace = "priority_scheduler"

// Exporter records scheduler task events as Prometheus metrics.
type Exporter struct {
	queuedTotal   prom.Counter
	rejectedTotal *prom.CounterVec
	failedTotal   prom.Counter
	activeTasks   prom.Gauge
	waitSeconds   prom.Histogram
	runSeconds    prom.Histogram

	reg         prom.Registerer
	constLabels prom.Labels
	namespace   string

	mu     sync.Mutex
	gauges []prom.Collector
}

var _ scheduler.Observer = (*Exporter)(nil)

// NewExporter creates and registers the task collectors. A nil registerer
// falls back to the default Prometheus registry.
func NewExporter(namespace, schedulerName string, reg prom.Registerer) (*Exporter, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	labels := prom.Labels{"scheduler": schedulerName}

	e := &Exporter{reg: reg, constLabels: labels, namespace: namespace}

	var err error
	if e.queuedTotal, err = registerCollector(reg, prom.NewCounter(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "tasks_queued_total",
		Help:        "Total number of tasks accepted into the queue.",
		ConstLabels: labels,
	})); err != nil {
		return nil, err
	}
	if e.rejectedTotal, err = registerCollector(reg, prom.NewCounterVec(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "tasks_rejected_total",
		Help:        "Total number of tasks rejected or dropped.",
		ConstLabels: labels,
	}, []string{"reason"})); err != nil {
		return nil, err
	}
	if e.failedTotal, err = registerCollector(reg, prom.NewCounter(prom.CounterOpts{
		Namespace:   namespace,
		Name:        "tasks_failed_total",
		Help:        "Total number of tasks that returned an error or panicked.",
		ConstLabels: labels,
	})); err != nil {
		return nil, err
	}
	if e.activeTasks, err = registerCollector(reg, prom.NewGauge(prom.GaugeOpts{
		Namespace:   namespace,
		Name:        "tasks_active",
		Help:        "Number of task bodies currently executing.",
		ConstLabels: labels,
	})); err != nil {
		return nil, err
	}
	if e.waitSeconds, err = registerCollector(reg, prom.NewHistogram(prom.HistogramOpts{
		Namespace:   namespace,
		Name:        "task_wait_seconds",
		Help:        "Time between submission and start of execution.",
		ConstLabels: labels,
		Buckets:     prom.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if e.runSeconds, err = registerCollector(reg, prom.NewHistogram(prom.HistogramOpts{
		Namespace:   namespace,
		Name:        "task_duration_seconds",
		Help:        "Task execution duration in seconds.",
		ConstLabels: labels,
		Buckets:     prom.DefBuckets,
	})); err != nil {
		return nil, err
	}

	return e, nil
}

// Watch registers gauges that read queue depth and live workers from s on
// scrape. Gauges left behind by a previously watched scheduler, from this or
// another exporter on the same registerer, are replaced.
func (e *Exporter) Watch(s *scheduler.Scheduler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unwatchLocked()

	gauges := []prom.Collector{
		prom.NewGaugeFunc(prom.GaugeOpts{
			Namespace:   e.namespace,
			Name:        "queue_depth",
			Help:        "Current number of queued tasks.",
			ConstLabels: e.constLabels,
		}, func() float64 { return float64(s.Len()) }),
		prom.NewGaugeFunc(prom.GaugeOpts{
			Namespace:   e.namespace,
			Name:        "live_workers",
			Help:        "Number of running worker or dispatcher goroutines.",
			ConstLabels: e.constLabels,
		}, func() float64 { return float64(s.Stats().LiveWorkers) }),
	}

	for _, g := range gauges {
		if err := replaceCollector(e.reg, g); err != nil {
			e.unwatchLocked()
			return err
		}
		e.gauges = append(e.gauges, g)
	}
	return nil
}

// Unwatch unregisters the gauges of the watched scheduler.
func (e *Exporter) Unwatch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unwatchLocked()
}

func (e *Exporter) unwatchLocked() {
	for _, g := range e.gauges {
		e.reg.Unregister(g)
	}
	e.gauges = nil
}

func (e *Exporter) TaskQueued(int) {
	e.queuedTotal.Inc()
}

func (e *Exporter) TaskStarted(_ int, wait time.Duration) {
	e.activeTasks.Inc()
	e.waitSeconds.Observe(wait.Seconds())
}

func (e *Exporter) TaskFinished(_ int, duration time.Duration, err error) {
	e.activeTasks.Dec()
	e.runSeconds.Observe(duration.Seconds())
	if err != nil {
		e.failedTotal.Inc()
	}
}

func (e *Exporter) TaskRejected(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	e.rejectedTotal.WithLabelValues(reason).Inc()
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}

// replaceCollector registers collector, evicting a collector with the same
// descriptors if one is already registered.
func replaceCollector(reg prom.Registerer, collector prom.Collector) error {
	err := reg.Register(collector)

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		reg.Unregister(alreadyRegisteredErr.ExistingCollector)
		err = reg.Register(collector)
	}
	return err
}

package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/datastore"
)

var (
	ErrQueueFull         = errors.New("notification queue full")
	ErrDispatcherStopped = errors.New("notification dispatcher stopped")
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "travel_backoffice",
		Subsystem: "notifications",
		Name:      "jobs_total",
		Help:      "Notification jobs by outcome.",
	}, []string{"result"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "travel_backoffice",
		Subsystem: "notifications",
		Name:      "queue_depth",
		Help:      "Notification jobs waiting for a worker.",
	})
)

// Job is one notification waiting to be written.
type Job struct {
	Request CreateNotificationRequest
	TraceID string
}

// Creator persists a notification. *Service satisfies it.
type Creator interface {
	Create(ctx context.Context, in CreateNotificationRequest) datastore.Result[Notification]
}

type Worker struct {
	ID     int
	Logger *slog.Logger
}

func NewWorker(id int, logger *slog.Logger) *Worker {
	return &Worker{ID: id, Logger: logger}
}

// Start consumes jobs until the queue is closed and empty.
func (w *Worker) Start(jobs <-chan Job, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for job := range jobs {
			queueDepth.Dec()
			w.Logger.Debug("worker processing notification", "worker_id", w.ID, "title", job.Request.Title)
			processFunc(job)
		}
		w.Logger.Debug("worker shutting down", "worker_id", w.ID)
	}()
}

type DispatcherConfig struct {
	Workers   int
	QueueSize int
	// JobTimeout bounds each store write. Zero uses the request default.
	JobTimeout time.Duration
}

// Dispatcher writes notifications off the request path through a bounded queue.
type Dispatcher struct {
	creator    Creator
	logger     *slog.Logger
	jobQueue   chan Job
	maxWorkers int
	jobTimeout time.Duration

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	once    sync.Once
}

func NewDispatcher(creator Creator, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	d := &Dispatcher{
		creator:    creator,
		logger:     logger,
		jobQueue:   make(chan Job, queueSize),
		maxWorkers: maxWorkers,
		jobTimeout: cfg.JobTimeout,
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			NewWorker(i, d.logger).Start(d.jobQueue, &d.wg, d.process)
		}
		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

// Enqueue never blocks: a full queue rejects the job with ErrQueueFull.
func (d *Dispatcher) Enqueue(job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}

	queueDepth.Inc()
	select {
	case d.jobQueue <- job:
		return nil
	default:
		queueDepth.Dec()
		jobsTotal.WithLabelValues("rejected").Inc()
		d.logger.Warn("notification queue full, dropping job",
			"title", job.Request.Title,
			"queue_capacity", cap(d.jobQueue))
		return ErrQueueFull
	}
}

func (d *Dispatcher) process(job Job) {
	ctx := context.Background()
	if job.TraceID != "" {
		ctx = internal.ContextWithTraceID(ctx, job.TraceID)
	}
	ctx, cancel := internal.WithTimeout(ctx, d.jobTimeout)
	defer cancel()

	res := d.creator.Create(ctx, job.Request)
	if !res.OK() {
		jobsTotal.WithLabelValues("failed").Inc()
		d.logger.Error("failed to write notification",
			"title", job.Request.Title,
			"status", res.Status,
			"error", res.Err)
		return
	}
	jobsTotal.WithLabelValues("written").Inc()
}

// Shutdown stops accepting jobs and waits until the queued ones are written.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobQueue)
	d.mu.Unlock()

	d.logger.Info("shutting down notification dispatcher")
	d.wg.Wait()
	d.logger.Info("notification dispatcher shutdown complete")
}

// Package worker provides an asynchronous worker pool that persists finished
// exchanges with the provided storage.Driver and then announces them on the
// provided eventstream.Publisher.
//
// The pool keeps storage and publishing off the request path, so a slow
// database or broker never delays the response the user is reading.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/papercomputeco/ollamaui/pkg/eventstream"
	"github.com/papercomputeco/ollamaui/pkg/eventstream/nop"
	"github.com/papercomputeco/ollamaui/pkg/logger"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 256

	// defaultJobTimeout bounds the store and publish steps of one job.
	defaultJobTimeout = 30 * time.Second
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Exchange *storage.Exchange
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Driver is the storage backend for persisting exchanges.
	Driver storage.Driver

	// Publisher announces stored exchanges. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// JobTimeout bounds each job (defaults to 30s).
	JobTimeout time.Duration

	// Logger is the configured slog logger.
	Logger *slog.Logger
}

// Pool processes storage jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	// mu guards closed against concurrent Enqueue and Close.
	mu     sync.RWMutex
	closed bool
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, fmt.Errorf("worker pool requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full or the pool is closed,
// resulting in the job being dropped.
func (p *Pool) Enqueue(job Job) bool {
	if job.Exchange == nil {
		p.logger.Error("job not queued, nil exchange")
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.Error("job not queued, pool closed",
			"exchange_id", job.Exchange.ID,
		)
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"exchange_id", job.Exchange.ID,
			"model", job.Exchange.Model,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"exchange_id", job.Exchange.ID,
			"model", job.Exchange.Model,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
// Calling Close more than once is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob stores the exchange, then publishes it. Failures are logged;
// a failed store skips publishing.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	ex := job.Exchange

	if err := p.config.Driver.Put(ctx, ex); err != nil {
		p.logger.Error("storing exchange failed",
			"exchange_id", ex.ID,
			"error", err,
		)
		return
	}

	p.logger.Info("exchange stored",
		"exchange_id", ex.ID,
		"model", ex.Model,
		"failed", ex.Failed(),
		"duration_ms", ex.DurationMs,
	)

	event := eventstream.NewExchangeCompletedEvent(ex)
	if err := p.config.Publisher.PublishExchange(ctx, event); err != nil {
		p.logger.Warn("publishing exchange event failed",
			"exchange_id", ex.ID,
			"event_id", event.EventID,
			"error", err,
		)
		return
	}

	p.logger.Debug("exchange event published",
		"exchange_id", ex.ID,
		"event_id", event.EventID,
	)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"paperledger/internal/domain"
)

const recordFailureTimeout = 30 * time.Second

// DocumentProcessor is the part of PipelineService the queue drives.
type DocumentProcessor interface {
	Process(ctx context.Context, docID int64) (*domain.Document, error)
	RecordFailure(ctx context.Context, docID int64, cause error)
}

// Submitter accepts documents for asynchronous processing.
type Submitter interface {
	Enqueue(docID int64) error
}

// ProcessingQueueConfig holds settings for the processing queue.
type ProcessingQueueConfig struct {
	// DequeueWait bounds how long the idle worker blocks before re-checking
	// for shutdown.
	DequeueWait time.Duration
	// RunTimeout bounds a single pipeline run. Zero disables the bound.
	RunTimeout time.Duration
}

// ProcessingQueue is an unbounded FIFO of document ids consumed by a single
// worker goroutine, so at most one pipeline run is in flight at a time.
type ProcessingQueue struct {
	proc   DocumentProcessor
	cfg    ProcessingQueueConfig
	logger *zap.Logger

	mu          sync.Mutex
	pending     []int64
	started     bool
	stopped     bool
	workerAlive bool
	done        chan struct{}

	wake chan struct{}
	stop chan struct{}
}

// NewProcessingQueue creates a stopped queue. Ids enqueued before Start are
// buffered.
func NewProcessingQueue(proc DocumentProcessor, cfg ProcessingQueueConfig, logger *zap.Logger) *ProcessingQueue {
	if cfg.DequeueWait <= 0 {
		cfg.DequeueWait = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessingQueue{
		proc:   proc,
		cfg:    cfg,
		logger: logger,
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
}

// Start launches the worker. Calling it again is a no-op.
func (q *ProcessingQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true
	q.spawnLocked()
	q.logger.Info("processing queue started",
		zap.Duration("dequeue_wait", q.cfg.DequeueWait),
		zap.Int("pending", len(q.pending)))
}

// Enqueue appends docID and returns immediately. A started queue whose worker
// has exited gets a fresh one.
func (q *ProcessingQueue) Enqueue(docID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return domain.ErrQueueStopped
	}
	q.pending = append(q.pending, docID)
	select {
	case q.wake <- struct{}{}:
	default:
	}
	// work only returns after Stop, so this guards a worker that exited some
	// other way.
	if q.started && !q.workerAlive {
		q.logger.Warn("processing worker not running, restarting")
		q.spawnLocked()
	}
	return nil
}

// Len returns the number of ids waiting to be processed.
func (q *ProcessingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stop signals the worker and waits for the in-flight run to finish or ctx
// to expire. Ids still waiting are dropped.
func (q *ProcessingQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	close(q.stop)
	dropped := len(q.pending)
	q.pending = nil
	alive, done := q.workerAlive, q.done
	q.mu.Unlock()

	q.logger.Info("processing queue stopping", zap.Int("dropped", dropped))
	if !alive {
		return nil
	}
	select {
	case <-done:
		q.logger.Info("processing queue stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessingQueue) spawnLocked() {
	q.workerAlive = true
	q.done = make(chan struct{})
	go q.work(q.done)
}

func (q *ProcessingQueue) work(done chan struct{}) {
	defer func() {
		q.mu.Lock()
		q.workerAlive = false
		q.mu.Unlock()
		close(done)
	}()

	for {
		docID, ok := q.next()
		if !ok {
			return
		}
		q.runOne(docID)
	}
}

// next blocks until an id is available or the queue is stopped.
func (q *ProcessingQueue) next() (int64, bool) {
	timer := time.NewTimer(q.cfg.DequeueWait)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if q.stopped {
			q.mu.Unlock()
			return 0, false
		}
		if len(q.pending) > 0 {
			docID := q.pending[0]
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return docID, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-q.stop:
			return 0, false
		case <-timer.C:
			timer.Reset(q.cfg.DequeueWait)
		}
	}
}

func (q *ProcessingQueue) runOne(docID int64) {
	log := q.logger.With(zap.Int64("document_id", docID))

	// The run gets its own context so shutdown lets it finish.
	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if q.cfg.RunTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.cfg.RunTimeout)
	}
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline run panicked", zap.Any("panic", r), zap.Stack("stack"))
			q.recordFailure(docID, fmt.Errorf("panic: %v", r))
		}
	}()

	log.Debug("dequeued document")
	_, err := q.proc.Process(ctx, docID)

	var perr *domain.PipelineError
	switch {
	case err == nil:
	case errors.As(err, &perr):
		// Already recorded on the document.
	case errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrNoSourceFile):
		log.Warn("skipping document", zap.Error(err))
	default:
		log.Error("pipeline run failed", zap.Error(err))
		q.recordFailure(docID, err)
	}
}

func (q *ProcessingQueue) recordFailure(docID int64, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), recordFailureTimeout)
	defer cancel()
	q.proc.RecordFailure(ctx, docID, cause)
}

package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-pipeline/internal/usecase/pipeline"
	"github.com/johnquangdev/meeting-pipeline/pkg/config"
	"github.com/johnquangdev/meeting-pipeline/pkg/jobcontext"
)

// BackgroundDispatcher runs the pipeline on an in-process worker pool.
// Nothing is persisted: jobs still buffered at shutdown are lost and
// can be re-dispatched through the reprocess endpoint.
type BackgroundDispatcher struct {
	processor   pipeline.Processor
	inFlight    *cache.MemoryStore
	logger      *zap.Logger
	jobs        chan uuid.UUID
	jobTimeout  time.Duration
	inFlightTTL time.Duration
	maxRetries  int
	retryDelay  time.Duration

	baseCtx   context.Context
	cancel    context.CancelFunc
	workerWg  sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewBackgroundDispatcher creates the pool; call Start before dispatching
func NewBackgroundDispatcher(processor pipeline.Processor, cfg *config.DispatchConfig, logger *zap.Logger) *BackgroundDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}
	ttl := cfg.InFlightTTL
	if ttl <= 0 {
		ttl = cfg.JobTimeout + 5*time.Minute
	}
	return &BackgroundDispatcher{
		processor:   processor,
		inFlight:    cache.NewMemoryStore(),
		logger:      logger,
		jobs:        make(chan uuid.UUID, size),
		jobTimeout:  cfg.JobTimeout,
		inFlightTTL: ttl,
		maxRetries:  2,
		retryDelay:  5 * time.Second,
	}
}

// Start launches workerCount workers
func (d *BackgroundDispatcher) Start(workerCount int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isRunning {
		return fmt.Errorf("worker pool already running")
	}
	d.isRunning = true
	d.baseCtx, d.cancel = context.WithCancel(context.Background())

	d.logger.Info("🚀 Starting background dispatcher", zap.Int("worker_count", workerCount))
	for i := 0; i < workerCount; i++ {
		d.workerWg.Add(1)
		go d.worker(i)
	}
	return nil
}

// Dispatch hands the meeting to a worker without blocking.
// A meeting that is already queued or running is rejected with ErrAlreadyQueued.
func (d *BackgroundDispatcher) Dispatch(ctx context.Context, meetingID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.isRunning {
		return ErrStopped
	}
	key := meetingID.String()
	if !d.inFlight.SetIfAbsent(key, "queued", d.inFlightTTL) {
		return ErrAlreadyQueued
	}

	select {
	case d.jobs <- meetingID:
		d.logger.Info("📤 Meeting dispatched", zap.String("meeting_id", key))
		return nil
	default:
		d.inFlight.Delete(key)
		return ErrQueueFull
	}
}

// Stop stops accepting work and waits for running jobs until ctx expires,
// then cancels them
func (d *BackgroundDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return fmt.Errorf("worker pool not running")
	}
	d.isRunning = false
	close(d.jobs)
	d.mu.Unlock()

	d.logger.Info("🛑 Stopping background dispatcher...")

	done := make(chan struct{})
	go func() {
		d.workerWg.Wait()
		close(done)
	}()

	defer d.inFlight.Close()
	select {
	case <-done:
		d.cancel()
		d.logger.Info("✅ Background dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *BackgroundDispatcher) worker(workerID int) {
	defer d.workerWg.Done()

	d.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	for meetingID := range d.jobs {
		d.run(workerID, meetingID)
	}
	d.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
}

func (d *BackgroundDispatcher) run(workerID int, meetingID uuid.UUID) {
	defer d.inFlight.Delete(meetingID.String())

	jobCtx, cancel := jobcontext.JobBegin(d.baseCtx, uuid.New(), JobType, meetingID, workerID, d.jobTimeout)
	defer cancel()
	jobCtx = jobcontext.SetMaxRetries(jobCtx, d.maxRetries)
	jobCtx = jobcontext.SetRetryDelay(jobCtx, d.retryDelay)

	log, meta := jobLogger(jobCtx, d.logger)
	if err := jobcontext.JobEnd(jobCtx, runOnce(d.processor, meetingID)); err != nil {
		if d.baseCtx.Err() != nil {
			log.Warn("⏸️ Meeting job interrupted by shutdown, reprocess to resume", zap.Error(err))
			return
		}
		log.Error("❌ Meeting processing failed",
			zap.Duration("elapsed", time.Since(meta.StartTime)),
			zap.Error(err),
		)
		return
	}
	log.Info("✅ Meeting job finished", zap.Duration("elapsed", time.Since(meta.StartTime)))
}

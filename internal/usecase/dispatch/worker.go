package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/queue"
	"github.com/johnquangdev/meeting-pipeline/internal/usecase/pipeline"
	"github.com/johnquangdev/meeting-pipeline/pkg/jobcontext"
)

// WorkerOptions tunes QueueWorker
type WorkerOptions struct {
	Workers      int
	JobTimeout   time.Duration
	ReapInterval time.Duration
	PollTimeout  time.Duration
	// MaxAttempts bounds deliveries of a job that keeps failing with retryable errors
	MaxAttempts int
}

// QueueWorker consumes jobs from the durable queue and runs the pipeline.
// Delivery is at least once: a job whose worker dies is re-queued by the
// reaper once its lease expires, and the pipeline skips terminal meetings.
type QueueWorker struct {
	queue     JobQueue
	processor pipeline.Processor
	opts      WorkerOptions
	logger    *zap.Logger
	workerWg  sync.WaitGroup
}

// NewQueueWorker creates a queue consumer
func NewQueueWorker(q JobQueue, processor pipeline.Processor, opts WorkerOptions, logger *zap.Logger) *QueueWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = time.Minute
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	return &QueueWorker{queue: q, processor: processor, opts: opts, logger: logger}
}

// Run consumes until ctx is cancelled, then waits for running jobs to finish
func (w *QueueWorker) Run(ctx context.Context) error {
	w.logger.Info("🚀 Starting queue worker",
		zap.Int("worker_count", w.opts.Workers),
		zap.Duration("job_timeout", w.opts.JobTimeout),
	)

	for i := 0; i < w.opts.Workers; i++ {
		w.workerWg.Add(1)
		go w.consume(ctx, i)
	}
	w.workerWg.Add(1)
	go w.reap(ctx)

	<-ctx.Done()
	w.logger.Info("🛑 Stopping queue worker, waiting for running jobs...")
	w.workerWg.Wait()
	w.logger.Info("✅ Queue worker stopped")
	return nil
}

func (w *QueueWorker) consume(ctx context.Context, workerID int) {
	defer w.workerWg.Done()

	w.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	for ctx.Err() == nil {
		d, err := w.queue.Dequeue(ctx, w.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.logger.Error("❌ Failed to dequeue", zap.Int("worker_id", workerID), zap.Error(err))
			if errors.Is(err, queue.ErrMalformedJob) {
				continue
			}
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if d == nil {
			continue
		}
		w.handle(ctx, workerID, d)
	}
	w.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
}

// handle runs one delivery. The job is not cancelled by shutdown; only its
// own time limit applies.
func (w *QueueWorker) handle(ctx context.Context, workerID int, d *queue.Delivery) {
	jobCtx, cancel := jobcontext.JobBegin(context.WithoutCancel(ctx), d.Job.ID, JobType, d.Job.MeetingID, workerID, w.opts.JobTimeout)
	jobCtx = jobcontext.SetMaxRetries(jobCtx, 1)
	log, meta := jobLogger(jobCtx, w.logger)
	log = log.With(zap.Int("attempt", d.Job.Attempt))
	start := meta.StartTime
	err := jobcontext.JobEnd(jobCtx, runOnce(w.processor, d.Job.MeetingID))
	cancel()

	ackCtx, ackCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer ackCancel()

	switch {
	case err == nil:
		log.Info("✅ Job done", zap.Duration("elapsed", time.Since(start)))
		if ackErr := w.queue.Ack(ackCtx, d); ackErr != nil {
			log.Error("❌ Failed to ack job", zap.Error(ackErr))
		}
	case jobcontext.IsRetryableError(err) && d.Job.Attempt+1 < w.opts.MaxAttempts:
		log.Warn("⚠️ Job failed, re-queueing", zap.Error(err))
		if retryErr := w.queue.Retry(ackCtx, d); retryErr != nil {
			log.Error("❌ Failed to re-queue job", zap.Error(retryErr))
		}
	default:
		log.Error("❌ Job failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		if ackErr := w.queue.Ack(ackCtx, d); ackErr != nil {
			log.Error("❌ Failed to ack job", zap.Error(ackErr))
		}
	}
}

func (w *QueueWorker) reap(ctx context.Context) {
	defer w.workerWg.Done()

	ticker := time.NewTicker(w.opts.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.queue.ReapExpired(ctx, time.Now())
			if err != nil {
				if ctx.Err() == nil {
					w.logger.Error("❌ Failed to reap expired jobs", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				w.logger.Warn("♻️ Re-queued jobs with expired leases", zap.Int("count", n))
			}
		}
	}
}

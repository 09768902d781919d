package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-pipeline/internal/infrastructure/queue"
	"github.com/johnquangdev/meeting-pipeline/pkg/jobcontext"
)

// JobQueue is the durable queue used by QueueDispatcher and QueueWorker
type JobQueue interface {
	Enqueue(ctx context.Context, job queue.Job) error
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Delivery, error)
	Ack(ctx context.Context, d *queue.Delivery) error
	Retry(ctx context.Context, d *queue.Delivery) error
	ReapExpired(ctx context.Context, now time.Time) (int, error)
}

// QueueDispatcher enqueues pipeline jobs for the worker process
type QueueDispatcher struct {
	queue      JobQueue
	maxElapsed time.Duration
	logger     *zap.Logger
}

// NewQueueDispatcher creates a dispatcher that retries enqueueing for up to maxElapsed
func NewQueueDispatcher(q JobQueue, maxElapsed time.Duration, logger *zap.Logger) *QueueDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDispatcher{queue: q, maxElapsed: maxElapsed, logger: logger}
}

// Dispatch enqueues a job, retrying transient broker errors with exponential backoff
func (d *QueueDispatcher) Dispatch(ctx context.Context, meetingID uuid.UUID) error {
	job := queue.NewJob(meetingID)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = d.maxElapsed

	attempt := 0
	enqueue := func() error {
		attempt++
		err := d.queue.Enqueue(ctx, job)
		if err == nil {
			return nil
		}
		if !jobcontext.IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		d.logger.Warn("⚠️ Enqueue failed, retrying",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	if err := backoff.Retry(enqueue, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("enqueue meeting %s: %w", meetingID, err)
	}

	d.logger.Info("📤 Meeting queued",
		zap.String("meeting_id", meetingID.String()),
		zap.String("job_id", job.ID.String()),
	)
	return nil
}

// Stop is a no-op; queued jobs outlive the API process
func (d *QueueDispatcher) Stop(ctx context.Context) error {
	return nil
}

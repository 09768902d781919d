package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-pipeline/internal/usecase/pipeline"
	"github.com/johnquangdev/meeting-pipeline/pkg/jobcontext"
)

// JobType tags pipeline jobs in job contexts and logs
const JobType = "process_meeting"

var (
	// ErrQueueFull is returned when the background pool cannot accept more work
	ErrQueueFull = errors.New("dispatch queue is full")
	// ErrAlreadyQueued is returned when the meeting already has a run in flight
	ErrAlreadyQueued = errors.New("meeting already queued")
	// ErrStopped is returned after the dispatcher has been stopped
	ErrStopped = errors.New("dispatcher stopped")
)

// Dispatcher schedules pipeline runs
type Dispatcher interface {
	Dispatch(ctx context.Context, meetingID uuid.UUID) error
	Stop(ctx context.Context) error
}

// permanentError marks a run whose outcome is already recorded on the meeting
type permanentError struct {
	err error
}

func (e *permanentError) Error() string   { return e.err.Error() }
func (e *permanentError) Unwrap() error   { return e.err }
func (e *permanentError) Retryable() bool { return false }

// runOnce adapts Processor for jobcontext.JobEnd. A failure that already
// moved the meeting to a terminal status is not retried.
func runOnce(p pipeline.Processor, meetingID uuid.UUID) func(context.Context) error {
	return func(ctx context.Context) error {
		res, err := p.Process(ctx, meetingID)
		if err == nil {
			return nil
		}
		if pipeline.IsNoRecording(err) || (res != nil && res.Status.IsTerminal()) {
			return &permanentError{err: err}
		}
		return fmt.Errorf("process meeting %s: %w", meetingID, err)
	}
}

// jobLogger tags log lines with the job metadata carried by a JobBegin context
func jobLogger(ctx context.Context, logger *zap.Logger) (*zap.Logger, *jobcontext.JobMetadata) {
	meta := jobcontext.GetJobMetadata(ctx)
	return logger.With(
		zap.String("job_id", meta.JobID.String()),
		zap.String("job_type", meta.JobType),
		zap.String("meeting_id", meta.MeetingID.String()),
		zap.Int("worker_id", meta.WorkerID),
		zap.Int("max_retries", meta.MaxRetries),
	), meta
}

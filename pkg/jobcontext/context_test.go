package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classified struct{ retry bool }

func (c classified) Error() string   { return "classified" }
func (c classified) Retryable() bool { return c.retry }

func TestJobBegin_Metadata(t *testing.T) {
	jobID, meetingID := uuid.New(), uuid.New()
	ctx, cancel := JobBegin(context.Background(), jobID, "process_meeting", meetingID, 3, time.Minute)
	defer cancel()

	meta := GetJobMetadata(ctx)
	assert.Equal(t, jobID, meta.JobID)
	assert.Equal(t, meetingID, meta.MeetingID)
	assert.Equal(t, "process_meeting", meta.JobType)
	assert.Equal(t, 3, meta.WorkerID)
	assert.Equal(t, 3, meta.MaxRetries)

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestJobBegin_DefaultTimeout(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "t", uuid.New(), 0, 0)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(DefaultTimeout), deadline, 5*time.Second)
}

func TestJobEnd_RetriesRetryable(t *testing.T) {
	ctx := SetRetryDelay(SetMaxRetries(context.Background(), 3), time.Millisecond)

	calls := 0
	err := JobEnd(ctx, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestJobEnd_StopsOnNonRetryable(t *testing.T) {
	ctx := SetRetryDelay(context.Background(), time.Millisecond)

	calls := 0
	err := JobEnd(ctx, func(ctx context.Context) error {
		calls++
		return classified{retry: false}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorAs(t, err, &classified{})
}

func TestJobEnd_RecoversPanic(t *testing.T) {
	err := JobEnd(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})
	assert.ErrorContains(t, err, "panic recovered: boom")
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{classified{retry: true}, true},
		{fmt.Errorf("wrapped: %w", classified{retry: false}), false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), true},
		{errors.New("too many requests"), true},
		{errors.New("record not found"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryableError(tt.err), "%v", tt.err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, time.Second, CalculateBackoff(0, time.Second))
	assert.Equal(t, 4*time.Second, CalculateBackoff(2, time.Second))
	assert.Equal(t, 60*time.Second, CalculateBackoff(10, time.Second))
}

package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, lease time.Duration) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client, "meetings", lease), mr
}

func TestRedisQueue_FIFOAndAck(t *testing.T) {
	q, _ := newTestQueue(t, time.Minute)
	ctx := context.Background()

	first, second := NewJob(uuid.New()), NewJob(uuid.New())
	require.NoError(t, q.Enqueue(ctx, first))
	require.NoError(t, q.Enqueue(ctx, second))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, first.MeetingID, d.Job.MeetingID)

	inFlight, err := q.InFlight(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, inFlight)

	require.NoError(t, q.Ack(ctx, d))
	inFlight, err = q.InFlight(ctx)
	require.NoError(t, err)
	assert.Zero(t, inFlight)

	d, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, second.MeetingID, d.Job.MeetingID)
}

func TestRedisQueue_DequeueTimeout(t *testing.T) {
	q, _ := newTestQueue(t, time.Minute)

	d, err := q.Dequeue(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestRedisQueue_ReapExpired(t *testing.T) {
	q, _ := newTestQueue(t, time.Minute)
	ctx := context.Background()

	job := NewJob(uuid.New())
	require.NoError(t, q.Enqueue(ctx, job))
	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)

	// lease still valid
	reaped, err := q.ReapExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, reaped)

	reaped, err = q.ReapExpired(ctx, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	inFlight, err := q.InFlight(ctx)
	require.NoError(t, err)
	assert.Zero(t, inFlight)

	again, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, job.ID, again.Job.ID)

	// the original holder acks late: nothing is duplicated
	require.NoError(t, q.Ack(ctx, d))
	require.NoError(t, q.Ack(ctx, again))
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisQueue_LeaselessJobGetsLease(t *testing.T) {
	q, mr := newTestQueue(t, time.Minute)
	ctx := context.Background()

	payload := `{"id":"` + uuid.NewString() + `","meeting_id":"` + uuid.NewString() + `","attempt":0}`
	_, err := mr.Lpush("meetings:processing", payload)
	require.NoError(t, err)

	reaped, err := q.ReapExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, reaped)
	assert.True(t, mr.Exists("meetings:leases"))

	reaped, err = q.ReapExpired(ctx, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)
}

func TestRedisQueue_Retry(t *testing.T) {
	q, _ := newTestQueue(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, NewJob(uuid.New())))
	d, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, d)

	require.NoError(t, q.Retry(ctx, d))

	next, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, d.Job.ID, next.Job.ID)
	assert.Equal(t, 1, next.Job.Attempt)

	// retrying a delivery that is no longer in processing does not duplicate it
	require.NoError(t, q.Retry(ctx, d))
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisQueue_MalformedPayload(t *testing.T) {
	q, mr := newTestQueue(t, time.Minute)
	ctx := context.Background()

	_, err := mr.Lpush("meetings:pending", "not json")
	require.NoError(t, err)

	d, err := q.Dequeue(ctx, time.Second)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrMalformedJob)

	inFlight, err := q.InFlight(ctx)
	require.NoError(t, err)
	assert.Zero(t, inFlight)
}

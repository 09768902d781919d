package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMalformedJob is returned by Dequeue for payloads that cannot be decoded.
// The payload is dropped from the processing list.
var ErrMalformedJob = errors.New("malformed job payload")

// Job asks a worker to run the pipeline for one meeting
type Job struct {
	ID         uuid.UUID `json:"id"`
	MeetingID  uuid.UUID `json:"meeting_id"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob creates a first-attempt job for a meeting
func NewJob(meetingID uuid.UUID) Job {
	return Job{
		ID:         uuid.New(),
		MeetingID:  meetingID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Delivery is a dequeued job together with its raw payload
type Delivery struct {
	Job Job
	raw string
}

// moveScript removes a payload from the processing list and, only if it was
// still there, pushes a payload to the pending list. KEYS: processing, leases,
// pending. ARGV: payload, payload to push ("" pushes nothing), "L" or "R".
var moveScript = redis.NewScript(`
local removed = redis.call('LREM', KEYS[1], 1, ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
if removed > 0 and ARGV[2] ~= '' then
  if ARGV[3] == 'R' then
    redis.call('RPUSH', KEYS[3], ARGV[2])
  else
    redis.call('LPUSH', KEYS[3], ARGV[2])
  end
end
return removed
`)

// RedisQueue is a reliable FIFO of jobs on Redis lists.
// Dequeued jobs sit in a processing list under a lease until acked;
// ReapExpired returns jobs whose lease ran out to the head of the queue.
type RedisQueue struct {
	client        redis.UniversalClient
	pendingKey    string
	processingKey string
	leasesKey     string
	lease         time.Duration
}

// NewRedisQueue creates a queue named name. lease bounds how long a
// dequeued job may stay unacknowledged before it is delivered again.
func NewRedisQueue(client redis.UniversalClient, name string, lease time.Duration) *RedisQueue {
	return &RedisQueue{
		client:        client,
		pendingKey:    name + ":pending",
		processingKey: name + ":processing",
		leasesKey:     name + ":leases",
		lease:         lease,
	}
}

// Enqueue adds a job to the tail of the queue
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.client.LPush(ctx, q.pendingKey, payload).Err()
}

// Dequeue waits up to timeout for a job. Returns nil, nil on timeout.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	raw, err := q.client.BRPopLPush(ctx, q.pendingKey, q.processingKey, timeout).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(q.lease).UnixMilli()
	if err := q.client.HSet(ctx, q.leasesKey, raw, deadline).Err(); err != nil {
		return nil, fmt.Errorf("set lease: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		_ = q.drop(ctx, raw)
		return nil, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	return &Delivery{Job: job, raw: raw}, nil
}

// Ack removes a finished job
func (q *RedisQueue) Ack(ctx context.Context, d *Delivery) error {
	return q.drop(ctx, d.raw)
}

// Retry puts the job back at the tail with its attempt counter increased.
// A job already reclaimed by the reaper is not queued twice.
func (q *RedisQueue) Retry(ctx context.Context, d *Delivery) error {
	next := d.Job
	next.Attempt++
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.move(ctx, d.raw, string(payload), "L")
}

// ReapExpired re-queues processing jobs whose lease has expired and
// returns how many were re-queued. Jobs found without a lease get one.
func (q *RedisQueue) ReapExpired(ctx context.Context, now time.Time) (int, error) {
	processing, err := q.client.LRange(ctx, q.processingKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	if len(processing) == 0 {
		return 0, nil
	}
	leases, err := q.client.HGetAll(ctx, q.leasesKey).Result()
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, raw := range processing {
		value, ok := leases[raw]
		if !ok {
			// popped by a worker that died before recording the lease
			if err := q.client.HSetNX(ctx, q.leasesKey, raw, now.Add(q.lease).UnixMilli()).Err(); err != nil {
				return reaped, err
			}
			continue
		}
		deadline, err := strconv.ParseInt(value, 10, 64)
		if err == nil && deadline > now.UnixMilli() {
			continue
		}
		removed, err := moveScript.Run(ctx, q.client,
			[]string{q.processingKey, q.leasesKey, q.pendingKey}, raw, raw, "R").Int()
		if err != nil {
			return reaped, err
		}
		reaped += removed
	}
	return reaped, nil
}

// Len returns the number of jobs waiting
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.pendingKey).Result()
}

// InFlight returns the number of dequeued, unacknowledged jobs
func (q *RedisQueue) InFlight(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.processingKey).Result()
}

func (q *RedisQueue) drop(ctx context.Context, raw string) error {
	return q.move(ctx, raw, "", "L")
}

func (q *RedisQueue) move(ctx context.Context, raw, push, side string) error {
	return moveScript.Run(ctx, q.client,
		[]string{q.processingKey, q.leasesKey, q.pendingKey}, raw, push, side).Err()
}

// Package queue carries OTP mail jobs through a Redis list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/omarrislam/Quiz-App/internal/config"
	"github.com/omarrislam/Quiz-App/internal/model"
	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Pop when nothing arrived before the timeout.
var ErrEmpty = errors.New("queue empty")

// MailQueue is a FIFO of mail jobs on WorkerKey.OTPMailQueue.
type MailQueue struct {
	rdb *redis.Client
	key string
}

// NewMailQueue creates a MailQueue.
func NewMailQueue(rdb *redis.Client) *MailQueue {
	return &MailQueue{rdb: rdb, key: config.WorkerKey.OTPMailQueue}
}

// Enqueue appends job to the tail.
func (q *MailQueue) Enqueue(ctx context.Context, job *model.MailJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode mail job: %w", err)
	}
	return q.rdb.RPush(ctx, q.key, b).Err()
}

// Requeue puts a failed job back at the tail.
func (q *MailQueue) Requeue(ctx context.Context, job *model.MailJob) error {
	return q.Enqueue(ctx, job)
}

// Pop blocks up to timeout for the next job. A payload that cannot be
// decoded is returned as an error together with its raw form so the caller
// can log and drop it.
func (q *MailQueue) Pop(ctx context.Context, timeout time.Duration) (*model.MailJob, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	if len(res) < 2 {
		return nil, ErrEmpty
	}
	var job model.MailJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, &MalformedError{Raw: res[1], Err: err}
	}
	return &job, nil
}

// Len reports the queue depth.
func (q *MailQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// MalformedError wraps a payload that is not a mail job.
type MalformedError struct {
	Raw string
	Err error
}

func (e *MalformedError) Error() string { return "malformed mail job: " + e.Err.Error() }
func (e *MalformedError) Unwrap() error { return e.Err }

// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/northbound/cortex/internal/logger"
)

// RedisQueue is the multi-process Queue backend: jobs travel through a
// Redis list (RPUSH/BLPOP) so several server processes can share one work
// queue. Selected via the queue_backend config key.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    *logger.Logger
}

// NewRedisQueue wraps client as a Queue over the given list key. The
// connection is verified with a ping before first use.
func NewRedisQueue(client *redis.Client, key string, log *logger.Logger) (*RedisQueue, error) {
	if key == "" {
		key = "cortex:jobs"
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("queue: redis ping: %w", err)
	}
	return &RedisQueue{client: client, key: key, log: log}, nil
}

// Enqueue appends job to the list. Redis lists are unbounded, so unlike
// ChannelQueue this never blocks on back-pressure.
func (r *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("queue: rpush %s: %w", r.key, err)
	}
	if r.log != nil {
		r.log.Debugf("queue: enqueued type=%s key=%s", job.Type, r.key)
	}
	return nil
}

// Dequeue blocks on BLPOP until a job is available or ctx is done. The pop
// runs in its own goroutine because go-redis's blocking commands do not
// observe context cancellation mid-wait.
func (r *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	type popResult struct {
		val []string
		err error
	}
	results := make(chan popResult, 1)
	go func() {
		val, err := r.client.BLPop(ctx, 0, r.key).Result()
		results <- popResult{val: val, err: err}
	}()

	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case res := <-results:
		if res.err != nil {
			if res.err == redis.Nil {
				return Job{}, ctx.Err()
			}
			return Job{}, fmt.Errorf("queue: blpop %s: %w", r.key, res.err)
		}
		if len(res.val) < 2 {
			return Job{}, fmt.Errorf("queue: blpop %s: malformed reply (%d elements)", r.key, len(res.val))
		}

		var job Job
		if err := json.Unmarshal([]byte(res.val[1]), &job); err != nil {
			return Job{}, fmt.Errorf("queue: unmarshal job: %w", err)
		}
		return job, nil
	}
}

var _ Queue = (*RedisQueue)(nil)

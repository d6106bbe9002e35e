package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/yoockh/eslsheets/internal/models"
)

// ExtractionStream is the redis stream async extraction runs are queued on.
const ExtractionStream = "extraction:stream"

// RunStatusChannel is the pubsub channel a run's status events go to.
func RunStatusChannel(runID string) string {
	return "extraction-run:" + runID + ":status"
}

// RunQueue hands a pending run to the worker pool.
type RunQueue interface {
	Enqueue(ctx context.Context, runID string) error
}

// RunNotifier broadcasts run status changes.
type RunNotifier interface {
	Publish(ctx context.Context, ev models.RunStatusEvent) error
}

type RedisRunQueue struct {
	rdb    *redis.Client
	stream string
}

func NewRedisRunQueue(rdb *redis.Client) *RedisRunQueue {
	return &RedisRunQueue{rdb: rdb, stream: ExtractionStream}
}

func (q *RedisRunQueue) Enqueue(ctx context.Context, runID string) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]any{"run_id": runID},
	}).Err()
}

type RedisRunNotifier struct {
	rdb *redis.Client
}

func NewRedisRunNotifier(rdb *redis.Client) *RedisRunNotifier {
	return &RedisRunNotifier{rdb: rdb}
}

func (n *RedisRunNotifier) Publish(ctx context.Context, ev models.RunStatusEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, RunStatusChannel(ev.RunID), b).Err()
}

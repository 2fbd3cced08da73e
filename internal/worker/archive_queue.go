package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/interview-sim/internal/config"
	"github.com/stemsi/interview-sim/internal/model"
)

// ArchiveQueue enqueues completed interviews for the ArchiveWorker.
type ArchiveQueue struct {
	rdb *redis.Client
}

// NewArchiveQueue creates a new ArchiveQueue.
func NewArchiveQueue(rdb *redis.Client) *ArchiveQueue {
	return &ArchiveQueue{rdb: rdb}
}

// Archive pushes the result onto archive_results_queue.
func (q *ArchiveQueue) Archive(ctx context.Context, result model.InterviewResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.ArchiveResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue result: %w", err)
	}
	return nil
}

// Pending returns the number of queued results.
func (q *ArchiveQueue) Pending(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, config.WorkerKey.ArchiveResultsQueue).Result()
}

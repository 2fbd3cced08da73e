package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/config"
	"github.com/stemsi/interview-sim/internal/model"
)

const (
	ArchiveBatchSize    = 50
	ArchiveBatchTimeout = 2 * time.Second
	ArchivePollTimeout  = 1 * time.Second
)

// ResultWriter persists archived results. *repository.ResultRepository
// satisfies it.
type ResultWriter interface {
	BulkUpsert(ctx context.Context, batch []model.InterviewResult) error
	Upsert(ctx context.Context, res model.InterviewResult) error
}

// ArchiveWorker consumes archive_results_queue and upserts results into
// PostgreSQL in batches.
type ArchiveWorker struct {
	results ResultWriter
	rdb     *redis.Client
	log     zerolog.Logger
}

// NewArchiveWorker creates a new ArchiveWorker.
func NewArchiveWorker(results ResultWriter, rdb *redis.Client, log zerolog.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		results: results,
		rdb:     rdb,
		log:     log.With().Str("component", "archive_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes and drains. Call in a
// goroutine.
func (w *ArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ArchiveWorker started")

	batch := make([]model.InterviewResult, 0, ArchiveBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ArchiveBatchSize || time.Since(lastFlush) >= ArchiveBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			w.log.Info().Msg("ArchiveWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, ArchivePollTimeout, config.WorkerKey.ArchiveResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(ArchivePollTimeout)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			res, ok := w.decode(item[1])
			if !ok {
				continue
			}
			batch = append(batch, res)
		}
	}
}

func (w *ArchiveWorker) decode(raw string) (model.InterviewResult, bool) {
	var res model.InterviewResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return res, false
	}
	if res.CandidateID == "" {
		w.log.Error().Msg("Payload without candidate_id")
		return res, false
	}
	return res, true
}

// ----------------------------------------------------------------
// Batch upsert with single-row fallback
// ----------------------------------------------------------------

func (w *ArchiveWorker) flushSafe(ctx context.Context, batch []model.InterviewResult) {
	if len(batch) == 0 {
		return
	}

	if err := w.results.BulkUpsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk archive failed, using fallback")

		for _, res := range batch {
			if err := w.results.Upsert(ctx, res); err != nil {
				w.log.Error().Err(err).Str("candidate_id", res.CandidateID).Msg("single archive failed, requeueing")
				raw, _ := json.Marshal(res)
				w.rdb.RPush(ctx, config.WorkerKey.ArchiveResultsQueue, raw)
			}
		}
		return
	}

	w.log.Debug().Int("size", len(batch)).Msg("Archived batch")
}

// drain archives everything still queued before shutdown.
func (w *ArchiveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.ArchiveResultsQueue).Result()
		if err != nil {
			break
		}

		res, ok := w.decode(raw)
		if !ok {
			continue
		}

		if err := w.results.Upsert(ctx, res); err != nil {
			w.log.Error().Err(err).Msg("Drain archive error")
			w.rdb.RPush(ctx, config.WorkerKey.ArchiveResultsQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/interview-sim/internal/config"
	"github.com/stemsi/interview-sim/internal/model"
)

const maxMergeRetries = 50

// RedisCandidateStore keeps each candidate as a JSON record in Redis.
// Merges are optimistic WATCH/MULTI transactions, so a timer tick and a
// submission racing on one record never lose each other's fields.
type RedisCandidateStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisCandidateStore creates a new RedisCandidateStore.
func NewRedisCandidateStore(rdb *redis.Client) *RedisCandidateStore {
	return &RedisCandidateStore{rdb: rdb, now: time.Now}
}

func (s *RedisCandidateStore) Create(ctx context.Context, c *model.Candidate) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, config.CacheKey.CandidateKey(c.ID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("store candidate: %w", err)
	}
	if !ok {
		return ErrCandidateExists
	}

	if err := s.rdb.ZAdd(ctx, config.CacheKey.CandidateIndexKey(), redis.Z{
		Score:  float64(c.CreatedAt.UnixNano()),
		Member: c.ID,
	}).Err(); err != nil {
		return fmt.Errorf("index candidate: %w", err)
	}
	return nil
}

func (s *RedisCandidateStore) Get(ctx context.Context, id string) (*model.Candidate, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.CandidateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return decodeCandidate(raw)
}

func (s *RedisCandidateStore) Merge(ctx context.Context, u model.CandidateUpdate) (*model.Candidate, bool, error) {
	key := config.CacheKey.CandidateKey(u.ID)

	var merged *model.Candidate
	txf := func(tx *redis.Tx) error {
		merged = nil
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		c, err := decodeCandidate(raw)
		if err != nil {
			return err
		}
		u.Apply(c, s.now())

		out, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		merged = c
		return nil
	}

	for attempt := 0; attempt < maxMergeRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("merge candidate: %w", err)
		}
		return merged, merged != nil, nil
	}
	return nil, false, fmt.Errorf("merge candidate %s: too much contention", u.ID)
}

func (s *RedisCandidateStore) Reset(ctx context.Context, id string) (*model.Candidate, bool, error) {
	return s.Merge(ctx, model.ResetUpdate(id))
}

func (s *RedisCandidateStore) List(ctx context.Context) ([]model.Candidate, error) {
	ids, err := s.rdb.ZRevRange(ctx, config.CacheKey.CandidateIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list candidate ids: %w", err)
	}
	if len(ids) == 0 {
		return []model.Candidate{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = config.CacheKey.CandidateKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	out := make([]model.Candidate, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // Deleted between ZRANGE and MGET
		}
		c, err := decodeCandidate([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *RedisCandidateStore) Delete(ctx context.Context, id string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, config.CacheKey.CandidateKey(id))
	pipe.ZRem(ctx, config.CacheKey.CandidateIndexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

func decodeCandidate(raw []byte) (*model.Candidate, error) {
	var c model.Candidate
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	if c.Questions == nil {
		c.Questions = []model.Question{}
	}
	if c.Answers == nil {
		c.Answers = []model.Answer{}
	}
	return &c, nil
}

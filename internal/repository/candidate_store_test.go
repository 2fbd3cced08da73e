package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/interview-sim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis instance and a redis client for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func stores(t *testing.T) map[string]CandidateStore {
	_, rdb := setupTestRedis(t)
	return map[string]CandidateStore{
		"memory": NewMemoryCandidateStore(),
		"redis":  NewRedisCandidateStore(rdb),
	}
}

func sampleQuestions() []model.Question {
	qs := make([]model.Question, model.QuestionsPerInterview)
	for i := range qs {
		qs[i] = model.Question{
			ID:         "q" + string(rune('0'+i)),
			Text:       "question",
			Difficulty: model.DifficultyForIndex(i),
			TimeLimit:  model.TimeLimitForIndex(i),
		}
	}
	return qs
}

func seeded(t *testing.T, s CandidateStore, id string, created time.Time) *model.Candidate {
	t.Helper()
	c := model.NewCandidate(id, "Alice", "", "", "", created)
	require.NoError(t, s.Create(context.Background(), c))
	return c
}

func TestCandidateStoreCreateGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seeded(t, s, "c1", time.Now())

			got, err := s.Get(ctx, "c1")
			require.NoError(t, err)
			assert.Equal(t, "Alice", got.Name)
			assert.Equal(t, model.InterviewStatusNotStarted, got.InterviewStatus)
			assert.Empty(t, got.Questions)
			assert.NotNil(t, got.Answers)

			err = s.Create(ctx, model.NewCandidate("c1", "Dup", "", "", "", time.Now()))
			assert.ErrorIs(t, err, ErrCandidateExists)

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrCandidateNotFound)
		})
	}
}

func TestCandidateStoreMergeKeepsOmittedFields(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seeded(t, s, "c1", time.Now())

			answers := []model.Answer{{QuestionID: "q0", Text: "hi", Score: model.Ptr(7)}}
			_, ok, err := s.Merge(ctx, model.CandidateUpdate{
				ID:                   "c1",
				Questions:            model.Ptr(sampleQuestions()),
				Answers:              &answers,
				CurrentQuestionIndex: model.Ptr(1),
				InterviewStatus:      model.Ptr(model.InterviewStatusInProgress),
			})
			require.NoError(t, err)
			require.True(t, ok)

			got, ok, err := s.Merge(ctx, model.CandidateUpdate{ID: "c1", TimeLeft: model.Set(5)})
			require.NoError(t, err)
			require.True(t, ok)

			assert.Len(t, got.Questions, model.QuestionsPerInterview)
			require.Len(t, got.Answers, 1)
			assert.Equal(t, 7, *got.Answers[0].Score)
			assert.Equal(t, 1, got.CurrentQuestionIndex)
			assert.Equal(t, 5, got.RemainingSeconds())
			assert.Equal(t, model.InterviewStatusInProgress, got.InterviewStatus)
		})
	}
}

func TestCandidateStoreMergeUnknownIsNoop(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			got, ok, err := s.Merge(context.Background(), model.CandidateUpdate{ID: "ghost", TimeLeft: model.Set(3)})
			assert.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestCandidateStoreReset(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seeded(t, s, "c1", time.Now())
			_, _, err := s.Merge(ctx, model.CandidateUpdate{
				ID:                   "c1",
				Questions:            model.Ptr(sampleQuestions()),
				CurrentQuestionIndex: model.Ptr(6),
				TimeLeft:             model.Set(0),
				InterviewStatus:      model.Ptr(model.InterviewStatusCompleted),
				Score:                model.Set(75),
				Summary:              model.Set("solid"),
			})
			require.NoError(t, err)

			got, ok, err := s.Reset(ctx, "c1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, model.InterviewStatusNotStarted, got.InterviewStatus)
			assert.Empty(t, got.Questions)
			assert.Empty(t, got.Answers)
			assert.Nil(t, got.Score)
			assert.Nil(t, got.Summary)
			assert.Nil(t, got.TimeLeft)
			assert.Equal(t, 0, got.CurrentQuestionIndex)
			assert.Equal(t, "Alice", got.Name)
		})
	}
}

func TestCandidateStoreReturnsCopies(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seeded(t, s, "c1", time.Now())
			_, _, err := s.Merge(ctx, model.CandidateUpdate{ID: "c1", Questions: model.Ptr(sampleQuestions())})
			require.NoError(t, err)

			got, err := s.Get(ctx, "c1")
			require.NoError(t, err)
			got.Questions[0].Text = "mutated"
			got.Answers = append(got.Answers, model.Answer{})

			again, err := s.Get(ctx, "c1")
			require.NoError(t, err)
			assert.Equal(t, "question", again.Questions[0].Text)
			assert.Empty(t, again.Answers)
		})
	}
}

func TestCandidateStoreListNewestFirstAndDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now()
			seeded(t, s, "old", base.Add(-time.Minute))
			seeded(t, s, "new", base)

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "new", list[0].ID)
			assert.Equal(t, "old", list[1].ID)

			require.NoError(t, s.Delete(ctx, "new"))
			list, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "old", list[0].ID)
		})
	}
}

func TestCandidateStoreConcurrentMerges(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seeded(t, s, "c1", time.Now())

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					_, _, _ = s.Merge(ctx, model.CandidateUpdate{ID: "c1", TimeLeft: model.Set(i)})
				}
			}()
			go func() {
				defer wg.Done()
				_, _, _ = s.Merge(ctx, model.CandidateUpdate{ID: "c1", Questions: model.Ptr(sampleQuestions())})
			}()
			wg.Wait()

			got, err := s.Get(ctx, "c1")
			require.NoError(t, err)
			assert.Len(t, got.Questions, model.QuestionsPerInterview)
		})
	}
}

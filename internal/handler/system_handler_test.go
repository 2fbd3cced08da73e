package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/llm"
	"github.com/stemsi/interview-sim/internal/model"
	"github.com/stemsi/interview-sim/internal/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	results       []model.InterviewResult
	err           error
	limit, offset int
}

func (f *fakeLister) List(_ context.Context, limit, offset int) ([]model.InterviewResult, int, error) {
	f.limit, f.offset = limit, offset
	if f.err != nil {
		return nil, 0, f.err
	}
	end := min(offset+limit, len(f.results))
	if offset > end {
		offset = end
	}
	return f.results[offset:end], len(f.results), nil
}

type fakeDepth struct{ n int64 }

func (f fakeDepth) Pending(context.Context) (int64, error) { return f.n, nil }

func TestResultHandler_Disabled(t *testing.T) {
	r := gin.New()
	r.GET("/results", NewResultHandler(nil, zerolog.Nop()).ListResults)

	w, env := do(t, r, http.MethodGet, "/results", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, response.ErrArchiveDisabled, env.Error.Code)
}

func TestResultHandler_Pagination(t *testing.T) {
	lister := &fakeLister{}
	for i := 0; i < 5; i++ {
		lister.results = append(lister.results, model.InterviewResult{
			CandidateID: string(rune('a' + i)),
			Name:        "Candidate",
			Score:       90 - i*10,
		})
	}

	r := gin.New()
	r.GET("/results", NewResultHandler(lister, zerolog.Nop()).ListResults)

	w, env := do(t, r, http.MethodGet, "/results?page=2&per_page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, lister.limit)
	assert.Equal(t, 2, lister.offset)

	var data struct {
		Results []model.InterviewResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Results, 2)
	assert.Equal(t, "c", data.Results[0].CandidateID)

	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, 5, env.Pagination.TotalItems)
	assert.Equal(t, 3, env.Pagination.TotalPages)

	_, _ = do(t, r, http.MethodGet, "/results?page=0&per_page=500", "")
	assert.Equal(t, 20, lister.limit)
	assert.Equal(t, 0, lister.offset)
}

func TestResultHandler_ListFailure(t *testing.T) {
	r := gin.New()
	r.GET("/results", NewResultHandler(&fakeLister{err: errors.New("db down")}, zerolog.Nop()).ListResults)

	w, env := do(t, r, http.MethodGet, "/results", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, response.ErrInternal, env.Error.Code)
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
		want   string
		deps   map[string]string
	}{
		{
			name:   "no dependencies",
			status: http.StatusOK,
			want:   "ok",
		},
		{
			name: "all up",
			checks: map[string]HealthCheck{
				"redis": func(context.Context) error { return nil },
			},
			status: http.StatusOK,
			want:   "ok",
			deps:   map[string]string{"redis": "up"},
		},
		{
			name: "one down",
			checks: map[string]HealthCheck{
				"redis":    func(context.Context) error { return nil },
				"postgres": func(context.Context) error { return errors.New("refused") },
			},
			status: http.StatusServiceUnavailable,
			want:   "degraded",
			deps:   map[string]string{"redis": "up", "postgres": "down"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewSystemHandler(tt.checks, fakeDepth{n: 3}, "gemini", zerolog.Nop()).Health)

			w, env := do(t, r, http.MethodGet, "/health", "")
			assert.Equal(t, tt.status, w.Code)

			var s systemStatus
			require.NoError(t, json.Unmarshal(env.Data, &s))
			assert.Equal(t, tt.want, s.Status)
			assert.Positive(t, s.Goroutines)
			require.NotNil(t, s.QueueArchive)
			assert.EqualValues(t, 3, *s.QueueArchive)
			assert.Equal(t, "gemini", s.LLMProvider)
			assert.True(t, s.LLMEnabled)
			if tt.deps != nil {
				assert.Equal(t, tt.deps, s.Dependencies)
			}
		})
	}
}

func TestSystemHandler_HealthReportsDisabledModel(t *testing.T) {
	for _, provider := range []string{"", llm.DisabledProviderName} {
		r := gin.New()
		r.GET("/health", NewSystemHandler(nil, nil, provider, zerolog.Nop()).Health)

		w, env := do(t, r, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var s systemStatus
		require.NoError(t, json.Unmarshal(env.Data, &s))
		assert.Equal(t, "ok", s.Status)
		assert.Equal(t, llm.DisabledProviderName, s.LLMProvider)
		assert.False(t, s.LLMEnabled)
		assert.Nil(t, s.QueueArchive)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0h 1m 5s", formatDuration(65*time.Second))
	assert.Equal(t, "2d 3h 4m", formatDuration(51*time.Hour+4*time.Minute))
}

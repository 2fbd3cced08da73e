package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/llm"
	"github.com/stemsi/interview-sim/internal/model"
	"github.com/stemsi/interview-sim/internal/repository"
	"github.com/stretchr/testify/require"
)

var errFake = errors.New("fake collaborator failure")

type fakeSource struct {
	calls   atomic.Int32
	started chan struct{}
	gate    chan struct{}
	err     error
	batch   []model.Question
}

func newFakeSource() *fakeSource {
	texts := make([]string, model.QuestionsPerInterview)
	for i := range texts {
		texts[i] = fmt.Sprintf("Generated question %d", i+1)
	}
	return &fakeSource{
		started: make(chan struct{}, 16),
		batch:   BandQuestions(texts, uuid.NewString),
	}
}

func (f *fakeSource) GenerateBatch(ctx context.Context, _ QuestionRequest) ([]model.Question, error) {
	f.calls.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Question(nil), f.batch...), nil
}

type fakeScorer struct {
	mu     sync.Mutex
	scores []int

	evalErr        error
	evalGate       chan struct{}
	evalStarted    chan struct{}
	evalCalls      atomic.Int32
	summary        string
	summaryErr     error
	summaryGate    chan struct{}
	summaryStarted chan struct{}
	summaryCalls   atomic.Int32
}

func newFakeScorer(scores ...int) *fakeScorer {
	return &fakeScorer{
		scores:         scores,
		evalStarted:    make(chan struct{}, 16),
		summaryStarted: make(chan struct{}, 16),
		summary:        "Solid fundamentals.",
	}
}

func (f *fakeScorer) Evaluate(ctx context.Context, _ EvaluationRequest) (*Evaluation, error) {
	f.evalCalls.Add(1)
	select {
	case f.evalStarted <- struct{}{}:
	default:
	}
	if f.evalGate != nil {
		<-f.evalGate
	}
	if f.evalErr != nil {
		return nil, f.evalErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	score := 5
	if len(f.scores) > 0 {
		score, f.scores = f.scores[0], f.scores[1:]
	}
	return &Evaluation{Score: score, Feedback: "ok"}, nil
}

func (f *fakeScorer) Summarize(ctx context.Context, _ SummaryRequest) (string, error) {
	f.summaryCalls.Add(1)
	select {
	case f.summaryStarted <- struct{}{}:
	default:
	}
	if f.summaryGate != nil {
		<-f.summaryGate
	}
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return f.summary, nil
}

type fakeArchiver struct {
	mu      sync.Mutex
	results []model.InterviewResult
}

func (f *fakeArchiver) Archive(_ context.Context, r model.InterviewResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return nil
}

func (f *fakeArchiver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

type stubProvider struct {
	text string
	err  error
	last llm.GenerateRequest
}

func (p *stubProvider) Generate(_ context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	p.last = req
	if p.err != nil {
		return nil, p.err
	}
	return &llm.GenerateResponse{Text: p.text, Provider: "stub", Model: "stub-model"}, nil
}

func (p *stubProvider) Name() string { return "stub" }

type testEnv struct {
	svc      *InterviewService
	store    repository.CandidateStore
	source   *fakeSource
	scorer   *fakeScorer
	archiver *fakeArchiver
}

func newTestEnv(t *testing.T, source *fakeSource, scorer *fakeScorer, opts Options) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, repository.NewMemoryCandidateStore(), source, scorer, opts)
}

// newRedisTestEnv backs the service with the Redis store on miniredis.
func newRedisTestEnv(t *testing.T, source *fakeSource, scorer *fakeScorer, opts Options) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return newTestEnvWithStore(t, repository.NewRedisCandidateStore(client), source, scorer, opts)
}

func newTestEnvWithStore(t *testing.T, store repository.CandidateStore, source *fakeSource, scorer *fakeScorer, opts Options) *testEnv {
	t.Helper()
	if opts.TickInterval == 0 {
		opts.DisableTimer = true
	}
	env := &testEnv{
		store:    store,
		source:   source,
		scorer:   scorer,
		archiver: &fakeArchiver{},
	}
	env.svc = NewInterviewService(env.store, source, scorer, env.archiver, NewBroadcaster(), zerolog.Nop(), opts)
	t.Cleanup(func() { _ = env.svc.Shutdown(context.Background()) })
	return env
}

func (e *testEnv) create(t *testing.T, name string) *model.Candidate {
	t.Helper()
	c, err := e.svc.Create(context.Background(), model.CreateCandidateRequest{Name: name})
	require.NoError(t, err)
	return c
}

// started creates a candidate and drives it into in_progress.
func (e *testEnv) started(t *testing.T) *model.Candidate {
	t.Helper()
	c := e.create(t, "Alice")
	c, err := e.svc.Observe(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, model.InterviewStatusInProgress, c.InterviewStatus)
	return c
}

func (e *testEnv) get(t *testing.T, id string) *model.Candidate {
	t.Helper()
	c, err := e.store.Get(context.Background(), id)
	require.NoError(t, err)
	return c
}

// runtimes reports how many sessions hold process-local state.
func (e *testEnv) runtimes() int {
	e.svc.mu.Lock()
	defer e.svc.mu.Unlock()
	return len(e.svc.sessions)
}

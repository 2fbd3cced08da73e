package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/llm"
	"github.com/stemsi/interview-sim/internal/model"
	"github.com/stemsi/interview-sim/internal/repository"
)

var (
	ErrCandidateNotFound      = repository.ErrCandidateNotFound
	ErrInterviewNotActive     = errors.New("interview is not in progress")
	ErrQuestionNotActive      = errors.New("question is not the current question")
	ErrAnswerAlreadySubmitted = errors.New("answer already submitted for this question")
	ErrSubmissionInFlight     = errors.New("another operation is in flight for this interview")
)

// User-visible notices recorded on the candidate when a fallback is taken.
const (
	NoticeGenerationFailed  = "Failed to generate questions. Using the default question set."
	NoticeGenerationTimeout = "Question generation timed out. Using the default question set."
	NoticeEvaluationFailed  = "Answer evaluation failed. This answer was recorded without a score."
	NoticeSummaryFailed     = "Failed to generate the interview summary."
)

// Op is the in-flight operation of a session.
type Op int

const (
	OpNone Op = iota
	OpGenerating
	OpSubmitting
	OpFinishing
)

func (o Op) String() string {
	switch o {
	case OpGenerating:
		return "generating"
	case OpSubmitting:
		return "submitting"
	case OpFinishing:
		return "finishing"
	default:
		return "none"
	}
}

// Options tunes an InterviewService. Zero values take the defaults.
type Options struct {
	Role              string
	GenerationTimeout time.Duration
	EvaluationTimeout time.Duration
	SummaryTimeout    time.Duration
	TickInterval      time.Duration
	// DisableTimer stops Observe and friends from starting countdown
	// goroutines; Tick must then be driven by the caller.
	DisableTimer bool
}

func (o Options) withDefaults() Options {
	if o.Role == "" {
		o.Role = model.DefaultRole
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = 30 * time.Second
	}
	if o.EvaluationTimeout <= 0 {
		o.EvaluationTimeout = 30 * time.Second
	}
	if o.SummaryTimeout <= 0 {
		o.SummaryTimeout = 30 * time.Second
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	return o
}

// sessionRuntime is the process-local state of one session. All fields are
// guarded by mu, which also serialises read-modify-write against the store.
type sessionRuntime struct {
	mu         sync.Mutex
	op         Op
	epoch      uint64
	draft      string
	stopTimer  context.CancelFunc
	timerToken uint64
}

func (rt *sessionRuntime) stopTimerLocked() {
	if rt.stopTimer != nil {
		rt.stopTimer()
		rt.stopTimer = nil
	}
}

// InterviewService drives the interview state machine of every candidate.
type InterviewService struct {
	store       repository.CandidateStore
	questions   QuestionSource
	scorer      Scorer
	archiver    Archiver
	broadcaster *Broadcaster
	opts        Options
	log         zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionRuntime

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewInterviewService creates a new InterviewService.
func NewInterviewService(
	store repository.CandidateStore,
	questions QuestionSource,
	scorer Scorer,
	archiver Archiver,
	broadcaster *Broadcaster,
	log zerolog.Logger,
	opts Options,
) *InterviewService {
	if archiver == nil {
		archiver = NopArchiver{}
	}
	if broadcaster == nil {
		broadcaster = NewBroadcaster()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InterviewService{
		store:       store,
		questions:   questions,
		scorer:      scorer,
		archiver:    archiver,
		broadcaster: broadcaster,
		opts:        opts.withDefaults(),
		log:         log.With().Str("component", "interview_service").Logger(),
		sessions:    make(map[string]*sessionRuntime),
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// Broadcaster returns the change feed snapshots are published on.
func (s *InterviewService) Broadcaster() *Broadcaster {
	return s.broadcaster
}

func (s *InterviewService) runtime(id string) *sessionRuntime {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.sessions[id]
	if !ok {
		rt = &sessionRuntime{}
		s.sessions[id] = rt
	}
	return rt
}

// forgetLocked drops the runtime of an id the store does not know, so lookups
// of unknown ids leave nothing behind. The caller holds rt.mu.
func (s *InterviewService) forgetLocked(id string, rt *sessionRuntime, err error) {
	if !errors.Is(err, ErrCandidateNotFound) {
		return
	}
	rt.stopTimerLocked()
	s.mu.Lock()
	if s.sessions[id] == rt {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
}

// release clears op if it is still the current operation of epoch.
func (s *InterviewService) release(rt *sessionRuntime, op Op, epoch uint64) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.op == op && rt.epoch == epoch {
		rt.op = OpNone
	}
}

// ─── Reads & registration ──────────────────────────────────────────────────

// Create registers a new candidate in not_started.
func (s *InterviewService) Create(ctx context.Context, req model.CreateCandidateRequest) (*model.Candidate, error) {
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = s.opts.Role
	}
	c := model.NewCandidate(uuid.NewString(), strings.TrimSpace(req.Name), req.Email, req.Phone, role, time.Now())
	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create candidate: %w", err)
	}
	s.log.Info().Str("candidate_id", c.ID).Str("role", c.Role).Msg("Candidate created")
	return c, nil
}

// Get returns the stored candidate without driving the state machine.
func (s *InterviewService) Get(ctx context.Context, id string) (*model.Candidate, error) {
	return s.store.Get(ctx, id)
}

// List returns every candidate, newest first.
func (s *InterviewService) List(ctx context.Context) ([]model.Candidate, error) {
	return s.store.List(ctx)
}

// ─── Observe ───────────────────────────────────────────────────────────────

// Observe is the read a client performs when it renders a session. It starts
// generation, heals inconsistent positions, starts the countdown and
// triggers finishing as the stored state requires.
func (s *InterviewService) Observe(ctx context.Context, id string) (*model.Candidate, error) {
	rt := s.runtime(id)
	rt.mu.Lock()

	c, err := s.store.Get(ctx, id)
	if err != nil {
		s.forgetLocked(id, rt, err)
		rt.mu.Unlock()
		return nil, err
	}

	if c.InterviewStatus == model.InterviewStatusCompleted {
		rt.stopTimerLocked()
		rt.mu.Unlock()
		return c, nil
	}

	if len(c.Questions) == 0 {
		if rt.op != OpNone {
			rt.mu.Unlock()
			return c, nil
		}
		rt.op = OpGenerating
		epoch := rt.epoch
		rt.mu.Unlock()
		return s.generate(context.WithoutCancel(ctx), id, rt, epoch, c)
	}

	c, err = s.healLocked(ctx, rt, c)
	if err != nil {
		rt.mu.Unlock()
		return nil, err
	}

	if c.CurrentQuestionIndex >= len(c.Questions) {
		if c.Score == nil && rt.op == OpNone && len(c.Answers) >= len(c.Questions) {
			rt.stopTimerLocked()
			rt.op = OpFinishing
			epoch := rt.epoch
			rt.mu.Unlock()
			return s.finish(context.WithoutCancel(ctx), id, rt, epoch, c)
		}
		rt.mu.Unlock()
		return c, nil
	}

	if c.InterviewStatus == model.InterviewStatusInProgress && !c.IsPaused {
		s.startTimerLocked(id, rt)
	}
	rt.mu.Unlock()
	return c, nil
}

// healLocked repairs an out-of-range position. The index follows the number
// of recorded answers so the next submission stays acceptable.
func (s *InterviewService) healLocked(ctx context.Context, rt *sessionRuntime, c *model.Candidate) (*model.Candidate, error) {
	n := len(c.Questions)
	u := model.CandidateUpdate{ID: c.ID}
	changed := false

	idx := c.CurrentQuestionIndex
	if idx < 0 || idx > n || idx != len(c.Answers) {
		target := min(len(c.Answers), n)
		if target != idx {
			s.log.Warn().Str("candidate_id", c.ID).Int("index", idx).Int("healed", target).Msg("Healing out-of-range question index")
			u.CurrentQuestionIndex = model.Ptr(target)
			idx = target
			changed = true
		}
	}

	if idx < n && rt.op != OpSubmitting {
		limit := c.Questions[idx].TimeLimit
		if left := c.TimeLeft; left == nil || *left <= 0 || *left > limit {
			s.log.Warn().Str("candidate_id", c.ID).Int("index", idx).Msg("Restoring out-of-range time left")
			u.TimeLeft = model.Set(limit)
			changed = true
		}
	}

	if c.InterviewStatus == model.InterviewStatusNotStarted {
		u.InterviewStatus = model.Ptr(model.InterviewStatusInProgress)
		changed = true
	}

	if !changed {
		return c, nil
	}
	merged, ok, err := s.store.Merge(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("heal session: %w", err)
	}
	if !ok {
		return nil, ErrCandidateNotFound
	}
	s.broadcaster.Publish(merged)
	return merged, nil
}

// generate runs the single-flight question request. The caller has set
// OpGenerating for epoch and passes a ctx without cancellation, so a client
// that goes away cannot leave the session without questions.
func (s *InterviewService) generate(ctx context.Context, id string, rt *sessionRuntime, epoch uint64, c *model.Candidate) (*model.Candidate, error) {
	defer s.release(rt, OpGenerating, epoch)
	log := s.log.With().Str("candidate_id", id).Logger()

	questions, err := withTimeout(ctx, s.opts.GenerationTimeout, func(ctx context.Context) ([]model.Question, error) {
		return s.questions.GenerateBatch(ctx, QuestionRequest{Role: c.Role, Count: model.QuestionsPerInterview})
	})
	if err == nil && !validBatch(questions) {
		err = ErrIncompleteBatch
	}

	notice := ""
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || llm.IsTimeout(err) {
			log.Warn().Err(err).Dur("timeout", s.opts.GenerationTimeout).Msg("Question generation timed out, using defaults")
			notice = NoticeGenerationTimeout
		} else {
			log.Warn().Err(err).Msg("Question generation failed, using defaults")
			notice = NoticeGenerationFailed
		}
		questions = DefaultQuestions()
	}
	questions = bandBatch(questions)

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.epoch != epoch {
		log.Info().Msg("Discarding question batch from before reset")
		return s.store.Get(ctx, id)
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(current.Questions) != 0 || current.InterviewStatus == model.InterviewStatusCompleted {
		return current, nil
	}

	merged, ok, err := s.store.Merge(ctx, model.CandidateUpdate{
		ID:                   id,
		Questions:            &questions,
		Answers:              &[]model.Answer{},
		CurrentQuestionIndex: model.Ptr(0),
		TimeLeft:             model.Set(questions[0].TimeLimit),
		IsPaused:             model.Ptr(false),
		InterviewStatus:      model.Ptr(model.InterviewStatusInProgress),
		Notice:               model.Ptr(notice),
	})
	if err != nil {
		return nil, fmt.Errorf("store questions: %w", err)
	}
	if !ok {
		return nil, ErrCandidateNotFound
	}

	rt.op = OpNone
	log.Info().Bool("fallback", notice != "").Msg("Interview started")
	s.broadcaster.Publish(merged)
	s.startTimerLocked(id, rt)
	return merged, nil
}

func validBatch(qs []model.Question) bool {
	if len(qs) != model.QuestionsPerInterview {
		return false
	}
	for _, q := range qs {
		if strings.TrimSpace(q.Text) == "" {
			return false
		}
	}
	return true
}

// bandBatch enforces positional difficulty and time limits.
func bandBatch(qs []model.Question) []model.Question {
	out := make([]model.Question, len(qs))
	for i, q := range qs {
		q.Difficulty = model.DifficultyForIndex(i)
		q.TimeLimit = model.TimeLimitForIndex(i)
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		out[i] = q
	}
	return out
}

// ─── Answers ───────────────────────────────────────────────────────────────

// SubmitAnswer records the answer to question index. At most one submission
// per index is ever accepted.
func (s *InterviewService) SubmitAnswer(ctx context.Context, id string, index int, text string) (*model.Candidate, error) {
	return s.submit(ctx, id, index, text, "manual")
}

func (s *InterviewService) submit(ctx context.Context, id string, index int, text, trigger string) (*model.Candidate, error) {
	rt := s.runtime(id)
	rt.mu.Lock()

	c, err := s.store.Get(ctx, id)
	if err != nil {
		s.forgetLocked(id, rt, err)
		rt.mu.Unlock()
		return nil, err
	}
	if err := checkSubmittable(c, index); err != nil {
		rt.mu.Unlock()
		return c, err
	}
	if rt.op != OpNone {
		rt.mu.Unlock()
		return c, ErrSubmissionInFlight
	}
	rt.op = OpSubmitting
	epoch := rt.epoch
	question := c.Questions[index]
	role := c.Role
	rt.mu.Unlock()

	// Once the op is taken the answer must be committed even if the caller
	// has gone away.
	ctx = context.WithoutCancel(ctx)
	defer s.release(rt, OpSubmitting, epoch)
	log := s.log.With().Str("candidate_id", id).Int("index", index).Str("trigger", trigger).Logger()

	answerText := strings.TrimSpace(text)
	if answerText == "" {
		answerText = model.NoAnswerText
	}

	eval, err := withTimeout(ctx, s.opts.EvaluationTimeout, func(ctx context.Context) (*Evaluation, error) {
		return s.scorer.Evaluate(ctx, EvaluationRequest{
			Role:       role,
			Question:   question.Text,
			Difficulty: question.Difficulty,
			Answer:     answerText,
		})
	})

	answer := model.Answer{QuestionID: question.ID, Text: answerText, Timestamp: time.Now()}
	notice := ""
	if err != nil || eval == nil {
		log.Warn().Err(err).Msg("Answer evaluation failed, recording unscored")
		notice = NoticeEvaluationFailed
	} else {
		answer.Score = model.Ptr(min(max(eval.Score, 0), 10))
		answer.Feedback = model.Ptr(eval.Feedback)
	}

	rt.mu.Lock()
	if rt.epoch != epoch {
		rt.mu.Unlock()
		log.Info().Msg("Discarding evaluation from before reset")
		return nil, ErrInterviewNotActive
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		rt.mu.Unlock()
		return nil, err
	}
	if err := checkSubmittable(current, index); err != nil {
		rt.mu.Unlock()
		return current, err
	}

	next := index + 1
	timeLeft := 0
	if next < len(current.Questions) {
		timeLeft = current.Questions[next].TimeLimit
	}
	answers := append(current.Answers, answer)

	merged, ok, err := s.store.Merge(ctx, model.CandidateUpdate{
		ID:                   id,
		Answers:              &answers,
		CurrentQuestionIndex: model.Ptr(next),
		TimeLeft:             model.Set(timeLeft),
		IsPaused:             model.Ptr(false),
		Notice:               model.Ptr(notice),
	})
	if err != nil {
		rt.mu.Unlock()
		return nil, fmt.Errorf("store answer: %w", err)
	}
	if !ok {
		rt.mu.Unlock()
		return nil, ErrCandidateNotFound
	}

	rt.draft = ""
	log.Info().Bool("scored", answer.Scored()).Msg("Answer recorded")
	s.broadcaster.Publish(merged)

	if next < len(merged.Questions) {
		s.startTimerLocked(id, rt)
		rt.mu.Unlock()
		return merged, nil
	}

	rt.stopTimerLocked()
	rt.op = OpFinishing
	rt.mu.Unlock()
	return s.finish(ctx, id, rt, epoch, merged)
}

func checkSubmittable(c *model.Candidate, index int) error {
	switch {
	case index < len(c.Answers):
		return ErrAnswerAlreadySubmitted
	case c.InterviewStatus != model.InterviewStatusInProgress:
		return ErrInterviewNotActive
	case index != c.CurrentQuestionIndex || index != len(c.Answers) || index >= len(c.Questions):
		return ErrQuestionNotActive
	}
	return nil
}

// UpdateDraft holds the answer being typed; it is what auto-submission uses
// when the countdown expires. A non-nil index must match the current question.
func (s *InterviewService) UpdateDraft(ctx context.Context, id string, index *int, text string) error {
	rt := s.runtime(id)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	c, err := s.store.Get(ctx, id)
	if err != nil {
		s.forgetLocked(id, rt, err)
		return err
	}
	if c.InterviewStatus != model.InterviewStatusInProgress || c.CurrentQuestionIndex >= len(c.Questions) {
		return ErrInterviewNotActive
	}
	if index != nil && *index != c.CurrentQuestionIndex {
		return ErrQuestionNotActive
	}
	rt.draft = text
	return nil
}

// ─── Finishing ─────────────────────────────────────────────────────────────

// finish completes the interview. The caller has set OpFinishing for epoch
// and passes a ctx without cancellation.
func (s *InterviewService) finish(ctx context.Context, id string, rt *sessionRuntime, epoch uint64, c *model.Candidate) (*model.Candidate, error) {
	defer s.release(rt, OpFinishing, epoch)
	log := s.log.With().Str("candidate_id", id).Logger()

	score := AggregateScore(c.Answers)
	summary, err := withTimeout(ctx, s.opts.SummaryTimeout, func(ctx context.Context) (string, error) {
		return s.scorer.Summarize(ctx, SummaryRequest{
			Name:         c.Name,
			Role:         c.Role,
			Questions:    c.Questions,
			Answers:      c.Answers,
			OverallScore: score,
		})
	})
	notice := c.Notice
	if err != nil {
		log.Warn().Err(err).Msg("Summary generation failed")
		summary = ""
		if c.Summary != nil {
			summary = *c.Summary
		}
		notice = NoticeSummaryFailed
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.epoch != epoch {
		log.Info().Msg("Discarding summary from before reset")
		return s.store.Get(ctx, id)
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Score != nil || current.InterviewStatus == model.InterviewStatusCompleted {
		return current, nil
	}

	merged, ok, err := s.store.Merge(ctx, model.CandidateUpdate{
		ID:              id,
		TimeLeft:        model.Set(0),
		IsPaused:        model.Ptr(false),
		InterviewStatus: model.Ptr(model.InterviewStatusCompleted),
		Score:           model.Set(score),
		Summary:         model.Set(summary),
		Notice:          model.Ptr(notice),
		CompletedAt:     model.Set(time.Now()),
	})
	if err != nil {
		return nil, fmt.Errorf("complete interview: %w", err)
	}
	if !ok {
		return nil, ErrCandidateNotFound
	}

	rt.op = OpNone
	rt.draft = ""
	rt.stopTimerLocked()
	log.Info().Int("score", score).Msg("Interview completed")
	s.broadcaster.Publish(merged)
	s.archive(merged)
	return merged, nil
}

func (s *InterviewService) archive(c *model.Candidate) {
	result, err := ResultFromCandidate(c)
	if err != nil {
		s.log.Error().Err(err).Str("candidate_id", c.ID).Msg("Failed to build archive record")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.archiver.Archive(ctx, result); err != nil {
		s.log.Error().Err(err).Str("candidate_id", c.ID).Msg("Failed to archive interview result")
	}
}

// ─── Pause, reset & teardown ───────────────────────────────────────────────

// TogglePause flips the pause state of the current question.
func (s *InterviewService) TogglePause(ctx context.Context, id string) (*model.Candidate, error) {
	return s.setPaused(ctx, id, nil)
}

// SetPaused forces the pause state.
func (s *InterviewService) SetPaused(ctx context.Context, id string, paused bool) (*model.Candidate, error) {
	return s.setPaused(ctx, id, &paused)
}

func (s *InterviewService) setPaused(ctx context.Context, id string, paused *bool) (*model.Candidate, error) {
	rt := s.runtime(id)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	c, err := s.store.Get(ctx, id)
	if err != nil {
		s.forgetLocked(id, rt, err)
		return nil, err
	}
	if c.InterviewStatus != model.InterviewStatusInProgress || c.CurrentQuestionIndex >= len(c.Questions) {
		return c, ErrInterviewNotActive
	}

	value := !c.IsPaused
	if paused != nil {
		value = *paused
	}
	if value == c.IsPaused {
		if !value {
			s.startTimerLocked(id, rt)
		}
		return c, nil
	}

	merged, ok, err := s.store.Merge(ctx, model.CandidateUpdate{ID: id, IsPaused: model.Ptr(value)})
	if err != nil {
		return nil, fmt.Errorf("set paused: %w", err)
	}
	if !ok {
		return nil, ErrCandidateNotFound
	}

	if value {
		rt.stopTimerLocked()
	} else {
		s.startTimerLocked(id, rt)
	}
	s.log.Debug().Str("candidate_id", id).Bool("paused", value).Msg("Pause state changed")
	s.broadcaster.Publish(merged)
	return merged, nil
}

// Reset returns the session to not_started. Results of calls still in
// flight are discarded when they arrive.
func (s *InterviewService) Reset(ctx context.Context, id string) (*model.Candidate, error) {
	rt := s.runtime(id)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.epoch++
	rt.op = OpNone
	rt.draft = ""
	rt.stopTimerLocked()

	c, ok, err := s.store.Reset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reset session: %w", err)
	}
	if !ok {
		s.forgetLocked(id, rt, ErrCandidateNotFound)
		return nil, ErrCandidateNotFound
	}
	s.log.Info().Str("candidate_id", id).Msg("Interview reset")
	s.broadcaster.Publish(c)
	return c, nil
}

// Remove deletes the candidate and forgets its runtime state.
func (s *InterviewService) Remove(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}

	rt := s.runtime(id)
	rt.mu.Lock()
	rt.epoch++
	rt.op = OpNone
	rt.stopTimerLocked()
	rt.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.log.Info().Str("candidate_id", id).Msg("Candidate removed")
	return nil
}

// Detach stops the countdown of a session nobody is watching. The next
// Observe resumes it.
func (s *InterviewService) Detach(id string) {
	s.mu.Lock()
	rt, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	rt.mu.Lock()
	rt.stopTimerLocked()
	rt.mu.Unlock()
}

// Shutdown stops every countdown and waits for them to exit or ctx to end.
func (s *InterviewService) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	runtimes := make([]*sessionRuntime, 0, len(s.sessions))
	for _, rt := range s.sessions {
		runtimes = append(runtimes, rt)
	}
	s.mu.Unlock()

	// s.mu is never held while taking rt.mu.
	for _, rt := range runtimes {
		rt.mu.Lock()
		rt.stopTimerLocked()
		rt.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withTimeout runs fn under its own deadline, detached from the caller's
// cancellation. It returns when the deadline passes even if fn ignores ctx.
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/stemsi/interview-sim/internal/model"
)

// startTimerLocked starts the countdown goroutine of a session unless one is
// already running. Caller holds rt.mu.
func (s *InterviewService) startTimerLocked(id string, rt *sessionRuntime) {
	if s.opts.DisableTimer || rt.stopTimer != nil || s.baseCtx.Err() != nil {
		return
	}
	ctx, cancel := context.WithCancel(s.baseCtx)
	rt.stopTimer = cancel
	rt.timerToken++
	token := rt.timerToken

	s.wg.Add(1)
	go s.runTimer(ctx, id, token)
}

func (s *InterviewService) runTimer(ctx context.Context, id string, token uint64) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			submitted, err := s.tick(s.baseCtx, id, token)
			if err != nil {
				s.log.Error().Err(err).Str("candidate_id", id).Msg("Countdown tick failed")
				if errors.Is(err, ErrCandidateNotFound) {
					return
				}
			}
			if submitted {
				// A tick buffered during evaluation must not eat into the
				// next question.
				ticker.Reset(s.opts.TickInterval)
			}
		}
	}
}

// Tick advances the countdown of a session by one step. It reads the stored
// state first, so an external pause or reset is always honoured.
func (s *InterviewService) Tick(ctx context.Context, id string) error {
	_, err := s.tick(ctx, id, 0)
	return err
}

// tick with a non-zero token only acts while that countdown is the live one.
// It reports whether the tick expired the question and auto-submitted it.
func (s *InterviewService) tick(ctx context.Context, id string, token uint64) (bool, error) {
	rt := s.runtime(id)
	rt.mu.Lock()

	if token != 0 && (rt.stopTimer == nil || rt.timerToken != token) {
		rt.mu.Unlock()
		return false, nil
	}
	if rt.op != OpNone {
		rt.mu.Unlock()
		return false, nil
	}

	c, err := s.store.Get(ctx, id)
	if err != nil {
		s.forgetLocked(id, rt, err)
		rt.mu.Unlock()
		return false, err
	}
	if c.InterviewStatus != model.InterviewStatusInProgress || c.IsPaused || c.CurrentQuestionIndex >= len(c.Questions) {
		rt.stopTimerLocked()
		rt.mu.Unlock()
		return false, nil
	}

	left := max(c.RemainingSeconds()-1, 0)
	merged, ok, err := s.store.Merge(ctx, model.CandidateUpdate{ID: id, TimeLeft: model.Set(left)})
	if err != nil {
		rt.mu.Unlock()
		return false, err
	}
	if !ok {
		s.forgetLocked(id, rt, ErrCandidateNotFound)
		rt.mu.Unlock()
		return false, ErrCandidateNotFound
	}
	s.broadcaster.Publish(merged)

	if left > 0 {
		rt.mu.Unlock()
		return false, nil
	}

	index := merged.CurrentQuestionIndex
	draft := rt.draft
	rt.mu.Unlock()

	s.log.Info().Str("candidate_id", id).Int("index", index).Msg("Time expired, auto-submitting")
	_, err = s.submit(ctx, id, index, draft, "timer")
	switch {
	case err == nil,
		errors.Is(err, ErrAnswerAlreadySubmitted),
		errors.Is(err, ErrQuestionNotActive),
		errors.Is(err, ErrSubmissionInFlight),
		errors.Is(err, ErrInterviewNotActive):
		return true, nil
	}
	return true, err
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stemsi/interview-sim/internal/model"
)

// Archiver receives every completed interview.
type Archiver interface {
	Archive(ctx context.Context, result model.InterviewResult) error
}

// NopArchiver discards results. Used when no archive backend is configured.
type NopArchiver struct{}

func (NopArchiver) Archive(context.Context, model.InterviewResult) error { return nil }

// ResultFromCandidate builds the archive record of a completed candidate.
func ResultFromCandidate(c *model.Candidate) (model.InterviewResult, error) {
	answers, err := json.Marshal(c.Answers)
	if err != nil {
		return model.InterviewResult{}, fmt.Errorf("marshal answers: %w", err)
	}

	result := model.InterviewResult{
		CandidateID: c.ID,
		Name:        c.Name,
		Email:       c.Email,
		Role:        c.Role,
		Answers:     answers,
		CompletedAt: time.Now(),
	}
	if c.Score != nil {
		result.Score = *c.Score
	}
	if c.Summary != nil {
		result.Summary = *c.Summary
	}
	if c.CompletedAt != nil {
		result.CompletedAt = *c.CompletedAt
	}
	return result, nil
}

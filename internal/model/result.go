package model

import (
	"encoding/json"
	"time"
)

// InterviewResult is a completed interview as archived in PostgreSQL.
type InterviewResult struct {
	CandidateID string          `json:"candidate_id"`
	Name        string          `json:"name"`
	Email       string          `json:"email,omitempty"`
	Role        string          `json:"role"`
	Score       int             `json:"score"`
	Summary     string          `json:"summary"`
	Answers     json.RawMessage `json:"answers"`
	CompletedAt time.Time       `json:"completed_at"`
}

package model

import (
	"time"
)

// InterviewStatus enumerates candidate interview states.
type InterviewStatus string

const (
	InterviewStatusNotStarted InterviewStatus = "not_started"
	InterviewStatusInProgress InterviewStatus = "in_progress"
	InterviewStatusCompleted  InterviewStatus = "completed"
)

// QuestionsPerInterview is the fixed batch size of one interview.
const QuestionsPerInterview = 6

// DefaultRole is the interview context used when a candidate has none.
const DefaultRole = "Full Stack Developer (React/Node.js)"

// NoAnswerText is stored when a question expires with an empty draft.
const NoAnswerText = "No answer provided (time ran out)"

// Candidate is one interview session and the persisted record the
// presentation layer renders.
type Candidate struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email,omitempty"`
	Phone                string          `json:"phone,omitempty"`
	Role                 string          `json:"role"`
	Questions            []Question      `json:"questions"`
	Answers              []Answer        `json:"answers"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	TimeLeft             *int            `json:"timeLeft"`
	IsPaused             bool            `json:"isPaused"`
	InterviewStatus      InterviewStatus `json:"interviewStatus"`
	Score                *int            `json:"score,omitempty"`
	Summary              *string         `json:"summary,omitempty"`
	Notice               string          `json:"notice,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
	CompletedAt          *time.Time      `json:"completedAt,omitempty"`
}

// Clone returns a deep copy so callers never alias stored slices or pointers.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	out := *c
	out.Questions = append([]Question(nil), c.Questions...)
	out.Answers = make([]Answer, len(c.Answers))
	for i := range c.Answers {
		out.Answers[i] = c.Answers[i].clone()
	}
	out.TimeLeft = clonePtr(c.TimeLeft)
	out.Score = clonePtr(c.Score)
	out.Summary = clonePtr(c.Summary)
	out.CompletedAt = clonePtr(c.CompletedAt)
	return &out
}

// CurrentQuestion returns the question at the current index, or nil when the
// index is out of range or all questions are answered.
func (c *Candidate) CurrentQuestion() *Question {
	i := c.CurrentQuestionIndex
	if i < 0 || i >= len(c.Questions) {
		return nil
	}
	q := c.Questions[i]
	return &q
}

// RemainingSeconds returns TimeLeft, treating null as zero.
func (c *Candidate) RemainingSeconds() int {
	if c.TimeLeft == nil {
		return 0
	}
	return *c.TimeLeft
}

// NewCandidate builds a fresh not_started session.
func NewCandidate(id, name, email, phone, role string, now time.Time) *Candidate {
	if role == "" {
		role = DefaultRole
	}
	return &Candidate{
		ID:              id,
		Name:            name,
		Email:           email,
		Phone:           phone,
		Role:            role,
		Questions:       []Question{},
		Answers:         []Answer{},
		InterviewStatus: InterviewStatusNotStarted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CreateCandidateRequest is the payload for registering a candidate.
type CreateCandidateRequest struct {
	Name  string `json:"name" binding:"required,notblank,max=200"`
	Email string `json:"email" binding:"omitempty,email,max=200"`
	Phone string `json:"phone" binding:"omitempty,max=40"`
	Role  string `json:"role" binding:"omitempty,max=200"`
}

// SubmitAnswerRequest is the payload for answering the current question.
type SubmitAnswerRequest struct {
	QuestionIndex *int   `json:"question_index" binding:"required,min=0,max=5"`
	Answer        string `json:"answer" binding:"max=10000"`
}

// UpdateDraftRequest carries the answer text being edited.
type UpdateDraftRequest struct {
	QuestionIndex *int   `json:"question_index" binding:"omitempty,min=0,max=5"`
	Answer        string `json:"answer" binding:"max=10000"`
}

// PauseRequest optionally forces a pause state; absent means toggle.
type PauseRequest struct {
	Paused *bool `json:"paused"`
}

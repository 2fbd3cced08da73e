package model

import "time"

// Nullable marks a field present in a partial update. A present field with a
// nil Value clears the stored value.
type Nullable[T any] struct {
	Value *T
}

// Set returns a present field holding v.
func Set[T any](v T) *Nullable[T] {
	return &Nullable[T]{Value: &v}
}

// Null returns a present field that clears the stored value.
func Null[T any]() *Nullable[T] {
	return &Nullable[T]{}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// CandidateUpdate is a merge request against the store. Nil fields are left
// untouched; omission never clears questions or answers.
type CandidateUpdate struct {
	ID                   string
	Questions            *[]Question
	Answers              *[]Answer
	CurrentQuestionIndex *int
	TimeLeft             *Nullable[int]
	IsPaused             *bool
	InterviewStatus      *InterviewStatus
	Score                *Nullable[int]
	Summary              *Nullable[string]
	Notice               *string
	CompletedAt          *Nullable[time.Time]
}

// Apply merges the present fields into c.
func (u CandidateUpdate) Apply(c *Candidate, now time.Time) {
	if u.Questions != nil {
		c.Questions = append([]Question(nil), (*u.Questions)...)
	}
	if u.Answers != nil {
		answers := make([]Answer, len(*u.Answers))
		for i, a := range *u.Answers {
			answers[i] = a.clone()
		}
		c.Answers = answers
	}
	if u.CurrentQuestionIndex != nil {
		c.CurrentQuestionIndex = *u.CurrentQuestionIndex
	}
	if u.TimeLeft != nil {
		c.TimeLeft = clonePtr(u.TimeLeft.Value)
	}
	if u.IsPaused != nil {
		c.IsPaused = *u.IsPaused
	}
	if u.InterviewStatus != nil {
		c.InterviewStatus = *u.InterviewStatus
	}
	if u.Score != nil {
		c.Score = clonePtr(u.Score.Value)
	}
	if u.Summary != nil {
		c.Summary = clonePtr(u.Summary.Value)
	}
	if u.Notice != nil {
		c.Notice = *u.Notice
	}
	if u.CompletedAt != nil {
		c.CompletedAt = clonePtr(u.CompletedAt.Value)
	}
	c.UpdatedAt = now
}

// ResetUpdate returns the merge that puts a session back to not_started.
func ResetUpdate(id string) CandidateUpdate {
	return CandidateUpdate{
		ID:                   id,
		Questions:            &[]Question{},
		Answers:              &[]Answer{},
		CurrentQuestionIndex: Ptr(0),
		TimeLeft:             Null[int](),
		IsPaused:             Ptr(false),
		InterviewStatus:      Ptr(InterviewStatusNotStarted),
		Score:                Null[int](),
		Summary:              Null[string](),
		Notice:               Ptr(""),
		CompletedAt:          Null[time.Time](),
	}
}

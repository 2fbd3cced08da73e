package model

import (
	"strings"
	"time"
)

// Difficulty is the three-tier band a question belongs to.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Question is a single interview question.
type Question struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
	TimeLimit  int        `json:"timeLimit"`
}

// DifficultyForIndex maps a batch position to its band:
// 0-1 Easy, 2-3 Medium, 4-5 Hard.
func DifficultyForIndex(i int) Difficulty {
	switch {
	case i < 2:
		return DifficultyEasy
	case i < 4:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// TimeLimitForIndex returns the countdown in seconds for a batch position.
func TimeLimitForIndex(i int) int {
	return DifficultyForIndex(i).TimeLimit()
}

// TimeLimit returns the countdown in seconds for the band.
func (d Difficulty) TimeLimit() int {
	switch d {
	case DifficultyEasy:
		return 20
	case DifficultyMedium:
		return 60
	default:
		return 120
	}
}

// ParseDifficulty accepts any casing ("easy", "HARD"); unknown values
// return false.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

// Answer is the recorded response to Questions[i] at Answers[i].
type Answer struct {
	QuestionID string    `json:"questionId"`
	Text       string    `json:"text"`
	Score      *int      `json:"score,omitempty"`
	Feedback   *string   `json:"feedback,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Scored reports whether evaluation produced a score.
func (a Answer) Scored() bool {
	return a.Score != nil
}

func (a Answer) clone() Answer {
	a.Score = clonePtr(a.Score)
	a.Feedback = clonePtr(a.Feedback)
	return a
}

package service

import (
	"github.com/google/uuid"
	"github.com/stemsi/interview-sim/internal/model"
)

var defaultQuestionTexts = []string{
	"What is React and what are its main features?",
	"Explain the difference between state and props in React.",
	"How does React's virtual DOM work and why is it important?",
	"Explain middleware in Express.js and give an example of how to use it.",
	"How would you optimize the performance of a React application?",
	"Describe how you would design a RESTful API for a social media platform using Node.js.",
}

// DefaultQuestions returns the static fallback batch with fresh ids.
func DefaultQuestions() []model.Question {
	return BandQuestions(defaultQuestionTexts, uuid.NewString)
}

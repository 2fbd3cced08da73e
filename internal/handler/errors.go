package handler

import (
	"errors"
	"net/http"

	"github.com/stemsi/interview-sim/internal/response"
	"github.com/stemsi/interview-sim/internal/service"
)

// serviceError maps a state-machine error onto an HTTP status and code.
func serviceError(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrCandidateNotFound):
		return http.StatusNotFound, response.ErrCandidateNotFound
	case errors.Is(err, service.ErrAnswerAlreadySubmitted):
		return http.StatusConflict, response.ErrAnswerAlreadySubmitted
	case errors.Is(err, service.ErrQuestionNotActive):
		return http.StatusConflict, response.ErrQuestionNotActive
	case errors.Is(err, service.ErrSubmissionInFlight):
		return http.StatusConflict, response.ErrSubmissionInFlight
	case errors.Is(err, service.ErrInterviewNotActive):
		return http.StatusConflict, response.ErrInterviewNotActive
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

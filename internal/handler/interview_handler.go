package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/model"
	"github.com/stemsi/interview-sim/internal/response"
	"github.com/stemsi/interview-sim/internal/service"
	"github.com/stemsi/interview-sim/internal/validator"
)

// InterviewHandler exposes the interview state machine over REST.
type InterviewHandler struct {
	interviews *service.InterviewService
	log        zerolog.Logger
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(interviews *service.InterviewService, log zerolog.Logger) *InterviewHandler {
	return &InterviewHandler{
		interviews: interviews,
		log:        log.With().Str("component", "interview_handler").Logger(),
	}
}

// candidateID reads and validates the :id path parameter.
func candidateID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return id, true
}

// fail writes a service error. A non-nil snapshot is returned alongside it.
func (h *InterviewHandler) fail(c *gin.Context, err error, snapshot *model.Candidate) {
	status, code := serviceError(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Interview operation failed")
	}
	if snapshot != nil {
		response.FailWithData(c, status, code, gin.H{"candidate": snapshot})
		return
	}
	response.Fail(c, status, code)
}

// CreateCandidate godoc
// POST /api/v1/candidates
// Registers a candidate in not_started.
func (h *InterviewHandler) CreateCandidate(c *gin.Context) {
	var req model.CreateCandidateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.interviews.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"candidate": candidate})
}

// ListCandidates godoc
// GET /api/v1/candidates
// Lists every candidate, newest first.
func (h *InterviewHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.interviews.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidates": candidates})
}

// ObserveCandidate godoc
// GET /api/v1/candidates/:id
// Returns the session, starting or finishing the interview as needed.
func (h *InterviewHandler) ObserveCandidate(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	candidate, err := h.interviews.Observe(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// UpdateDraft godoc
// PUT /api/v1/candidates/:id/draft
// Holds the answer being typed for auto-submission on expiry.
func (h *InterviewHandler) UpdateDraft(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	var req model.UpdateDraftRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.interviews.UpdateDraft(c.Request.Context(), id, req.QuestionIndex, req.Answer); err != nil {
		h.fail(c, err, nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// SubmitAnswer godoc
// POST /api/v1/candidates/:id/answers
// Submits the answer to the current question.
func (h *InterviewHandler) SubmitAnswer(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.interviews.SubmitAnswer(c.Request.Context(), id, *req.QuestionIndex, req.Answer)
	if err != nil {
		h.fail(c, err, candidate)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// TogglePause godoc
// POST /api/v1/candidates/:id/pause
// Flips the pause state, or forces it when "paused" is given.
func (h *InterviewHandler) TogglePause(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	var req model.PauseRequest
	if fields := validator.BindOptional(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var (
		candidate *model.Candidate
		err       error
	)
	if req.Paused != nil {
		candidate, err = h.interviews.SetPaused(c.Request.Context(), id, *req.Paused)
	} else {
		candidate, err = h.interviews.TogglePause(c.Request.Context(), id)
	}
	if err != nil {
		h.fail(c, err, candidate)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// ResetInterview godoc
// POST /api/v1/candidates/:id/reset
// Restarts the interview from not_started.
func (h *InterviewHandler) ResetInterview(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	candidate, err := h.interviews.Reset(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// DetachSession godoc
// DELETE /api/v1/candidates/:id/session
// Stops the countdown of a session the client stopped watching.
func (h *InterviewHandler) DetachSession(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	h.interviews.Detach(id)
	response.Success(c, http.StatusOK, gin.H{"status": "detached"})
}

// DeleteCandidate godoc
// DELETE /api/v1/candidates/:id
// Removes the candidate record.
func (h *InterviewHandler) DeleteCandidate(c *gin.Context) {
	id, ok := candidateID(c)
	if !ok {
		return
	}

	if err := h.interviews.Remove(c.Request.Context(), id); err != nil {
		h.fail(c, err, nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/model"
	"github.com/stemsi/interview-sim/internal/response"
)

// ResultLister reads archived interview results.
type ResultLister interface {
	List(ctx context.Context, limit, offset int) ([]model.InterviewResult, int, error)
}

// ResultHandler serves the PostgreSQL results archive.
type ResultHandler struct {
	results ResultLister
	log     zerolog.Logger
}

// NewResultHandler creates a new ResultHandler. A nil lister means the
// archive is not configured.
func NewResultHandler(results ResultLister, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		results: results,
		log:     log.With().Str("component", "result_handler").Logger(),
	}
}

// ListResults godoc
// GET /api/v1/results?page=1&per_page=20
// Lists archived interview results, best score first.
func (h *ResultHandler) ListResults(c *gin.Context) {
	if h.results == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrArchiveDisabled)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	results, total, err := h.results.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("List results failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, response.NewPagination(page, perPage, total))
}

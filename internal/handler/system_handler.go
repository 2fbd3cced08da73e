package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/llm"
	"github.com/stemsi/interview-sim/internal/response"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// QueueDepth reports the backlog of a worker queue.
type QueueDepth interface {
	Pending(ctx context.Context) (int64, error)
}

// SystemHandler serves liveness and runtime status.
type SystemHandler struct {
	startTime time.Time
	checks    map[string]HealthCheck
	archive   QueueDepth
	provider  string
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. archive may be nil; an empty
// provider reports the model as disabled.
func NewSystemHandler(checks map[string]HealthCheck, archive QueueDepth, provider string, log zerolog.Logger) *SystemHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	if provider == "" {
		provider = llm.DisabledProviderName
	}
	return &SystemHandler{
		startTime: time.Now(),
		checks:    checks,
		archive:   archive,
		provider:  provider,
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemStatus struct {
	Status       string            `json:"status"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies,omitempty"`

	// Language Model
	LLMProvider string `json:"llm_provider"`
	LLMEnabled  bool   `json:"llm_enabled"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`

	// Worker Queues
	QueueArchive *int64 `json:"queue_archive,omitempty"`
}

// Health godoc
// GET /health
// Reports "ok" when every configured dependency answers, "degraded" otherwise.
// A disabled language model is reported but does not degrade the status.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := h.collect(ctx)
	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, status)
}

func (h *SystemHandler) collect(ctx context.Context) systemStatus {
	s := systemStatus{
		Status:       "ok",
		Uptime:       formatDuration(time.Since(h.startTime)),
		Dependencies: make(map[string]string, len(h.checks)),
		LLMProvider:  h.provider,
		LLMEnabled:   h.provider != llm.DisabledProviderName,
		Goroutines:   runtime.NumGoroutine(),
		GoVersion:    runtime.Version(),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			s.Dependencies[name] = "down"
			s.Status = "degraded"
			continue
		}
		s.Dependencies[name] = "up"
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.HeapAlloc = ms.HeapAlloc
	s.NumGC = ms.NumGC

	if h.archive != nil {
		if n, err := h.archive.Pending(ctx); err == nil {
			s.QueueArchive = &n
		}
	}
	return s
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

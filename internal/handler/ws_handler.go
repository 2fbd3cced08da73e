package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/model"
	"github.com/stemsi/interview-sim/internal/response"
	"github.com/stemsi/interview-sim/internal/service"
	ws "github.com/stemsi/interview-sim/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams candidate snapshots and accepts interview actions.
type WSHandler struct {
	interviews *service.InterviewService
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(interviews *service.InterviewService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		interviews: interviews,
		log:        log.With().Str("component", "ws_handler").Logger(),
		upgrader:   buildUpgrader(allowedOrigins),
	}
}

// CandidateStream godoc
// WS /ws/v1/candidates/:id/stream
// Pushes a snapshot after every state change; accepts draft, submit, pause
// and ping actions.
func (h *WSHandler) CandidateStream(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Subscribe before the first observe so no change is missed.
	updates, unsubscribe := h.interviews.Broadcaster().Subscribe(id)
	defer unsubscribe()

	if _, err := h.interviews.Get(c.Request.Context(), id); err != nil {
		status, code := serviceError(err)
		response.Fail(c, status, code)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("candidate_id", id).Logger()
	wsLog.Info().Msg("Candidate connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Only the writer goroutine touches conn for writing.
	out := make(chan any, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, updates, out, wsLog)
	}()

	send := func(v any) {
		select {
		case out <- v:
		case <-ctx.Done():
		}
	}

	// The first observe drives generation, countdown and healing.
	go func() {
		snapshot, err := h.interviews.Observe(context.WithoutCancel(ctx), id)
		if err != nil {
			wsLog.Error().Err(err).Msg("Initial observe failed")
			send(wsError(err))
			return
		}
		send(ws.SnapshotResponse{Event: ws.EventSnapshot, Candidate: snapshot})
	}()

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}
		h.handleAction(ctx, id, &msg, send, wsLog)
	}

	cancel()
	<-writerDone
	unsubscribe()
	if h.interviews.Broadcaster().Subscribers(id) == 0 {
		h.interviews.Detach(id)
	}
	wsLog.Info().Msg("Candidate disconnected")
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, updates <-chan *model.Candidate, out <-chan any, log zerolog.Logger) {
	for {
		var v any
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			v = ws.SnapshotResponse{Event: ws.EventSnapshot, Candidate: snapshot}
		case v = <-out:
		}
		if err := ws.WriteTyped(conn, v); err != nil {
			log.Debug().Err(err).Msg("Write failed")
			return
		}
	}
}

// handleAction runs one client action. State changes reach the client
// through the broadcaster; only acknowledgements and errors are sent here.
func (h *WSHandler) handleAction(ctx context.Context, id string, msg *ws.RequestPayload, send func(any), log zerolog.Logger) {
	// Accepted actions complete even if the client disconnects meanwhile.
	ctx = context.WithoutCancel(ctx)

	var err error
	switch msg.Action {
	case ws.ActionPing:
		send(ws.PongResponse{Event: ws.EventPong})
		return

	case ws.ActionDraft:
		err = h.interviews.UpdateDraft(ctx, id, msg.QuestionIndex, msg.Answer)
		if err == nil {
			send(ws.SuccessResponse{Event: ws.EventSuccess, Action: msg.Action, Status: "saved"})
		}

	case ws.ActionSubmit:
		if msg.QuestionIndex == nil {
			send(ws.NewError(string(response.ErrValidation), "question_index is required"))
			return
		}
		// Evaluation can take a while; keep reading other actions meanwhile.
		index, answer := *msg.QuestionIndex, msg.Answer
		go func() {
			if _, err := h.interviews.SubmitAnswer(ctx, id, index, answer); err != nil {
				log.Debug().Err(err).Int("index", index).Msg("Submit rejected")
				send(wsError(err))
			}
		}()

	case ws.ActionPause:
		if msg.Paused != nil {
			_, err = h.interviews.SetPaused(ctx, id, *msg.Paused)
		} else {
			_, err = h.interviews.TogglePause(ctx, id)
		}

	default:
		log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		send(ws.NewError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action)))
		return
	}

	if err != nil {
		send(wsError(err))
	}
}

func wsError(err error) ws.ErrorResponse {
	_, code := serviceError(err)
	return ws.NewError(string(code), response.GetMessage(code))
}

package websocket

import "github.com/stemsi/interview-sim/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionDraft  Action = "draft"
	ActionSubmit Action = "submit"
	ActionPause  Action = "pause"
	ActionPing   Action = "ping"
)

// RequestPayload is the single shape every client message decodes into;
// each action reads the fields it needs.
type RequestPayload struct {
	Action        Action `json:"action"`
	QuestionIndex *int   `json:"question_index,omitempty"`
	Answer        string `json:"answer,omitempty"`
	Paused        *bool  `json:"paused,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventSuccess  Event = "success"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse carries the full candidate state after every change.
type SnapshotResponse struct {
	Event     Event            `json:"event"`
	Candidate *model.Candidate `json:"candidate"`
}

// SuccessResponse acknowledges an action that produces no new snapshot.
type SuccessResponse struct {
	Event  Event  `json:"event"`
	Action Action `json:"action"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// ReadWait is how long a connection may stay silent. Clients ping well
	// inside it.
	ReadWait = 5 * time.Minute
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *websocket.Conn, v any) error {
	conn.SetReadDeadline(time.Now().Add(ReadWait))
	return conn.ReadJSON(v)
}

// NewError builds an ErrorResponse.
func NewError(code, msg string) ErrorResponse {
	return ErrorResponse{Event: EventError, Code: code, Error: msg}
}

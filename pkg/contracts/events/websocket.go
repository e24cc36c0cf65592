// Package events contains the websocket message contracts used to report
// upload session progress.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Session lifecycle
	MessageTypeSessionStarted   MessageType = "session:started"
	MessageTypeSessionCompleted MessageType = "session:completed"
	MessageTypeSessionAbandoned MessageType = "session:abandoned"

	// Per-file progress
	MessageTypeFileDecoded MessageType = "file:decoded"
	MessageTypeFileFailed  MessageType = "file:failed"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// SessionEvent is the payload of every session and file message.
type SessionEvent struct {
	Type       MessageType `json:"-"`
	SessionKey string      `json:"session_key"`
	SessionID  string      `json:"session_id"`
	File       string      `json:"file,omitempty"`
	ReportType string      `json:"report_type,omitempty"`
	Rows       int         `json:"rows,omitempty"`
	Error      string      `json:"error,omitempty"`
	Completed  int         `json:"completed"`
	Submitted  int         `json:"submitted"`
}

// ErrorPayload is sent with MessageTypeError
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage wraps a session event in a websocket envelope.
func NewMessage(e SessionEvent, traceID string) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			Type:      e.Type,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: e,
	}
}

// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"assistance-gateway/internal/domain/request"
	"assistance-gateway/internal/domain/tracking"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Tracking events (client -> server)
	EventTypeTrackingOpen  EventType = "tracking:open"
	EventTypeTrackingClose EventType = "tracking:close"

	// Tracking events (server -> client)
	EventTypeTrackingSnapshot EventType = "tracking:snapshot"
	EventTypeTrackingStopped  EventType = "tracking:stopped"

	// Request lifecycle events (server -> client)
	EventTypeRequestCreated   EventType = "request:created"
	EventTypeRequestCancelled EventType = "request:cancelled"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType       `json:"type"`
	Data      interface{}     `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	ID        string          `json:"id,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// TrackingOpenRequest starts a tracking view for one request. Status is the
// last status the client knows about and is used until the first fetch lands.
type TrackingOpenRequest struct {
	RequestID string         `json:"request_id"`
	Status    request.Status `json:"status"`
}

type TrackingCloseRequest struct {
	RequestID string `json:"request_id"`
}

// TrackingSnapshotData is pushed after every accepted fetch.
type TrackingSnapshotData struct {
	RequestID string             `json:"request_id"`
	Snapshot  *tracking.Snapshot `json:"snapshot,omitempty"`
	Display   tracking.Display   `json:"display"`
	Initial   bool               `json:"initial"`
	Stale     bool               `json:"stale"`
}

// TrackingStoppedData tells the client a tracking view ended.
type TrackingStoppedData struct {
	RequestID string         `json:"request_id"`
	Status    request.Status `json:"status,omitempty"`
	Reason    string         `json:"reason"`
}

// RequestEventData announces a request created or cancelled through the
// gateway, so other open views of the same owner can refresh.
type RequestEventData struct {
	RequestID    string         `json:"request_id"`
	Status       request.Status `json:"status"`
	TrackingPath string         `json:"tracking_path,omitempty"`
}

const (
	StopReasonTerminal = "terminal_status"
	StopReasonClosed   = "closed"
)

// NewMessage builds a server message stamped with the current time.
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage decodes a client frame, keeping the raw data payload so
// handlers can decode it into their own request types.
func ParseMessage(data []byte) (*WSMessage, error) {
	var frame struct {
		Type EventType       `json:"type"`
		Data json.RawMessage `json:"data"`
		ID   string          `json:"id"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}
	return &WSMessage{
		Type:      frame.Type,
		Raw:       frame.Data,
		ID:        frame.ID,
		Timestamp: time.Now(),
	}, nil
}

// DecodeData unmarshals the message payload into target.
func (m *WSMessage) DecodeData(target interface{}) error {
	if len(m.Raw) > 0 {
		return json.Unmarshal(m.Raw, target)
	}
	data, err := json.Marshal(m.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

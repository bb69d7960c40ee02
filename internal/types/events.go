package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventUploadCreated   EventType = "upload.created"
	EventUploadProgress  EventType = "upload.progress"
	EventUploadCompleted EventType = "upload.completed"
	EventUploadCancelled EventType = "upload.cancelled"
	EventUploadFailed    EventType = "upload.failed"

	// EventWatchUpdated answers a dashboard's watch or unwatch command
	EventWatchUpdated EventType = "watch.updated"
)

// EventTypeForState maps a session state to the event announcing it
func EventTypeForState(state SessionState) EventType {
	switch state {
	case StateInProgress:
		return EventUploadProgress
	case StateCompleted:
		return EventUploadCompleted
	case StateCancelled:
		return EventUploadCancelled
	case StateFailed:
		return EventUploadFailed
	default:
		return EventUploadCreated
	}
}

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// UploadEvent is the payload pushed to admin dashboards on every transition
type UploadEvent struct {
	SessionID         string       `json:"session_id"`
	VideoID           string       `json:"video_id,omitempty"`
	State             SessionState `json:"state"`
	BytesConfirmed    int64        `json:"bytes_confirmed"`
	DeclaredSizeBytes int64        `json:"declared_size_bytes"`
}

// WatchList is the set of sessions a dashboard narrowed its stream to. Empty
// means every session.
type WatchList struct {
	Sessions []string `json:"sessions"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

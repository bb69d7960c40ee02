package events

import (
	"github.com/princekumarofficial/course-admin-service/internal/types"
)

// EventPublisher pushes upload session transitions to connected admins
type EventPublisher struct {
	hub WebSocketHub
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToAll(event *types.Event)
	GetClientCount() int
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

// PublishSessionChanged announces the session's current state
func (p *EventPublisher) PublishSessionChanged(session types.UploadSession) {
	// nobody is watching
	if p.hub.GetClientCount() == 0 {
		return
	}

	eventData := &types.UploadEvent{
		SessionID:         session.ID,
		VideoID:           session.RemoteVideoID,
		State:             session.State,
		BytesConfirmed:    session.BytesConfirmed,
		DeclaredSizeBytes: session.DeclaredSizeBytes,
	}

	p.hub.BroadcastToAll(types.NewEvent(types.EventTypeForState(session.State), eventData))
}

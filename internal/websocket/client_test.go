package websocket

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/princekumarofficial/course-admin-service/internal/types"
)

func uploadEvent(sessionID string) *types.Event {
	return types.NewEvent(types.EventUploadProgress, &types.UploadEvent{SessionID: sessionID})
}

func drain(c *Client) []types.Event {
	var events []types.Event
	for {
		select {
		case msg := <-c.send:
			var event types.Event
			json.Unmarshal(msg, &event)
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestClient_ReceivesEverythingUntilWatching(t *testing.T) {
	c := NewClient(nil, "admin-1", nil)

	c.Deliver(uploadEvent("s1"))
	c.Deliver(uploadEvent("s2"))
	if got := len(drain(c)); got != 2 {
		t.Fatalf("Expected 2 events, got %d", got)
	}

	c.handle([]byte(`{"action":"watch","session_id":"s2"}`))
	ack := drain(c)
	if len(ack) != 1 || ack[0].Type != types.EventWatchUpdated {
		t.Fatalf("Expected a watch acknowledgement, got %+v", ack)
	}

	c.Deliver(uploadEvent("s1"))
	c.Deliver(uploadEvent("s2"))
	events := drain(c)
	if len(events) != 1 {
		t.Fatalf("Expected only the watched session, got %d events", len(events))
	}
	data := events[0].Data.(map[string]interface{})
	if data["session_id"] != "s2" {
		t.Fatalf("Expected an event for s2, got %v", data)
	}

	c.handle([]byte(`{"action":"unwatch","session_id":"s2"}`))
	drain(c)
	c.Deliver(uploadEvent("s1"))
	if got := len(drain(c)); got != 1 {
		t.Fatalf("Expected every session again after unwatching, got %d events", got)
	}
}

func TestClient_Apply(t *testing.T) {
	c := NewClient(nil, "admin-1", nil)

	for _, id := range []string{"s3", "s1", "s3"} {
		if _, err := c.apply(Command{Action: ActionWatch, SessionID: id}); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	list, err := c.apply(Command{Action: ActionWatch, SessionID: "s2"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if want := []string{"s1", "s2", "s3"}; !reflect.DeepEqual(list.Sessions, want) {
		t.Fatalf("Expected %v, got %v", want, list.Sessions)
	}

	if _, err := c.apply(Command{Action: "subscribe", SessionID: "s1"}); err == nil {
		t.Fatal("Expected an error for an unknown action")
	}
	if _, err := c.apply(Command{Action: ActionWatch}); err == nil {
		t.Fatal("Expected an error without a session id")
	}
}

func TestClient_IgnoresBadCommands(t *testing.T) {
	c := NewClient(nil, "admin-1", nil)

	c.handle([]byte(`not json`))
	c.handle([]byte(`{"action":"watch"}`))
	if got := drain(c); len(got) != 0 {
		t.Fatalf("Expected no acknowledgement, got %+v", got)
	}

	c.Deliver(uploadEvent("s1"))
	if got := len(drain(c)); got != 1 {
		t.Fatalf("Expected the stream to stay unfiltered, got %d events", got)
	}
}

func TestClient_SlowAndClosed(t *testing.T) {
	c := NewClient(nil, "admin-1", nil)

	for i := 0; i < sendBuffer; i++ {
		if err := c.Deliver(uploadEvent("s1")); err != nil {
			t.Fatalf("Unexpected error at %d: %v", i, err)
		}
	}
	if err := c.Deliver(uploadEvent("s1")); err != ErrClientTooSlow {
		t.Fatalf("Expected ErrClientTooSlow, got %v", err)
	}

	c.close()
	c.close()
	// an acknowledgement racing the hub's close must not panic
	c.handle([]byte(`{"action":"watch","session_id":"s1"}`))
	if err := c.Deliver(uploadEvent("s1")); err != nil {
		t.Fatalf("Expected deliveries after close to be dropped, got %v", err)
	}
}

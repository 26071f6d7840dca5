package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/laudos/laudos-core/internal/audit"
)

// attachClient registers a connectionless client subscribed to channels.
func attachClient(h *Hub, channels ...string) *WSClient {
	c := &WSClient{
		hub:           h,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	for _, ch := range channels {
		c.subscriptions[ch] = struct{}{}
	}
	h.Register(c)
	return c
}

func receive(t *testing.T, c *WSClient) WSMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decoding message: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return WSMessage{}
	}
}

func TestPublishEvent_BroadcastsToChannel(t *testing.T) {
	e := newTestEnv(t)
	casesClient := attachClient(e.srv.hub, ChannelCases)
	usersClient := attachClient(e.srv.hub, ChannelUsers)

	e.srv.publishEvent(audit.EntityCase, "created", "case-1", "usr-1", map[string]string{"id": "case-1"})

	msg := receive(t, casesClient)
	if msg.Type != WSTypeEvent || msg.EventType != "case.created" {
		t.Errorf("message = %+v, want event case.created", msg)
	}
	payload, _ := msg.Payload.(map[string]any)
	if payload["origin"] != "test-node" || payload["entity_id"] != "case-1" {
		t.Errorf("payload = %v", payload)
	}

	if n := len(usersClient.send); n != 0 {
		t.Errorf("users subscriber got %d messages, want 0", n)
	}
}

func TestHandleRemoteEvent(t *testing.T) {
	e := newTestEnv(t)
	client := attachClient(e.srv.hub, ChannelEvidence)

	local, err := json.Marshal(Event{Origin: "test-node", Entity: "evidence", Action: "deleted", EntityID: "evd-1"})
	if err != nil {
		t.Fatal(err)
	}
	remote, err := json.Marshal(Event{Origin: "other-node", Entity: "evidence", Action: "deleted", EntityID: "evd-2"})
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range []struct {
		topic   string
		payload []byte
	}{
		{"laudos/events/evidence/deleted", local},
		{"laudos/events/evidence/deleted", []byte("not json")},
		{"laudos/system/status", remote},
		{"laudos/events/evidence/deleted", remote},
	} {
		if err := e.srv.handleRemoteEvent(m.topic, m.payload); err != nil {
			t.Errorf("handleRemoteEvent(%s) error = %v", m.topic, err)
		}
	}

	msg := receive(t, client)
	if msg.EventType != "evidence.deleted" {
		t.Errorf("event_type = %s, want evidence.deleted", msg.EventType)
	}
	payload, _ := msg.Payload.(map[string]any)
	if payload["entity_id"] != "evd-2" {
		t.Errorf("relayed entity_id = %v, want evd-2", payload["entity_id"])
	}
	if n := len(client.send); n != 0 {
		t.Errorf("%d extra messages relayed, want 0", n)
	}
}

func TestChannelFor(t *testing.T) {
	tests := map[string]string{
		audit.EntityUser:     ChannelUsers,
		audit.EntityCase:     ChannelCases,
		audit.EntityEvidence: ChannelEvidence,
		"unknown":            "",
	}
	for entity, want := range tests {
		if got := channelFor(entity); got != want {
			t.Errorf("channelFor(%q) = %q, want %q", entity, got, want)
		}
	}
}

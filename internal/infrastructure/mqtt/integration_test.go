//go:build integration

package mqtt

import (
	"encoding/json"
	"testing"
	"time"
)

// These tests need a broker at 127.0.0.1:1883:
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...

func TestIntegration_EventRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "laudos-int-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	received := make(chan map[string]any, 1)
	err = client.Subscribe(Topics{}.AllEvents(), 1, func(topic string, payload []byte) error {
		entity, action, ok := ParseEventTopic(topic)
		if !ok || entity != "case" || action != "create" {
			return nil
		}
		var msg map[string]any
		if err := json.Unmarshal(payload, &msg); err != nil {
			return err
		}
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(Topics{}.AllEvents()) {
		t.Error("subscription not tracked")
	}

	if err := client.PublishJSON(Topics{}.Event("case", "create"), map[string]any{"id": "case-1"}, false); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	select {
	case msg := <-received:
		if msg["id"] != "case-1" {
			t.Errorf("payload = %v", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event not received")
	}

	if err := client.Unsubscribe(Topics{}.AllEvents()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}

func TestIntegration_CloseMarksOffline(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "laudos-int-close"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}

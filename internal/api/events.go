package api

import (
	"encoding/json"
	"time"

	"github.com/laudos/laudos-core/internal/audit"
	"github.com/laudos/laudos-core/internal/infrastructure/mqtt"
)

// Activity feed channels a WebSocket client may subscribe to.
const (
	ChannelUsers    = "users"
	ChannelCases    = "cases"
	ChannelEvidence = "evidence"
)

// Event is the envelope for a mutation, broadcast locally and published to MQTT.
type Event struct {
	Origin    string    `json:"origin"`
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entity_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// channelFor maps an entity type to its feed channel.
func channelFor(entity string) string {
	switch entity {
	case audit.EntityUser:
		return ChannelUsers
	case audit.EntityCase:
		return ChannelCases
	case audit.EntityEvidence:
		return ChannelEvidence
	}
	return ""
}

// publishEvent notifies feed subscribers and, when connected, the event bus.
// Both are best-effort and never fail the request.
func (s *Server) publishEvent(entity, action, entityID, actorID string, payload any) {
	ev := Event{
		Origin:    s.serviceID,
		Entity:    entity,
		Action:    action,
		EntityID:  entityID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	s.hub.Broadcast(channelFor(entity), entity+"."+action, ev)
	s.influx.WriteCaseEvent(entity, action)

	if !s.mqtt.IsConnected() {
		return
	}
	topic := mqtt.Topics{}.Event(entity, action)
	go func() {
		if err := s.mqtt.PublishJSON(topic, ev, false); err != nil {
			s.logger.Warn("event publish failed", "topic", topic, "error", err)
		}
	}()
}

// relayRemoteEvents forwards events published by other instances to local
// feed subscribers. Events carrying this instance's origin are skipped.
func (s *Server) relayRemoteEvents() error {
	if !s.mqtt.IsConnected() {
		return nil
	}

	topic := mqtt.Topics{}.AllEvents()
	s.logger.Info("subscribing to remote events for WebSocket relay", "topic", topic)
	return s.mqtt.Subscribe(topic, s.mqtt.QoS(), s.handleRemoteEvent)
}

// handleRemoteEvent is the MQTT handler behind relayRemoteEvents.
func (s *Server) handleRemoteEvent(topic string, payload []byte) error {
	entity, action, ok := mqtt.ParseEventTopic(topic)
	if !ok {
		return nil
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		s.logger.Warn("failed to parse remote event", "topic", topic, "error", err)
		return nil
	}
	if ev.Origin == s.serviceID {
		return nil
	}

	s.hub.Broadcast(channelFor(entity), entity+"."+action, ev)
	s.influx.WriteCaseEvent(entity, action)
	return nil
}

package mqtt

import (
	"fmt"
	"strings"
)

// Topic roots.
const (
	// TopicPrefixEvents is the base for domain events.
	TopicPrefixEvents = "laudos/events"

	// TopicPrefixSystem is the base for instance presence.
	TopicPrefixSystem = "laudos/system"
)

// Topics provides builders for Laudos MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Event("evidence", "deleted") // laudos/events/evidence/deleted
type Topics struct{}

// Event returns the topic for a domain event.
//
// Example: laudos/events/case/evidence_linked
func (Topics) Event(entity, action string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixEvents, entity, action)
}

// AllEvents returns a pattern matching every domain event.
//
// Pattern: laudos/events/#
func (Topics) AllEvents() string {
	return TopicPrefixEvents + "/#"
}

// SystemStatus returns the retained presence topic.
//
// Example: laudos/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// ParseEventTopic splits an event topic into entity and action.
func ParseEventTopic(topic string) (entity, action string, ok bool) {
	rest, found := strings.CutPrefix(topic, TopicPrefixEvents+"/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Package mqtt connects Laudos Core to an MQTT broker used as an outbound
// event bus.
//
// When enabled, every successful mutation (a case opened, evidence linked,
// a user deleted) is published as JSON to laudos/events/{entity}/{action}.
// Other instances subscribe to laudos/events/# and relay events they did not
// originate to their own WebSocket clients. The bus is best-effort: publish
// failures are logged by the caller and never fail the HTTP request.
//
// The client announces itself on laudos/system/status (retained) with an
// online message on connect, a graceful offline message on Close, and a Last
// Will so the broker marks the instance offline after a crash.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.Event("case", "create")
//	err = client.PublishJSON(topic, event, false)
package mqtt

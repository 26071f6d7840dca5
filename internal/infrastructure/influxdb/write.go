package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementHTTPRequests = "http_requests"
	MeasurementAuthEvents   = "auth_events"
	MeasurementCaseEvents   = "case_events"
)

// Auth event tag values.
const (
	AuthEventLogin    = "login"
	AuthEventRegister = "register"
	AuthEventToken    = "token"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// WriteHTTPRequest records one served request. route is the matched route
// pattern, not the raw path, to keep tag cardinality bounded.
func (c *Client) WriteHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(httpRequestPoint(method, route, status, duration, time.Now()))
}

// WriteAuthEvent records a login, registration or token check outcome.
func (c *Client) WriteAuthEvent(event, outcome string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(authEventPoint(event, outcome, time.Now()))
}

// WriteCaseEvent counts one change to a user, case or evidence record.
func (c *Client) WriteCaseEvent(entity, action string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(caseEventPoint(entity, action, time.Now()))
}

func httpRequestPoint(method, route string, status int, duration time.Duration, ts time.Time) *write.Point {
	if route == "" {
		route = "unmatched"
	}
	return write.NewPoint(
		MeasurementHTTPRequests,
		map[string]string{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		},
		map[string]any{
			"duration_ms": float64(duration.Microseconds()) / 1000,
		},
		ts,
	)
}

func authEventPoint(event, outcome string, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementAuthEvents,
		map[string]string{
			"event":   event,
			"outcome": outcome,
		},
		map[string]any{
			"count": int64(1),
		},
		ts,
	)
}

func caseEventPoint(entity, action string, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementCaseEvents,
		map[string]string{
			"entity": entity,
			"action": action,
		},
		map[string]any{
			"count": int64(1),
		},
		ts,
	)
}

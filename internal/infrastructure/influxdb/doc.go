// Package influxdb writes request and authentication telemetry to InfluxDB 2.x.
//
// Two measurements are recorded:
//
//	http_requests  tags: method, route, status   fields: duration_ms
//	auth_events    tags: event, outcome          fields: count
//
// Writes go through the client's non-blocking write API and are batched per
// the influxdb section of config.yaml (batch_size, flush_interval). A write
// never blocks or fails a request; async failures reach the SetOnError
// callback. Methods on a nil or closed client are no-ops, so callers do not
// need to check whether telemetry is enabled.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAuthEvent(influxdb.AuthEventLogin, influxdb.OutcomeFailure)
package influxdb

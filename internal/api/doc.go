// Package api implements the HTTP REST API and WebSocket activity feed for
// Laudos Core.
//
// This package provides:
//   - Account endpoints: register, login, profile, update, list, delete
//   - Case and evidence CRUD, evidence linking, case close and report
//   - The audit trail for administrators
//   - A WebSocket hub that pushes mutation events to subscribed clients
//   - Middleware: request ID, logging, recovery, CORS, body limit, per-IP
//     rate limiting, the bearer-token gate and per-route authorisation
//
// # Request flow
//
//	request → authMiddleware (token) → authorize (rule) → handler → store
//
// After a mutation succeeds the handler enqueues an audit entry and publishes
// an event to the WebSocket hub and, when configured, to MQTT. Both are
// best-effort and never change the HTTP response.
//
// # Security
//
// Tokens are HS256 JWTs carried as "Authorization: Bearer <token>". A missing
// header, an invalid token and an expired token are distinct 401 codes.
// Authorisation failures are 403. WebSocket connections authenticate with a
// single-use ticket so the JWT never appears in a URL.
package api

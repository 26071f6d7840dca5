package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/laudos/laudos-core/internal/audit"
	"github.com/laudos/laudos-core/internal/auth"
	"github.com/laudos/laudos-core/internal/infrastructure/influxdb"
)

// ticketTTL is how long a WebSocket ticket is valid.
const ticketTTL = 60 * time.Second

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresIn int        `json:"expires_in"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

// profileResponse is the decoded view of the caller's token.
type profileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleRegister creates an account. The role is taken from the body and
// defaults to Examiner.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.accounts.Register(r.Context(), req)
	if err != nil {
		s.influx.WriteAuthEvent(influxdb.AuthEventRegister, influxdb.OutcomeFailure)
		s.writeDomainError(w, r, err, "register")
		return
	}
	s.influx.WriteAuthEvent(influxdb.AuthEventRegister, influxdb.OutcomeSuccess)

	s.auditLog(audit.ActionCreate, audit.EntityUser, user.ID, user.ID, map[string]any{
		"email": user.Email,
		"role":  user.Role,
	})
	s.publishEvent(audit.EntityUser, "registered", user.ID, user.ID, user)

	writeJSON(w, http.StatusCreated, user)
}

// handleLogin verifies credentials and returns a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.influx.WriteAuthEvent(influxdb.AuthEventLogin, influxdb.OutcomeFailure)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Info("login failed", "reason", "invalid credentials")
		}
		s.writeDomainError(w, r, err, "login")
		return
	}
	s.influx.WriteAuthEvent(influxdb.AuthEventLogin, influxdb.OutcomeSuccess)
	s.auditLog(audit.ActionLogin, audit.EntityUser, result.User.ID, result.User.ID, nil)

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokens.TTL().Seconds()),
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	})
}

// handleProfile returns the identity carried by the caller's token.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w, ErrCodeUnauthorized, "authentication required")
		return
	}

	resp := profileResponse{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	writeJSON(w, http.StatusOK, resp)
}

// ticketStore holds pending WebSocket authentication tickets.
// Tickets are single-use and expire after ticketTTL.
type ticketStore struct {
	tickets map[string]ticketEntry
	mu      sync.Mutex
}

type ticketEntry struct {
	identity  auth.Identity
	expiresAt time.Time
}

func newTicketStore() *ticketStore {
	return &ticketStore{tickets: make(map[string]ticketEntry)}
}

// issue stores a new ticket for id.
func (t *ticketStore) issue(id auth.Identity, now time.Time) string {
	ticket := generateTicket()
	t.mu.Lock()
	t.tickets[ticket] = ticketEntry{identity: id, expiresAt: now.Add(ticketTTL)}
	t.mu.Unlock()
	return ticket
}

// consume removes the ticket and reports whether it was still valid.
func (t *ticketStore) consume(ticket string, now time.Time) (ticketEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.tickets[ticket]
	if !ok {
		return ticketEntry{}, false
	}
	delete(t.tickets, ticket)
	return entry, now.Before(entry.expiresAt)
}

// sweep removes expired tickets.
func (t *ticketStore) sweep(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ticket, entry := range t.tickets {
		if now.After(entry.expiresAt) {
			delete(t.tickets, ticket)
		}
	}
}

// handleWSTicket generates a single-use WebSocket authentication ticket so
// the JWT never appears in a URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	ticket := s.tickets.issue(identityFromContext(r.Context()), time.Now())

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(ticketTTL.Seconds()),
	})
}

// validateTicket checks a ticket and consumes it.
func (s *Server) validateTicket(ticket string) (ticketEntry, bool) {
	return s.tickets.consume(ticket, time.Now())
}

// ticketBytes is the number of random bytes used for WebSocket tickets.
const ticketBytes = 32

// generateTicket creates a cryptographically random ticket string.
func generateTicket() string {
	b := make([]byte, ticketBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

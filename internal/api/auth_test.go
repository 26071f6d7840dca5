package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/laudos/laudos-core/internal/auth"
)

func TestRegisterLoginProfile(t *testing.T) {
	e := newTestEnv(t)

	user := expect(t, e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Ana",
		"email":    "ana@x.com",
		"password": "secret1",
		"role":     "Examiner",
	}), http.StatusCreated)
	if user["role"] != "Examiner" || user["email"] != "ana@x.com" {
		t.Errorf("registered user = %v", user)
	}
	if _, ok := user["password_hash"]; ok {
		t.Error("register response leaks password_hash")
	}

	login := expect(t, e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "ana@x.com",
		"password": "secret1",
	}), http.StatusOK)
	token, _ := login["token"].(string)
	if token == "" {
		t.Fatalf("login response has no token: %v", login)
	}
	if login["token_type"] != "Bearer" {
		t.Errorf("token_type = %v, want Bearer", login["token_type"])
	}
	if login["expires_in"] != float64(3600) {
		t.Errorf("expires_in = %v, want 3600", login["expires_in"])
	}

	profile := expect(t, e.do(t, http.MethodGet, "/api/v1/auth/profile", token, nil), http.StatusOK)
	if profile["email"] != "ana@x.com" {
		t.Errorf("profile email = %v, want ana@x.com", profile["email"])
	}
	if profile["id"] != user["id"] {
		t.Errorf("profile id = %v, want %v", profile["id"], user["id"])
	}

	expectError(t, e.do(t, http.MethodGet, "/api/v1/auth/profile", "", nil), http.StatusUnauthorized, ErrCodeUnauthorized)
}

func TestRegister_Errors(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "Ana", "ana@x.com", "")

	t.Run("duplicate email", func(t *testing.T) {
		expectError(t, e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name": "Other", "email": "ANA@x.com", "password": "secret1",
		}), http.StatusConflict, ErrCodeConflict)
	})

	t.Run("invalid fields", func(t *testing.T) {
		body := expectError(t, e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name": "", "email": "not-an-email", "password": "123",
		}), http.StatusBadRequest, ErrCodeValidation)
		fields, _ := body["fields"].([]any)
		if len(fields) != 3 {
			t.Errorf("fields = %v, want 3 entries", body["fields"])
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		expectError(t, e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name": "Bob", "email": "bob@x.com", "password": "secret1", "role": "Janitor",
		}), http.StatusBadRequest, ErrCodeValidation)
	})

	t.Run("password over 72 bytes", func(t *testing.T) {
		body := expectError(t, e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"name": "Long", "email": "long@x.com", "password": strings.Repeat("p", 80),
		}), http.StatusBadRequest, ErrCodeValidation)
		fields, _ := body["fields"].([]any)
		if len(fields) != 1 {
			t.Errorf("fields = %v, want only password", body["fields"])
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		expectError(t, e.do(t, http.MethodPost, "/api/v1/auth/register", "", "{not json"),
			http.StatusBadRequest, ErrCodeBadRequest)
	})
}

func TestRegister_DefaultRole(t *testing.T) {
	e := newTestEnv(t)

	body := expect(t, e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@x.com", "password": "secret1",
	}), http.StatusCreated)
	if body["role"] != string(auth.RoleExaminer) {
		t.Errorf("role = %v, want Examiner", body["role"])
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "Ana", "ana@x.com", "")

	wrong := expectError(t, e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ana@x.com", "password": "wrong-password",
	}), http.StatusUnauthorized, ErrCodeInvalidCredentials)

	unknown := expectError(t, e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "secret1",
	}), http.StatusUnauthorized, ErrCodeInvalidCredentials)

	if wrong["message"] != unknown["message"] {
		t.Errorf("messages differ: %q vs %q", wrong["message"], unknown["message"])
	}
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "Ana", "ana@x.com", "")

	expect(t, e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "  Ana@X.com ", "password": "secret1",
	}), http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	e := newTestEnv(t)
	id, token := e.account(t, "Ana", "ana@x.com", "")

	past := e.tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, _, err := past.Issue(&auth.User{ID: id, Name: "Ana", Email: "ana@x.com", Role: auth.RoleExaminer})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	other, err := auth.NewTokenService("a-completely-different-secret-value", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	forged, _, err := other.Issue(&auth.User{ID: id, Role: auth.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", ErrCodeUnauthorized},
		{"wrong scheme", "Basic " + token, ErrCodeUnauthorized},
		{"empty bearer", "Bearer ", ErrCodeUnauthorized},
		{"garbage token", "Bearer not.a.jwt", ErrCodeInvalidToken},
		{"wrong signature", "Bearer " + forged, ErrCodeInvalidToken},
		{"tampered", "Bearer " + token[:len(token)-5] + "AAAAA", ErrCodeInvalidToken},
		{"expired", "Bearer " + expired, ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, e.ts.URL+"/api/v1/auth/profile", nil)
			if err != nil {
				t.Fatal(err)
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := e.ts.Client().Do(req)
			if err != nil {
				t.Fatal(err)
			}
			expectError(t, resp, http.StatusUnauthorized, tt.code)
		})
	}

	t.Run("lower-case scheme", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, e.ts.URL+"/api/v1/auth/profile", nil)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "bearer "+token)
		resp, err := e.ts.Client().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		expect(t, resp, http.StatusOK)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWSTicket(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.account(t, "Ana", "ana@x.com", "")

	expectError(t, e.do(t, http.MethodPost, "/api/v1/auth/ws-ticket", "", nil), http.StatusUnauthorized, ErrCodeUnauthorized)

	body := expect(t, e.do(t, http.MethodPost, "/api/v1/auth/ws-ticket", token, nil), http.StatusOK)
	ticket, _ := body["ticket"].(string)
	if len(ticket) != ticketBytes*2 || strings.Trim(ticket, "0123456789abcdef") != "" {
		t.Errorf("ticket = %q, want %d hex chars", ticket, ticketBytes*2)
	}
	if body["expires_in"] != float64(60) {
		t.Errorf("expires_in = %v, want 60", body["expires_in"])
	}
}

func TestTicketStore(t *testing.T) {
	store := newTicketStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	id := auth.Identity{UserID: "usr-1", Role: auth.RoleExaminer}

	ticket := store.issue(id, now)
	entry, ok := store.consume(ticket, now.Add(time.Second))
	if !ok || entry.identity != id {
		t.Fatalf("consume() = (%v, %v), want identity and true", entry, ok)
	}
	if _, ok := store.consume(ticket, now.Add(time.Second)); ok {
		t.Error("ticket was accepted twice")
	}

	stale := store.issue(id, now)
	if _, ok := store.consume(stale, now.Add(ticketTTL+time.Second)); ok {
		t.Error("expired ticket was accepted")
	}

	store.issue(id, now)
	store.sweep(now.Add(ticketTTL + time.Second))
	if n := len(store.tickets); n != 0 {
		t.Errorf("%d tickets left after sweep, want 0", n)
	}
}

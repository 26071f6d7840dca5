package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/laudos/laudos-core/internal/audit"
	"github.com/laudos/laudos-core/internal/auth"
)

// handleListUsers returns every account's public fields.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.accounts.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, "list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// handleUpdateUser changes the caller's own name, email or password.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req auth.UpdateInput
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := identityFromContext(r.Context())
	user, err := s.accounts.Update(r.Context(), actor, id, req)
	if err != nil {
		s.writeDomainError(w, r, err, "update user")
		return
	}

	changed := []string{}
	if req.Name != nil {
		changed = append(changed, "name")
	}
	if req.Email != nil {
		changed = append(changed, "email")
	}
	if req.Password != nil {
		changed = append(changed, "password")
	}
	s.auditLog(audit.ActionUpdate, audit.EntityUser, user.ID, actor.UserID, map[string]any{"fields": changed})
	s.publishEvent(audit.EntityUser, "updated", user.ID, actor.UserID, user)

	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser hard-deletes an account. Admins may not delete themselves.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := identityFromContext(r.Context())

	if err := s.accounts.Delete(r.Context(), actor, id); err != nil {
		s.writeDomainError(w, r, err, "delete user")
		return
	}

	s.auditLog(audit.ActionDelete, audit.EntityUser, id, actor.UserID, nil)
	s.publishEvent(audit.EntityUser, "deleted", id, actor.UserID, map[string]string{"id": id})

	w.WriteHeader(http.StatusNoContent)
}

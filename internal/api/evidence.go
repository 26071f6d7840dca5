package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/laudos/laudos-core/internal/audit"
	"github.com/laudos/laudos-core/internal/evidence"
)

// handleCreateEvidence records an item collected by the caller.
func (s *Server) handleCreateEvidence(w http.ResponseWriter, r *http.Request) {
	var req evidence.CreateInput
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID := identityFromContext(r.Context()).UserID
	ev, err := s.evidence.Create(r.Context(), actorID, req)
	if err != nil {
		s.writeDomainError(w, r, err, "create evidence")
		return
	}

	s.auditLog(audit.ActionCreate, audit.EntityEvidence, ev.ID, actorID, map[string]any{"type": ev.Type})
	s.publishEvent(audit.EntityEvidence, "created", ev.ID, actorID, ev)

	writeJSON(w, http.StatusCreated, ev)
}

// handleListEvidence returns evidence, optionally filtered by ?type= and ?collected_by=.
func (s *Server) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := evidence.Filter{CollectedBy: strings.TrimSpace(q.Get("collected_by"))}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t, err := evidence.ParseType(v)
		if err != nil {
			s.writeDomainError(w, r, err, "list evidence")
			return
		}
		filter.Type = t
	}

	list, err := s.evidence.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err, "list evidence")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"evidence": list,
		"count":    len(list),
	})
}

// handleGetEvidence returns one item with its collector.
func (s *Server) handleGetEvidence(w http.ResponseWriter, r *http.Request) {
	ev, err := s.evidence.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err, "get evidence")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleUpdateEvidence changes description, image_url or content. The type is fixed.
func (s *Server) handleUpdateEvidence(w http.ResponseWriter, r *http.Request) {
	var req evidence.UpdateInput
	if !decodeJSON(w, r, &req) {
		return
	}

	ev, err := s.evidence.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeDomainError(w, r, err, "update evidence")
		return
	}

	actorID := identityFromContext(r.Context()).UserID
	s.auditLog(audit.ActionUpdate, audit.EntityEvidence, ev.ID, actorID, nil)
	s.publishEvent(audit.EntityEvidence, "updated", ev.ID, actorID, ev)

	writeJSON(w, http.StatusOK, ev)
}

// handleDeleteEvidence removes an item and its case links.
func (s *Server) handleDeleteEvidence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.evidence.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err, "delete evidence")
		return
	}

	actorID := identityFromContext(r.Context()).UserID
	s.auditLog(audit.ActionDelete, audit.EntityEvidence, id, actorID, nil)
	s.publishEvent(audit.EntityEvidence, "deleted", id, actorID, map[string]string{"id": id})

	w.WriteHeader(http.StatusNoContent)
}

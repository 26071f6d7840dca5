package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/laudos/laudos-core/internal/audit"
	"github.com/laudos/laudos-core/internal/cases"
	"github.com/laudos/laudos-core/internal/evidence"
)

type linkEvidenceRequest struct {
	EvidenceID string `json:"evidence_id"`
}

// caseDetail is a case with its linked evidence records, in link order.
type caseDetail struct {
	*cases.Case
	EvidenceRecords []*evidence.Evidence `json:"evidence_records"`
}

// handleCreateCase opens a new case.
func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req cases.CreateInput
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := s.cases.Create(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err, "create case")
		return
	}

	actorID := identityFromContext(r.Context()).UserID
	s.auditLog(audit.ActionCreate, audit.EntityCase, c.ID, actorID, map[string]any{"title": c.Title})
	s.publishEvent(audit.EntityCase, "created", c.ID, actorID, c)

	writeJSON(w, http.StatusCreated, c)
}

// handleListCases returns cases, newest first, optionally filtered by ?status=.
func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	var filter cases.Filter
	if v := strings.TrimSpace(r.URL.Query().Get("status")); v != "" {
		status, err := cases.ParseStatus(v)
		if err != nil {
			s.writeDomainError(w, r, err, "list cases")
			return
		}
		filter.Status = status
	}

	list, err := s.cases.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err, "list cases")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cases": list,
		"count": len(list),
	})
}

// handleGetCase returns one case with its linked evidence ids. With
// ?expand=evidence the full evidence records are included as well.
func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.cases.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err, "get case")
		return
	}
	if r.URL.Query().Get("expand") != "evidence" {
		writeJSON(w, http.StatusOK, c)
		return
	}

	detail := caseDetail{Case: c, EvidenceRecords: make([]*evidence.Evidence, 0, len(c.Evidence))}
	for _, id := range c.Evidence {
		ev, err := s.evidence.GetByID(r.Context(), id)
		if errors.Is(err, evidence.ErrEvidenceNotFound) {
			// Deleted between the two reads.
			continue
		}
		if err != nil {
			s.writeDomainError(w, r, err, "get case evidence")
			return
		}
		detail.EvidenceRecords = append(detail.EvidenceRecords, ev)
	}
	writeJSON(w, http.StatusOK, detail)
}

// handleUpdateCase changes title, description or status.
func (s *Server) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	var req cases.UpdateInput
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := s.cases.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeDomainError(w, r, err, "update case")
		return
	}

	actorID := identityFromContext(r.Context()).UserID
	s.auditLog(audit.ActionUpdate, audit.EntityCase, c.ID, actorID, map[string]any{"status": c.Status})
	s.publishEvent(audit.EntityCase, "updated", c.ID, actorID, c)

	writeJSON(w, http.StatusOK, c)
}

// handleAddCaseEvidence links an existing evidence item to the case.
func (s *Server) handleAddCaseEvidence(w http.ResponseWriter, r *http.Request) {
	var req linkEvidenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.EvidenceID) == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "evidence_id is required")
		return
	}

	c, err := s.cases.AddEvidence(r.Context(), chi.URLParam(r, "id"), req.EvidenceID)
	if err != nil {
		s.writeDomainError(w, r, err, "link evidence")
		return
	}

	actorID := identityFromContext(r.Context()).UserID
	s.auditLog(audit.ActionLink, audit.EntityCase, c.ID, actorID, map[string]any{"evidence_id": req.EvidenceID})
	s.publishEvent(audit.EntityCase, "evidence_linked", c.ID, actorID, c)

	writeJSON(w, http.StatusOK, c)
}

// handleCloseCase marks the case Closed.
func (s *Server) handleCloseCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.cases.Close(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err, "close case")
		return
	}

	actorID := identityFromContext(r.Context()).UserID
	s.auditLog(audit.ActionClose, audit.EntityCase, c.ID, actorID, nil)
	s.publishEvent(audit.EntityCase, "closed", c.ID, actorID, c)

	writeJSON(w, http.StatusOK, c)
}

// handleCaseReport returns the case summary.
func (s *Server) handleCaseReport(w http.ResponseWriter, r *http.Request) {
	c, err := s.cases.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err, "case report")
		return
	}
	writeJSON(w, http.StatusOK, c.Report())
}

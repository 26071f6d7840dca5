package api

import (
	"net/http"
	"testing"
)

func (e *testEnv) createTextEvidence(t *testing.T, token, content string) string {
	t.Helper()
	body := expect(t, e.do(t, http.MethodPost, "/api/v1/evidence", token, map[string]string{
		"type":        "Text",
		"description": "witness statement",
		"content":     content,
	}), http.StatusCreated)
	return body["id"].(string)
}

func TestCaseLifecycle(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.account(t, "Ana", "ana@x.com", "")

	c := expect(t, e.do(t, http.MethodPost, "/api/v1/cases", token, map[string]string{
		"title":       "Warehouse fire",
		"description": "Suspected arson at dock 4",
	}), http.StatusCreated)
	caseID := c["id"].(string)
	if c["status"] != "Open" || c["closed_at"] != nil {
		t.Errorf("new case = %v, want Open with null closed_at", c)
	}
	if ev, _ := c["evidence"].([]any); ev == nil || len(ev) != 0 {
		t.Errorf("evidence = %v, want empty list", c["evidence"])
	}

	first := e.createTextEvidence(t, token, "I saw smoke")
	second := e.createTextEvidence(t, token, "The alarm was off")

	for _, id := range []string{second, first} {
		expect(t, e.do(t, http.MethodPost, "/api/v1/cases/"+caseID+"/evidence", token, map[string]string{
			"evidence_id": id,
		}), http.StatusOK)
	}

	got := expect(t, e.do(t, http.MethodGet, "/api/v1/cases/"+caseID, token, nil), http.StatusOK)
	linked, _ := got["evidence"].([]any)
	if len(linked) != 2 || linked[0] != second || linked[1] != first {
		t.Errorf("evidence = %v, want [%s %s] in link order", linked, second, first)
	}
	if _, ok := got["evidence_records"]; ok {
		t.Error("evidence_records should only appear with ?expand=evidence")
	}

	expanded := expect(t, e.do(t, http.MethodGet, "/api/v1/cases/"+caseID+"?expand=evidence", token, nil), http.StatusOK)
	records, _ := expanded["evidence_records"].([]any)
	if len(records) != 2 {
		t.Fatalf("evidence_records = %v, want 2 records", expanded["evidence_records"])
	}
	rec0, _ := records[0].(map[string]any)
	rec1, _ := records[1].(map[string]any)
	if rec0["id"] != second || rec0["content"] != "The alarm was off" || rec1["id"] != first {
		t.Errorf("evidence_records = %v, want full records in link order", records)
	}
	if expanded["id"] != caseID || expanded["title"] != "Warehouse fire" {
		t.Errorf("expanded case lost its own fields: %v", expanded)
	}

	closed := expect(t, e.do(t, http.MethodPut, "/api/v1/cases/"+caseID+"/close", token, nil), http.StatusOK)
	if closed["status"] != "Closed" || closed["closed_at"] == nil {
		t.Errorf("closed case = %v, want Closed with closed_at", closed)
	}

	report := expect(t, e.do(t, http.MethodGet, "/api/v1/cases/"+caseID+"/report", token, nil), http.StatusOK)
	if report["total_evidence"] != float64(2) || report["status"] != "Closed" || report["title"] != "Warehouse fire" {
		t.Errorf("report = %v", report)
	}

	reopened := expect(t, e.do(t, http.MethodPut, "/api/v1/cases/"+caseID, token, map[string]string{
		"status": "open",
	}), http.StatusOK)
	if reopened["status"] != "Open" || reopened["closed_at"] != nil {
		t.Errorf("reopened case = %v, want Open with null closed_at", reopened)
	}
}

func TestCaseErrors(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.account(t, "Ana", "ana@x.com", "")

	c := expect(t, e.do(t, http.MethodPost, "/api/v1/cases", token, map[string]string{"title": "Case"}), http.StatusCreated)
	caseID := c["id"].(string)
	evID := e.createTextEvidence(t, token, "note")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"empty title", http.MethodPost, "/api/v1/cases", map[string]string{"title": "  "}, http.StatusBadRequest, ErrCodeValidation},
		{"bad status", http.MethodPost, "/api/v1/cases", map[string]string{"title": "x", "status": "Pending"}, http.StatusBadRequest, ErrCodeValidation},
		{"malformed json", http.MethodPost, "/api/v1/cases", "{", http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown case", http.MethodGet, "/api/v1/cases/case-missing", nil, http.StatusNotFound, ErrCodeNotFound},
		{"update unknown case", http.MethodPut, "/api/v1/cases/case-missing", map[string]string{"title": "x"}, http.StatusNotFound, ErrCodeNotFound},
		{"close unknown case", http.MethodPut, "/api/v1/cases/case-missing/close", nil, http.StatusNotFound, ErrCodeNotFound},
		{"report unknown case", http.MethodGet, "/api/v1/cases/case-missing/report", nil, http.StatusNotFound, ErrCodeNotFound},
		{"link missing evidence id", http.MethodPost, "/api/v1/cases/" + caseID + "/evidence", map[string]string{}, http.StatusBadRequest, ErrCodeValidation},
		{"link unknown evidence", http.MethodPost, "/api/v1/cases/" + caseID + "/evidence", map[string]string{"evidence_id": "evd-missing"}, http.StatusNotFound, ErrCodeNotFound},
		{"link to unknown case", http.MethodPost, "/api/v1/cases/case-missing/evidence", map[string]string{"evidence_id": evID}, http.StatusNotFound, ErrCodeNotFound},
		{"list bad status", http.MethodGet, "/api/v1/cases?status=Pending", nil, http.StatusBadRequest, ErrCodeValidation},
		{"no token", http.MethodGet, "/api/v1/cases", nil, http.StatusUnauthorized, ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := token
			if tt.code == ErrCodeUnauthorized {
				tok = ""
			}
			expectError(t, e.do(t, tt.method, tt.path, tok, tt.body), tt.status, tt.code)
		})
	}

	t.Run("duplicate link", func(t *testing.T) {
		path := "/api/v1/cases/" + caseID + "/evidence"
		expect(t, e.do(t, http.MethodPost, path, token, map[string]string{"evidence_id": evID}), http.StatusOK)
		expectError(t, e.do(t, http.MethodPost, path, token, map[string]string{"evidence_id": evID}),
			http.StatusConflict, ErrCodeConflict)
	})
}

func TestListCases(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.account(t, "Ana", "ana@x.com", "")

	open := expect(t, e.do(t, http.MethodPost, "/api/v1/cases", token, map[string]string{"title": "Open one"}), http.StatusCreated)
	expect(t, e.do(t, http.MethodPost, "/api/v1/cases", token, map[string]string{"title": "Closed one", "status": "Closed"}), http.StatusCreated)

	all := expect(t, e.do(t, http.MethodGet, "/api/v1/cases", token, nil), http.StatusOK)
	if all["count"] != float64(2) {
		t.Errorf("count = %v, want 2", all["count"])
	}

	filtered := expect(t, e.do(t, http.MethodGet, "/api/v1/cases?status=open", token, nil), http.StatusOK)
	list, _ := filtered["cases"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["id"] != open["id"] {
		t.Errorf("filtered cases = %v, want only %v", list, open["id"])
	}
}

func TestCases_AssistantMayWrite(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.account(t, "Sam", "sam@x.com", "Assistant")

	expect(t, e.do(t, http.MethodPost, "/api/v1/cases", token, map[string]string{"title": "Intake"}), http.StatusCreated)
}

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/laudos/laudos-core/internal/audit"
	"github.com/laudos/laudos-core/internal/infrastructure/logging"
)

// waitForAudit polls until filter matches at least one entry.
func (e *testEnv) waitForAudit(t *testing.T, filter audit.Filter) []audit.AuditLog {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		result, err := e.audit.List(context.Background(), filter)
		if err != nil {
			t.Fatalf("listing audit logs: %v", err)
		}
		if len(result.Logs) > 0 {
			return result.Logs
		}
		if time.Now().After(deadline) {
			t.Fatalf("no audit entry matching %+v", filter)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestAuditTrail(t *testing.T) {
	e := newTestEnv(t)
	adminID, adminToken := e.account(t, "Root", "root@x.com", "Admin")
	anaID, anaToken := e.account(t, "Ana", "ana@x.com", "")

	c := expect(t, e.do(t, http.MethodPost, "/api/v1/cases", anaToken, map[string]string{"title": "Case"}), http.StatusCreated)
	caseID := c["id"].(string)

	logs := e.waitForAudit(t, audit.Filter{Action: audit.ActionCreate, EntityType: audit.EntityCase})
	if logs[0].EntityID != caseID || logs[0].UserID != anaID || logs[0].Source != "api" {
		t.Errorf("case audit entry = %+v", logs[0])
	}
	e.waitForAudit(t, audit.Filter{Action: audit.ActionLogin, UserID: adminID})

	expectError(t, e.do(t, http.MethodGet, "/api/v1/audit", anaToken, nil), http.StatusForbidden, ErrCodeForbidden)

	body := expect(t, e.do(t, http.MethodGet, "/api/v1/audit?entity_type=case&limit=5", adminToken, nil), http.StatusOK)
	if body["total"] != float64(1) || body["limit"] != float64(5) {
		t.Errorf("audit page = %v", body)
	}

	expectError(t, e.do(t, http.MethodGet, "/api/v1/audit?limit=ten", adminToken, nil), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestAuditLog_DropsWhenFull(t *testing.T) {
	s := &Server{
		logger:    logging.Discard(),
		auditRepo: audit.NewSQLiteRepository(nil),
		auditCh:   make(chan *audit.AuditLog, 1),
	}

	s.auditLog(audit.ActionCreate, audit.EntityCase, "case-1", "usr-1", nil)
	s.auditLog(audit.ActionCreate, audit.EntityCase, "case-2", "usr-1", nil)

	if n := len(s.auditCh); n != 1 {
		t.Fatalf("queued = %d, want 1", n)
	}
	if entry := <-s.auditCh; entry.EntityID != "case-1" {
		t.Errorf("queued entry = %s, want case-1", entry.EntityID)
	}
}

func TestClose_FlushesAuditQueue(t *testing.T) {
	e := newTestEnv(t)
	e.srv.auditLog(audit.ActionClose, audit.EntityCase, "case-flush", "usr-1", nil)

	if err := e.srv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	result, err := e.audit.List(context.Background(), audit.Filter{EntityID: "case-flush"})
	if err != nil {
		t.Fatalf("listing audit logs: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("flushed entries = %d, want 1", result.Total)
	}
}

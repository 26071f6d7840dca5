package cases

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusOpen     Status = "Open"
	StatusClosed   Status = "Closed"
	StatusArchived Status = "Archived"
)

// ParseStatus accepts any casing of a valid status.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusOpen, StatusClosed, StatusArchived} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Case is a forensic case file.
type Case struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at"`
	// Evidence holds linked evidence IDs in link order.
	Evidence  []string  `json:"evidence"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput is the body of a create request. Status defaults to Open.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// UpdateInput carries the fields to change. Nil fields are left as they are.
type UpdateInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// Report summarises a case.
type Report struct {
	CaseID        string     `json:"case_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        Status     `json:"status"`
	OpenedAt      time.Time  `json:"opened_at"`
	ClosedAt      *time.Time `json:"closed_at"`
	TotalEvidence int        `json:"total_evidence"`
}

// Report builds the summary for c.
func (c *Case) Report() Report {
	return Report{
		CaseID:        c.ID,
		Title:         c.Title,
		Description:   c.Description,
		Status:        c.Status,
		OpenedAt:      c.OpenedAt,
		ClosedAt:      c.ClosedAt,
		TotalEvidence: len(c.Evidence),
	}
}

// applyStatus moves c to status at now, maintaining closed_at.
func (c *Case) applyStatus(status Status, now time.Time) {
	switch status {
	case StatusOpen:
		c.ClosedAt = nil
	case StatusClosed:
		if c.ClosedAt == nil {
			c.ClosedAt = &now
		}
	case StatusArchived:
		// closed_at is kept as it is.
	}
	c.Status = status
}

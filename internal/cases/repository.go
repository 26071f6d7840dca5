package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/laudos/laudos-core/internal/infrastructure/database"
)

// Repository defines the case store.
type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Case, error)
	GetByID(ctx context.Context, id string) (*Case, error)
	List(ctx context.Context, filter Filter) ([]Case, error)
	Update(ctx context.Context, id string, in UpdateInput) (*Case, error)
	AddEvidence(ctx context.Context, caseID, evidenceID string) (*Case, error)
	Close(ctx context.Context, id string) (*Case, error)
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status Status
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new case repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const caseColumns = "id, title, description, status, opened_at, closed_at, created_at, updated_at"

// Create validates and inserts a new case.
func (r *SQLiteRepository) Create(ctx context.Context, in CreateInput) (*Case, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	status := StatusOpen
	if in.Status != "" {
		var err error
		if status, err = ParseStatus(in.Status); err != nil {
			return nil, err
		}
	}

	now := r.now()
	c := &Case{
		ID:          "case-" + uuid.NewString()[:8],
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		OpenedAt:    now,
		Evidence:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.applyStatus(status, now)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cases (`+caseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, string(c.Status),
		database.FormatTime(c.OpenedAt), database.NullTime(c.ClosedAt),
		database.FormatTime(c.CreatedAt), database.FormatTime(c.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting case: %w", err)
	}
	return c, nil
}

// GetByID returns a case with its evidence IDs in link order.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Case, error) {
	c, err := scanCase(r.db.QueryRowContext(ctx, "SELECT "+caseColumns+" FROM cases WHERE id = ?", id))
	if err != nil {
		return nil, err
	}

	links, err := r.loadLinks(ctx, r.db, "WHERE case_id = ?", id)
	if err != nil {
		return nil, err
	}
	c.Evidence = links[c.ID]
	if c.Evidence == nil {
		c.Evidence = []string{}
	}
	return c, nil
}

// List returns cases newest first, each with its evidence IDs.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Case, error) {
	query := "SELECT " + caseColumns + " FROM cases"
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY opened_at DESC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	defer rows.Close()

	result := []Case{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cases: %w", err)
	}

	links, err := r.loadLinks(ctx, r.db, "")
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Evidence = links[result[i].ID]
		if result[i].Evidence == nil {
			result[i].Evidence = []string{}
		}
	}
	return result, nil
}

// Update changes title, description and status.
func (r *SQLiteRepository) Update(ctx context.Context, id string, in UpdateInput) (*Case, error) {
	var title, desc *string
	var status Status
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return nil, err
		}
		t := strings.TrimSpace(*in.Title)
		title = &t
	}
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return nil, err
		}
		desc = in.Description
	}
	if in.Status != nil {
		var err error
		if status, err = ParseStatus(*in.Status); err != nil {
			return nil, err
		}
	}

	return r.mutate(ctx, id, func(c *Case, now time.Time) {
		if title != nil {
			c.Title = *title
		}
		if desc != nil {
			c.Description = *desc
		}
		if status != "" {
			c.applyStatus(status, now)
		}
	})
}

// Close sets the status to Closed and stamps closed_at.
func (r *SQLiteRepository) Close(ctx context.Context, id string) (*Case, error) {
	return r.mutate(ctx, id, func(c *Case, now time.Time) {
		c.applyStatus(StatusClosed, now)
	})
}

// AddEvidence appends evidenceID to the case's evidence list.
// Both records must exist; a repeated link returns ErrEvidenceAlreadyLinked.
func (r *SQLiteRepository) AddEvidence(ctx context.Context, caseID, evidenceID string) (*Case, error) {
	err := database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, "SELECT 1 FROM cases WHERE id = ?", caseID, ErrCaseNotFound); err != nil {
			return err
		}
		if err := exists(ctx, tx, "SELECT 1 FROM evidence WHERE id = ?", evidenceID, ErrEvidenceNotFound); err != nil {
			return err
		}

		now := database.FormatTime(r.now())
		_, err := tx.ExecContext(ctx,
			`INSERT INTO case_evidence (case_id, evidence_id, position, linked_at)
			 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM case_evidence WHERE case_id = ?), ?)`,
			caseID, evidenceID, caseID, now,
		)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEvidenceAlreadyLinked
			}
			return fmt.Errorf("linking evidence: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE cases SET updated_at = ? WHERE id = ?", now, caseID); err != nil {
			return fmt.Errorf("touching case: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, caseID)
}

// mutate loads a case, applies fn and writes the mutable columns back in one transaction.
func (r *SQLiteRepository) mutate(ctx context.Context, id string, fn func(c *Case, now time.Time)) (*Case, error) {
	err := database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		c, err := scanCase(tx.QueryRowContext(ctx, "SELECT "+caseColumns+" FROM cases WHERE id = ?", id))
		if err != nil {
			return err
		}

		now := r.now()
		fn(c, now)
		c.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`UPDATE cases SET title = ?, description = ?, status = ?, closed_at = ?, updated_at = ? WHERE id = ?`,
			c.Title, c.Description, string(c.Status), database.NullTime(c.ClosedAt),
			database.FormatTime(c.UpdatedAt), c.ID,
		)
		if err != nil {
			return fmt.Errorf("updating case: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func exists(ctx context.Context, q querier, query, id string, notFound error) error {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("checking existence: %w", err)
	}
	return nil
}

// loadLinks returns evidence IDs per case, ordered by position.
func (r *SQLiteRepository) loadLinks(ctx context.Context, q querier, where string, args ...any) (map[string][]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT case_id, evidence_id FROM case_evidence "+where+" ORDER BY case_id, position", args...) //nolint:gosec // where is a fixed literal
	if err != nil {
		return nil, fmt.Errorf("loading evidence links: %w", err)
	}
	defer rows.Close()

	links := make(map[string][]string)
	for rows.Next() {
		var caseID, evidenceID string
		if err := rows.Scan(&caseID, &evidenceID); err != nil {
			return nil, fmt.Errorf("scanning evidence link: %w", err)
		}
		links[caseID] = append(links[caseID], evidenceID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating evidence links: %w", err)
	}
	return links, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(s scanner) (*Case, error) {
	var c Case
	var status, openedAt, createdAt, updatedAt string
	var closedAt sql.NullString

	err := s.Scan(&c.ID, &c.Title, &c.Description, &status, &openedAt, &closedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("scanning case: %w", err)
	}

	c.Status = Status(status)
	if c.OpenedAt, err = database.ParseTime(openedAt); err != nil {
		return nil, fmt.Errorf("scanning case: %w", err)
	}
	if c.ClosedAt, err = database.ParseNullTime(closedAt); err != nil {
		return nil, fmt.Errorf("scanning case: %w", err)
	}
	if c.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("scanning case: %w", err)
	}
	if c.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("scanning case: %w", err)
	}
	return &c, nil
}

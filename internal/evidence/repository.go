package evidence

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

// Repository defines the evidence store.
type Repository interface {
	Create(ctx context.Context, collectorID string, in CreateInput) (*Evidence, error)
	GetByID(ctx context.Context, id string) (*Evidence, error)
	List(ctx context.Context, filter Filter) ([]Evidence, error)
	Update(ctx context.Context, id string, in UpdateInput) (*Evidence, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new evidence repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// selectEvidence resolves the collector with a LEFT JOIN so deleted users read as null.
const selectEvidence = `SELECT e.id, e.type, e.description, e.image_url, e.content,
	e.collected_at, e.collected_by, e.created_at, e.updated_at,
	u.id, u.name, u.email
	FROM evidence e LEFT JOIN users u ON u.id = e.collected_by`

// Create validates and inserts a new evidence record collected by collectorID.
func (r *SQLiteRepository) Create(ctx context.Context, collectorID string, in CreateInput) (*Evidence, error) {
	t, err := ParseType(in.Type)
	if err != nil {
		return nil, err
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	if err := validateContent(t, imageURL, in.Content); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	now := r.now()
	collectedAt := now
	if in.CollectedAt != nil && !in.CollectedAt.IsZero() {
		collectedAt = in.CollectedAt.UTC()
	}

	id := "evd-" + uuid.NewString()[:8]
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO evidence (id, type, description, image_url, content, collected_at, collected_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(t), in.Description, nullableString(imageURL), nullableString(in.Content),
		database.FormatTime(collectedAt), collectorID,
		database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting evidence: %w", err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns an evidence record with its collector expanded.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Evidence, error) {
	return scanEvidence(r.db.QueryRowContext(ctx, selectEvidence+" WHERE e.id = ?", id))
}

// List returns evidence newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Evidence, error) {
	var conditions []string
	var args []any
	if filter.Type != "" {
		conditions = append(conditions, "e.type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.CollectedBy != "" {
		conditions = append(conditions, "e.collected_by = ?")
		args = append(args, filter.CollectedBy)
	}

	query := selectEvidence
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.collected_at DESC, e.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing evidence: %w", err)
	}
	defer rows.Close()

	result := []Evidence{}
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating evidence: %w", err)
	}
	return result, nil
}

// Update changes description and content fields. The type is fixed, and the
// result must still satisfy it.
func (r *SQLiteRepository) Update(ctx context.Context, id string, in UpdateInput) (*Evidence, error) {
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return nil, err
		}
	}

	err := database.RunInTx(ctx, r.db, func(tx *sql.Tx) error {
		e, err := scanEvidence(tx.QueryRowContext(ctx, selectEvidence+" WHERE e.id = ?", id))
		if err != nil {
			return err
		}

		if in.Description != nil {
			e.Description = *in.Description
		}
		if in.ImageURL != nil {
			e.ImageURL = strings.TrimSpace(*in.ImageURL)
		}
		if in.Content != nil {
			e.Content = *in.Content
		}
		if err := validateContent(e.Type, e.ImageURL, e.Content); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE evidence SET description = ?, image_url = ?, content = ?, updated_at = ? WHERE id = ?`,
			e.Description, nullableString(e.ImageURL), nullableString(e.Content),
			database.FormatTime(r.now()), id,
		)
		if err != nil {
			return fmt.Errorf("updating evidence: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes an evidence record and its case links.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM evidence WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting evidence: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrEvidenceNotFound
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvidence(s scanner) (*Evidence, error) {
	var e Evidence
	var typ, collectedAt, createdAt, updatedAt string
	var imageURL, content sql.NullString
	var userID, userName, userEmail sql.NullString

	err := s.Scan(&e.ID, &typ, &e.Description, &imageURL, &content,
		&collectedAt, &e.CollectedBy, &createdAt, &updatedAt,
		&userID, &userName, &userEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEvidenceNotFound
		}
		return nil, fmt.Errorf("scanning evidence: %w", err)
	}

	e.Type = Type(typ)
	e.ImageURL = imageURL.String
	e.Content = content.String
	if userID.Valid {
		e.Collector = &Collector{ID: userID.String, Name: userName.String, Email: userEmail.String}
	}

	if e.CollectedAt, err = database.ParseTime(collectedAt); err != nil {
		return nil, fmt.Errorf("scanning evidence: %w", err)
	}
	if e.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("scanning evidence: %w", err)
	}
	if e.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("scanning evidence: %w", err)
	}
	return &e, nil
}

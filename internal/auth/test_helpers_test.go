package auth

import (
	"context"
	"database/sql"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/laudos/laudos-core/internal/infrastructure/database"
	"github.com/laudos/laudos-core/migrations"
)

const testSecret = "test-secret-key-at-least-32-chars!"

// testDB opens an in-memory SQLite database with every migration applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return db.DB
}

// newTestHasher uses the minimum bcrypt cost to keep tests fast.
func newTestHasher(t *testing.T) *Hasher {
	t.Helper()

	h, err := NewHasher(bcrypt.MinCost, 0)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}
	return h
}

// seedTestUser inserts a user whose password is "test-password".
func seedTestUser(t *testing.T, db *sql.DB, email string, role Role) *User {
	t.Helper()

	hash, err := newTestHasher(t).Hash(context.Background(), "test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := &User{
		Name:         email,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := NewUserRepository(db).Create(t.Context(), user); err != nil {
		t.Fatalf("creating test user %s: %v", email, err)
	}
	return user
}

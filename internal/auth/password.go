package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultBcryptCost is used when NewHasher is given a cost of zero.
const DefaultBcryptCost = 12

// dummyPassword feeds the timing-equalisation compare for unknown accounts.
const dummyPassword = "laudos-timing-equaliser"

// Hasher hashes and verifies passwords with bcrypt.
//
// bcrypt is deliberately slow. The semaphore caps how many computations run
// at once so a burst of logins cannot occupy every CPU.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Hasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

// NewHasher creates a Hasher. A maxConcurrent of zero means runtime.NumCPU().
func NewHasher(cost, maxConcurrent int) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("preparing dummy hash: %w", err)
	}

	return &Hasher{
		cost:  cost,
		sem:   semaphore.NewWeighted(int64(maxConcurrent)),
		dummy: dummy,
	}, nil
}

// Cost returns the configured bcrypt work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt digest of plaintext.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for hash slot: %w", err)
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(digest), nil
}

// Verify compares plaintext against digest in constant time.
// A mismatch is (false, nil); a malformed digest is an error.
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("waiting for hash slot: %w", err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("verifying password: %w", err)
	}
}

// Equalise spends the same work as a real Verify without any result.
// Login calls it for unknown emails so timing does not reveal account existence.
// If no hash slot is available before ctx ends it fails exactly as Verify does.
func (h *Hasher) Equalise(ctx context.Context, plaintext string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for hash slot: %w", err)
	}
	defer h.sem.Release(1)

	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext)) //nolint:errcheck // result deliberately ignored
	return nil
}

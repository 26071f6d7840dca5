package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	digest, err := h.Hash(ctx, "secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if digest == "secret1" || strings.Contains(digest, "secret1") {
		t.Error("digest must not contain the plaintext")
	}
	if !strings.HasPrefix(digest, "$2a$") {
		t.Errorf("digest %q is not a bcrypt hash", digest)
	}

	ok, err := h.Verify(ctx, "secret1", digest)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() should accept the original password")
	}

	ok, err = h.Verify(ctx, "secret2", digest)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() should reject a different password")
	}
}

func TestHasher_SaltsEachCall(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	a, err := h.Hash(ctx, "same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, err := h.Hash(ctx, "same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestHasher_MalformedDigest(t *testing.T) {
	h := newTestHasher(t)

	ok, err := h.Verify(context.Background(), "whatever", "not-a-bcrypt-hash")
	if err == nil {
		t.Error("Verify() expected error for malformed digest")
	}
	if ok {
		t.Error("Verify() must not succeed on a malformed digest")
	}
}

func TestNewHasher_CostBounds(t *testing.T) {
	if _, err := NewHasher(bcrypt.MaxCost+1, 1); err == nil {
		t.Error("NewHasher() expected error for cost above bcrypt.MaxCost")
	}

	h, err := NewHasher(bcrypt.MinCost, 0)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}
	if h.Cost() != bcrypt.MinCost {
		t.Errorf("Cost() = %d, want %d", h.Cost(), bcrypt.MinCost)
	}

	digest, err := h.Hash(context.Background(), "pw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil || cost != bcrypt.MinCost {
		t.Errorf("digest cost = %d (%v), want %d", cost, err, bcrypt.MinCost)
	}
}

func TestHasher_BoundsConcurrency(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost, 1)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}

	// Hold the only slot; a second caller must respect its context deadline.
	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := h.Hash(ctx, "blocked"); err == nil {
		t.Error("Hash() should fail when no slot frees up before the deadline")
	}
	h.sem.Release(1)

	// With the slot free, concurrent callers all complete.
	var wg sync.WaitGroup
	var done atomic.Int32
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.Hash(context.Background(), "pw"); err == nil {
				done.Add(1)
			}
		}()
	}
	wg.Wait()
	if done.Load() != 4 {
		t.Errorf("completed hashes = %d, want 4", done.Load())
	}
}

func TestHasher_Equalise(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost, 1)
	if err != nil {
		t.Fatalf("NewHasher() error = %v", err)
	}
	if err := h.Equalise(context.Background(), "anything"); err != nil {
		t.Fatalf("Equalise() with a free slot error = %v", err)
	}

	digest, err := h.Hash(context.Background(), "secret1")
	if err != nil {
		t.Fatal(err)
	}

	// With every slot taken, Equalise and Verify must fail the same way.
	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer h.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	equaliseErr := h.Equalise(ctx, "anything")
	_, verifyErr := h.Verify(ctx, "secret1", digest)
	if !errors.Is(equaliseErr, context.DeadlineExceeded) || !errors.Is(verifyErr, context.DeadlineExceeded) {
		t.Fatalf("errors = %v / %v, want both DeadlineExceeded", equaliseErr, verifyErr)
	}
	if equaliseErr.Error() != verifyErr.Error() {
		t.Errorf("messages differ: %q vs %q", equaliseErr, verifyErr)
	}
}

func TestHasher_VerifyOverlongPassword(t *testing.T) {
	h := newTestHasher(t)
	digest, err := h.Hash(context.Background(), "secret1")
	if err != nil {
		t.Fatal(err)
	}

	ok, err := h.Verify(context.Background(), strings.Repeat("a", 80), digest)
	if err != nil || ok {
		t.Errorf("Verify(80 bytes) = %v, %v; want false, nil", ok, err)
	}
}

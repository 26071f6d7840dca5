package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateInput carries the profile fields to change. Nil fields are left as they are.
type UpdateInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Service implements registration, login and account management.
type Service struct {
	users  UserRepository
	hasher *Hasher
	tokens *TokenService
}

// NewService wires the account service.
func NewService(users UserRepository, hasher *Hasher, tokens *TokenService) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Tokens exposes the token service for request authentication.
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Register validates input, hashes the password and stores a new account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := NormaliseEmail(in.Email)

	ve := &ValidationError{}
	validateName(ve, in.Name)
	validateEmail(ve, email)
	validatePassword(ve, in.Password)
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	// Cheap pre-check so a duplicate does not pay for a bcrypt hash.
	// The UNIQUE index still decides races.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, NormaliseEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			if err := s.hasher.Equalise(ctx, password); err != nil {
				return nil, err
			}
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// Update changes the caller's own profile. The stored hash changes only
// when a new password is supplied.
func (s *Service) Update(ctx context.Context, actor Identity, id string, in UpdateInput) (*User, error) {
	if err := (SelfOnly{}).Authorize(actor, id); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &ValidationError{}
	if in.Name != nil {
		validateName(ve, *in.Name)
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := NormaliseEmail(*in.Email)
		validateEmail(ve, email)
		user.Email = email
	}
	if in.Password != nil {
		validatePassword(ve, *in.Password)
	}
	if err := ve.orNil(); err != nil {
		return nil, err
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(ctx, *in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete hard-deletes an account. Requires PermUserDelete; an Admin may not
// delete their own account.
func (s *Service) Delete(ctx context.Context, actor Identity, id string) error {
	if err := Permitted(PermUserDelete).Authorize(actor, id); err != nil {
		return err
	}
	if actor.UserID == id {
		return fmt.Errorf("%w: cannot delete own account", ErrForbidden)
	}
	return s.users.Delete(ctx, id)
}

// seedPasswordBytes is the number of random bytes in a generated seed password.
const seedPasswordBytes = 16

// SeedAdmin creates an Admin account on first boot if no accounts exist.
// The generated password is logged once and must be changed immediately.
// Returns the generated password, or "" if seeding was skipped.
func (s *Service) SeedAdmin(ctx context.Context, email string, logger *slog.Logger) (string, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}
	if count > 0 {
		logger.Debug("users exist, skipping admin seed")
		return "", nil
	}

	buf := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(buf)

	user, err := s.Register(ctx, RegisterInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     string(RoleAdmin),
	})
	if err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	logger.Warn("seed admin account created",
		"user_id", user.ID,
		"email", user.Email,
		"initial_password", password,
		"action_required", "change this password immediately",
	)
	return password, nil
}

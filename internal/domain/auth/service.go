// Package auth implements the authentication gateway: registration, login,
// and bearer-token issue/verification. User and admin authentication share
// one code path parameterized by role.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tastycart/storefront/internal/domain/account"
)

var (
	// ErrMissingFields is returned when a registration field is absent.
	ErrMissingFields = errors.New("all fields are required")
	// ErrInvalidCredentials is returned on login when the account is
	// absent, the password mismatches, or the role does not match the
	// login path. One error for all three keeps responses unrevealing.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service verifies credentials and issues tokens.
type Service struct {
	accounts account.Repository
	tokens   *Tokens
}

// NewService creates an auth Service.
func NewService(accounts account.Repository, tokens *Tokens) *Service {
	return &Service{accounts: accounts, tokens: tokens}
}

// Register creates an account with the given role after validating that
// every field is present and that the username and email are unused. The
// password is stored only as a bcrypt hash.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (account.Public, error) {
	if username == "" || email == "" || password == "" {
		return account.Public{}, ErrMissingFields
	}
	if role == "" {
		role = account.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return account.Public{}, errors.Wrap(err, "hash password")
	}

	a := &account.Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return account.Public{}, err
	}
	return a.PublicView(), nil
}

// LoginResult carries the issued token and the public account projection.
type LoginResult struct {
	Token   string
	Account account.Public
}

// Login checks the password against the stored hash and, when requiredRole
// is non-empty, that the account holds that role. On success it issues a
// signed, time-limited token.
func (s *Service) Login(ctx context.Context, username, password, requiredRole string) (*LoginResult, error) {
	a, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "load account")
	}

	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if requiredRole != "" && a.Role != requiredRole {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(a)
	if err != nil {
		return nil, errors.Wrap(err, "issue token")
	}

	return &LoginResult{Token: token, Account: a.PublicView()}, nil
}

// Verify delegates to the token manager; exposed so the HTTP middleware
// can authenticate requests without holding the Tokens directly.
func (s *Service) Verify(raw string) (*Identity, error) {
	return s.tokens.Verify(raw)
}

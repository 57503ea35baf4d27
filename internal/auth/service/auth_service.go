// Package service implements the authentication core: login, logout,
// registration, and refresh token rotation.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	accountdomain "cloudpad-admin/backend/internal/account/domain"
	"cloudpad-admin/backend/internal/audit"
	auditdomain "cloudpad-admin/backend/internal/audit/domain"
	"cloudpad-admin/backend/internal/security"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
// Login failures are deliberately uniform: a wrong password and an unknown
// email produce the same ErrInvalidCredentials so callers cannot enumerate
// accounts. Refresh failures are likewise collapsed into ErrAccessDenied.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrAccessDenied       = errors.New("access denied")
	ErrValidation         = errors.New("invalid request")
)

// AccountRepo is the minimal account repository needed by the auth service.
// Declared here, implemented by the account repository; the narrow interface
// keeps the account and auth packages from depending on each other.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
	Create(ctx context.Context, a *accountdomain.Account) error
	UpdateRefreshHash(ctx context.Context, id, hash string) error
	RotateRefreshHash(ctx context.Context, id, oldHash, newHash string) (bool, error)
}

// LoginResult holds the outcome of Login: the identity summary plus a token pair.
type LoginResult struct {
	Identity accountdomain.Summary
	Tokens   security.TokenPair
}

// RegisterParams are the fields required to register a new admin account.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthService implements password login, logout, registration, and
// rotate-on-use refresh against a single-session-per-account store.
type AuthService struct {
	repo   AccountRepo
	hasher *security.Hasher
	tokens *security.TokenProvider
	audit  audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLogger may be nil to disable audit events.
func NewAuthService(repo AccountRepo, hasher *security.Hasher, tokens *security.TokenProvider, auditLogger audit.AuditLogger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, audit: auditLogger}
}

// Login authenticates with email/password, persists a new session, and
// returns the identity summary with a fresh token pair. Any verification
// failure returns ErrInvalidCredentials with no further detail.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		s.logEvent(ctx, "", auditdomain.ActionLoginFailure)
		return nil, ErrInvalidCredentials
	}
	acct, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acct == nil || !s.hasher.Compare(acct.PasswordHash, []byte(password)) {
		s.logEvent(ctx, "", auditdomain.ActionLoginFailure)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueSession(ctx, acct)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, acct.ID, auditdomain.ActionLogin)
	return &LoginResult{Identity: acct.Summary(), Tokens: *pair}, nil
}

// Logout clears the account's stored refresh token hash, invalidating the
// current session. Idempotent: logging out an already-logged-out account is
// not an error.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	if err := s.repo.UpdateRefreshHash(ctx, accountID, ""); err != nil {
		return err
	}
	s.logEvent(ctx, accountID, auditdomain.ActionLogout)
	return nil
}

// Register creates a new admin account with the base role and persists a
// session exactly as Login does. Returns ErrDuplicateAccount when an account
// with the email already exists.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*security.TokenPair, error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if err := validateRegister(params, email); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}

	hashed, err := s.hasher.Hash([]byte(params.Password))
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	now := time.Now().UTC()
	acct := &accountdomain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		PasswordHash: hashed,
		Role:         accountdomain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, err
	}

	pair, err := s.issueSession(ctx, acct)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, acct.ID, auditdomain.ActionRegister)
	return pair, nil
}

// Refresh validates the presented refresh token against the stored session
// hash and, on success, rotates to a brand-new pair. Refresh tokens are
// single-use: after rotation the old token no longer matches the stored hash.
// A missing session, a hash mismatch, and a lost rotation race all return
// ErrAccessDenied; the caller cannot tell which check failed.
func (s *AuthService) Refresh(ctx context.Context, accountID, presentedToken string) (*security.TokenPair, error) {
	acct, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil || acct.RefreshTokenHash == "" {
		return nil, ErrAccessDenied
	}
	if !security.RefreshTokenHashEqual(presentedToken, acct.RefreshTokenHash) {
		return nil, ErrAccessDenied
	}

	pair, err := s.tokens.IssuePair(acct.ID, string(acct.Role))
	if err != nil {
		return nil, err
	}
	// Compare-and-set against the hash we just verified; a concurrent
	// refresh that rotated first wins and this call is denied.
	ok, err := s.repo.RotateRefreshHash(ctx, acct.ID, acct.RefreshTokenHash, security.HashRefreshToken(pair.RefreshToken))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}
	s.logEvent(ctx, acct.ID, auditdomain.ActionRefresh)
	return pair, nil
}

func (s *AuthService) issueSession(ctx context.Context, acct *accountdomain.Account) (*security.TokenPair, error) {
	pair, err := s.tokens.IssuePair(acct.ID, string(acct.Role))
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRefreshHash(ctx, acct.ID, security.HashRefreshToken(pair.RefreshToken)); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthService) logEvent(ctx context.Context, accountID, action string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, accountID, action, "auth", "")
	}
}

func validateRegister(params RegisterParams, email string) error {
	if strings.TrimSpace(params.FirstName) == "" {
		return fmt.Errorf("%w: firstName is required", ErrValidation)
	}
	if strings.TrimSpace(params.LastName) == "" {
		return fmt.Errorf("%w: lastName is required", ErrValidation)
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if params.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

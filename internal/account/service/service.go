// Package service implements admin account management: create, list, get,
// update, delete. Authentication lives in internal/auth/service.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"cloudpad-admin/backend/internal/account/domain"
	"cloudpad-admin/backend/internal/account/repository"
	"cloudpad-admin/backend/internal/audit"
	auditdomain "cloudpad-admin/backend/internal/audit/domain"
	"cloudpad-admin/backend/internal/security"
)

// Sentinel errors; handlers map them to HTTP statuses.
var (
	ErrNotFound   = errors.New("account not found")
	ErrEmailTaken = errors.New("email already in use")
)

// CreateParams are the fields for creating an admin account.
type CreateParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UpdateParams are the optional fields for a partial account update.
// Nil fields are left unchanged; a non-nil Password is re-hashed.
type UpdateParams struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
}

// Service manages admin accounts.
type Service struct {
	repo   repository.Repository
	hasher *security.Hasher
	audit  audit.AuditLogger
}

// NewService returns a Service with the given dependencies. auditLogger may
// be nil to disable audit events.
func NewService(repo repository.Repository, hasher *security.Hasher, auditLogger audit.AuditLogger) *Service {
	return &Service{repo: repo, hasher: hasher, audit: auditLogger}
}

// Create creates an admin account with the base role. The caller's own
// authorization is checked at the route level, not here.
func (s *Service) Create(ctx context.Context, params CreateParams) (*domain.Account, error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if err := validateCreate(params, email); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := s.hasher.Hash([]byte(params.Password))
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	now := time.Now().UTC()
	acct := &domain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		PasswordHash: hashed,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, err
	}
	s.logEvent(ctx, acct.ID, auditdomain.ActionCreate)
	return acct, nil
}

// List returns all admin accounts.
func (s *Service) List(ctx context.Context) ([]*domain.Account, error) {
	return s.repo.List(ctx)
}

// Get returns the account for id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Account, error) {
	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrNotFound
	}
	return acct, nil
}

// Update applies a partial update to the account. A provided password is
// re-hashed before storage.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*domain.Account, error) {
	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrNotFound
	}

	if params.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*params.Email))
		if email != acct.Email {
			if err := validateEmail(email); err != nil {
				return nil, err
			}
			other, err := s.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, ErrEmailTaken
			}
			acct.Email = email
		}
	}
	if params.FirstName != nil {
		acct.FirstName = strings.TrimSpace(*params.FirstName)
	}
	if params.LastName != nil {
		acct.LastName = strings.TrimSpace(*params.LastName)
	}
	if params.Password != nil && *params.Password != "" {
		hashed, err := s.hasher.Hash([]byte(*params.Password))
		if err != nil {
			return nil, fmt.Errorf("update admin: %w", err)
		}
		acct.PasswordHash = hashed
	}
	acct.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, acct); err != nil {
		return nil, err
	}
	s.logEvent(ctx, id, auditdomain.ActionUpdate)
	return acct, nil
}

// Delete removes the account for id, or returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.logEvent(ctx, id, auditdomain.ActionDelete)
	return nil
}

func validateCreate(params CreateParams, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if params.Password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidAccount)
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidAccount)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", domain.ErrInvalidAccount)
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, accountID, action string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, accountID, action, "admin", "")
	}
}

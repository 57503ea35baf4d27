package repository

import (
	"context"

	"cloudpad-admin/backend/internal/account/domain"
)

// Repository defines persistence for admin accounts, including the per-account
// session slot (current refresh token hash).
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, a *domain.Account) error
	Delete(ctx context.Context, id string) (bool, error)
	// UpdateRefreshHash overwrites the stored refresh token hash for the
	// account; empty hash means logout / no active session.
	UpdateRefreshHash(ctx context.Context, id, hash string) error
	// RotateRefreshHash replaces oldHash with newHash only if oldHash is
	// still the stored value (compare-and-set). Returns false when the
	// stored value changed underneath, so concurrent rotations for the same
	// account cannot both succeed.
	RotateRefreshHash(ctx context.Context, id, oldHash, newHash string) (bool, error)
}

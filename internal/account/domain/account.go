package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAccount wraps all account validation failures.
var ErrInvalidAccount = errors.New("invalid account")

// Role is an account's authorization role. Role checks are set membership:
// a super-admin is not implicitly privileged as admin.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Account is the core admin account entity.
type Account struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         Role
	// RefreshTokenHash is the SHA-256 hash of the account's current refresh
	// token. Empty means no active session (post-logout or never logged in).
	// At most one refresh token is valid per account; rotation overwrites.
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate validates the account for persistence. Returns an error describing
// the first validation failure.
func (a *Account) Validate() error {
	if a.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidAccount)
	}
	if a.PasswordHash == "" {
		return fmt.Errorf("%w: password hash is required", ErrInvalidAccount)
	}
	if a.Role == "" {
		a.Role = RoleAdmin
	}
	if !a.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidAccount, a.Role)
	}
	return nil
}

// Summary is the externally visible shape of an account. It never carries
// the password or refresh token hashes.
type Summary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
}

// Summary returns the account's external summary.
func (a *Account) Summary() Summary {
	return Summary{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
	}
}

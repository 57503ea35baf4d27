package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cloudpad-admin/backend/internal/account/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db
// for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, first_name, last_name, password_hash, role, refresh_token_hash, created_at, updated_at`

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM admin_accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByEmail returns the account with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM admin_accounts WHERE email = $1`, email)
	return scanAccount(row)
}

// List returns all accounts ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM admin_accounts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists the account. The account must have ID set; it is not
// assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Email, a.FirstName, a.LastName, a.PasswordHash, string(a.Role),
		nullIfEmpty(a.RefreshTokenHash), a.CreatedAt, a.UpdatedAt)
	return err
}

// Update updates the account's mutable profile fields and password hash.
// The session slot is not touched here; use UpdateRefreshHash / RotateRefreshHash.
func (r *PostgresRepository) Update(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admin_accounts
		 SET email = $2, first_name = $3, last_name = $4, password_hash = $5, role = $6, updated_at = $7
		 WHERE id = $1`,
		a.ID, a.Email, a.FirstName, a.LastName, a.PasswordHash, string(a.Role), a.UpdatedAt)
	return err
}

// Delete removes the account with the given id. Returns false if no row matched.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_accounts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateRefreshHash overwrites the stored refresh token hash; empty hash
// clears the session (logout).
func (r *PostgresRepository) UpdateRefreshHash(ctx context.Context, id, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE admin_accounts SET refresh_token_hash = $2, updated_at = $3 WHERE id = $1`,
		id, nullIfEmpty(hash), time.Now().UTC())
	return err
}

// RotateRefreshHash is a conditional update: the new hash is written only if
// the stored hash still equals oldHash. The WHERE clause makes the
// read-then-write race between concurrent refresh calls resolve to a single
// winner inside the database.
func (r *PostgresRepository) RotateRefreshHash(ctx context.Context, id, oldHash, newHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admin_accounts
		 SET refresh_token_hash = $3, updated_at = $4
		 WHERE id = $1 AND refresh_token_hash = $2`,
		id, oldHash, nullIfEmpty(newHash), time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a           domain.Account
		role        string
		refreshHash sql.NullString
	)
	err := row.Scan(&a.ID, &a.Email, &a.FirstName, &a.LastName, &a.PasswordHash,
		&role, &refreshHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Role = domain.Role(role)
	if refreshHash.Valid {
		a.RefreshTokenHash = refreshHash.String
	}
	return &a, nil
}

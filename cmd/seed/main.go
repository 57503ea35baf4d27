// seed bootstraps the initial super-admin account from SEED_ADMIN_EMAIL and
// SEED_ADMIN_PASSWORD. Idempotent: skips if the account already exists.
package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"cloudpad-admin/backend/internal/account/domain"
	accountrepo "cloudpad-admin/backend/internal/account/repository"
	"cloudpad-admin/backend/internal/config"
	"cloudpad-admin/backend/internal/db"
	"cloudpad-admin/backend/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be set")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	repo := accountrepo.NewPostgresRepository(conn)
	email := strings.TrimSpace(strings.ToLower(cfg.SeedAdminEmail))

	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Seed already applied (%s exists). Skipping.", email)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(cfg.SeedAdminPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	acct := &domain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    "Super",
		LastName:     "Admin",
		PasswordHash: passwordHash,
		Role:         domain.RoleSuperAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(ctx, acct); err != nil {
		log.Fatalf("create super-admin: %v", err)
	}

	log.Printf("Seed completed: super-admin %s created.", email)
}

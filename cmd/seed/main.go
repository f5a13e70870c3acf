// seed inserts a development admin account for local testing.
// Idempotent: skips inserts if the admin user (admin@example.com) already exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"auth-core/internal/config"
	"auth-core/internal/db"
	"auth-core/internal/security"
	"auth-core/internal/store"
	"auth-core/internal/user/domain"
	userrepo "auth-core/internal/user/repository"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	repo := userrepo.NewPostgresRepository(conn, cfg.StoreTimeout())
	ctx := context.Background()

	if _, err := repo.GetByEmail(ctx, adminEmail); err == nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Fatalf("seed check: %v", err)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(adminPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	admin := &domain.User{
		ID:           uuid.New().String(),
		Email:        adminEmail,
		Name:         "Dev Admin",
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(ctx, admin); err != nil {
		log.Fatalf("create admin user: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminEmail, adminPassword)
}

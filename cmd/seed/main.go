package main

import (
	"context"
	"errors"
	"os"
	"time"

	"user-registration/internal/config"
	domainAccount "user-registration/internal/domain/account"
	"user-registration/internal/infrastructure/database/postgres"
	"user-registration/internal/logger"
	"user-registration/pkg/hasher"

	"go.uber.org/zap"
)

type seedUser struct {
	username string
	email    string
	fullName string
	phone    string
}

var seedUsers = []seedUser{
	{username: "testuser1", email: "test1@example.com", fullName: "Test User 1", phone: "010-1234-5678"},
	{username: "testuser2", email: "test2@example.com", fullName: "Test User 2", phone: "010-9876-5432"},
}

const seedPassword = "password123"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	pool := hasher.NewPool(cfg.Hashing.Cost, cfg.Hashing.Workers)
	defer pool.Stop()

	created, err := seed(ctx, postgres.NewUserRepository(db), pool)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}
	logger.Info("Seeding finished", zap.Int("created", created))
}

type passwordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
}

// seed inserts the fixture users, leaving any that already exist untouched.
func seed(ctx context.Context, repo domainAccount.Repository, h passwordHasher) (int, error) {
	created := 0
	for _, u := range seedUsers {
		hashed, err := h.Hash(ctx, seedPassword)
		if err != nil {
			return created, err
		}

		phone := u.phone
		acc := &domainAccount.Account{
			Username:     u.username,
			Email:        u.email,
			PasswordHash: hashed,
			FullName:     u.fullName,
			Phone:        &phone,
			IsActive:     true,
		}
		if err := repo.Create(ctx, acc); err != nil {
			if errors.Is(err, domainAccount.ErrAccountAlreadyExists) {
				logger.Info("Seed user already exists", zap.String("username", u.username))
				continue
			}
			return created, err
		}

		logger.Info("Seed user created",
			zap.Int64("account_id", acc.ID),
			zap.String("username", u.username),
		)
		created++
	}
	return created, nil
}

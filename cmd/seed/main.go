// Command seed imports a product catalog from CSV and bootstraps the first admin account.
//
//	seed -csv products.csv -admin-email ops@example.com -admin-password secret123
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/printhub/printhub-backend/internal/config"
	"github.com/printhub/printhub-backend/internal/logger"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/repositories"
	mongorepo "github.com/printhub/printhub-backend/internal/repositories/mongodb"
	"github.com/printhub/printhub-backend/internal/utils"
	"github.com/printhub/printhub-backend/pkg/mongodb"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	csvPath := flag.String("csv", "", "product catalog CSV to import")
	adminEmail := flag.String("admin-email", "", "email of the admin account to create or promote")
	adminPassword := flag.String("admin-password", "", "password for a newly created admin")
	adminName := flag.String("admin-name", "Administrator", "display name for a newly created admin")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if *csvPath == "" && *adminEmail == "" {
		log.Fatal("nothing to do: pass -csv and/or -admin-email")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("failed to create indexes", zap.Error(err))
	}

	if *csvPath != "" {
		if err := importProducts(ctx, mongorepo.NewProductRepository(db), *csvPath, log); err != nil {
			log.Fatal("failed to import products", zap.Error(err))
		}
	}

	if *adminEmail != "" {
		if err := bootstrapAdmin(ctx, mongorepo.NewUserRepository(db), *adminEmail, *adminName, *adminPassword, log); err != nil {
			log.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}
}

func importProducts(ctx context.Context, repo repositories.ProductRepository, path string, log *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	result, err := utils.NewProductCSVImporter(repo).Import(ctx, file)
	if err != nil {
		return err
	}

	for _, rowErr := range result.Errors {
		log.Warn("skipped row", zap.String("reason", rowErr))
	}
	log.Info("products imported",
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)))
	return nil
}

// bootstrapAdmin promotes an existing account or creates a new approved admin
func bootstrapAdmin(ctx context.Context, repo repositories.UserRepository, email, name, password string, log *zap.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		user.IsAdmin = true
		user.IsApproved = true
		user.UpdatedAt = time.Now()
		if err := repo.Update(ctx, user); err != nil {
			return fmt.Errorf("failed to promote %s: %w", email, err)
		}
		log.Info("existing user promoted to admin", zap.String("email", email))
		return nil
	case !errors.Is(err, repositories.ErrNotFound):
		return err
	}

	if len(password) < 8 {
		return errors.New("admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	admin := &models.User{
		Name:       name,
		Email:      email,
		Password:   string(hash),
		IsAdmin:    true,
		IsApproved: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.Info("admin created", zap.String("email", email), zap.String("id", admin.ID.Hex()))
	return nil
}

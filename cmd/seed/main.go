package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"adminconsole/internal/auth"
	"adminconsole/internal/config"
	"adminconsole/internal/db"
	apperrors "adminconsole/internal/errors"
	"adminconsole/internal/logging"
	"adminconsole/internal/model"
	"adminconsole/internal/repository"
	"adminconsole/internal/service"
)

const seedIP = "127.0.0.1"

// SeedAccount is one entry of the accounts file.
type SeedAccount struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// seedResult tallies one seeding run.
type seedResult struct {
	Created    int
	Duplicates int
	Invalid    int
}

func main() {
	file := flag.String("file", "", "JSON file with an array of {name,email,password,role}, created as ADMIN_EMAIL or else the oldest active admin")
	flag.Parse()

	cfg := config.Load()
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	ctx := context.Background()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	creds := service.NewCredentialStore(userRepo, auth.NewBcryptHasher(cfg.BcryptCost))

	seeded, err := creds.EnsureAdmin(ctx, "Admin", cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		logger.Fatal("failed to ensure admin", zap.Error(err))
	}
	if seeded {
		logger.Warn("bootstrap admin created, change its password", zap.String("email", cfg.AdminEmail))
	}

	if *file == "" {
		return
	}

	accounts, err := readAccounts(*file)
	if err != nil {
		logger.Fatal("failed to read accounts", zap.String("file", *file), zap.Error(err))
	}

	actor, err := seedActor(ctx, userRepo, cfg.AdminEmail)
	if err != nil {
		logger.Fatal("no admin to seed as", zap.String("email", cfg.AdminEmail), zap.Error(err))
	}
	logger.Info("seeding accounts", zap.Uint("actor_id", actor.UserID), zap.String("actor", actor.UserName))

	// Sessions are never issued while seeding.
	directory := service.NewDirectoryService(creds, nil, service.NewActivityService(repository.NewActivityLogRepository(gormDB)), nil, logger)

	res := seedAccounts(ctx, directory, actor, accounts, logger)
	logger.Info("seed completed",
		zap.Int("created", res.Created),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("invalid", res.Invalid),
	)
}

var errNoAdmin = errors.New("no active admin account")

// seedActor picks the account imports are attributed to: the configured
// admin when it is an active admin, otherwise the oldest active admin.
func seedActor(ctx context.Context, users repository.UserRepository, adminEmail string) (*auth.Identity, error) {
	admin, err := users.FindByEmail(ctx, service.NormalizeEmail(adminEmail))
	switch {
	case err == nil && admin.Role == model.RoleAdmin && admin.Status == model.StatusActive:
		return &auth.Identity{UserID: admin.ID, UserName: admin.Name, Role: admin.Role}, nil
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return nil, err
	}

	all, err := users.List(ctx)
	if err != nil {
		return nil, err
	}
	var oldest *model.User
	for i := range all {
		u := &all[i]
		if u.Role != model.RoleAdmin || u.Status != model.StatusActive {
			continue
		}
		if oldest == nil || u.ID < oldest.ID {
			oldest = u
		}
	}
	if oldest == nil {
		return nil, errNoAdmin
	}
	return &auth.Identity{UserID: oldest.ID, UserName: oldest.Name, Role: oldest.Role}, nil
}

func readAccounts(path string) ([]SeedAccount, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeAccounts(f)
}

func decodeAccounts(r io.Reader) ([]SeedAccount, error) {
	var accounts []SeedAccount
	if err := json.NewDecoder(r).Decode(&accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, nil
}

// seedAccounts creates each account as actor. Duplicates and invalid entries
// are skipped; any other failure stops the run.
func seedAccounts(ctx context.Context, directory service.DirectoryService, actor *auth.Identity, accounts []SeedAccount, logger *zap.Logger) seedResult {
	var res seedResult
	for _, a := range accounts {
		_, err := directory.CreateAccount(ctx, actor, service.CreateAccountInput{
			Name:     a.Name,
			Email:    a.Email,
			Password: a.Password,
			Role:     a.Role,
		}, seedIP)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, apperrors.ErrDuplicateEmail):
			res.Duplicates++
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("skipping invalid account", zap.String("email", a.Email), zap.Error(err))
			res.Invalid++
		default:
			logger.Error("seed aborted", zap.String("email", a.Email), zap.Error(err))
			return res
		}
	}
	return res
}

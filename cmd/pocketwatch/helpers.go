package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketwatch-app/pocketwatch/internal/plaid"
	"github.com/pocketwatch-app/pocketwatch/internal/secrets"
	"github.com/pocketwatch-app/pocketwatch/internal/service"
	"github.com/pocketwatch-app/pocketwatch/internal/storage"
	"github.com/spf13/viper"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/pocketwatch/pocketwatch.db"
	}
	dbPath = expandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initPlaidClient builds the provider client from config.
func initPlaidClient() (*plaid.Client, error) {
	cfg := plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
	}
	if cfg.Environment == "" {
		cfg.Environment = "sandbox"
	}

	return plaid.NewClient(cfg)
}

// initCipher builds the token cipher from the configured passphrase.
func initCipher() (*secrets.Cipher, error) {
	passphrase := viper.GetString("secrets.passphrase")
	if passphrase == "" {
		return nil, fmt.Errorf("secrets.passphrase is required (set POCKETWATCH_SECRETS_PASSPHRASE)")
	}
	return secrets.NewCipher(passphrase)
}

// currentUserID returns the configured user id. Single-user installs can
// leave it unset.
func currentUserID() string {
	userID := viper.GetString("user.id")
	if userID == "" {
		userID = "local"
	}
	return userID
}

// expandPath expands ~ and environment variables in a path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/goattech/giftflow/pkg/config"
)

// RunMigrations applies all pending migrations from the given directory
func RunMigrations(cfg *config.DatabaseConfig, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, cfg.URL())
	if err != nil {
		return fmt.Errorf("unable to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	return nil
}

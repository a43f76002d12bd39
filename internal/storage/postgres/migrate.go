package postgres

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp applies all pending schema migrations, or n steps when n > 0.
func MigrateUp(dsn string, n int, logger *zap.Logger) error {
	m, err := newMigrate(dsn, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	if n > 0 {
		err = m.Steps(n)
	} else {
		err = m.Up()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("migrations already up-to-date")
			return nil
		}
		return fmt.Errorf("apply up migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back all migrations, or n steps when n > 0.
func MigrateDown(dsn string, n int, logger *zap.Logger) error {
	m, err := newMigrate(dsn, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	if n > 0 {
		err = m.Steps(-n)
	} else {
		err = m.Down()
	}
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to roll back")
			return nil
		}
		return fmt.Errorf("apply down migrations: %w", err)
	}
	return nil
}

func newMigrate(dsn string, logger *zap.Logger) (*migrate.Migrate, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logger: logger.Named("migrate")}
	return m, nil
}

type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}

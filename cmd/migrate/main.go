package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"dms-be/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// migrator is the part of *migrate.Migrate the command drives.
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
}

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	mode := flag.String("mode", "up", "migration mode: up, down or version")
	flag.Parse()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		logger.L().Fatal("DB_URL not set in environment")
	}
	source := os.Getenv("MIGRATIONS_PATH")
	if source == "" {
		source = "file://migrations"
	}

	m, err := migrate.New(source, dbURL)
	if err != nil {
		logger.L().Fatal("failed to create migrator", zap.Error(err))
	}
	defer func() { _, _ = m.Close() }()

	if err := run(m, *mode); err != nil {
		logger.L().Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}
}

func run(m migrator, mode string) error {
	log := logger.L().With(zap.String("mode", mode))

	switch mode {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no pending migrations")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		log.Info("migrations applied")
	case "down":
		err := m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, os.ErrNotExist) {
			log.Info("no migrations to roll back")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		log.Info("rolled back one migration")
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("no migrations applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	default:
		return fmt.Errorf("unknown mode: %s (use up, down or version)", mode)
	}
	return nil
}

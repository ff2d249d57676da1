package repository

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SR0725/short-link-tracker-sub000/internal/config"
	"github.com/SR0725/short-link-tracker-sub000/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func InitDB(cfg config.Config) (*gorm.DB, error) {
	var dialer gorm.Dialector
	isSQLite := false
	switch {
	case isPostgres(cfg.DatabaseURL):
		dialer = postgres.Open(cfg.DatabaseURL)
	case strings.HasPrefix(cfg.DatabaseURL, "sqlite"):
		dialer = sqlite.Open(strings.TrimPrefix(cfg.DatabaseURL, "sqlite://"))
		isSQLite = true
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseURL)
	}

	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.IsProduction() {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	} else {
		gormCfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(dialer, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if isSQLite {
		// SQLite serialises writers; a single connection also keeps
		// :memory: databases shared across goroutines.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		if err := sqlDB.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	return db, nil
}

// Migrate brings the schema up to date: versioned SQL migrations for
// Postgres, gorm's AutoMigrate for SQLite.
func Migrate(cfg config.Config, db *gorm.DB, logger *slog.Logger) error {
	if isPostgres(cfg.DatabaseURL) {
		logger.Info("Running database migrations...")
		return RunMigrations(cfg.DatabaseURL)
	}
	if err := db.AutoMigrate(&models.Link{}, &models.Click{}, &models.AuditLog{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func RunMigrations(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run up migrations: %w", err)
	}

	slog.Info("Database migrations ran successfully")
	return nil
}

func isPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres")
}

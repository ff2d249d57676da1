package services

import (
	"log/slog"
	"os"
	"testing"

	"github.com/SR0725/short-link-tracker-sub000/internal/config"
	"github.com/SR0725/short-link-tracker-sub000/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*repository.Store, *gorm.DB) {
	t.Helper()
	cfg := config.Config{DatabaseURL: "sqlite://:memory:"}
	db, err := repository.InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(cfg, db, slog.Default()))
	return repository.NewStore(db), db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

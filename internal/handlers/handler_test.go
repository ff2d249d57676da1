package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/SR0725/short-link-tracker-sub000/internal/config"
	"github.com/SR0725/short-link-tracker-sub000/internal/models"
	"github.com/SR0725/short-link-tracker-sub000/internal/repository"
	"github.com/SR0725/short-link-tracker-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-admin-key"

type testEnv struct {
	h      *Handler
	router *gin.Engine
	store  *repository.Store
	stats  *services.StatsService
}

func setupTestHandler(t *testing.T, limiter services.Limiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		DatabaseURL:       "sqlite://:memory:",
		BaseURL:           "http://sho.rt",
		SessionSecret:     "test-secret-12345678901234567890123456789012",
		AdminAPIKey:       testAPIKey,
		EnforceLinkLimits: true,
		BrandName:         "Acme Links",
		NotFoundTitle:     "Nothing here",
		NotFoundMessage:   "That link is gone.",
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := repository.InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(cfg, db, logger))
	store := repository.NewStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	geoIP := services.NewGeoIPService(cfg, logger, services.NewGeoProbe("8.8.8.8", logger))
	recorder := services.NewClickRecorder(store, geoIP)
	stats := services.NewStatsService(recorder, logger, 0)
	go stats.Start(ctx)
	audit := services.NewAuditService(db, logger)
	go audit.Start(ctx)

	h := NewHandler(
		cfg,
		logger,
		store,
		nil,
		services.NewShortenerService(store, 6),
		services.NewResolverService(store, stats, logger, cfg.EnforceLinkLimits),
		services.NewAnalyticsService(store),
		audit,
		services.NewQRService(),
		limiter,
	)
	return &testEnv{h: h, router: h.SetupRouter(), store: store, stats: stats}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) admin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, body, map[string]string{"X-API-Key": testAPIKey})
}

func (e *testEnv) seedLink(t *testing.T, slug, target string) *models.Link {
	t.Helper()
	link := &models.Link{Slug: slug, TargetURL: target}
	require.NoError(t, e.store.CreateLink(context.Background(), link))
	return link
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

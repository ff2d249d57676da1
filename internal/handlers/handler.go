package handlers

import (
	"log/slog"

	"github.com/SR0725/short-link-tracker-sub000/internal/config"
	"github.com/SR0725/short-link-tracker-sub000/internal/repository"
	"github.com/SR0725/short-link-tracker-sub000/internal/services"

	"github.com/redis/go-redis/v9"
)

type Handler struct {
	cfg              config.Config
	logger           *slog.Logger
	store            *repository.Store
	rdb              *redis.Client
	shortenerService *services.ShortenerService
	resolverService  *services.ResolverService
	analyticsService *services.AnalyticsService
	auditService     *services.AuditService
	qrService        *services.QRService
	limiter          services.Limiter
}

// NewHandler wires the HTTP layer. rdb and limiter may be nil.
func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	store *repository.Store,
	rdb *redis.Client,
	shortenerService *services.ShortenerService,
	resolverService *services.ResolverService,
	analyticsService *services.AnalyticsService,
	auditService *services.AuditService,
	qrService *services.QRService,
	limiter services.Limiter,
) *Handler {
	return &Handler{
		cfg:              cfg,
		logger:           logger,
		store:            store,
		rdb:              rdb,
		shortenerService: shortenerService,
		resolverService:  resolverService,
		analyticsService: analyticsService,
		auditService:     auditService,
		qrService:        qrService,
		limiter:          limiter,
	}
}

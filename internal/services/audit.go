package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"

	"gorm.io/gorm"
)

// Audit actions.
const (
	ActionCreateLink  = "CREATE_LINK"
	ActionDeleteLink  = "DELETE_LINK"
	ActionPurgeClicks = "PURGE_CLICKS"
	ActionLogin       = "LOGIN"
)

type AuditService struct {
	db      *gorm.DB
	logger  *slog.Logger
	entries chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		entries: make(chan models.AuditLog, 100),
	}
}

func (s *AuditService) Start(ctx context.Context) {
	for {
		select {
		case entry := <-s.entries:
			if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
				s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// LogAction queues an audit entry; when the queue is full the entry is
// dropped with a warning.
func (s *AuditService) LogAction(action, entityID string, details any, ip string) {
	detailBytes, err := json.Marshal(details)
	if err != nil {
		s.logger.Warn("Audit details not serialisable", "action", action, "error", err)
	}

	entry := models.AuditLog{
		Action:    action,
		EntityID:  entityID,
		Details:   string(detailBytes),
		IPAddress: ip,
		Timestamp: time.Now().UTC(),
	}

	select {
	case s.entries <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping log", "action", action)
	}
}

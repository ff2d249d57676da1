package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g. "CREATE_LINK", "DELETE_LINK", "PURGE_CLICKS"
	EntityID  string    `gorm:"size:64" json:"entityId"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ipAddress"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Device categories stored on a Click.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// Click is written once per resolved redirect and never updated.
type Click struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	LinkID    string    `gorm:"not null;index;size:36" json:"linkId"`
	Timestamp time.Time `gorm:"column:clicked_at;not null;index" json:"timestamp"`
	Referrer  string    `gorm:"type:text" json:"referrer,omitempty"`
	UserAgent string    `gorm:"type:text" json:"userAgent"`
	Device    string    `gorm:"size:20;not null" json:"device"`
	Browser   string    `gorm:"size:50" json:"browser,omitempty"`
	OS        string    `gorm:"size:100" json:"os,omitempty"`
	Country   *string   `gorm:"size:100" json:"country"`
	City      *string   `gorm:"size:100" json:"city"`
}

func (Click) TableName() string {
	return "clicks"
}

func (c *Click) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Link struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Slug        string     `gorm:"uniqueIndex;not null;size:64" json:"slug"`
	TargetURL   string     `gorm:"not null;type:text" json:"targetUrl"`
	Title       string     `gorm:"size:255" json:"title,omitempty"`
	Tag         string     `gorm:"size:100;index" json:"tag,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ClickLimit  *int       `json:"clickLimit,omitempty"`
	LastClickAt *time.Time `json:"lastClickAt,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"createdAt"`

	Clicks []Click `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Link) TableName() string {
	return "links"
}

func (l *Link) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Expired reports whether the link's validity boundary lies before now.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// LinkSort selects the ordering of ListLinks.
type LinkSort int

const (
	SortCreatedDesc LinkSort = iota
	SortCreatedAsc
	SortSlugAsc
	SortLastClickDesc
)

// ParseLinkSort maps a query value onto a LinkSort. Unknown values
// report false.
func ParseLinkSort(s string) (LinkSort, bool) {
	switch s {
	case "", "created_desc", "-created":
		return SortCreatedDesc, true
	case "created_asc", "created":
		return SortCreatedAsc, true
	case "slug":
		return SortSlugAsc, true
	case "last_click", "-last_click":
		return SortLastClickDesc, true
	}
	return SortCreatedDesc, false
}

func (s LinkSort) orderClause() string {
	switch s {
	case SortCreatedAsc:
		return "created_at asc, id asc"
	case SortSlugAsc:
		return "slug asc"
	case SortLastClickDesc:
		return "last_click_at is null, last_click_at desc, id asc"
	default:
		return "created_at desc, id asc"
	}
}

// Store is the gorm-backed datastore for links and clicks.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) CreateLink(ctx context.Context, link *models.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("create link: %w", err)
	}
	return nil
}

func (s *Store) FindLinkBySlug(ctx context.Context, slug string) (*models.Link, error) {
	var link models.Link
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error
	if err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (s *Store) FindLinkByID(ctx context.Context, id string) (*models.Link, error) {
	var link models.Link
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Link{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListLinks(ctx context.Context, sort LinkSort, limit, offset int) ([]models.Link, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Link{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var links []models.Link
	err := s.db.WithContext(ctx).
		Order(sort.orderClause()).
		Limit(limit).
		Offset(offset).
		Find(&links).Error
	if err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

// DeleteLink removes the link together with its clicks.
func (s *Store) DeleteLink(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", id).Delete(&models.Click{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Link{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// PurgeClicks deletes every click of a link and returns how many were removed.
func (s *Store) PurgeClicks(ctx context.Context, linkID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("link_id = ?", linkID).Delete(&models.Click{})
	return res.RowsAffected, res.Error
}

func (s *Store) CreateClick(ctx context.Context, click *models.Click) error {
	click.Timestamp = click.Timestamp.UTC()
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		return fmt.Errorf("create click: %w", err)
	}
	return nil
}

// UpdateLinkLastClickAt only ever moves last_click_at forward, so
// recordings that finish out of order cannot rewind it.
func (s *Store) UpdateLinkLastClickAt(ctx context.Context, linkID string, at time.Time) error {
	at = at.UTC()
	err := s.db.WithContext(ctx).
		Model(&models.Link{}).
		Where("id = ? AND (last_click_at IS NULL OR last_click_at < ?)", linkID, at).
		Update("last_click_at", at).Error
	if err != nil {
		return fmt.Errorf("update last click: %w", err)
	}
	return nil
}

func (s *Store) FindClicksSince(ctx context.Context, linkID string, since time.Time) ([]models.Click, error) {
	var clicks []models.Click
	err := s.db.WithContext(ctx).
		Where("link_id = ? AND clicked_at >= ?", linkID, since.UTC()).
		Order("clicked_at asc, id asc").
		Find(&clicks).Error
	if err != nil {
		return nil, err
	}
	return clicks, nil
}

func (s *Store) CountClicksForLink(ctx context.Context, linkID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Click{}).Where("link_id = ?", linkID).Count(&count).Error
	return count, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

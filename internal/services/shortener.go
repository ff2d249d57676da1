package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"
	"github.com/SR0725/short-link-tracker-sub000/pkg/utils"
)

const (
	DefaultSlugLength = 6
	minCustomSlug     = 3
	maxSlugLength     = 64
)

// reservedSlugs collide with fixed routes and can never be resolved.
var reservedSlugs = map[string]bool{
	"api":       true,
	"health":    true,
	"not-found": true,
	"static":    true,
}

// LinkWriter is the storage the shortener needs.
type LinkWriter interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateLink(ctx context.Context, link *models.Link) error
}

type ShortenDTO struct {
	TargetURL  string
	CustomSlug string
	Title      string
	Tag        string
	ExpiresAt  *time.Time
	ClickLimit *int
}

type ShortenerService struct {
	store         LinkWriter
	slugLength    int
	slugGenerator func(int) string
}

func NewShortenerService(store LinkWriter, slugLength int) *ShortenerService {
	switch {
	case slugLength <= 0:
		slugLength = DefaultSlugLength
	case slugLength > maxSlugLength:
		slugLength = maxSlugLength
	}
	return &ShortenerService{
		store:         store,
		slugLength:    slugLength,
		slugGenerator: utils.GenerateSlug,
	}
}

func (s *ShortenerService) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	taken, err := s.store.SlugExists(ctx, slug)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *ShortenerService) CreateShortURL(ctx context.Context, dto ShortenDTO) (*models.Link, error) {
	if err := validateTargetURL(dto.TargetURL); err != nil {
		return nil, err
	}
	if dto.ClickLimit != nil && *dto.ClickLimit < 1 {
		return nil, ErrInvalidLimit
	}

	newLink := func(slug string) *models.Link {
		return &models.Link{
			Slug:       slug,
			TargetURL:  dto.TargetURL,
			Title:      strings.TrimSpace(dto.Title),
			Tag:        strings.TrimSpace(dto.Tag),
			ExpiresAt:  dto.ExpiresAt,
			ClickLimit: dto.ClickLimit,
			CreatedAt:  time.Now().UTC(),
		}
	}

	// 1. Custom slug: one check, never retried.
	if dto.CustomSlug != "" {
		if len(dto.CustomSlug) < minCustomSlug || !utils.ValidSlug(dto.CustomSlug, maxSlugLength) || reservedSlugs[dto.CustomSlug] {
			return nil, ErrInvalidSlug
		}
		ok, err := s.IsSlugAvailable(ctx, dto.CustomSlug)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrSlugConflict
		}
		link := newLink(dto.CustomSlug)
		if err := s.store.CreateLink(ctx, link); err != nil {
			return nil, s.classifyInsertError(ctx, dto.CustomSlug, err)
		}
		return link, nil
	}

	// 2. Generated slug: retry until a free one sticks.
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slug := s.slugGenerator(s.slugLength)
		if reservedSlugs[slug] {
			continue
		}
		ok, err := s.IsSlugAvailable(ctx, slug)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		link := newLink(slug)
		err = s.store.CreateLink(ctx, link)
		if err == nil {
			return link, nil
		}
		if errors.Is(s.classifyInsertError(ctx, slug, err), ErrSlugConflict) {
			// lost a race with a concurrent creator
			continue
		}
		return nil, err
	}
}

// classifyInsertError turns an insert failure caused by the slug having
// been taken in the meantime into ErrSlugConflict.
func (s *ShortenerService) classifyInsertError(ctx context.Context, slug string, err error) error {
	taken, checkErr := s.store.SlugExists(ctx, slug)
	if checkErr == nil && taken {
		return ErrSlugConflict
	}
	return err
}

func validateTargetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	return nil
}

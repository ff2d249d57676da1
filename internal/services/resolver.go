package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"
	"github.com/SR0725/short-link-tracker-sub000/internal/repository"
	"github.com/SR0725/short-link-tracker-sub000/pkg/utils"
)

type OutcomeKind int

const (
	OutcomeNotFound OutcomeKind = iota
	OutcomeFound
)

// RedirectOutcome is either Found with a target or NotFound.
type RedirectOutcome struct {
	Kind      OutcomeKind
	TargetURL string
}

func (o RedirectOutcome) Found() bool { return o.Kind == OutcomeFound }

var notFound = RedirectOutcome{Kind: OutcomeNotFound}

// LinkFinder looks links up for resolution.
type LinkFinder interface {
	FindLinkBySlug(ctx context.Context, slug string) (*models.Link, error)
	CountClicksForLink(ctx context.Context, linkID string) (int64, error)
}

// ClickTracker dispatches a click recording without waiting for it.
type ClickTracker interface {
	Track(req ClickRequest)
}

type ResolverService struct {
	store         LinkFinder
	tracker       ClickTracker
	logger        *slog.Logger
	enforceLimits bool
	now           func() time.Time
}

func NewResolverService(store LinkFinder, tracker ClickTracker, logger *slog.Logger, enforceLimits bool) *ResolverService {
	return &ResolverService{
		store:         store,
		tracker:       tracker,
		logger:        logger,
		enforceLimits: enforceLimits,
		now:           time.Now,
	}
}

// Resolve maps slug to its target. Every failure, including storage
// errors, resolves to NotFound.
func (s *ResolverService) Resolve(ctx context.Context, slug string, headers http.Header) RedirectOutcome {
	if !utils.ValidSlug(slug, maxSlugLength) {
		return notFound
	}

	link, err := s.store.FindLinkBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("Link lookup failed", "slug", slug, "error", err)
		}
		return notFound
	}

	now := s.now()
	if s.enforceLimits && !s.withinLimits(ctx, link, now) {
		return notFound
	}

	s.tracker.Track(ClickRequest{
		LinkID:  link.ID,
		Headers: headers.Clone(),
		At:      now,
	})

	return RedirectOutcome{Kind: OutcomeFound, TargetURL: link.TargetURL}
}

func (s *ResolverService) withinLimits(ctx context.Context, link *models.Link, now time.Time) bool {
	if link.Expired(now) {
		return false
	}
	if link.ClickLimit == nil {
		return true
	}
	count, err := s.store.CountClicksForLink(ctx, link.ID)
	if err != nil {
		s.logger.Error("Click count failed", "link_id", link.ID, "error", err)
		return false
	}
	return count < int64(*link.ClickLimit)
}

package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"

	"golang.org/x/sync/errgroup"
)

const fallbackIP = "127.0.0.1"

// ClickWriter is the storage the recorder writes to.
type ClickWriter interface {
	CreateClick(ctx context.Context, click *models.Click) error
	UpdateLinkLastClickAt(ctx context.Context, linkID string, at time.Time) error
}

// Locator resolves an IP address to an optional country and city.
type Locator interface {
	Locate(ip string) (country, city *string)
}

// ClickRequest carries what is kept of an inbound request once the
// redirect has been answered.
type ClickRequest struct {
	LinkID  string
	Headers http.Header
	At      time.Time
}

type ClickRecorder struct {
	store   ClickWriter
	locator Locator
	now     func() time.Time
}

func NewClickRecorder(store ClickWriter, locator Locator) *ClickRecorder {
	return &ClickRecorder{
		store:   store,
		locator: locator,
		now:     time.Now,
	}
}

// RecordClick inserts the click row and bumps the link's last-click time.
// The two writes run concurrently; both are always issued.
func (r *ClickRecorder) RecordClick(ctx context.Context, req ClickRequest) error {
	at := req.At
	if at.IsZero() {
		at = r.now()
	}
	at = at.UTC()

	click := r.buildClick(req.LinkID, req.Headers, at)

	var g errgroup.Group
	g.Go(func() error {
		return r.store.CreateClick(ctx, click)
	})
	g.Go(func() error {
		return r.store.UpdateLinkLastClickAt(ctx, req.LinkID, at)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: link %s: %w", ErrRecordingFailure, req.LinkID, err)
	}
	return nil
}

func (r *ClickRecorder) buildClick(linkID string, h http.Header, at time.Time) *models.Click {
	ua := h.Get("User-Agent")
	info := ClassifyUserAgent(ua)

	var country, city *string
	if r.locator != nil {
		country, city = r.locator.Locate(ClientIP(h))
	}

	return &models.Click{
		LinkID:    linkID,
		Timestamp: at,
		Referrer:  h.Get("Referer"),
		UserAgent: ua,
		Device:    info.Device,
		Browser:   info.Browser,
		OS:        info.OS,
		Country:   country,
		City:      city,
	}
}

// ClientIP picks the first X-Forwarded-For entry, then X-Real-IP, then
// loopback.
func ClientIP(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(h.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return fallbackIP
}

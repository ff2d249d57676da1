package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"
	"github.com/SR0725/short-link-tracker-sub000/internal/repository"
	"github.com/SR0725/short-link-tracker-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type CreateLinkRequest struct {
	TargetURL  string     `json:"targetUrl" binding:"required"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Tag        string     `json:"tag"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	ClickLimit *int       `json:"clickLimit"`
}

// linkView is a link as the admin API renders it.
type linkView struct {
	*models.Link
	ShortURL    string `json:"shortUrl"`
	TotalClicks int64  `json:"totalClicks"`
}

func (h *Handler) shortURL(slug string) string {
	return strings.TrimRight(h.cfg.BaseURL, "/") + "/" + slug
}

func (h *Handler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.shortenerService.CreateShortURL(c.Request.Context(), services.ShortenDTO{
		TargetURL:  strings.TrimSpace(req.TargetURL),
		CustomSlug: strings.TrimSpace(req.Slug),
		Title:      req.Title,
		Tag:        req.Tag,
		ExpiresAt:  req.ExpiresAt,
		ClickLimit: req.ClickLimit,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSlugConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidSlug), errors.Is(err, services.ErrInvalidURL),
			errors.Is(err, services.ErrInvalidLimit):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to create link", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create link"})
		}
		return
	}

	h.auditService.LogAction(services.ActionCreateLink, link.ID, gin.H{"slug": link.Slug, "targetUrl": link.TargetURL}, c.ClientIP())

	c.JSON(http.StatusCreated, linkView{Link: link, ShortURL: h.shortURL(link.Slug)})
}

func (h *Handler) ListLinks(c *gin.Context) {
	sort, ok := repository.ParseLinkSort(c.Query("sort"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort"})
		return
	}
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}

	links, total, err := h.store.ListLinks(c.Request.Context(), sort, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list links", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list links"})
		return
	}

	items := make([]linkView, 0, len(links))
	for i := range links {
		items = append(items, linkView{Link: &links[i], ShortURL: h.shortURL(links[i].Slug)})
	}
	c.JSON(http.StatusOK, gin.H{
		"links":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetLink(c *gin.Context) {
	view, ok := h.loadLinkView(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) DeleteLink(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteLink(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		h.logger.Error("Failed to delete link", "link_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete link"})
		return
	}

	h.auditService.LogAction(services.ActionDeleteLink, id, nil, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted"})
}

func (h *Handler) PurgeClicks(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.findLink(c, id); !ok {
		return
	}

	n, err := h.store.PurgeClicks(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to purge clicks", "link_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purge clicks"})
		return
	}

	h.auditService.LogAction(services.ActionPurgeClicks, id, gin.H{"deleted": n}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *Handler) LinkQR(c *gin.Context) {
	link, ok := h.findLink(c, c.Param("id"))
	if !ok {
		return
	}

	size, err := queryInt(c, "size", services.DefaultQRSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid size"})
		return
	}
	opts := services.QROptions{
		Content: h.shortURL(link.Slug),
		Size:    size,
		FgColor: c.Query("fg"),
		BgColor: c.Query("bg"),
	}

	switch c.DefaultQuery("format", "png") {
	case "png":
		data, err := h.qrService.GeneratePNG(opts)
		if err != nil {
			h.logger.Error("Failed to generate QR code", "link_id", link.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
			return
		}
		c.Data(http.StatusOK, "image/png", data)
	case "svg":
		svg, err := h.qrService.GenerateSVG(opts)
		if err != nil {
			h.logger.Error("Failed to generate QR code", "link_id", link.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
			return
		}
		c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid format"})
	}
}

// findLink writes the error response itself when it returns false.
func (h *Handler) findLink(c *gin.Context, id string) (*models.Link, bool) {
	link, err := h.store.FindLinkByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return nil, false
		}
		h.logger.Error("Failed to load link", "link_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load link"})
		return nil, false
	}
	return link, true
}

func (h *Handler) loadLinkView(c *gin.Context) (*linkView, bool) {
	link, ok := h.findLink(c, c.Param("id"))
	if !ok {
		return nil, false
	}
	total, err := h.store.CountClicksForLink(c.Request.Context(), link.ID)
	if err != nil {
		h.logger.Error("Failed to count clicks", "link_id", link.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load link"})
		return nil, false
	}
	return &linkView{Link: link, ShortURL: h.shortURL(link.Slug), TotalClicks: total}, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

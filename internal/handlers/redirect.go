package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) RedirectToURL(c *gin.Context) {
	outcome := h.resolverService.Resolve(c.Request.Context(), c.Param("slug"), c.Request.Header)
	if !outcome.Found() {
		c.Redirect(http.StatusFound, "/not-found")
		return
	}
	c.Redirect(http.StatusFound, outcome.TargetURL)
}

func (h *Handler) ShowNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found.html", gin.H{
		"Brand":   h.cfg.BrandName,
		"Title":   h.cfg.NotFoundTitle,
		"Message": h.cfg.NotFoundMessage,
	})
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("Health check failed", "component", "database", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "down"})
		return
	}

	resp := gin.H{"status": "healthy"}
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.logger.Error("Health check failed", "component", "redis", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "redis": "down"})
			return
		}
		resp["redis"] = "up"
	}
	c.JSON(http.StatusOK, resp)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/SR0725/short-link-tracker-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

const defaultAnalyticsDays = 7

func (h *Handler) GetAnalytics(c *gin.Context) {
	days, err := queryInt(c, "days", defaultAnalyticsDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days"})
		return
	}

	id := c.Param("id")
	report, err := h.analyticsService.Aggregate(c.Request.Context(), id, days, c.Query("timezone"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLinkNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		case errors.Is(err, services.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to aggregate analytics", "link_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		}
		return
	}

	view, ok := h.loadLinkView(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"link":      view,
		"analytics": report,
	})
}

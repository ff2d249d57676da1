package handlers

import (
	"embed"
	"html/template"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionName = "shortlink_session"

func (h *Handler) SetupRouter() *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	// Middleware
	if h.limiter != nil {
		r.Use(h.RateLimitMiddleware(h.limiter))
	}

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
	})
	r.Use(sessions.Sessions(sessionName, store))

	// Public Routes
	r.GET("/health", h.Health)
	r.GET("/not-found", h.ShowNotFound)
	r.POST("/api/session", h.Login)
	r.DELETE("/api/session", h.Logout)

	// Protected Routes
	api := r.Group("/api")
	api.Use(h.AuthRequired())
	{
		api.POST("/links", h.CreateLink)
		api.GET("/links", h.ListLinks)
		api.GET("/links/:id", h.GetLink)
		api.DELETE("/links/:id", h.DeleteLink)
		api.DELETE("/links/:id/clicks", h.PurgeClicks)
		api.GET("/links/:id/analytics", h.GetAnalytics)
		api.GET("/links/:id/qr", h.LinkQR)
	}

	// Catch-all Redirect
	r.GET("/:slug", h.RedirectToURL)

	return r
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	custommw "github.com/slideshow/server/internal/middleware"
	"github.com/slideshow/server/internal/observability"
)

// Router holds the handlers mounted by NewRouter
type Router struct {
	Health      *HealthHandler
	Images      *ImageHandler
	Slideshows  *SlideshowHandler
	Maintenance *MaintenanceHandler
	WebSocket   *WebSocketHandler
	HTTPMetrics *observability.HTTPMetrics
}

// NewRouter builds the HTTP routes
func NewRouter(h Router) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(observability.TracingMiddleware())
	if h.HTTPMetrics != nil {
		r.Use(observability.MetricsMiddleware(h.HTTPMetrics))
	}
	r.Use(custommw.RequireJSON())
	r.Use(custommw.MaxBodySize(custommw.DefaultMaxBodyBytes))

	r.Get("/health", h.Health.HealthCheck)
	r.Get("/api/health", h.Health.HealthCheck)

	if h.WebSocket != nil {
		r.Get("/ws", h.WebSocket.HandleConnection)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/images", func(r chi.Router) {
			r.Post("/", h.Images.CreateImage)
			r.Get("/search", h.Images.SearchImages)
			r.Get("/{id}", h.Images.GetImage)
			r.Delete("/{id}", h.Images.DeleteImage)
		})

		r.Route("/slideshows", func(r chi.Router) {
			r.Post("/", h.Slideshows.CreateSlideshow)
			r.Get("/{id}/slideshowOrder", h.Slideshows.GetSlideshowOrder)
			r.Delete("/{id}", h.Slideshows.DeleteSlideshow)
			r.Post("/{id}/proof-of-play/{imageId}", h.Slideshows.RecordProofOfPlay)
			r.Get("/{id}/proof-of-play", h.Slideshows.ListProofOfPlay)
		})

		if h.Maintenance != nil {
			r.Get("/maintenance", h.Maintenance.GetStatus)
			r.Post("/maintenance/run", h.Maintenance.RunNow)
		}
	})

	return r
}

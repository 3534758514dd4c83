package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/utafrali/quecomemoshoy/internal/repository"
	"github.com/utafrali/quecomemoshoy/internal/service"
	"github.com/utafrali/quecomemoshoy/pkg/health"
	"github.com/utafrali/quecomemoshoy/pkg/middleware"
)

// serviceName labels metrics and traces.
const serviceName = "quecomemoshoy"

// RouterDeps holds everything the router mounts.
type RouterDeps struct {
	Products repository.ProductRepository
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Banner   *service.BannerRotator
	Chat     *service.ChatService
	Admin    *service.AdminService
	Health   *health.Handler
	CORS     middleware.CORSConfig
	Logger   *slog.Logger

	// RateLimit guards the storefront API when set.
	RateLimit  func(http.Handler) http.Handler
	PprofCIDRs []string
}

// NewRouter creates a chi router with every storefront and admin route
// registered.
func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.CORS(deps.CORS))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Handle("/metrics", middleware.MetricsHandler())

	middleware.RegisterPprof(r, deps.PprofCIDRs, logger)

	cartHandler := NewCartHandler(deps.Carts, deps.Checkout, logger)
	menuHandler := NewMenuHandler(deps.Products, logger)
	bannerHandler := NewBannerHandler(deps.Banner)
	chatHandler := NewChatHandler(deps.Chat, logger)
	sessionHandler := NewSessionHandler(deps.Carts, deps.Chat, logger)
	adminHandler := NewAdminHandler(deps.Admin, logger)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit)
		}
		r.Use(SessionID)
		r.Use(middleware.RequestLogger(logger))
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)

		r.With(middleware.CacheControl(30)).Get("/menu", menuHandler.GetMenu)
		r.Get("/banner", bannerHandler.GetBanner)
		r.Get("/contact", cartHandler.Contact)
		r.Delete("/session", sessionHandler.EndSession)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{itemId}", cartHandler.SetQuantity)
			r.Delete("/items/{itemId}", cartHandler.RemoveItem)

			r.Put("/visibility", cartHandler.SetVisible)
			r.Post("/visibility/toggle", cartHandler.ToggleVisible)
		})
		r.Post("/checkout", cartHandler.Checkout)

		r.Route("/chat", func(r chi.Router) {
			r.Get("/", chatHandler.GetTranscript)
			r.Delete("/", chatHandler.Reset)
			r.Post("/messages", chatHandler.SendMessage)
			r.Post("/suggestions/{faqId}", chatHandler.AskSuggestion)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequestLogger(logger))
		r.Use(middleware.NoStore)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", adminHandler.ListCategories)
			r.With(ContentTypeJSON).Post("/", adminHandler.CreateCategory)
			r.With(ContentTypeJSON).Put("/{id}", adminHandler.UpdateCategory)
			mountDelete(r, adminHandler, service.EntityCategory)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", adminHandler.ListProducts)
			r.Post("/", adminHandler.CreateProduct)
			r.With(ContentTypeJSON).Put("/{id}", adminHandler.UpdateProduct)
			mountDelete(r, adminHandler, service.EntityProduct)
		})

		r.Route("/banners", func(r chi.Router) {
			r.Get("/", adminHandler.ListBanners)
			r.Post("/", adminHandler.UploadBanner)
			r.With(ContentTypeJSON).Put("/{id}", adminHandler.UpdateBanner)
			mountDelete(r, adminHandler, service.EntityBanner)
		})

		r.Route("/faqs", func(r chi.Router) {
			r.Get("/", adminHandler.ListFAQs)
			r.With(ContentTypeJSON).Post("/", adminHandler.CreateFAQ)
			r.With(ContentTypeJSON).Put("/{id}", adminHandler.UpdateFAQ)
			mountDelete(r, adminHandler, service.EntityFAQ)
		})
	})

	return r
}

func mountDelete(r chi.Router, h *AdminHandler, entity string) {
	r.Post("/{id}/delete-requests", h.RequestDelete(entity))
	r.Delete("/{id}", h.Delete(entity))
}

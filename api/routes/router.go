package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teelab/storefront/api/controllers"
	"github.com/teelab/storefront/api/middleware"
	"github.com/teelab/storefront/internal/analytics"
	"github.com/teelab/storefront/internal/assets"
	"github.com/teelab/storefront/internal/cart"
	"github.com/teelab/storefront/internal/designs"
	"github.com/teelab/storefront/internal/orders"
	"github.com/teelab/storefront/internal/payments"
	"github.com/teelab/storefront/internal/payouts"
	"github.com/teelab/storefront/internal/profiles"
	"github.com/teelab/storefront/pkg/config"
	"github.com/teelab/storefront/pkg/db"
	"github.com/teelab/storefront/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	metricsHandler http.Handler,
	cartService cart.Service,
	orderService orders.Service,
	designService designs.Service,
	payoutEngine payouts.Engine,
	profileService profiles.Service,
	analyticsService analytics.Service,
	assetStore assets.Store,
	gateway payments.Gateway,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.JWT, logg))

		r.Post("/auth/session", controllers.AuthSession(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Post("/items", controllers.CartAdd(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartQuantity(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemove(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/open", controllers.CartOpen(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(orderService, logg))
			r.Get("/", controllers.OrderList(orderService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(orderService, logg))
			r.Post("/{orderId}/status", controllers.OrderStatus(orderService, logg))
			r.Post("/{orderId}/checkout", controllers.Checkout(gateway, logg))
			r.Get("/{orderId}/payouts", controllers.PayoutListForOrder(payoutEngine, logg))
			r.Post("/{orderId}/payouts/derive", controllers.PayoutDerive(payoutEngine, logg))
		})

		r.Route("/designs", func(r chi.Router) {
			r.Get("/published", controllers.DesignListPublished(designService, logg))
			r.Get("/{designId}", controllers.DesignDetail(designService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession(logg))
				r.Post("/", controllers.DesignCreate(designService, logg))
				r.Get("/", controllers.DesignListMine(designService, logg))
				r.Patch("/{designId}", controllers.DesignPatch(designService, logg))
				r.Post("/{designId}/publish", controllers.DesignPublish(designService, logg))
				r.Delete("/{designId}", controllers.DesignDelete(designService, logg))
			})
		})

		r.Route("/assets", func(r chi.Router) {
			r.Get("/*", controllers.AssetFetch(assetStore, logg))
			r.With(middleware.RequireSession(logg)).Post("/", controllers.AssetUpload(assetStore, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Use(middleware.RequireSession(logg))
			r.Get("/", controllers.PayoutListMine(payoutEngine, logg))
		})

		r.Route("/creators", func(r chi.Router) {
			r.Get("/{creatorId}", controllers.ProfileDetail(profileService, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession(logg))
				r.Get("/me", controllers.ProfileMe(profileService, logg))
				r.Put("/me", controllers.ProfileUpdate(profileService, logg))
			})
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/designs", controllers.AnalyticsPerDesign(analyticsService, logg))
			r.Get("/overall", controllers.AnalyticsOverall(analyticsService, logg))
		})
	})

	return r
}

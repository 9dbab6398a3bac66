package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/travel-backoffice/api"
	"github.com/frahmantamala/travel-backoffice/internal/auth"
	"github.com/frahmantamala/travel-backoffice/internal/booking"
	"github.com/frahmantamala/travel-backoffice/internal/customer"
	"github.com/frahmantamala/travel-backoffice/internal/hotel"
	"github.com/frahmantamala/travel-backoffice/internal/itinerary"
	"github.com/frahmantamala/travel-backoffice/internal/notification"
	"github.com/frahmantamala/travel-backoffice/internal/payment"
	"github.com/frahmantamala/travel-backoffice/internal/permission"
	"github.com/frahmantamala/travel-backoffice/internal/transfer"
	"github.com/frahmantamala/travel-backoffice/internal/transport"
	"github.com/frahmantamala/travel-backoffice/internal/transport/middleware"
	"github.com/frahmantamala/travel-backoffice/internal/transport/swagger"
	"github.com/frahmantamala/travel-backoffice/internal/user"
)

// Handlers collects everything mounted under /api/v1. Nil handlers are skipped.
type Handlers struct {
	Health        *HealthHandler
	Tokens        auth.ScopeParser
	Guard         *auth.Guard
	Auth          *auth.Handler
	Permissions   *permission.Handler
	Users         *user.Handler
	Customers     *customer.Handler
	Bookings      *booking.Handler
	Itineraries   *itinerary.Handler
	Hotels        *hotel.Handler
	Payments      *payment.Handler
	Transfers     *transfer.Handler
	Notifications *notification.Handler
}

type RouterConfig struct {
	AllowedOrigins  string
	MetricsEnabled  bool
	MetricsPath     string
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, cfg RouterConfig, logger *slog.Logger) {
	if h.Health == nil {
		h.Health = NewHealthHandler()
	}

	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.Metrics)

	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, promhttp.Handler())
	}

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.healthCheckHandler)
		r.Get("/ping", h.Health.pingHandler)

		if h.Tokens == nil || h.Guard == nil {
			return
		}

		r.Group(func(sr chi.Router) {
			sr.Use(auth.SessionMiddleware(h.Tokens, transport.NewBaseHandler(logger)))

			if h.Auth != nil {
				if cfg.LoginRateLimit > 0 && h.Auth.LoginLimiter == nil {
					h.Auth.LoginLimiter = httprate.LimitByIP(cfg.LoginRateLimit, cfg.LoginRateWindow)
				}
				sr.Route("/auth", h.Auth.Routes)
			}

			if h.Permissions != nil {
				sr.Get("/navigation", h.Permissions.Navigation)
				sr.Route("/permissions", func(pr chi.Router) {
					pr.Get("/check/{pageId}", h.Permissions.Check)
					pr.Group(func(gr chi.Router) {
						gr.Use(h.Guard.Require(permission.PageSettings))
						gr.Get("/", h.Permissions.ListPermissions)
						gr.Put("/{pageId}", h.Permissions.UpdateRoles)
					})
				})
			}

			mount(sr, "/users", h.Guard.Require(permission.PageUsers), routesOf(h.Users))
			mount(sr, "/customers", h.Guard.Require(permission.PageLeads), routesOf(h.Customers))
			mount(sr, "/bookings", h.Guard.Require(permission.PageBookings), routesOf(h.Bookings))
			mount(sr, "/itineraries", h.Guard.Require(permission.PageItineraries), routesOf(h.Itineraries))
			mount(sr, "/hotels", h.Guard.Require(permission.PageHotels), routesOf(h.Hotels))
			mount(sr, "/payments", h.Guard.Require(permission.PagePayments), routesOf(h.Payments))
			mount(sr, "/transfers", h.Guard.Require(permission.PageTransfers), routesOf(h.Transfers))
			mount(sr, "/notifications", h.Guard.Require(permission.PageNotifications), routesOf(h.Notifications))
		})
	})
}

type routable interface {
	Routes(r chi.Router)
}

// routesOf returns nil for a nil handler so that unconfigured modules are not mounted.
func routesOf[H interface {
	comparable
	routable
}](h H) func(chi.Router) {
	var zero H
	if h == zero {
		return nil
	}
	return h.Routes
}

func mount(r chi.Router, pattern string, guard func(http.Handler) http.Handler, routes func(chi.Router)) {
	if routes == nil {
		return
	}
	r.Route(pattern, func(sr chi.Router) {
		sr.Use(guard)
		routes(sr)
	})
}

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"medstore/m/internal/auth"
	"medstore/m/internal/blob"
	"medstore/m/internal/catalog"
	"medstore/m/internal/inventory"
	"medstore/m/internal/reports"
	"medstore/m/internal/sales"
)

// Services are the domain services behind the HTTP API.
type Services struct {
	Auth      *auth.Service
	Catalog   *catalog.Service
	Inventory *inventory.Service
	Sales     *sales.Service
	Reports   *reports.Service
	Blobs     *blob.Store
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	svc         Services
	log         *zap.Logger
	corsOrigins []string
}

// New constructs a Handler.
func New(svc Services, log *zap.Logger, corsOrigins []string) *Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	return &Handler{svc: svc, log: log, corsOrigins: corsOrigins}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/health", h.health)

	if h.svc.Blobs != nil {
		r.Handle("/storage/*", http.StripPrefix("/storage", h.svc.Blobs.Handler()))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/logout", h.logout)
			protected.Get("/session", h.session)
			protected.Put("/password", h.changePassword)
			protected.Put("/profile", h.updateProfile)
			protected.Post("/avatar", h.uploadAvatar)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/medicines", func(r chi.Router) {
			r.Get("/", h.listMedicines)
			r.Post("/", h.saveMedicine)
		})

		pr.Route("/suppliers", func(r chi.Router) {
			r.Get("/", h.listSuppliers)
			r.Post("/", h.addSupplier)
		})

		pr.Route("/stock", func(r chi.Router) {
			r.Get("/", h.stockOverview)
			r.Post("/", h.receiveStock)
			r.Post("/availability", h.checkAvailability)
			r.Get("/low", h.lowStock)
			r.Get("/expiring", h.expiringStock)
			r.Get("/value", h.stockValue)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Get("/", h.salesHistory)
			r.Post("/", h.recordSale)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/overview", h.overview)
			r.Get("/monthly", h.monthlyRevenue)
			r.Get("/analytics", h.salesAnalytics)
			r.Get("/top-selling", h.topSelling)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

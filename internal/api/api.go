package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"folio/internal/auth"
	"folio/pkg/folio"
)

// Options configures the router.
type Options struct {
	Logger *slog.Logger
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
	// AuthRatePerMinute limits unauthenticated auth calls per client IP; 0 disables it.
	AuthRatePerMinute int
}

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 100 << 10

// securityHeaders are set on every API response.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"Referrer-Policy", "no-referrer"},
	{"Strict-Transport-Security", "max-age=15552000; includeSubDomains"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"X-DNS-Prefetch-Control", "off"},
	{"X-Permitted-Cross-Domain-Policies", "none"},
}

// NewRouter builds the HTTP API router.
func NewRouter(core *folio.Core, authService *auth.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	for _, header := range securityHeaders {
		r.Use(middleware.SetHeader(header[0], header[1]))
	}
	r.Use(requestLoggingMiddleware(logger))
	r.Use(recoveryLoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestSize(MaxBodyBytes))

	h := &handler{core: core, auth: authService, logger: logger}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeErrorResponse(w, r, folio.NewError(folio.ErrCodeNotFound, "Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Code:      http.StatusMethodNotAllowed,
			Message:   "Method not allowed",
			RequestID: middleware.GetReqID(r.Context()),
		})
	})

	r.Get("/api/health", h.health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.AuthRatePerMinute > 0 {
				r.Use(newIPRateLimiter(opts.AuthRatePerMinute).middleware(h))
			}
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/logout", h.logout)
			r.Get("/me", h.me)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/api/asset-types", h.getAssetTypes)
		r.Get("/api/operation-logs", h.getOperationLogs)

		// Portfolios
		r.Get("/api/portfolios", h.listPortfolios)
		r.Post("/api/portfolios", h.createPortfolio)
		r.Get("/api/portfolios/{id}", h.getPortfolio)
		r.Put("/api/portfolios/{id}", h.updatePortfolio)
		r.Delete("/api/portfolios/{id}", h.deletePortfolio)
		r.Get("/api/portfolios/{id}/summary", h.getPortfolioSummary)
		r.Get("/api/portfolios/{id}/investments", h.listPortfolioInvestments)
		r.Get("/api/portfolios/{id}/transactions", h.listPortfolioTransactions)

		// Investments
		r.Post("/api/investments", h.createInvestment)
		r.Get("/api/investments/{id}", h.getInvestment)
		r.Put("/api/investments/{id}", h.updateInvestment)
		r.Delete("/api/investments/{id}", h.deleteInvestment)
		r.Get("/api/investments/{id}/transactions", h.listInvestmentTransactions)

		// Transactions
		r.Post("/api/transactions", h.createTransaction)
		r.Get("/api/transactions/{id}", h.getTransaction)
	})

	return r
}

type handler struct {
	core   *folio.Core
	auth   *auth.Service
	logger *slog.Logger
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/unrolled/secure"

	"stockroom/internal/domain"
	"stockroom/internal/logger"
	"stockroom/internal/metrics"
	"stockroom/internal/report"
	"stockroom/internal/service"
	"stockroom/internal/store"
)

const (
	maxBodyBytes    = 1 << 20
	defaultPageSize = 10
	maxPageSize     = 100
)

type Options struct {
	// AllowedOrigins is a comma-separated CORS allow list; "*" allows all.
	AllowedOrigins     string
	RateLimitPerMinute int
	IsDevelopment      bool
	Metrics            *metrics.Metrics
}

type API struct {
	service      *service.Service
	auth         *AuthManager
	opts         Options
	logins       *loginThrottle
	log          zerolog.Logger
}

func New(svc *service.Service, auth *AuthManager, opts Options) *API {
	if opts.RateLimitPerMinute < 1 {
		opts.RateLimitPerMinute = 300
	}
	return &API{
		service:      svc,
		auth:         auth,
		opts:         opts,
		logins:       newLoginThrottle(5, time.Minute),
		log:          logger.WithComponent("http"),
	}
}

// Handler wires the middleware stack, outermost first, and every route.
func (a *API) Handler() http.Handler {
	sec := secure.New(secure.Options{
		STSSeconds:            63072000,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=()",
		IsDevelopment:         a.opts.IsDevelopment,
	})

	r := chi.NewRouter()
	r.Use(
		a.recoverer,
		middleware.RequestID,
		a.requestLogger,
		middleware.RealIP,
	)
	if a.opts.Metrics != nil {
		r.Use(a.opts.Metrics.Instrument)
	}
	r.Use(
		httprate.LimitByIP(a.opts.RateLimitPerMinute, time.Minute),
		corsMiddleware(a.opts.AllowedOrigins),
		requestBodyLimit(maxBodyBytes),
		middleware.Timeout(30*time.Second),
		sec.Handler,
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMethodNotAllowed(w)
	})

	r.Get("/healthz", a.handleHealth)
	if a.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.opts.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(domain.RoleAdmin, domain.RoleStaff))

			r.Route("/products", recordRoutes(a.service.Products))
			r.Route("/customers", recordRoutes(a.service.Customers))
			r.Route("/suppliers", recordRoutes(a.service.Suppliers))
			r.Route("/expenses", recordRoutes(a.service.Expenses))
			r.Route("/quotations", recordRoutes(a.service.Quotations))
			r.Route("/transfers", recordRoutes(a.service.Transfers))
			r.Route("/stores", recordRoutes(a.service.Stores))
			r.Route("/sales-returns", recordRoutes(a.service.SalesReturns))

			r.Route("/sales", documentRoutes(a.service.Sales))
			r.Route("/purchases", documentRoutes(a.service.Purchases))

			r.Get("/settings", a.handleGetSettings)
			r.Put("/settings", a.handleUpdateSettings)
			r.Get("/reports", a.handleReport)
			r.Get("/reports/export", a.handleExport)
			r.Get("/dashboard", a.handleDashboard)
			r.Get("/audit-log", a.handleAuditLog)
		})

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth(domain.RoleAdmin))
			r.Get("/users/staff", a.handleListStaff)
			r.Post("/users/staff", a.handleCreateStaff)
		})
	})

	return r
}

func (a *API) requireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
				writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}

			token := strings.TrimSpace(authorization[len("Bearer "):])
			actor, err := a.auth.ParseToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err)
				return
			}

			if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
				writeError(w, http.StatusForbidden, errors.New("forbidden role"))
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), actor)))
		})
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// writeDecodeError distinguishes an oversized body from malformed JSON.
func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
		return
	}
	writeError(w, http.StatusBadRequest, err)
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func parseID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

// parsePage reads the zero-based page index. Negative pages are passed
// through and yield an empty page.
func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("page must be an integer")
	}
	return page, nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// writeServiceError maps service and store errors to a status code.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, report.ErrUnknownGranularity):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx details stay in the log.
	msg := err.Error()
	if status >= 500 {
		zlog.Error().Err(err).Int("status", status).Msg("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

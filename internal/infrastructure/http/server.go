package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/mrops-br/estoque-api/internal/infrastructure/config"
	"github.com/mrops-br/estoque-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/estoque-api/internal/infrastructure/http/middleware"
	"github.com/mrops-br/estoque-api/internal/infrastructure/http/response"
	"github.com/mrops-br/estoque-api/internal/infrastructure/telemetry"
	"github.com/mrops-br/estoque-api/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/secure"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const loginPage = "/login.html"

// Handlers groups the API handlers mounted by the server
type Handlers struct {
	Products *handler.ProductHandler
	Ledger   *handler.LedgerHandler
	Auth     *handler.AuthHandler
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	config    *config.Config
	handlers  Handlers
	auth      middleware.Authenticator
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	http      *http.Server
}

// NewServer creates a new HTTP server. auth gates the inventory pages.
func NewServer(
	cfg *config.Config,
	handlers Handlers,
	auth middleware.Authenticator,
	telem *telemetry.Telemetry,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		handlers:  handlers,
		auth:      auth,
		logger:    telem.Logger,
		telemetry: telem,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           s.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	return s
}

// setupMiddleware configures the middleware chain
func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Use(secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'; frame-ancestors 'none'",
		STSSeconds:            31536000,
		IsDevelopment:         !s.config.Server.Production,
	}).Handler)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	meter := s.telemetry.MeterProvider.Meter("estoque-api")
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))
	s.router.Use(middleware.DurationMillisecondsMiddleware(meter))

	s.router.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
}

// setupRoutes configures the API, page and operational routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Endpoint-level group so the full route pattern is known for logs
		r.Group(func(r chi.Router) {
			r.Use(middleware.HTTPRouteContext())

			r.Group(func(r chi.Router) {
				r.Use(s.authRateLimit())
				r.Post("/register", s.handlers.Auth.Register)
				r.Post("/login", s.handlers.Auth.Login)
			})
			r.Get("/auth", s.handlers.Auth.Auth)
			r.Post("/logout", s.handlers.Auth.Logout)

			r.Get("/products", s.handlers.Products.ListProducts)
			r.Post("/products", s.handlers.Products.CreateProduct)
			r.Get("/products/{id}", s.handlers.Products.GetProduct)
			r.Put("/products/{id}", s.handlers.Products.UpdateProduct)
			r.Delete("/products/{id}", s.handlers.Products.DeleteProduct)
			r.Post("/products/{id}/sell", s.handlers.Ledger.Sell)

			r.Get("/statistics", s.handlers.Ledger.Statistics)
		})
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint, fed by the OTel meter provider
	s.router.Handle("/metrics", promhttp.HandlerFor(s.telemetry.Registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}))

	static := web.Static()
	requireSession := middleware.RequireSession(s.auth, s.config.Auth.CookieName, loginPage, s.logger)

	s.router.Get("/", page(static, "login.html"))
	s.router.With(requireSession).Get("/index.html", page(static, "index.html"))
	s.router.With(requireSession).Get("/statistics.html", page(static, "statistics.html"))
	s.router.Handle("/*", http.FileServerFS(static))
}

// authRateLimit bounds register/login attempts per client IP
func (s *Server) authRateLimit() func(http.Handler) http.Handler {
	limit := s.config.Server.AuthRateLimit
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.Error(w, http.StatusTooManyRequests, errors.New("too many attempts, try again later"))
		}),
	)
}

// page serves one embedded HTML file. http.FileServer would redirect
// /index.html to /, which must stay the login page.
func page(fsys fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
	}
}

// Handler returns the router wrapped with otelhttp, which provides the
// http.server.request.duration metrics and the server span.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http-server",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithTracerProvider(s.telemetry.TracerProvider),
		otelhttp.WithMeterProvider(s.telemetry.MeterProvider),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("http.route", middleware.RoutePattern(r)),
			}
		}),
	)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.http.Addr),
	)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}

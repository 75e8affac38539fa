// Package devserver serves the portfolio REST API from an in-memory store.
// It speaks the same wire format as the production backend and exists for local
// development, offline demos and integration tests.
package devserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/sse"
)

// Config holds admin credentials and limits.
type Config struct {
	AdminUsername  string
	AdminPassword  string
	JWTSecret      string
	TokenTTL       time.Duration
	MaxUploadBytes int64
}

const (
	defaultTokenTTL  = 24 * time.Hour
	defaultMaxUpload = 10 << 20
)

// Server is the HTTP front of a portfolio.Service.
type Server struct {
	svc            *portfolio.Service
	cfg            Config
	pwHash         []byte
	secret         []byte
	logger         *slog.Logger
	metrics        metrics.Recorder
	metricsHandler http.Handler
	events         *sse.Broker
	now            func() time.Time
	cost           int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records request metrics and mounts h at /metrics when h is non-nil.
func WithMetrics(r metrics.Recorder, h http.Handler) Option {
	return func(s *Server) {
		if r != nil {
			s.metrics = r
		}
		s.metricsHandler = h
	}
}

// WithEvents mounts the broker at /api/events and feeds it service changes.
func WithEvents(b *sse.Broker) Option {
	return func(s *Server) { s.events = b }
}

// WithClock overrides the time source used for token issue and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

// New creates a server over svc. The admin password is hashed once here.
func New(svc *portfolio.Service, cfg Config, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.New("devserver: service is required")
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil, errors.New("devserver: admin username and password are required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("devserver: jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	s := &Server{
		svc:     svc,
		cfg:     cfg,
		secret:  []byte(cfg.JWTSecret),
		logger:  slog.Default(),
		metrics: metrics.Nop{},
		now:     time.Now,
		cost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), s.cost)
	if err != nil {
		return nil, err
	}
	s.pwHash = hash

	if s.events != nil {
		svc.Subscribe(func(ev portfolio.Event) {
			s.events.PublishChange(ev.Type, string(ev.Section), ev.At)
		})
	}
	return s, nil
}

// Handler returns the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "Portfolio API is running"})
		})
		r.Get("/portfolio", s.getPortfolio)
		r.Get("/documents/download/{docType}", s.downloadDocument)
		r.Post("/auth/login", s.login)
		if s.events != nil {
			r.Get("/events", s.events.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Post("/auth/verify", s.verify)
			r.Put("/admin/portfolio/personal", s.updatePersonal)
			r.Put("/admin/portfolio/social-links", s.updateSocial)
			for _, l := range models.AllLists {
				base := "/admin/portfolio/" + l.PathSegment()
				r.Post(base, s.createItem(l))
				r.Put(base+"/{id}", s.updateItem(l))
				r.Delete(base+"/{id}", s.deleteItem(l))
			}
			r.Post("/admin/documents/upload", s.uploadDocuments)
		})
	})
	return r
}

// instrument records one metrics sample per request, labelled by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordRequest(metrics.SideServer, r.Method, route, status, time.Since(start))
		s.logger.Debug("devserver: request",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}

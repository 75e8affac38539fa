// Package internal wires configuration, the session, the API client and the editors
// into a workspace, and runs the development server.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/cache"
	"github.com/starford/folio/internal/client"
	"github.com/starford/folio/internal/devserver"
	"github.com/starford/folio/internal/editor"
	"github.com/starford/folio/internal/localstore"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/session"
	"github.com/starford/folio/internal/sse"
)

var errConfigRequired = errors.New("config is required")

var (
	_ cache.Backend    = (*client.Client)(nil)
	_ cache.Backend    = (*portfolio.Service)(nil)
	_ cache.Downloader = (*client.Client)(nil)
	_ cache.Downloader = (*portfolio.Service)(nil)
	_ editor.Verifier  = (*client.Client)(nil)
)

// NewLogger returns a JSON logger on stderr. Stdout is reserved for command output and MCP stdio.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Workspace is an opened client environment: one session, one cache, one editor per section.
type Workspace struct {
	Config    *Config
	Logger    *slog.Logger
	Dashboard *editor.Dashboard
	// Session and Client are nil in offline mode.
	Session *session.Store
	Client  *client.Client

	store   localstore.Provider
	metrics *http.Server
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// Open builds a Workspace. Background work (session watch, metrics endpoint) runs until Close.
func Open(ctx context.Context, opts ...Option) (*Workspace, error) {
	app := &application{}
	if err := app.apply(opts); err != nil {
		return nil, err
	}
	cfg, logger := app.config, app.logger

	if app.offline {
		svc := portfolio.NewService(nil)
		c := cache.New(svc, cache.WithLogger(logger))
		logger.Debug("workspace: offline")
		return &Workspace{
			Config:    cfg,
			Logger:    logger,
			Dashboard: editor.NewDashboard(nil, nil, c, svc, logger),
			cancel:    func() {},
		}, nil
	}

	store, err := localstore.Open(cfg.Session.Driver, cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sess, err := session.New(store, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load session: %w", err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	cl, err := client.New(cfg.API.BaseURL, sess,
		client.WithTimeout(cfg.API.Timeout),
		client.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
		client.WithMetrics(collector),
		client.WithLogger(logger),
		client.WithUserAgent(cfg.API.UserAgent),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init client: %w", err)
	}

	c := cache.New(cl, cache.WithLogger(logger))
	w := &Workspace{
		Config:    cfg,
		Logger:    logger,
		Dashboard: editor.NewDashboard(sess, cl, c, cl, logger),
		Session:   sess,
		Client:    cl,
		store:     store,
	}

	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	w.group, bgCtx = errgroup.WithContext(bgCtx)

	if cfg.Session.Watch {
		w.group.Go(func() error {
			if err := sess.Watch(bgCtx); err != nil {
				logger.Warn("session watch stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if cfg.App.MetricsAddr != "" {
		w.metrics = &http.Server{
			Addr:              cfg.App.MetricsAddr,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		w.group.Go(func() error {
			logger.Info("Starting metrics server", slog.String("address", cfg.App.MetricsAddr))
			if err := w.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	logger.Debug("workspace: opened",
		slog.String("api", cfg.API.BaseURL),
		slog.String("session_driver", cfg.Session.Driver),
		slog.Bool("logged_in", sess.HasSession()))
	return w, nil
}

// Close stops background work and releases the session store.
func (w *Workspace) Close() error {
	w.cancel()
	var errs []error
	if w.metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, w.metrics.Shutdown(shutdownCtx))
	}
	if w.group != nil {
		errs = append(errs, w.group.Wait())
	}
	if w.store != nil {
		errs = append(errs, w.store.Close())
	}
	return errors.Join(errs...)
}

// RunDevServer serves the portfolio REST contract from memory until ctx is done
// or a shutdown signal arrives.
func RunDevServer(ctx context.Context, opts ...Option) error {
	app := &application{}
	if err := app.apply(opts); err != nil {
		return err
	}
	cfg, logger := app.config, app.logger
	dc := cfg.DevServer

	if err := dc.Ready(); err != nil {
		return fmt.Errorf("devserver config: %w", err)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", dc.HTTP.Address()),
		slog.String("admin", dc.Admin.Username),
		slog.String("token_ttl", dc.TokenTTL.String()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	broker := sse.NewBroker(2*time.Second, 15*time.Second)
	defer broker.Close()

	srv, err := devserver.New(portfolio.NewService(nil), devserver.Config{
		AdminUsername:  dc.Admin.Username,
		AdminPassword:  dc.Admin.Password,
		JWTSecret:      dc.JWTSecret,
		TokenTTL:       dc.TokenTTL,
		MaxUploadBytes: dc.MaxUploadMB << 20,
	},
		devserver.WithLogger(logger),
		devserver.WithMetrics(collector, metrics.Handler(reg)),
		devserver.WithEvents(broker),
	)
	if err != nil {
		return fmt.Errorf("init devserver: %w", err)
	}

	httpServer := &http.Server{
		Addr:              dc.HTTP.Address(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", dc.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		// SSE streams only end when the broker closes.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

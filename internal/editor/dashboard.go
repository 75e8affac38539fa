package editor

import (
	"context"
	"log/slog"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/cache"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/session"
)

// Verifier checks the stored session with the server.
type Verifier interface {
	Verify(ctx context.Context) (string, error)
}

// Dashboard bundles the section editors with the session they run under.
// A nil session and verifier means offline mode: no login is needed.
type Dashboard struct {
	session  *session.Store
	verifier Verifier
	cache    *cache.Cache
	editors  map[models.Section]*Editor
	logger   *slog.Logger
}

// NewDashboard wires one editor per section over c. Clearing the session resets c.
func NewDashboard(sess *session.Store, verifier Verifier, c *cache.Cache, dl cache.Downloader, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dashboard{
		session:  sess,
		verifier: verifier,
		cache:    c,
		editors:  make(map[models.Section]*Editor, len(models.AllSections)),
		logger:   logger,
	}
	for _, s := range models.AllSections {
		d.editors[s] = New(s, c, dl)
	}
	if sess != nil {
		sess.OnClear(c.Reset)
	}
	return d
}

// Editor returns the editor for section.
func (d *Dashboard) Editor(section models.Section) *Editor { return d.editors[section] }

// Cache returns the shared cache.
func (d *Dashboard) Cache() *cache.Cache { return d.cache }

// Open validates the session, then loads the portfolio. It returns the admin username
// when a session was verified.
func (d *Dashboard) Open(ctx context.Context) (string, error) {
	var user string
	if d.verifier != nil {
		if d.session != nil && !d.session.HasSession() {
			return "", apperr.New(apperr.ErrUnauthenticated, "open dashboard", "not logged in")
		}
		u, err := d.verifier.Verify(ctx)
		if err != nil {
			return "", err
		}
		user = u
	}
	if err := d.cache.Load(ctx); err != nil {
		return user, err
	}
	d.logger.Info("dashboard: opened", slog.String("user", user))
	return user, nil
}

// Logout tears the session down, which also empties the cache.
func (d *Dashboard) Logout() error {
	if d.session == nil {
		d.cache.Reset()
		return nil
	}
	return d.session.Clear()
}

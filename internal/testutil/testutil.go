// Package testutil provides shared helpers for tests that need a running API.
package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/folio/internal/devserver"
	"github.com/starford/folio/internal/localstore"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/portfolio"
	"github.com/starford/folio/internal/session"
)

// Admin credentials accepted by servers started here.
const (
	AdminUser     = "admin"
	AdminPassword = "admin123"
)

// Server is a devserver running behind httptest.
type Server struct {
	URL     string
	Service *portfolio.Service
}

// StartServer serves seed (Seed() when nil) until the test ends.
func StartServer(t *testing.T, seed *models.Portfolio) *Server {
	t.Helper()
	svc := portfolio.NewService(seed)
	srv, err := devserver.New(svc, devserver.Config{
		AdminUsername: AdminUser,
		AdminPassword: AdminPassword,
		JWTSecret:     "testutil-secret",
		TokenTTL:      time.Hour,
	}, devserver.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("devserver.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &Server{URL: ts.URL, Service: svc}
}

// Session returns an empty in-memory session store.
func Session(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.New(localstore.NewMemory(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// FileSession returns a session persisted under a temp directory.
func FileSession(t *testing.T) (*session.Store, *localstore.FS) {
	t.Helper()
	fs, err := localstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s, err := session.New(fs, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s, fs
}

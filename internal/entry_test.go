package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenRequiresConfig(t *testing.T) {
	if _, err := Open(context.Background()); !errors.Is(err, errConfigRequired) {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenOffline(t *testing.T) {
	ctx := context.Background()
	ws, err := Open(ctx, WithConfig(NewDefaultConfig()), WithOffline(true), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer ws.Close()

	if ws.Client != nil || ws.Session != nil {
		t.Error("offline workspace should have no client or session")
	}
	if _, err := ws.Dashboard.Open(ctx); err != nil {
		t.Fatalf("Dashboard.Open: %v", err)
	}
	if rows := ws.Dashboard.Editor(models.SectionSkills).View().Rows; len(rows) == 0 {
		t.Error("sample skills missing")
	}
}

func onlineConfig(t *testing.T, url string) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.API.BaseURL = url
	cfg.Session.Path = t.TempDir()
	cfg.Session.Watch = false
	return cfg
}

func TestOpenOnlineSessionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	srv := testutil.StartServer(t, nil)
	cfg := onlineConfig(t, srv.URL)

	ws, err := Open(ctx, WithConfig(cfg), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := ws.Dashboard.Open(ctx); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("Dashboard.Open before login err = %v", err)
	}
	if err := ws.Client.Login(ctx, testutil.AdminUser, testutil.AdminPassword); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	ws2, err := Open(ctx, WithConfig(cfg), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ws2.Close()
	if !ws2.Session.HasSession() {
		t.Fatal("session not restored from disk")
	}
	user, err := ws2.Dashboard.Open(ctx)
	if err != nil {
		t.Fatalf("Dashboard.Open: %v", err)
	}
	if user != testutil.AdminUser {
		t.Errorf("user = %q", user)
	}

	if err := ws2.Dashboard.Logout(); err != nil {
		t.Fatal(err)
	}
	if ws2.Session.HasSession() || ws2.Dashboard.Cache().Loaded() {
		t.Error("logout should clear session and cache")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := onlineConfig(t, "http://127.0.0.1:1")
	cfg.Session.Driver = "redis"
	if _, err := Open(context.Background(), WithConfig(cfg), WithLogger(quietLogger())); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestRunDevServerRequiresCredentials(t *testing.T) {
	err := RunDevServer(context.Background(), WithConfig(NewDefaultConfig()), WithLogger(quietLogger()))
	if err == nil || !strings.Contains(err.Error(), "admin.username") {
		t.Fatalf("err = %v", err)
	}
}

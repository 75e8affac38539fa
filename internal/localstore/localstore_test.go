package localstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
)

func providers(t *testing.T) map[string]Provider {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	db, err := OpenSQLite(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Provider{"file": fs, "sqlite": db, "memory": NewMemory()}
}

func TestSetGetDelete(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := p.Get("token"); !errors.Is(err, apperr.ErrNotFound) {
				t.Fatalf("Get on empty store = %v, want ErrNotFound", err)
			}
			if err := p.Set("token", "abc"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := p.Set("token", "def"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err := p.Get("token")
			if err != nil || got != "def" {
				t.Fatalf("Get = %q, %v", got, err)
			}
			if err := p.Delete("token"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := p.Delete("token"); err != nil {
				t.Fatalf("second Delete should be a no-op: %v", err)
			}
			if _, err := p.Get("token"); !errors.Is(err, apperr.ErrNotFound) {
				t.Errorf("Get after delete = %v", err)
			}
		})
	}
}

func TestFSRejectsTraversalKeys(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		if err := fs.Set(key, "x"); err == nil {
			t.Errorf("Set(%q) should fail", key)
		}
	}
}

func TestFSFilePermissions(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Set("token", "secret"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(fs.Root(), "token"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Set("token", "abc"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if got, err := db.Get("token"); err != nil || got != "abc" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("redis", t.TempDir()); err == nil {
		t.Error("unknown driver should fail")
	}
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestFSWatchReportsRemoval(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := fs.Set("token", "abc"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	removed := map[string]bool{}
	go fs.Watch(ctx, func(key string, gone bool) {
		mu.Lock()
		defer mu.Unlock()
		if gone {
			removed[key] = true
		}
	})
	time.Sleep(100 * time.Millisecond)

	other, err := NewFS(fs.Root())
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Delete("token"); err != nil {
		t.Fatal(err)
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return removed["token"]
	}, "watcher did not report token removal")
}

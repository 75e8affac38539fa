package localstore

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

var _ Watcher = (*FS)(nil)

// Watch reports key files created, rewritten or removed under the root until ctx
// is cancelled. Temp files from Set are ignored; the rename that publishes them
// arrives as a Create on the key itself.
func (f *FS) Watch(ctx context.Context, fn ChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			key := filepath.Base(ev.Name)
			if strings.HasPrefix(key, ".") {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				fn(key, true)
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				fn(key, false)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("localstore: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the current credential whenever another writer
// changes the file, until ctx is done. fn is not called for writes that
// leave the credential unchanged.
func (s *Store) Watch(ctx context.Context, fn func(token string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tokenstore.file: watcher: %w", err)
	}
	defer w.Close()

	// The directory is watched because rename replaces the file inode.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("tokenstore.file: mkdir: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("tokenstore.file: watch %s: %w", dir, err)
	}

	last, err := s.Get(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "initial token read failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			current, err := s.Get(ctx)
			if err != nil {
				s.log.WarnContext(ctx, "token reload failed", slog.String("error", err.Error()))
				continue
			}
			if current == last {
				continue
			}
			last = current
			fn(current)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.WarnContext(ctx, "token watcher error", slog.String("error", err.Error()))
		}
	}
}

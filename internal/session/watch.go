package session

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/saravenpi/milkyway/internal/logger"
)

// Watch reloads the slot whenever the session file changes on disk, so a
// logout performed by another milkyway process reaches this one. It returns
// once the watcher is installed; watching stops when ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create session watcher: %w", err)
	}

	// The file is replaced by rename, so the directory is watched rather
	// than the file itself.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go s.processEvents(ctx, watcher)
	return nil
}

func (s *Store) processEvents(ctx context.Context, watcher *fsnotify.Watcher) {
	log := logger.With("component", "session")
	defer watcher.Close()

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				log.Warn("failed to reload session file", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("session watcher error", "error", err)
		}
	}
}

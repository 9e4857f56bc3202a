package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mgpai22/kashi/internal/editor"
)

// how long a file must stay quiet before it is reloaded
const settleDelay = 100 * time.Millisecond

// Watch reloads path into the session, replacing its lines, whenever the
// file is written. The parent directory is watched so that editors that
// save by rename are picked up too. It blocks until ctx is cancelled.
func (s *Server) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	s.logger.Infow("Watching lyrics file", "path", abs)

	var pendingSince time.Time
	checkTicker := time.NewTicker(settleDelay / 2)
	defer checkTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pendingSince = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warnw("File watcher error", "error", err)

		case <-checkTicker.C:
			if pendingSince.IsZero() || time.Since(pendingSince) < settleDelay {
				continue
			}
			pendingSince = time.Time{}
			s.reload(abs)
		}
	}
}

func (s *Server) reload(path string) {
	var (
		n   int
		err error
	)
	s.locked(func(sess *editor.Session) {
		n, err = sess.ImportFile(path, true)
	})
	if err != nil {
		s.logger.Warnw("Reload failed", "path", path, "error", err)
		return
	}
	s.logger.Infow("Reloaded lyrics file", "path", path, "entries", n)
}

package templates

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the templates whenever an .html file under the template
// directory changes, until ctx is done. Bursts of events are coalesced.
func (r *Renderer) Watch(ctx context.Context, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, dir := range []string{r.dir, filepath.Join(r.dir, "fragments")} {
		if !exists(dir) {
			continue
		}
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".html") {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(100 * time.Millisecond)
		case <-pending:
			pending = nil
			if err := r.Reload(); err != nil {
				logger.Warn("template reload failed", "error", err)
				continue
			}
			logger.Info("templates reloaded", "dir", r.dir)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("template watcher error", "error", err)
		}
	}
}

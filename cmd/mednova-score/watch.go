package main

import (
	"context"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives uploaders time to finish writing a dropped table before
// it is parsed.
const settleDelay = 500 * time.Millisecond

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// watchAndScore scores .tsv feature tables as they land in dir, until the
// context is cancelled.
func watchAndScore(ctx context.Context, a *app, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	slog.Info("watching for feature tables", "dir", dir)

	// Track last-seen event per file so rapid Write bursts score once.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".tsv") {
				continue
			}
			pending[filepath.Clean(ev.Name)] = time.Now()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < settleDelay {
					continue
				}
				delete(pending, path)
				if err := a.scoreTable(ctx, path); err != nil {
					slog.Error("scoring dropped table failed", "path", path, "error", err)
					continue
				}
				slog.Info("dropped table scored", "path", path)
			}
		}
	}
}

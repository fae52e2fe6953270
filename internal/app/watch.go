package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/mortar/internal/buildfile"
	"github.com/vk/mortar/internal/config"
	"github.com/vk/mortar/internal/ctxlog"
	"github.com/vk/mortar/internal/scheduler"
)

// DefaultDebounce is how long Watch waits for more changes before
// rebuilding.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	BuildOptions
	Debounce time.Duration
	// OnBuild, when set, receives the outcome of every build.
	OnBuild func(*scheduler.Report, error)
}

// Watch builds once and then rebuilds whenever a build file or the
// settings file changes, until ctx is done. Build failures are logged and
// do not stop the watch.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	ctx = a.Context(ctx)
	logger := ctxlog.FromContext(ctx)
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, a.config.Workspace); err != nil {
		return err
	}

	rebuild := func() {
		report, err := a.Build(ctx, opts.BuildOptions)
		if err != nil {
			logger.Error("Build failed.", "error", err)
		}
		if opts.OnBuild != nil {
			opts.OnBuild(report, err)
		}
	}
	rebuild()

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if err := addWatchDirs(watcher, ev.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
					logger.Warn("Failed to watch new directory.", "path", ev.Name, "error", err)
				}
			}
			if !relevant(ev.Name) {
				continue
			}
			logger.Debug("Workspace changed.", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			timerC = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)
		case <-timerC:
			timerC = nil
			logger.Info("Rebuilding after workspace change.")
			a.reload(ctx)
			rebuild()
		}
	}
}

func relevant(path string) bool {
	base := filepath.Base(path)
	return base == buildfile.FileName || base == config.FileName
}

// addWatchDirs watches root and every directory below it that the build
// file loader would visit. A root that is a file is ignored.
func addWatchDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

// Package watch keeps a published site current while its content tree is
// edited. It pairs a recursive fsnotify watcher with a debounced rebuild
// worker, an optional periodic full rebuild, and an optional Prometheus
// metrics listener.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/publish"
)

// DefaultDebounce is the quiet period applied when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Runner performs one publishing run. A returned error marks the run as
// failed; the watcher logs it and keeps watching.
type Runner func(ctx context.Context) error

// Options configure a Watcher.
type Options struct {
	// RootDir is the content tree to watch, recursively.
	RootDir string

	// OutDir is the publish target. It and its staging and backup siblings
	// are excluded from watching so a publish never retriggers itself.
	OutDir string

	// SkipPaths lists additional directories to exclude from watching.
	SkipPaths []string

	// Debounce is the quiet period between the last file event and the
	// rebuild it triggers.
	Debounce time.Duration

	// FullRebuildInterval, when positive, schedules an unconditional
	// periodic rebuild that catches changes the watcher missed.
	FullRebuildInterval time.Duration

	// MetricsAddr, when set together with MetricsHandler, serves the
	// handler at /metrics on this address.
	MetricsAddr    string
	MetricsHandler http.Handler
}

// Watcher drives rebuilds from filesystem events.
type Watcher struct {
	opts Options
	run  Runner
	skip *skipSet
}

// New validates opts and prepares a watcher. run is invoked once at startup
// and again after every debounced change.
func New(opts Options, run Runner) (*Watcher, error) {
	if opts.RootDir == "" {
		return nil, errors.ConfigRequired("root_dir")
	}
	if run == nil {
		return nil, errors.InternalError("watch runner is nil", nil)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	skips := make([]string, 0, len(opts.SkipPaths)+3)
	if opts.OutDir != "" {
		skips = append(skips,
			opts.OutDir,
			opts.OutDir+publish.StageDirSuffix,
			opts.OutDir+publish.BackupDirSuffix)
	}
	skips = append(skips, opts.SkipPaths...)
	return &Watcher{opts: opts, run: run, skip: newSkipSet(skips)}, nil
}

// Run blocks until ctx is canceled, rebuilding after every change. The
// initial build runs before watching starts; its failure does not abort the
// loop, since the next edit gets another try.
func (w *Watcher) Run(ctx context.Context) error {
	absRoot, err := filepath.Abs(w.opts.RootDir)
	if err != nil {
		return errors.IOFailed("watch", w.opts.RootDir, err)
	}
	if st, statErr := os.Stat(absRoot); statErr != nil || !st.IsDir() {
		return errors.ConfigInvalid("root_dir", fmt.Sprintf("%s is not a directory", absRoot))
	}

	slog.Info("Running initial build", logfields.Path(absRoot))
	w.rebuild(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.InternalError("create file watcher", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := w.addDirsRecursive(watcher, absRoot); err != nil {
		return errors.IOFailed("watch", absRoot, err)
	}

	deb := newDebouncer(w.opts.Debounce)
	w.startRebuildWorker(ctx, deb.requests)

	scheduler, err := w.startFullRebuildSchedule(deb)
	if err != nil {
		return err
	}

	metricsSrv := w.startMetricsServer()

	slog.Info("Watching for changes",
		logfields.Path(absRoot),
		slog.Duration("debounce", w.opts.Debounce))

	for {
		select {
		case <-ctx.Done():
			return w.shutdown(deb, scheduler, metricsSrv)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, ev, deb)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(watchErr))
		}
	}
}

// startRebuildWorker consumes rebuild requests one at a time. The request
// channel holds at most one pending entry, so triggers arriving mid-build
// collapse into a single follow-up run.
func (w *Watcher) startRebuildWorker(ctx context.Context, requests <-chan struct{}) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-requests:
				if !ok {
					return
				}
				slog.Info("Change detected; rebuilding site")
				w.rebuild(ctx)
			}
		}
	}()
}

// rebuild runs one publishing pass. Failures are logged, never fatal: the
// loop stays alive so the next edit can repair the build.
func (w *Watcher) rebuild(ctx context.Context) {
	start := time.Now()
	if err := w.run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("Rebuild failed", logfields.Error(err))
		return
	}
	slog.Info("Rebuild complete",
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}

// handleEvent filters noise, extends the watch to created directories, and
// triggers the debouncer for everything else.
func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, deb *debouncer) {
	if w.skip.matches(ev.Name) || shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected",
		logfields.Path(ev.Name),
		slog.String("op", ev.Op.String()))
	deb.Trigger()
}

// addDirsRecursive registers root and every directory below it, skipping
// excluded and hidden directories. A directory that cannot be watched is
// logged and left out rather than failing the walk.
func (w *Watcher) addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.skip.matches(path) {
			return filepath.SkipDir
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(addErr))
		}
		return nil
	})
}

// startFullRebuildSchedule arranges the periodic unconditional rebuild when
// an interval is configured, returning a nil scheduler otherwise.
func (w *Watcher) startFullRebuildSchedule(deb *debouncer) (gocron.Scheduler, error) {
	interval := w.opts.FullRebuildInterval
	if interval <= 0 {
		return nil, nil
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.InternalError("create scheduler", err)
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Info("Periodic full rebuild", slog.Duration("interval", interval))
			deb.Request()
		}),
		gocron.WithName("full-rebuild"),
	); err != nil {
		_ = s.Shutdown()
		return nil, errors.InternalError("schedule full rebuild", err)
	}
	s.Start()
	slog.Info("Scheduled periodic full rebuild", slog.Duration("interval", interval))
	return s, nil
}

// startMetricsServer exposes the metrics handler when an address is
// configured, returning nil otherwise.
func (w *Watcher) startMetricsServer() *http.Server {
	if w.opts.MetricsAddr == "" || w.opts.MetricsHandler == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", w.opts.MetricsHandler)
	srv := &http.Server{
		Addr:         w.opts.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server error", logfields.Error(err))
		}
	}()
	slog.Info("Metrics endpoint listening", slog.String("addr", w.opts.MetricsAddr))
	return srv
}

func (w *Watcher) shutdown(deb *debouncer, scheduler gocron.Scheduler, metricsSrv *http.Server) error {
	slog.Info("Shutting down watch mode")
	deb.Stop()
	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			slog.Warn("scheduler shutdown error", logfields.Error(err))
		}
	}
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown error", logfields.Error(err))
		}
	}
	return nil
}

// shouldIgnoreEvent reports whether a path is editor or filesystem noise
// that must not trigger a rebuild.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") {
		return true
	}
	if strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}

// skipSet matches paths that never produce rebuilds: the output directory,
// its staging and backup siblings, and caller-listed extras. Matching covers
// the paths themselves and anything beneath them.
type skipSet struct {
	dirs []string
}

func newSkipSet(paths []string) *skipSet {
	s := &skipSet{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			s.dirs = append(s.dirs, abs)
		}
	}
	return s
}

func (s *skipSet) matches(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range s.dirs {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

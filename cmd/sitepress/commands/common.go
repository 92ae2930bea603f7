// Package commands implements the sitepress CLI commands. Each command is a
// kong-bound struct whose Run method receives the shared Global context and
// the root CLI node.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/history"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/notify"
	"git.home.luguber.info/inful/sitepress/internal/publish"
	"git.home.luguber.info/inful/sitepress/internal/render"
	"git.home.luguber.info/inful/sitepress/internal/site"
)

// Global context passed to subcommands for shared state.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitepress.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Run the publishing pipeline once"`
	Check   CheckCmd   `cmd:"" help:"Validate content and internal references without publishing"`
	Routes  RoutesCmd  `cmd:"" help:"Print the computed route table"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild and republish whenever the content tree changes"`
	History HistoryCmd `cmd:"" help:"List recorded publishing runs"`
}

// AfterApply runs after flag parsing; set up logging once.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(c.Verbose),
	}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honors the --verbose flag and the SITEPRESS_LOG_LEVEL
// variable, with the flag winning.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("SITEPRESS_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// configDir is the directory holding the configuration file. Relative paths
// inside the file (layout templates) resolve against it.
func configDir(root *CLI) string {
	return filepath.Dir(root.Config)
}

// siteOptions converts the effective configuration into pipeline options.
func siteOptions(cfg *config.Config) (site.Options, error) {
	layouts, err := cfg.LayoutMetadata()
	if err != nil {
		return site.Options{}, err
	}
	fingerprint, err := cfg.Fingerprint()
	if err != nil {
		return site.Options{}, err
	}
	return site.Options{
		RootDir:           cfg.RootDir,
		OutDir:            cfg.OutDir,
		LayoutDefaults:    layouts,
		BrokenLinkPolicy:  string(cfg.BrokenLinkPolicy),
		StrictFrontMatter: cfg.StrictFrontMatter,
		PublishMode:       publishMode(cfg.Publish.Mode),
		PruneReportOnly:   cfg.Publish.PruneReportOnly,
		ConfigFingerprint: fingerprint,
	}, nil
}

// publishMode maps the configured mode onto the publisher's. The two layers
// spell in-place differently, so a string cast would silently fall back to
// staged.
func publishMode(m config.PublishMode) publish.Mode {
	if config.NormalizePublishMode(string(m)) == config.PublishModeInPlace {
		return publish.ModeInPlace
	}
	return publish.ModeStaged
}

// buildEngine returns the configured render engine with user layouts loaded.
// Layout template paths resolve relative to the configuration file.
func buildEngine(cfg *config.Config, configDir string) (render.Engine, error) {
	if config.NormalizeRenderEngine(string(cfg.Render.Engine)) == config.RenderEnginePassthrough {
		return render.Passthrough{}, nil
	}

	engine := render.NewHTMLEngine()
	names := make([]string, 0, len(cfg.Render.Layouts))
	for name := range cfg.Render.Layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := cfg.Render.Layouts[name]
		if !filepath.IsAbs(path) {
			path = filepath.Join(configDir, path)
		}
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.IOFailed("read layout", path, err)
		}
		if err := engine.AddLayout(name, string(text)); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// newBuilder assembles the pipeline with the collaborators the configuration
// asks for. The returned closer releases the history store and notifier.
func newBuilder(cfg *config.Config, configDir string, opts site.Options, rec metrics.Recorder) (*site.Builder, func(), error) {
	engine, err := buildEngine(cfg, configDir)
	if err != nil {
		return nil, nil, err
	}

	b := site.New(opts).WithEngine(engine).WithRecorder(rec)

	var closers []func()
	if cfg.History.Path != "" {
		store, err := openHistory(cfg.History.Path)
		if err != nil {
			// Skip detection and the history command degrade; the run
			// itself is unaffected.
			slog.Warn("History disabled", logfields.Error(err))
		} else {
			b.WithHistory(store)
			closers = append(closers, func() {
				if err := store.Close(); err != nil {
					slog.Warn("Failed to close history store", logfields.Error(err))
				}
			})
		}
	}

	if cfg.Notify.URL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Notifications disabled", logfields.Error(err))
		} else {
			b.WithNotifier(pub)
			closers = append(closers, func() {
				if err := pub.Close(); err != nil {
					slog.Warn("Failed to close notifier", logfields.Error(err))
				}
			})
		}
	}

	closer := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return b, closer, nil
}

// openHistory creates the database's parent directory and opens the store.
func openHistory(path string) (*history.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.IOFailed("create history directory", dir, err)
		}
	}
	store, err := history.NewStore(path)
	if err != nil {
		return nil, errors.HistoryError("open", err)
	}
	return store, nil
}

// printIssues lists report issues one per line in arrival order.
func printIssues(w io.Writer, issues []site.Issue) {
	for i := range issues {
		is := &issues[i]
		switch {
		case is.Path != "" && is.Line > 0:
			fmt.Fprintf(w, "%s: %s:%d: %s\n", is.Severity, is.Path, is.Line, is.Message)
		case is.Path != "":
			fmt.Fprintf(w, "%s: %s: %s\n", is.Severity, is.Path, is.Message)
		default:
			fmt.Fprintf(w, "%s: %s\n", is.Severity, is.Message)
		}
	}
}

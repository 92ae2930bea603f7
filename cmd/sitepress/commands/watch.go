package commands

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SkipUnchanged bool `name:"skip-unchanged" help:"Skip publishing when inputs match the last recorded run"`
	Drafts        bool `help:"Include pages marked draft: true"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	opts, err := siteOptions(cfg)
	if err != nil {
		return err
	}
	opts.SkipUnchanged = w.SkipUnchanged
	opts.IncludeDrafts = w.Drafts

	// With a metrics address configured, runs record into a Prometheus
	// registry served by the watcher.
	var rec metrics.Recorder
	var handler http.Handler
	if cfg.Watch.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
		handler = metrics.HTTPHandler(reg)
	}

	builder, closer, err := newBuilder(cfg, configDir(root), opts, rec)
	if err != nil {
		return err
	}
	defer closer()

	watcher, err := watch.New(watch.Options{
		RootDir:             cfg.RootDir,
		OutDir:              opts.OutDir,
		Debounce:            cfg.Watch.Debounce(),
		FullRebuildInterval: cfg.Watch.RebuildInterval(),
		MetricsAddr:         cfg.Watch.MetricsAddr,
		MetricsHandler:      handler,
	}, func(ctx context.Context) error {
		report, runErr := builder.Run(ctx)
		if report != nil {
			fmt.Println(report.Summary())
		}
		return runErr
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return watcher.Run(ctx)
}

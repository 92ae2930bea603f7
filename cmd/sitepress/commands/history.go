package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit  int    `short:"n" default:"20" help:"Number of runs to show"`
	Format string `short:"f" default:"text" enum:"text,json" help:"Output format (text or json)"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.ConfigRequired("history.path")
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return errors.HistoryError("open", err)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return errors.HistoryError("query", err)
	}
	return writeHistory(os.Stdout, runs, h.Format)
}

func writeHistory(w io.Writer, runs []history.Run, format string) error {
	if format == "json" {
		if runs == nil {
			runs = []history.Run{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	for i := range runs {
		run := &runs[i]
		commit := run.Commit
		if commit == "" {
			commit = "-"
		}
		fmt.Fprintf(w, "%s  %-8s  units=%-4d published=%-4d issues=%-3d  %-10s %s\n",
			run.StartedAt.UTC().Format(time.RFC3339), run.Outcome,
			run.Units, run.Published, run.Issues,
			run.Duration.Round(time.Millisecond), commit)
	}
	return nil
}

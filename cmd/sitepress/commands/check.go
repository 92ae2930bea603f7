package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/site"
)

// CheckCmd implements the 'check' command: the non-writing half of the
// pipeline, for editors and CI gates.
type CheckCmd struct {
	Format string `short:"f" default:"text" enum:"text,json" help:"Output format (text or json)"`
	Drafts bool   `help:"Include pages marked draft: true"`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	opts, err := siteOptions(cfg)
	if err != nil {
		return err
	}
	opts.IncludeDrafts = c.Drafts

	engine, err := buildEngine(cfg, configDir(root))
	if err != nil {
		return err
	}

	report, verifyErr := site.New(opts).WithEngine(engine).Verify(context.Background())
	if report != nil {
		if err := writeCheckReport(os.Stdout, report, c.Format); err != nil {
			return err
		}
	}
	return verifyErr
}

func writeCheckReport(w io.Writer, report *site.Report, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report.Serializable())
	}
	printIssues(w, report.Issues)
	fmt.Fprintln(w, report.Summary())
	return nil
}

package commands

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/sitepress/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Out           string `short:"o" help:"Override the configured output directory"`
	DryRun        bool   `name:"dry-run" help:"Render and validate without writing output"`
	SkipUnchanged bool   `name:"skip-unchanged" help:"Skip publishing when inputs match the last recorded run"`
	Drafts        bool   `help:"Include pages marked draft: true"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	opts, err := siteOptions(cfg)
	if err != nil {
		return err
	}
	if b.Out != "" {
		opts.OutDir = b.Out
	}
	opts.DryRun = b.DryRun
	opts.SkipUnchanged = b.SkipUnchanged
	opts.IncludeDrafts = b.Drafts

	builder, closer, err := newBuilder(cfg, configDir(root), opts, nil)
	if err != nil {
		return err
	}
	defer closer()

	report, runErr := builder.Run(context.Background())
	if report != nil {
		// Issues are listed even when the run succeeded.
		printIssues(os.Stdout, report.Issues)
		fmt.Println(report.Summary())
	}
	return runErr
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/routes"
	"git.home.luguber.info/inful/sitepress/internal/site"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct {
	Format string `short:"f" default:"text" enum:"text,json" help:"Output format (text or json)"`
	Drafts bool   `help:"Include pages marked draft: true"`
}

func (r *RoutesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	opts, err := siteOptions(cfg)
	if err != nil {
		return err
	}
	opts.IncludeDrafts = r.Drafts

	table, err := site.New(opts).RouteTable(context.Background())
	if err != nil {
		return err
	}
	return writeRouteTable(os.Stdout, table, r.Format)
}

type routeRow struct {
	Path       string `json:"path"`
	OutputFile string `json:"output_file"`
	Source     string `json:"source"`
	Permalink  bool   `json:"permalink,omitempty"`
}

func writeRouteTable(w io.Writer, table *routes.Table, format string) error {
	if format == "json" {
		rows := make([]routeRow, 0, table.Len())
		for _, rt := range table.Routes() {
			rows = append(rows, routeRow{
				Path:       rt.Path,
				OutputFile: rt.OutputFile,
				Source:     rt.Source,
				Permalink:  rt.Permalink,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	for _, rt := range table.Routes() {
		marker := ""
		if rt.Permalink {
			marker = " (permalink)"
		}
		fmt.Fprintf(w, "%-40s %s%s\n", rt.Path, rt.Source, marker)
	}
	fmt.Fprintf(w, "%d routes\n", table.Len())
	return nil
}

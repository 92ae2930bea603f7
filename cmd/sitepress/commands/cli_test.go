package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/history"
)

// testSite lays out a content tree plus a configuration file pointing at it
// with absolute paths, so commands run independently of the working
// directory.
type testSite struct {
	ConfigPath string
	RootDir    string
	OutDir     string
}

func newTestSite(t *testing.T, extraConfig string) testSite {
	t.Helper()
	base := t.TempDir()
	site := testSite{
		ConfigPath: filepath.Join(base, config.DefaultFileName),
		RootDir:    filepath.Join(base, "content"),
		OutDir:     filepath.Join(base, "public"),
	}

	writeSiteFile(t, filepath.Join(site.RootDir, "index.md"),
		"---\ntitle: Home\n---\n# Welcome\n")
	writeSiteFile(t, filepath.Join(site.RootDir, "notes", "2026-01-10-first.md"),
		"---\ntitle: First\n---\nA [link](/) to the front page.\n")

	cfg := fmt.Sprintf("root_dir: %s\nout_dir: %s\n%s",
		site.RootDir, site.OutDir, extraConfig)
	if err := os.WriteFile(site.ConfigPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return site
}

func writeSiteFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (s testSite) cli() *CLI {
	return &CLI{Config: s.ConfigPath}
}

func TestBuildCmd_PublishesSite(t *testing.T) {
	site := newTestSite(t, "")

	cmd := &BuildCmd{}
	if err := cmd.Run(&Global{}, site.cli()); err != nil {
		t.Fatalf("build: %v", err)
	}

	for _, rel := range []string{
		"index.html",
		filepath.Join("notes", "first", "index.html"),
		"publish-report.json",
		"publish-report.txt",
	} {
		if _, err := os.Stat(filepath.Join(site.OutDir, rel)); err != nil {
			t.Errorf("expected published file %s: %v", rel, err)
		}
	}

	html, err := os.ReadFile(filepath.Join(site.OutDir, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !containsAll(string(html), "<title>Home</title>", "Welcome") {
		t.Errorf("rendered index:\n%s", html)
	}
}

func TestBuildCmd_DryRunWritesNothing(t *testing.T) {
	site := newTestSite(t, "")

	cmd := &BuildCmd{DryRun: true}
	if err := cmd.Run(&Global{}, site.cli()); err != nil {
		t.Fatalf("dry run: %v", err)
	}

	if _, err := os.Stat(site.OutDir); !os.IsNotExist(err) {
		t.Errorf("dry run created the output directory: %v", err)
	}
}

func TestBuildCmd_OutOverride(t *testing.T) {
	site := newTestSite(t, "")
	override := filepath.Join(t.TempDir(), "elsewhere")

	cmd := &BuildCmd{Out: override}
	if err := cmd.Run(&Global{}, site.cli()); err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := os.Stat(filepath.Join(override, "index.html")); err != nil {
		t.Errorf("override output missing: %v", err)
	}
	if _, err := os.Stat(site.OutDir); !os.IsNotExist(err) {
		t.Errorf("configured output directory was written despite override: %v", err)
	}
}

func TestBuildCmd_RecordsHistory(t *testing.T) {
	base := t.TempDir()
	dbPath := filepath.Join(base, "state", "history.db")
	site := newTestSite(t, fmt.Sprintf("history:\n  path: %s\n", dbPath))

	cmd := &BuildCmd{}
	if err := cmd.Run(&Global{}, site.cli()); err != nil {
		t.Fatalf("build: %v", err)
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 || runs[0].Outcome != "success" {
		t.Fatalf("recorded runs = %+v", runs)
	}

	hist := &HistoryCmd{Limit: 10, Format: "text"}
	if err := hist.Run(&Global{}, site.cli()); err != nil {
		t.Errorf("history command: %v", err)
	}
}

func TestCheckCmd_FailsOnDanglingLink(t *testing.T) {
	site := newTestSite(t, "broken_link_policy: fail\n")
	writeSiteFile(t, filepath.Join(site.RootDir, "broken.md"),
		"---\ntitle: Broken\n---\nSee [missing](/absent/page/).\n")

	cmd := &CheckCmd{Format: "text"}
	err := cmd.Run(&Global{}, site.cli())
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !errors.IsCategory(err, errors.CategoryValidation) {
		t.Errorf("error category = %v, want validation", err)
	}

	if _, statErr := os.Stat(site.OutDir); !os.IsNotExist(statErr) {
		t.Errorf("check wrote output: %v", statErr)
	}
}

func TestCheckCmd_PassesCleanSite(t *testing.T) {
	site := newTestSite(t, "broken_link_policy: fail\n")

	cmd := &CheckCmd{Format: "json"}
	if err := cmd.Run(&Global{}, site.cli()); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestRoutesCmd_Runs(t *testing.T) {
	site := newTestSite(t, "")

	cmd := &RoutesCmd{Format: "text"}
	if err := cmd.Run(&Global{}, site.cli()); err != nil {
		t.Fatalf("routes: %v", err)
	}
}

func TestInitCmd_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFileName)

	cmd := &InitCmd{}
	if err := cmd.Run(&Global{}, &CLI{Config: path}); err != nil {
		t.Fatalf("init: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.RootDir == "" || cfg.OutDir == "" {
		t.Errorf("generated config = %+v", cfg)
	}

	if err := cmd.Run(&Global{}, &CLI{Config: path}); err == nil {
		t.Error("second init without --force should refuse to overwrite")
	}
}

func TestHistoryCmd_RequiresPath(t *testing.T) {
	site := newTestSite(t, "")

	cmd := &HistoryCmd{Limit: 10, Format: "text"}
	err := cmd.Run(&Global{}, site.cli())
	if err == nil {
		t.Fatal("expected error without history.path")
	}
	if !errors.IsCategory(err, errors.CategoryConfig) {
		t.Errorf("error category = %v, want config", err)
	}
}

func TestCLI_Grammar(t *testing.T) {
	tests := []struct {
		name string
		args []string
		cmd  string
	}{
		{"build", []string{"build"}, "build"},
		{"build flags", []string{"build", "--dry-run", "--skip-unchanged"}, "build"},
		{"check json", []string{"check", "--format", "json"}, "check"},
		{"routes", []string{"routes"}, "routes"},
		{"init force", []string{"init", "--force"}, "init"},
		{"watch", []string{"watch"}, "watch"},
		{"history limit", []string{"history", "-n", "5"}, "history"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var cli CLI
			parser, err := kong.New(&cli, kong.Vars{"version": "test"})
			if err != nil {
				t.Fatalf("kong.New: %v", err)
			}
			ctx, err := parser.Parse(test.args)
			if err != nil {
				t.Fatalf("parse %v: %v", test.args, err)
			}
			if ctx.Command() != test.cmd {
				t.Errorf("command = %q, want %q", ctx.Command(), test.cmd)
			}
		})
	}
}

func TestCLI_ConfigFlag(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse([]string{"-c", "custom.yaml", "routes"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cli.Config != "custom.yaml" {
		t.Errorf("Config = %q, want custom.yaml", cli.Config)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

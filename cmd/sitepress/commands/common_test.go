package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/content"
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/frontmatter"
	"git.home.luguber.info/inful/sitepress/internal/history"
	"git.home.luguber.info/inful/sitepress/internal/publish"
	"git.home.luguber.info/inful/sitepress/internal/render"
	"git.home.luguber.info/inful/sitepress/internal/routes"
	"git.home.luguber.info/inful/sitepress/internal/site"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		env     string
		want    slog.Level
	}{
		{"default", false, "", slog.LevelInfo},
		{"verbose flag", true, "", slog.LevelDebug},
		{"flag wins over env", true, "error", slog.LevelDebug},
		{"env debug", false, "debug", slog.LevelDebug},
		{"env warn", false, "warn", slog.LevelWarn},
		{"env error", false, "error", slog.LevelError},
		{"env mixed case", false, "DEBUG", slog.LevelDebug},
		{"env unknown", false, "chatty", slog.LevelInfo},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Setenv("SITEPRESS_LOG_LEVEL", test.env)
			if got := parseLogLevel(test.verbose); got != test.want {
				t.Errorf("parseLogLevel(%v) = %v, want %v", test.verbose, got, test.want)
			}
		})
	}
}

func TestPublishMode(t *testing.T) {
	tests := []struct {
		in   config.PublishMode
		want publish.Mode
	}{
		{config.PublishModeStaged, publish.ModeStaged},
		{config.PublishModeInPlace, publish.ModeInPlace},
		{"in-place", publish.ModeInPlace},
		{"", publish.ModeStaged},
	}

	for _, test := range tests {
		if got := publishMode(test.in); got != test.want {
			t.Errorf("publishMode(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestSiteOptions(t *testing.T) {
	cfg := &config.Config{
		RootDir:           "content",
		OutDir:            "public",
		BrokenLinkPolicy:  config.LinkPolicyFail,
		StrictFrontMatter: true,
		LayoutDefaults: map[string]map[string]any{
			"post": {"layout": "post"},
		},
		Render: config.RenderConfig{
			Engine:    config.RenderEngineHTML,
			SiteTitle: "My Site",
		},
		Publish: config.PublishConfig{
			Mode:            config.PublishModeInPlace,
			PruneReportOnly: true,
		},
	}

	opts, err := siteOptions(cfg)
	if err != nil {
		t.Fatalf("siteOptions: %v", err)
	}

	if opts.RootDir != "content" || opts.OutDir != "public" {
		t.Errorf("directories = %q, %q", opts.RootDir, opts.OutDir)
	}
	if opts.BrokenLinkPolicy != string(config.LinkPolicyFail) {
		t.Errorf("BrokenLinkPolicy = %q", opts.BrokenLinkPolicy)
	}
	if !opts.StrictFrontMatter {
		t.Error("StrictFrontMatter not carried over")
	}
	if opts.PublishMode != publish.ModeInPlace {
		t.Errorf("PublishMode = %q, want %q", opts.PublishMode, publish.ModeInPlace)
	}
	if !opts.PruneReportOnly {
		t.Error("PruneReportOnly not carried over")
	}
	if len(opts.ConfigFingerprint) == 0 {
		t.Error("ConfigFingerprint is empty")
	}

	if layout, ok := opts.LayoutDefaults["post"].Layout(); !ok || layout != "post" {
		t.Errorf("post defaults layout = %q, %v", layout, ok)
	}
	// The configured site title becomes the default layout's title default.
	if title, ok := opts.LayoutDefaults[render.DefaultLayout].Title(); !ok || title != "My Site" {
		t.Errorf("default layout title = %q, %v", title, ok)
	}
}

func TestBuildEngine_Passthrough(t *testing.T) {
	cfg := &config.Config{Render: config.RenderConfig{Engine: config.RenderEnginePassthrough}}

	engine, err := buildEngine(cfg, t.TempDir())
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}
	if _, ok := engine.(render.Passthrough); !ok {
		t.Fatalf("engine = %T, want render.Passthrough", engine)
	}
}

func TestBuildEngine_LoadsLayoutsRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	layoutPath := filepath.Join(dir, "layouts", "post.html")
	if err := os.MkdirAll(filepath.Dir(layoutPath), 0o755); err != nil {
		t.Fatal(err)
	}
	shell := "<article data-layout=\"post\">{{ .Content }}</article>"
	if err := os.WriteFile(layoutPath, []byte(shell), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Render: config.RenderConfig{
			Engine:  config.RenderEngineHTML,
			Layouts: map[string]string{"post": filepath.Join("layouts", "post.html")},
		},
	}

	engine, err := buildEngine(cfg, dir)
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}

	out, err := engine.Render(render.Page{Layout: "post", Body: []byte("hello")})
	if err != nil {
		t.Fatalf("render with loaded layout: %v", err)
	}
	if !strings.Contains(string(out), `data-layout="post"`) {
		t.Errorf("output does not use the registered layout: %s", out)
	}
}

func TestBuildEngine_MissingLayoutFile(t *testing.T) {
	cfg := &config.Config{
		Render: config.RenderConfig{
			Engine:  config.RenderEngineHTML,
			Layouts: map[string]string{"post": "absent.html"},
		},
	}

	_, err := buildEngine(cfg, t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing layout file")
	}
	if !errors.IsCategory(err, errors.CategoryFileSystem) {
		t.Errorf("error category = %v, want filesystem", err)
	}
}

func TestPrintIssues(t *testing.T) {
	issues := []site.Issue{
		{Severity: site.IssueWarning, Path: "notes/a.md", Line: 12, Message: "broken link: /nope/"},
		{Severity: site.IssueError, Path: "notes/b.md", Message: "malformed front matter"},
		{Severity: site.IssueWarning, Message: "notification delivery failed"},
	}

	var buf bytes.Buffer
	printIssues(&buf, issues)

	want := "warning: notes/a.md:12: broken link: /nope/\n" +
		"error: notes/b.md: malformed front matter\n" +
		"warning: notification delivery failed\n"
	if buf.String() != want {
		t.Errorf("printIssues output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func routeTableForTest(t *testing.T) *routes.Table {
	t.Helper()
	units := []content.Unit{
		{
			RelativePath: "notes/2024-01-05-first-post.md",
			Section:      "notes",
			Name:         "2024-01-05-first-post",
			Extension:    ".md",
			Kind:         content.KindMarkdown,
		},
		{
			RelativePath: "about.md",
			Name:         "about",
			Extension:    ".md",
			Kind:         content.KindMarkdown,
			Meta: frontmatter.Metadata{
				frontmatter.KeyPermalink: frontmatter.StringValue("/company/about/"),
			},
		},
	}
	table, err := routes.Build(units)
	if err != nil {
		t.Fatalf("build route table: %v", err)
	}
	return table
}

func TestWriteRouteTable_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRouteTable(&buf, routeTableForTest(t), "text"); err != nil {
		t.Fatalf("writeRouteTable: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "/notes/first-post/") {
		t.Errorf("missing slugged route:\n%s", out)
	}
	if !strings.Contains(out, "about.md (permalink)") {
		t.Errorf("missing permalink marker:\n%s", out)
	}
	if !strings.Contains(out, "2 routes\n") {
		t.Errorf("missing count line:\n%s", out)
	}
}

func TestWriteRouteTable_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRouteTable(&buf, routeTableForTest(t), "json"); err != nil {
		t.Fatalf("writeRouteTable: %v", err)
	}

	var rows []routeRow
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Path != "/notes/first-post/" || rows[0].OutputFile != "notes/first-post/index.html" {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].Path != "/company/about/" || !rows[1].Permalink {
		t.Errorf("second row = %+v", rows[1])
	}
}

func TestWriteHistory_Text(t *testing.T) {
	started := time.Date(2026, 2, 12, 9, 30, 0, 0, time.UTC)
	runs := []history.Run{
		{RunID: "a", StartedAt: started, Duration: 1519 * time.Millisecond,
			Outcome: "success", Units: 42, Published: 40, Issues: 0, Commit: "abc1234"},
		{RunID: "b", StartedAt: started.Add(-time.Hour), Duration: 210 * time.Millisecond,
			Outcome: "warning", Units: 42, Published: 40, Issues: 3},
	}

	var buf bytes.Buffer
	if err := writeHistory(&buf, runs, "text"); err != nil {
		t.Fatalf("writeHistory: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "2026-02-12T09:30:00Z") {
		t.Errorf("missing RFC3339 timestamp:\n%s", out)
	}
	if !strings.Contains(out, "abc1234") {
		t.Errorf("missing commit:\n%s", out)
	}
	// A run without a recorded commit shows a placeholder.
	if !strings.Contains(out, " -\n") {
		t.Errorf("missing commit placeholder:\n%s", out)
	}
}

func TestWriteHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeHistory(&buf, nil, "text"); err != nil {
		t.Fatalf("writeHistory: %v", err)
	}
	if !strings.Contains(buf.String(), "No recorded runs.") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	if err := writeHistory(&buf, nil, "json"); err != nil {
		t.Fatalf("writeHistory json: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("json output = %q, want []", buf.String())
	}
}

func TestWriteHistory_JSON(t *testing.T) {
	runs := []history.Run{
		{ID: 7, RunID: "r1", StartedAt: time.Now().UTC(), Duration: time.Second,
			Outcome: "success", Units: 3, Published: 3},
	}

	var buf bytes.Buffer
	if err := writeHistory(&buf, runs, "json"); err != nil {
		t.Fatalf("writeHistory: %v", err)
	}

	var decoded []history.Run
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(decoded) != 1 || decoded[0].RunID != "r1" || decoded[0].Outcome != "success" {
		t.Errorf("decoded = %+v", decoded)
	}
}

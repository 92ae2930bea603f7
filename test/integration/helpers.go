// Package integration runs the publishing pipeline end to end against
// fixture content trees and compares the results to golden snapshots.
package integration

import (
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/publish"
	"git.home.luguber.info/inful/sitepress/internal/render"
	"git.home.luguber.info/inful/sitepress/internal/site"
)

// SiteSnapshot is the golden representation of one publishing run: the files
// that landed in the output directory plus the reproducible report fields.
type SiteSnapshot struct {
	Files  []string       `json:"files"`
	Report ReportSnapshot `json:"report"`
}

// ReportSnapshot holds the report fields that are stable across runs. Run
// IDs, timings, input hashes, and source commits vary per run and are left
// out.
type ReportSnapshot struct {
	Outcome        string   `json:"outcome"`
	UnitsScanned   int      `json:"units_scanned"`
	DraftsExcluded int      `json:"drafts_excluded,omitempty"`
	RoutesBuilt    int      `json:"routes_built"`
	FilesPublished int      `json:"files_published"`
	Routes         []string `json:"routes"`
	IssueCodes     []string `json:"issue_codes"`
}

// setupContentRepo copies a fixture tree into a temporary directory and turns
// it into a git work tree with a single commit, so runs resolve provenance
// the way real content roots do.
func setupContentRepo(t *testing.T, fixturePath string) string {
	t.Helper()

	tmpDir := t.TempDir()
	require.NoError(t, copyDir(fixturePath, tmpDir), "failed to copy fixture tree")

	repo, err := git.PlainInit(tmpDir, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	err = w.AddGlob(".")
	require.NoError(t, err, "failed to stage fixture files")

	_, err = w.Commit("Fixture content", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "failed to commit fixture files")

	return tmpDir
}

// copyDir recursively copies a directory tree.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(dst, relPath)
		if d.IsDir() {
			return os.MkdirAll(targetPath, 0o755)
		}
		return copyFile(path, targetPath)
	})
}

// copyFile copies a single file.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

// loadSiteConfig loads a fixture configuration with the content root and
// output directory injected through the environment, exercising the same
// expansion the CLI relies on.
func loadSiteConfig(t *testing.T, configPath, rootDir, outDir string) *config.Config {
	t.Helper()

	t.Setenv("SITEPRESS_TEST_ROOT", rootDir)
	t.Setenv("SITEPRESS_TEST_OUT", outDir)

	cfg, err := config.Load(configPath)
	require.NoError(t, err, "failed to load fixture config")
	return cfg
}

// newPipeline assembles a builder from a loaded configuration, mirroring the
// wiring the CLI does.
func newPipeline(t *testing.T, cfg *config.Config) *site.Builder {
	t.Helper()

	layouts, err := cfg.LayoutMetadata()
	require.NoError(t, err, "failed to decode layout defaults")

	fingerprint, err := cfg.Fingerprint()
	require.NoError(t, err, "failed to fingerprint config")

	opts := site.Options{
		RootDir:           cfg.RootDir,
		OutDir:            cfg.OutDir,
		LayoutDefaults:    layouts,
		BrokenLinkPolicy:  string(cfg.BrokenLinkPolicy),
		StrictFrontMatter: cfg.StrictFrontMatter,
		PruneReportOnly:   cfg.Publish.PruneReportOnly,
		ConfigFingerprint: fingerprint,
	}
	if config.NormalizePublishMode(string(cfg.Publish.Mode)) == config.PublishModeInPlace {
		opts.PublishMode = publish.ModeInPlace
	}

	return site.New(opts).WithEngine(render.NewHTMLEngine())
}

// snapshotSite captures the published tree and report for golden comparison.
// The report artifacts are skipped: their content changes every run.
func snapshotSite(t *testing.T, outDir string, report *site.Report) *SiteSnapshot {
	t.Helper()

	files := []string{}
	err := filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(outDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == site.ReportJSONName || rel == site.ReportTextName {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	require.NoError(t, err, "failed to walk output directory")
	sort.Strings(files)

	codeSet := make(map[string]bool)
	for _, issue := range report.Issues {
		codeSet[string(issue.Code)] = true
	}
	issueCodes := make([]string, 0, len(codeSet))
	for code := range codeSet {
		issueCodes = append(issueCodes, code)
	}
	sort.Strings(issueCodes)

	routePaths := report.Routes
	if routePaths == nil {
		routePaths = []string{}
	}

	return &SiteSnapshot{
		Files: files,
		Report: ReportSnapshot{
			Outcome:        string(report.Outcome),
			UnitsScanned:   report.UnitsScanned,
			DraftsExcluded: report.DraftsExcluded,
			RoutesBuilt:    report.RoutesBuilt,
			FilesPublished: report.FilesPublished,
			Routes:         routePaths,
			IssueCodes:     issueCodes,
		},
	}
}

// verifySiteSnapshot compares a snapshot against its golden file, rewriting
// the golden when -update-golden is set.
func verifySiteSnapshot(t *testing.T, snap *SiteSnapshot, goldenPath string, updateGolden bool) {
	t.Helper()

	actualJSON, err := json.MarshalIndent(snap, "", "  ")
	require.NoError(t, err, "failed to marshal site snapshot")

	if updateGolden {
		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o750),
			"failed to create golden directory")
		require.NoError(t, os.WriteFile(goldenPath, append(actualJSON, '\n'), 0o600),
			"failed to write golden file")
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)

	require.JSONEq(t, string(goldenData), string(actualJSON), "site snapshot mismatch")
}

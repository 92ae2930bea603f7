// Package site orchestrates publishing runs: scanning the content tree,
// parsing front matter, building the route table, validating internal
// references, rendering, publishing, and recording the outcome.
package site

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	sperrors "git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/frontmatter"
	"git.home.luguber.info/inful/sitepress/internal/gitinfo"
	"git.home.luguber.info/inful/sitepress/internal/history"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/notify"
	"git.home.luguber.info/inful/sitepress/internal/observability"
	"git.home.luguber.info/inful/sitepress/internal/publish"
	"git.home.luguber.info/inful/sitepress/internal/render"
	"git.home.luguber.info/inful/sitepress/internal/routes"
)

// Broken link policies.
const (
	PolicyWarn = "warn"
	PolicyFail = "fail"
)

// Options configures a Builder. Zero values mean: staged publishing, broken
// links warn, lenient front matter, drafts excluded.
type Options struct {
	RootDir string // Content root to scan (required)
	OutDir  string // Output directory (required unless DryRun)

	// SkipPaths lists extra paths excluded from scanning. The output
	// directory and its staging siblings are always excluded.
	SkipPaths []string

	// LayoutDefaults maps a layout name to metadata defaults merged under
	// each page's own front matter. The "default" entry applies to pages
	// that name no layout.
	LayoutDefaults map[string]frontmatter.Metadata

	BrokenLinkPolicy  string // PolicyWarn or PolicyFail
	StrictFrontMatter bool   // Malformed front matter aborts instead of skipping the file
	IncludeDrafts     bool   // Publish pages marked draft: true
	DryRun            bool   // Stop after render; nothing is written
	SkipUnchanged     bool   // Short-circuit when inputs match the last recorded run

	PublishMode     publish.Mode // Staged (default) or in-place
	PruneReportOnly bool         // In-place mode: report stale files instead of removing them

	// ConfigFingerprint is the serialized effective configuration, folded
	// into the input signature so config changes defeat SkipUnchanged.
	ConfigFingerprint []byte
}

func (o Options) withDefaults() Options {
	if o.BrokenLinkPolicy == "" {
		o.BrokenLinkPolicy = PolicyWarn
	}
	if o.PublishMode == "" {
		o.PublishMode = publish.ModeStaged
	}
	return o
}

// Builder wires the pipeline for one site. Collaborators default to inert
// implementations; the CLI injects the real ones.
type Builder struct {
	opts     Options
	engine   render.Engine
	recorder metrics.Recorder
	history  *history.Store
	notifier notify.Publisher
}

// New returns a Builder with the default HTML engine and no-op
// collaborators.
func New(opts Options) *Builder {
	return &Builder{
		opts:     opts.withDefaults(),
		engine:   render.NewHTMLEngine(),
		recorder: metrics.NoopRecorder{},
		notifier: notify.NoopPublisher{},
	}
}

// WithEngine replaces the render engine.
func (b *Builder) WithEngine(e render.Engine) *Builder {
	if e != nil {
		b.engine = e
	}
	return b
}

// WithRecorder injects a metrics recorder. Returns the builder for chaining.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		b.recorder = metrics.NoopRecorder{}
		return b
	}
	b.recorder = r
	return b
}

// WithHistory injects the run history store. Nil disables history.
func (b *Builder) WithHistory(h *history.Store) *Builder {
	b.history = h
	return b
}

// WithNotifier injects the run-completion publisher.
func (b *Builder) WithNotifier(p notify.Publisher) *Builder {
	if p == nil {
		b.notifier = notify.NoopPublisher{}
		return b
	}
	b.notifier = p
	return b
}

// Run executes the full pipeline. The report is non-nil whenever stages ran,
// even on failure: callers map the error to an exit status and the report to
// output.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	if b.opts.RootDir == "" {
		return nil, sperrors.ConfigRequired("root_dir")
	}
	if b.opts.OutDir == "" && !b.opts.DryRun {
		return nil, sperrors.ConfigRequired("out_dir")
	}

	report := newReport()
	ctx = observability.WithRunID(ctx, report.RunID)
	st := newState(report)
	st.allowSkip = b.opts.SkipUnchanged

	b.resolveProvenance(st)

	observability.InfoContext(ctx, "Starting publish run",
		logfields.Path(b.opts.RootDir),
		logfields.Output(b.opts.OutDir))

	stages := NewPipeline().
		Add(StageScan, b.stageScan).
		Add(StageParse, b.stageParse).
		Add(StageRoutes, b.stageRoutes).
		Add(StageValidate, b.stageValidate).
		Add(StageRender, b.stageRender).
		AddIf(!b.opts.DryRun, StagePublish, b.stagePublish).
		AddIf(!b.opts.DryRun, StageFinalize, b.stageFinalize).
		Build()

	err := runStages(ctx, st, stages, b.recorder)
	report.deriveOutcome()
	report.finish()
	b.emitRunMetrics(report)

	if report.SkipReason != "" {
		// The previous report stays in place: nothing was written.
		b.recordSkippedRun(ctx, report)
	} else if err == nil && !b.opts.DryRun {
		if perr := report.Persist(b.opts.OutDir); perr != nil {
			slog.Warn("Failed to persist publish report", logfields.Error(perr))
		}
	}

	observability.InfoContext(ctx, "Publish run finished",
		logfields.Outcome(string(report.Outcome)),
		logfields.DurationMS(float64(report.Duration().Milliseconds())),
		logfields.Count(report.FilesPublished))
	return report, err
}

// Verify runs the non-writing half of the pipeline: scan, parse, routes,
// validate. Nothing is published and no report is persisted.
func (b *Builder) Verify(ctx context.Context) (*Report, error) {
	if b.opts.RootDir == "" {
		return nil, sperrors.ConfigRequired("root_dir")
	}

	report := newReport()
	ctx = observability.WithRunID(ctx, report.RunID)
	st := newState(report)

	stages := NewPipeline().
		Add(StageScan, b.stageScan).
		Add(StageParse, b.stageParse).
		Add(StageRoutes, b.stageRoutes).
		Add(StageValidate, b.stageValidate).
		Build()

	err := runStages(ctx, st, stages, b.recorder)
	report.deriveOutcome()
	report.finish()
	b.emitRunMetrics(report)
	return report, err
}

// RouteTable computes the route table without validating or publishing.
func (b *Builder) RouteTable(ctx context.Context) (*routes.Table, error) {
	if b.opts.RootDir == "" {
		return nil, sperrors.ConfigRequired("root_dir")
	}

	report := newReport()
	ctx = observability.WithRunID(ctx, report.RunID)
	st := newState(report)

	stages := NewPipeline().
		Add(StageScan, b.stageScan).
		Add(StageParse, b.stageParse).
		Add(StageRoutes, b.stageRoutes).
		Build()

	if err := runStages(ctx, st, stages, b.recorder); err != nil {
		return nil, err
	}
	return st.Table, nil
}

// resolveProvenance attaches git information when the content root sits in a
// work tree. Absence of git is not an error.
func (b *Builder) resolveProvenance(st *State) {
	info, err := gitinfo.Resolve(b.opts.RootDir)
	if err != nil {
		slog.Debug("Git provenance unavailable", logfields.Error(err))
		return
	}
	if info == nil {
		return
	}
	st.Git = info
	st.Report.SourceCommit = info.Short()
	st.Report.SourceDirty = info.Dirty
}

func (b *Builder) emitRunMetrics(r *Report) {
	b.recorder.ObserveRunDuration(r.Duration())
	outcome := string(r.Outcome)
	if r.SkipReason != "" {
		outcome = "skipped"
	}
	b.recorder.IncRunOutcome(outcome)
}

// recordSkippedRun appends a history row for a short-circuited run so the
// history command shows the skip.
func (b *Builder) recordSkippedRun(ctx context.Context, r *Report) {
	if b.history == nil {
		return
	}
	run := history.Run{
		RunID:     r.RunID,
		StartedAt: r.Start,
		Duration:  r.Duration(),
		Outcome:   "skipped",
		Units:     r.UnitsScanned,
		Issues:    len(r.Issues),
		InputHash: r.InputHash,
		Commit:    r.SourceCommit,
	}
	if err := b.history.Record(ctx, run); err != nil {
		slog.Warn("Failed to record skipped run", logfields.Error(err))
	}
}

// outputLooksPublished probes the output directory before honoring a skip:
// the previous report must exist and the directory must hold at least one
// published file. A missing or emptied output forces a full run.
func (b *Builder) outputLooksPublished() bool {
	if b.opts.OutDir == "" {
		return false
	}
	if fi, err := os.Stat(filepath.Join(b.opts.OutDir, ReportJSONName)); err != nil || fi.IsDir() {
		return false
	}
	entries, err := os.ReadDir(b.opts.OutDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name() != ReportJSONName && e.Name() != ReportTextName {
			return true
		}
	}
	return false
}

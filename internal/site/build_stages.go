package site

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/content"
	sperrors "git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/frontmatter"
	"git.home.luguber.info/inful/sitepress/internal/history"
	"git.home.luguber.info/inful/sitepress/internal/incremental"
	"git.home.luguber.info/inful/sitepress/internal/links"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/notify"
	"git.home.luguber.info/inful/sitepress/internal/observability"
	"git.home.luguber.info/inful/sitepress/internal/publish"
	"git.home.luguber.info/inful/sitepress/internal/render"
	"git.home.luguber.info/inful/sitepress/internal/routes"
)

// parseConcurrency bounds the front matter parsing fan-out. Parsing is
// I/O-bound (one read per unit) so a small fixed pool suffices.
const parseConcurrency = 8

func (b *Builder) stageScan(ctx context.Context, st *State) error {
	skip := make([]string, 0, len(b.opts.SkipPaths)+3)
	if b.opts.OutDir != "" {
		skip = append(skip,
			b.opts.OutDir,
			b.opts.OutDir+publish.StageDirSuffix,
			b.opts.OutDir+publish.BackupDirSuffix)
	}
	skip = append(skip, b.opts.SkipPaths...)

	units, err := content.NewScanner(b.opts.RootDir, skip...).Scan()
	if err != nil {
		return err
	}
	st.Units = units
	st.Report.UnitsScanned = len(units)
	b.recorder.SetUnitsScanned(len(units))
	observability.InfoContext(ctx, "Scanned content tree", logfields.Count(len(units)))
	return nil
}

func (b *Builder) stageParse(ctx context.Context, st *State) error {
	errs := make([]error, len(st.Units))
	concurrency := parseConcurrency
	if concurrency > len(st.Units) {
		concurrency = len(st.Units)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i := range st.Units {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			errs[i] = st.Units[i].Parse()
		}(i)
	}
	wg.Wait()

	select {
	case <-ctx.Done():
		return newCanceledStageError(StageParse, ctx.Err())
	default:
	}

	kept := make([]content.Unit, 0, len(st.Units))
	malformed := 0
	for i := range st.Units {
		u := &st.Units[i]
		if err := errs[i]; err != nil {
			if sperrors.IsCategory(err, sperrors.CategoryFrontMatter) && !b.opts.StrictFrontMatter {
				st.Report.AddIssue(CodeMalformedFrontMatter, StageParse, IssueWarning, u.RelativePath, err.Error())
				malformed++
				observability.DebugContext(ctx, "Skipping file with malformed front matter",
					logfields.Path(u.RelativePath))
				continue
			}
			return err
		}
		if u.IsPage() && u.Meta.Draft() && !b.opts.IncludeDrafts {
			st.Report.DraftsExcluded++
			observability.DebugContext(ctx, "Excluding draft", logfields.Path(u.RelativePath))
			continue
		}
		kept = append(kept, *u)
	}
	st.Units = kept

	sig, err := incremental.ComputeSignature(st.Units, b.opts.ConfigFingerprint)
	if err != nil {
		return sperrors.InternalError("compute input signature", err)
	}
	st.Signature = sig
	st.Report.InputHash = sig.InputHash

	if st.allowSkip && b.history != nil {
		last, err := b.history.LastSignature(ctx)
		if err != nil {
			observability.WarnContext(ctx, "Could not read last run signature", logfields.Error(err))
		} else if last != "" && incremental.Unchanged(sig, last) && b.outputLooksPublished() {
			st.skipRemaining = true
		}
	}

	if malformed > 0 {
		return newWarnStageError(StageParse,
			fmt.Errorf("%d files with malformed front matter skipped", malformed))
	}
	return nil
}

func (b *Builder) stageRoutes(ctx context.Context, st *State) error {
	table, err := routes.Build(st.Units)
	if err != nil {
		return err
	}
	st.Table = table
	st.Report.RoutesBuilt = table.Len()
	b.recorder.SetRoutesBuilt(table.Len())
	observability.InfoContext(ctx, "Built route table", logfields.Count(table.Len()))
	return nil
}

func (b *Builder) stageValidate(ctx context.Context, st *State) error {
	result := links.Validate(st.Units, st.Table)
	if b.opts.BrokenLinkPolicy == PolicyFail {
		result.Promote()
	}
	st.Links = result

	for _, issue := range result.Issues {
		st.Report.Issues = append(st.Report.Issues, Issue{
			Code:     CodeBrokenLink,
			Stage:    StageValidate,
			Severity: issueSeverity(issue.Severity),
			Path:     issue.Source,
			Message:  issue.Message,
			Line:     issue.Line,
		})
	}
	b.recorder.SetIssuesFound(len(result.Issues))

	if result.HasErrors() {
		return sperrors.ValidationFailed(result.ErrorCount())
	}
	if n := len(result.Issues); n > 0 {
		return newWarnStageError(StageValidate,
			fmt.Errorf("%d unresolved internal references", n))
	}
	return nil
}

func issueSeverity(s links.Severity) IssueSeverity {
	if s >= links.SeverityError {
		return IssueError
	}
	return IssueWarning
}

func (b *Builder) stageRender(ctx context.Context, st *State) error {
	bySource := make(map[string]*content.Unit, len(st.Units))
	for i := range st.Units {
		bySource[st.Units[i].RelativePath] = &st.Units[i]
	}

	docs := make([]publish.Document, 0, st.Table.Len())
	pages, failed := 0, 0
	for _, rt := range st.Table.Routes() {
		u, ok := bySource[rt.Source]
		if !ok {
			return sperrors.InternalError("route without source unit", nil).
				WithContext("route", rt.Path)
		}
		doc := publish.Document{
			Route:      rt.Path,
			OutputFile: rt.OutputFile,
			Source:     rt.Source,
		}
		switch {
		case !u.IsPage():
			doc.SourcePath = u.Path
		case u.Kind == content.KindHTML:
			// Raw HTML pages publish byte-exact, front matter removed.
			doc.Data = u.Body
		default:
			pages++
			page := render.PageFor(u, rt.Path, b.defaultsFor(u, st))
			out, err := b.engine.Render(page)
			if err != nil {
				st.Report.AddIssue(CodeRenderFailure, StageRender, IssueError, rt.Source, err.Error())
				failed++
				continue
			}
			doc.Data = out
		}
		docs = append(docs, doc)
		st.Report.Routes = append(st.Report.Routes, rt.Path)
	}
	st.Docs = docs
	sort.Strings(st.Report.Routes)

	if failed > 0 {
		return sperrors.New(sperrors.CategoryRender, sperrors.SeverityFatal,
			fmt.Sprintf("%d of %d pages failed to render", failed, pages))
	}
	observability.InfoContext(ctx, "Rendered pages", logfields.Count(pages))
	return nil
}

// defaultsFor layers metadata under a page's own front matter: layout
// defaults first, then git provenance beneath them.
func (b *Builder) defaultsFor(u *content.Unit, st *State) frontmatter.Metadata {
	layout, _ := u.Meta.Layout()
	if layout == "" {
		layout = render.DefaultLayout
	}
	defaults := b.opts.LayoutDefaults[layout]
	if st.Git != nil && st.Git.Commit != "" {
		defaults = defaults.Merged(frontmatter.Metadata{
			"source_commit": frontmatter.StringValue(st.Git.Short()),
		})
	}
	return defaults
}

func (b *Builder) stagePublish(ctx context.Context, st *State) error {
	pub := publish.New(b.opts.OutDir).
		WithMode(b.opts.PublishMode).
		WithPrune(true, b.opts.PruneReportOnly).
		WithPruneExcludes(ReportJSONName, ReportTextName)

	prep, err := pub.Publish(st.Docs)
	st.Report.Publish = prep
	if prep != nil {
		st.Report.FilesPublished = len(prep.Written)
		b.recorder.SetFilesPublished(len(prep.Written))
		for _, f := range prep.Failures {
			st.Report.AddIssue(CodePublishFailure, StagePublish, IssueError, f.Source, f.Error)
		}
	}
	if err != nil {
		return err
	}
	observability.InfoContext(ctx, "Published output",
		logfields.Output(b.opts.OutDir),
		logfields.Count(st.Report.FilesPublished))
	return nil
}

// stageFinalize records the run in history and emits the completion event.
// Both are best effort: failures degrade the run to a warning, never abort
// a publish that already landed.
func (b *Builder) stageFinalize(ctx context.Context, st *State) error {
	r := st.Report
	outcome := OutcomeSuccess
	if len(r.Warnings) > 0 {
		outcome = OutcomeWarning
	}

	var failures []error
	if b.history != nil {
		run := history.Run{
			RunID:     r.RunID,
			StartedAt: r.Start,
			Duration:  time.Since(r.Start),
			Outcome:   string(outcome),
			Units:     r.UnitsScanned,
			Published: r.FilesPublished,
			Issues:    len(r.Issues),
			InputHash: r.InputHash,
			Commit:    r.SourceCommit,
		}
		if err := b.history.Record(ctx, run); err != nil {
			herr := sperrors.HistoryError("record", err)
			r.AddIssue(CodeHistoryAppend, StageFinalize, IssueWarning, "", herr.Error())
			failures = append(failures, herr)
		}
	}

	event := notify.Event{
		RunID:     r.RunID,
		Outcome:   string(outcome),
		OutDir:    b.opts.OutDir,
		Units:     r.UnitsScanned,
		Published: r.FilesPublished,
		Issues:    len(r.Issues),
		Commit:    r.SourceCommit,
	}
	if err := b.notifier.PublishRun(&event); err != nil {
		nerr := sperrors.NotifyError("run-completion", err)
		r.AddIssue(CodeNotifyFailure, StageFinalize, IssueWarning, "", nerr.Error())
		failures = append(failures, nerr)
	}

	if len(failures) > 0 {
		return newWarnStageError(StageFinalize, stderrors.Join(failures...))
	}
	return nil
}

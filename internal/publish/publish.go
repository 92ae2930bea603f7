// Package publish writes rendered documents into the output directory.
//
// Two modes exist. Staged mode builds the whole site in a sibling directory
// and promotes it with a rename, so readers of the output directory never
// observe a half-written site. In-place mode writes directly into the output
// directory (each file through a temp file and rename) and then removes
// stale files that no current route produces.
package publish

import (
	"fmt"
	"sort"
	"time"

	sperrors "git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/retry"
)

// Mode selects the publish strategy.
type Mode string

const (
	ModeStaged  Mode = "staged"
	ModeInPlace Mode = "in-place"
)

// Document is one file the publisher must place in the output directory.
// Exactly one of Data or SourcePath supplies the content: rendered pages
// carry bytes, assets are copied verbatim from their source path.
type Document struct {
	Route      string // Route that produced this document, for reporting
	OutputFile string // Output path relative to the output directory, slash-separated
	Source     string // Source file relative path, for reporting
	Data       []byte // Rendered bytes, nil for verbatim copies
	SourcePath string // Absolute source path for verbatim copies
}

// FileFailure records one document the publisher could not write.
type FileFailure struct {
	Output string `json:"output"`
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Report describes what a publish run did to the output directory.
type Report struct {
	Mode            Mode          `json:"mode"`
	Written         []string      `json:"written"`
	Pruned          []string      `json:"pruned,omitempty"`
	PruneReportOnly bool          `json:"prune_report_only,omitempty"`
	Failures        []FileFailure `json:"failures,omitempty"`
}

// OK reports whether every document reached the output directory.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Publisher writes documents into a single output directory. It is not safe
// for concurrent use; one publish runs at a time.
type Publisher struct {
	outDir          string
	mode            Mode
	prune           bool
	pruneReportOnly bool
	pruneExclude    map[string]struct{}
	backupRetry     retry.Policy
	stageDir        string
}

// New returns a staged-mode publisher for outDir with pruning enabled.
func New(outDir string) *Publisher {
	return &Publisher{
		outDir:       outDir,
		mode:         ModeStaged,
		prune:        true,
		pruneExclude: make(map[string]struct{}),
		backupRetry:  retry.NewPolicy(retry.BackoffFixed, 100*time.Millisecond, 100*time.Millisecond, 2),
	}
}

// WithMode selects the publish strategy.
func (p *Publisher) WithMode(m Mode) *Publisher {
	if m != "" {
		p.mode = m
	}
	return p
}

// WithPrune controls stale file removal in in-place mode. With reportOnly
// set, stale files are listed in the report but kept on disk.
func (p *Publisher) WithPrune(prune, reportOnly bool) *Publisher {
	p.prune = prune
	p.pruneReportOnly = reportOnly
	return p
}

// WithPruneExcludes names files (relative to the output directory) that
// pruning must never remove, such as run reports living next to the site.
func (p *Publisher) WithPruneExcludes(names ...string) *Publisher {
	for _, n := range names {
		p.pruneExclude[n] = struct{}{}
	}
	return p
}

// WithBackupRetry overrides the removal policy for the previous-output
// backup kept during staged promotion.
func (p *Publisher) WithBackupRetry(pol retry.Policy) *Publisher {
	p.backupRetry = pol
	return p
}

// Publish writes all documents and returns a report of what happened. When
// any document fails, the error is non-nil, the report lists every failure,
// and no stale file has been removed: staged mode discards the staging
// directory, in-place mode leaves the output directory as the writes left it.
func (p *Publisher) Publish(docs []Document) (*Report, error) {
	report := &Report{Mode: p.mode, PruneReportOnly: p.pruneReportOnly}
	switch p.mode {
	case ModeInPlace:
		return p.publishInPlace(docs, report)
	default:
		return p.publishStaged(docs, report)
	}
}

func (p *Publisher) publishStaged(docs []Document, report *Report) (*Report, error) {
	if err := p.beginStaging(); err != nil {
		return report, sperrors.PublishFailed(p.outDir, err)
	}

	// The old output is only consulted so the report can say what the
	// promotion will implicitly remove.
	existing, _ := collectFiles(p.outDir)

	for _, doc := range docs {
		if err := writeDocument(p.stageDir, doc); err != nil {
			report.Failures = append(report.Failures, FileFailure{
				Output: doc.OutputFile, Source: doc.Source, Error: err.Error(),
			})
			continue
		}
		report.Written = append(report.Written, doc.OutputFile)
	}
	sort.Strings(report.Written)

	if len(report.Failures) > 0 {
		p.abortStaging()
		return report, sperrors.PublishFailed(p.outDir,
			fmt.Errorf("%d of %d documents failed", len(report.Failures), len(docs)))
	}

	report.Pruned = p.staleAmong(existing, report.Written)

	if err := p.finalizeStaging(); err != nil {
		p.abortStaging()
		return report, sperrors.PublishFailed(p.outDir, err)
	}
	return report, nil
}

func (p *Publisher) publishInPlace(docs []Document, report *Report) (*Report, error) {
	existing, err := collectFiles(p.outDir)
	if err != nil {
		return report, sperrors.PublishFailed(p.outDir, err)
	}

	for _, doc := range docs {
		if err := writeDocument(p.outDir, doc); err != nil {
			report.Failures = append(report.Failures, FileFailure{
				Output: doc.OutputFile, Source: doc.Source, Error: err.Error(),
			})
			continue
		}
		report.Written = append(report.Written, doc.OutputFile)
	}
	sort.Strings(report.Written)

	if len(report.Failures) > 0 {
		// Stale files stay put after a partial failure.
		return report, sperrors.PublishFailed(p.outDir,
			fmt.Errorf("%d of %d documents failed", len(report.Failures), len(docs)))
	}

	if !p.prune {
		return report, nil
	}
	report.Pruned = p.staleAmong(existing, report.Written)
	if p.pruneReportOnly {
		return report, nil
	}
	p.removeStale(report.Pruned)
	return report, nil
}

// staleAmong returns the entries of existing that no written document
// covers, minus the prune exclusions, sorted.
func (p *Publisher) staleAmong(existing, written []string) []string {
	current := make(map[string]struct{}, len(written))
	for _, rel := range written {
		current[rel] = struct{}{}
	}
	var stale []string
	for _, rel := range existing {
		if _, ok := current[rel]; ok {
			continue
		}
		if _, ok := p.pruneExclude[rel]; ok {
			continue
		}
		stale = append(stale, rel)
	}
	sort.Strings(stale)
	return stale
}

package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitepress/internal/publish"
)

// Outcome is the final classification of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report artifact names inside the output directory.
const (
	ReportJSONName = "publish-report.json"
	ReportTextName = "publish-report.txt"
)

// IssueSeverity scales an issue's effect on the run.
type IssueSeverity string

const (
	IssueError   IssueSeverity = "error"
	IssueWarning IssueSeverity = "warning"
)

// IssueCode identifies the kind of problem behind an issue. Codes are a
// stable contract for report consumers; append new ones, never reuse.
type IssueCode string

const (
	CodeMalformedFrontMatter IssueCode = "malformed-front-matter"
	CodeBrokenLink           IssueCode = "broken-link"
	CodeRenderFailure        IssueCode = "render-failure"
	CodePublishFailure       IssueCode = "publish-failure"
	CodeHistoryAppend        IssueCode = "history-append-failure"
	CodeNotifyFailure        IssueCode = "notify-failure"
)

// Issue is one discrete problem found during a run, usually tied to a file.
type Issue struct {
	Code     IssueCode     `json:"code"`
	Stage    StageName     `json:"stage"`
	Severity IssueSeverity `json:"severity"`
	Path     string        `json:"path,omitempty"`
	Message  string        `json:"message"`
	Line     int           `json:"line,omitempty"`
}

// Report captures what one publishing run did: counts, timings, issues, and
// the final outcome. It is persisted next to the published output so the
// last run is always inspectable.
type Report struct {
	SchemaVersion int
	RunID         string
	Start         time.Time
	End           time.Time
	Outcome       Outcome

	UnitsScanned   int
	DraftsExcluded int
	RoutesBuilt    int
	FilesPublished int
	Routes         []string // Route paths rendered this run, sorted

	Issues   []Issue
	Errors   []error // Stage errors that aborted the run
	Warnings []error // Stage errors the run continued past

	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind

	SourceCommit string // Short HEAD hash when the content root is a git work tree
	SourceDirty  bool
	InputHash    string // Signature over content plus effective config
	SkipReason   string // Set when the pipeline short-circuited, e.g. "no_changes"

	Publish *publish.Report
}

func newReport() *Report {
	return &Report{
		SchemaVersion:   1,
		RunID:           uuid.NewString(),
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
	}
}

// AddIssue appends one issue to the report.
func (r *Report) AddIssue(code IssueCode, stage StageName, severity IssueSeverity, path, message string) {
	r.Issues = append(r.Issues, Issue{
		Code:     code,
		Stage:    stage,
		Severity: severity,
		Path:     path,
		Message:  message,
	})
}

func (r *Report) finish() {
	if r.End.IsZero() {
		r.End = time.Now()
	}
}

// deriveOutcome classifies the run from the recorded stage errors.
func (r *Report) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Failed reports whether the run should exit non-zero.
func (r *Report) Failed() bool {
	return r.Outcome == OutcomeFailed || r.Outcome == OutcomeCanceled
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("run=%s units=%d routes=%d published=%d issues=%d warnings=%d errors=%d duration=%s outcome=%s",
		shortID(r.RunID), r.UnitsScanned, r.RoutesBuilt, r.FilesPublished,
		len(r.Issues), len(r.Warnings), len(r.Errors),
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Persist writes the report into dir as publish-report.json plus a one-line
// publish-report.txt, each via temp file and rename so a reader never sees a
// partial report. Best effort: the returned error is for caller logging and
// never changes the run outcome.
func (r *Report) Persist(dir string) error {
	if r.End.IsZero() {
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}

	jb, err := json.MarshalIndent(r.Serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	jsonPath := filepath.Join(dir, ReportJSONName)
	tmpJSON := jsonPath + ".tmp"
	if err := os.WriteFile(tmpJSON, jb, 0o644); err != nil {
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("rename report: %w", err)
	}

	textPath := filepath.Join(dir, ReportTextName)
	tmpText := textPath + ".tmp"
	if err := os.WriteFile(tmpText, []byte(r.Summary()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write temp summary: %w", err)
	}
	if err := os.Rename(tmpText, textPath); err != nil {
		return fmt.Errorf("rename summary: %w", err)
	}
	return nil
}

// ReportSerializable mirrors Report with error values flattened to strings.
type ReportSerializable struct {
	SchemaVersion   int                      `json:"schema_version"`
	RunID           string                   `json:"run_id"`
	Start           time.Time                `json:"start"`
	End             time.Time                `json:"end"`
	Outcome         string                   `json:"outcome"`
	UnitsScanned    int                      `json:"units_scanned"`
	DraftsExcluded  int                      `json:"drafts_excluded,omitempty"`
	RoutesBuilt     int                      `json:"routes_built"`
	FilesPublished  int                      `json:"files_published"`
	Routes          []string                 `json:"routes,omitempty"`
	Issues          []Issue                  `json:"issues"`
	Errors          []string                 `json:"errors"`
	Warnings        []string                 `json:"warnings"`
	StageDurations  map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds,omitempty"`
	SourceCommit    string                   `json:"source_commit,omitempty"`
	SourceDirty     bool                     `json:"source_dirty,omitempty"`
	InputHash       string                   `json:"input_hash,omitempty"`
	SkipReason      string                   `json:"skip_reason,omitempty"`
	Publish         *publish.Report          `json:"publish,omitempty"`
}

// Serializable converts the report to its JSON form. Nil collections become
// empty so consumers read [] and {} rather than null.
func (r *Report) Serializable() *ReportSerializable {
	kinds := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		kinds[string(k)] = string(v)
	}

	s := &ReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		RunID:           r.RunID,
		Start:           r.Start,
		End:             r.End,
		Outcome:         string(r.Outcome),
		UnitsScanned:    r.UnitsScanned,
		DraftsExcluded:  r.DraftsExcluded,
		RoutesBuilt:     r.RoutesBuilt,
		FilesPublished:  r.FilesPublished,
		Routes:          r.Routes,
		Issues:          r.Issues,
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		StageDurations:  r.StageDurations,
		StageErrorKinds: kinds,
		SourceCommit:    r.SourceCommit,
		SourceDirty:     r.SourceDirty,
		InputHash:       r.InputHash,
		SkipReason:      r.SkipReason,
		Publish:         r.Publish,
	}
	if s.Issues == nil {
		s.Issues = []Issue{}
	}
	if s.StageDurations == nil {
		s.StageDurations = map[string]time.Duration{}
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

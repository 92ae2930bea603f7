package site

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDeriveOutcome_Success(t *testing.T) {
	r := newReport()
	r.deriveOutcome()
	if r.Outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %s", r.Outcome)
	}
	if r.Failed() {
		t.Fatalf("success must not report failed")
	}
}

func TestDeriveOutcome_WarningsOnly(t *testing.T) {
	r := newReport()
	r.Warnings = append(r.Warnings, newWarnStageError(StageValidate, errors.New("dangling")))
	r.deriveOutcome()
	if r.Outcome != OutcomeWarning {
		t.Fatalf("expected warning, got %s", r.Outcome)
	}
	if r.Failed() {
		t.Fatalf("warning must not report failed")
	}
}

func TestDeriveOutcome_ErrorsWinOverWarnings(t *testing.T) {
	r := newReport()
	r.Warnings = append(r.Warnings, newWarnStageError(StageValidate, errors.New("dangling")))
	r.Errors = append(r.Errors, newFatalStageError(StageRender, errors.New("boom")))
	r.deriveOutcome()
	if r.Outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %s", r.Outcome)
	}
	if !r.Failed() {
		t.Fatalf("failed run must report Failed()")
	}
}

func TestDeriveOutcome_CanceledWins(t *testing.T) {
	r := newReport()
	r.Errors = append(r.Errors, newFatalStageError(StageRender, errors.New("boom")))
	r.Errors = append(r.Errors, newCanceledStageError(StagePublish, errors.New("ctx done")))
	r.deriveOutcome()
	if r.Outcome != OutcomeCanceled {
		t.Fatalf("expected canceled, got %s", r.Outcome)
	}
	if !r.Failed() {
		t.Fatalf("canceled run must report Failed()")
	}
}

func TestAddIssue(t *testing.T) {
	r := newReport()
	r.AddIssue(CodeBrokenLink, StageValidate, IssueWarning, "notes/a.md", "no route for /gone/")
	if len(r.Issues) != 1 {
		t.Fatalf("expected one issue, got %d", len(r.Issues))
	}
	is := r.Issues[0]
	if is.Code != CodeBrokenLink || is.Stage != StageValidate || is.Severity != IssueWarning {
		t.Fatalf("issue fields wrong: %+v", is)
	}
	if is.Path != "notes/a.md" || is.Message != "no route for /gone/" {
		t.Fatalf("issue payload wrong: %+v", is)
	}
}

func TestSummary_Shape(t *testing.T) {
	r := newReport()
	r.UnitsScanned = 3
	r.RoutesBuilt = 2
	r.FilesPublished = 2
	r.finish()
	r.deriveOutcome()
	s := r.Summary()
	for _, want := range []string{"run=", "units=3", "routes=2", "published=2", "outcome=success"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q: %s", want, s)
		}
	}
	if strings.Contains(s, r.RunID) {
		t.Fatalf("summary should use the short run id: %s", s)
	}
}

func TestPersist_WritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	r := newReport()
	r.UnitsScanned = 1
	r.finish()
	r.deriveOutcome()
	if err := r.Persist(dir); err != nil {
		t.Fatalf("persist: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, ReportJSONName))
	if err != nil {
		t.Fatalf("expected report json: %v", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(b, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed["schema_version"] != float64(1) {
		t.Fatalf("expected schema_version 1, got %v", parsed["schema_version"])
	}
	if parsed["outcome"] != "success" {
		t.Fatalf("expected outcome success, got %v", parsed["outcome"])
	}
	// Empty collections marshal as [] and {}, never null.
	if _, ok := parsed["issues"].([]any); !ok {
		t.Fatalf("issues should be an array, got %T", parsed["issues"])
	}
	if _, ok := parsed["errors"].([]any); !ok {
		t.Fatalf("errors should be an array, got %T", parsed["errors"])
	}

	txt, err := os.ReadFile(filepath.Join(dir, ReportTextName))
	if err != nil {
		t.Fatalf("expected report txt: %v", err)
	}
	if !strings.Contains(string(txt), "outcome=success") {
		t.Fatalf("text report missing outcome: %s", txt)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestPersist_ErrorsSerializedAsStrings(t *testing.T) {
	dir := t.TempDir()
	r := newReport()
	r.Errors = append(r.Errors, newFatalStageError(StageRender, errors.New("boom")))
	r.finish()
	r.deriveOutcome()
	if err := r.Persist(dir); err != nil {
		t.Fatalf("persist: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, ReportJSONName))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var parsed ReportSerializable
	if err := json.Unmarshal(b, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(parsed.Errors) != 1 || !strings.Contains(parsed.Errors[0], "boom") {
		t.Fatalf("expected serialized error text, got %v", parsed.Errors)
	}
	if parsed.Outcome != string(OutcomeFailed) {
		t.Fatalf("expected failed outcome, got %s", parsed.Outcome)
	}
}

func TestDuration_UsesStartAndEnd(t *testing.T) {
	r := newReport()
	r.Start = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r.End = r.Start.Add(1500 * time.Millisecond)
	if r.Duration() != 1500*time.Millisecond {
		t.Fatalf("unexpected duration %s", r.Duration())
	}
}

package site

import (
	"context"
	stderrors "errors"
	"time"

	sperrors "git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/observability"
)

// runStages executes stages in order, recording timing and classification on
// the report. Warnings let the run continue, the first fatal or canceled
// stage aborts it, and a stage may flag the remaining pipeline as skippable.
func runStages(ctx context.Context, st *State, stages []StageDef, rec metrics.Recorder) error {
	for _, sd := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(sd.Name, ctx.Err())
			st.Report.StageErrorKinds[sd.Name] = se.Kind
			st.Report.Errors = append(st.Report.Errors, se)
			rec.IncStageResult(string(sd.Name), metrics.ResultCanceled)
			return se
		default:
		}

		if st.skipRemaining {
			st.Report.SkipReason = "no_changes"
			observability.InfoContext(ctx, "Inputs unchanged since last recorded run; skipping remaining stages")
			return nil
		}

		stageCtx := observability.WithStage(ctx, string(sd.Name))
		t0 := time.Now()
		err := sd.Fn(stageCtx, st)
		dur := time.Since(t0)
		st.Report.StageDurations[string(sd.Name)] = dur
		rec.ObserveStageDuration(string(sd.Name), dur)

		if err == nil {
			rec.IncStageResult(string(sd.Name), metrics.ResultSuccess)
			continue
		}

		se := classifyStageError(sd.Name, err)
		st.Report.StageErrorKinds[sd.Name] = se.Kind
		switch se.Kind {
		case StageErrorWarning:
			st.Report.Warnings = append(st.Report.Warnings, se)
			rec.IncStageResult(string(sd.Name), metrics.ResultWarning)
			observability.WarnContext(stageCtx, "Stage finished with warnings", logfields.Error(se.Err))
		case StageErrorCanceled:
			st.Report.Errors = append(st.Report.Errors, se)
			rec.IncStageResult(string(sd.Name), metrics.ResultCanceled)
			return se
		default:
			st.Report.Errors = append(st.Report.Errors, se)
			rec.IncStageResult(string(sd.Name), metrics.ResultFatal)
			observability.ErrorContext(stageCtx, "Stage failed", logfields.Error(se.Err))
			return se
		}
	}
	return nil
}

// classifyStageError normalizes an error into a StageError. Stages may
// return one directly; classified pipeline errors map by severity (warning
// and info continue the run); anything unrecognized aborts.
func classifyStageError(stage StageName, err error) *StageError {
	var se *StageError
	if stderrors.As(err, &se) {
		return se
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return newCanceledStageError(stage, err)
	}
	var spe *sperrors.SitepressError
	if stderrors.As(err, &spe) {
		switch spe.Severity {
		case sperrors.SeverityWarning, sperrors.SeverityInfo:
			return newWarnStageError(stage, err)
		}
	}
	return newFatalStageError(stage, err)
}

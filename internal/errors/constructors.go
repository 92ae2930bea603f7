package errors

import "strconv"

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SitepressError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found: "+path).
		WithContext("path", path)
}

func ConfigRequired(field string) *SitepressError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing: "+field).
		WithContext("field", field)
}

func ConfigInvalid(field, reason string) *SitepressError {
	return New(CategoryConfig, SeverityFatal, "invalid "+field+": "+reason).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Pipeline errors

// IOFailed covers unreadable or unwritable paths. Always fatal: a source
// tree that cannot be read or an output that cannot be written aborts the run.
func IOFailed(operation, path string, cause error) *SitepressError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "file system operation failed").
		WithContext("operation", operation).
		WithContext("path", path)
}

// MalformedFrontMatter marks a single content file whose front matter block
// opened without closing. Severity is error, not fatal: the file is skipped
// and reported, the rest of the run continues unless strict mode promotes it.
func MalformedFrontMatter(path string, cause error) *SitepressError {
	return Wrap(cause, CategoryFrontMatter, SeverityError, "malformed front matter").
		WithContext("path", path)
}

// RouteCollision names both source files that resolved to the same route.
// Always fatal: ambiguous output is never resolved by silent precedence.
func RouteCollision(route, firstSource, secondSource string) *SitepressError {
	return New(CategoryRoutes, SeverityFatal, "route collision: "+firstSource+" and "+secondSource+" both map to "+route).
		WithContext("route", route).
		WithContext("first", firstSource).
		WithContext("second", secondSource)
}

// ValidationFailed aborts the run when link issues are promoted to errors
// under the fail policy.
func ValidationFailed(issueCount int) *SitepressError {
	return New(CategoryValidation, SeverityFatal, strconv.Itoa(issueCount)+" unresolved internal references").
		WithContext("issues", issueCount)
}

func RenderFailed(path string, cause error) *SitepressError {
	return Wrap(cause, CategoryRender, SeverityError, "render failed").
		WithContext("path", path)
}

func PublishFailed(path string, cause error) *SitepressError {
	return Wrap(cause, CategoryPublish, SeverityFatal, "publish failed").
		WithContext("path", path)
}

func StageFailed(stage string, cause error) *SitepressError {
	return Wrap(cause, CategoryInternal, SeverityFatal, "pipeline stage failed").
		WithContext("stage", stage)
}

// Infrastructure errors

func HistoryError(operation string, cause error) *SitepressError {
	return WrapRetryable(cause, CategoryHistory, SeverityWarning, "history store operation failed").
		WithContext("operation", operation)
}

func NotifyError(subject string, cause error) *SitepressError {
	return WrapRetryable(cause, CategoryNotify, SeverityWarning, "notification failed").
		WithContext("subject", subject)
}

func InternalError(message string, cause error) *SitepressError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

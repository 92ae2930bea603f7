// Package links extracts references from page bodies and validates the
// internal ones against the route table. Validation is pure: it never
// mutates units or routes, and it never touches the network.
package links

// RefKind identifies where a reference was found.
type RefKind string

const (
	RefInline              RefKind = "inline"
	RefImage               RefKind = "image"
	RefAuto                RefKind = "auto"
	RefReferenceDefinition RefKind = "reference_definition"
	RefHref                RefKind = "href"
	RefSrc                 RefKind = "src"
)

// Reference is one link occurrence inside a unit's body.
type Reference struct {
	Destination string  // The destination exactly as written
	Kind        RefKind // Construct the reference appeared in
	Line        int     // 1-based line in the source file, 0 when unattributable
}

// Severity indicates the importance level of a validation issue.
type Severity int

const (
	// SeverityInfo indicates informational findings.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that should be fixed but don't block publishing.
	SeverityWarning
	// SeverityError indicates issues promoted to run failures by policy.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Rule identifiers carried on issues.
const (
	RuleBrokenLink = "broken-link"
)

// Issue represents a single validation problem found in a unit.
type Issue struct {
	Source    string   // Relative path of the unit containing the reference
	Severity  Severity // Issue severity level
	Rule      string   // Rule identifier (e.g. "broken-link")
	Message   string   // Brief description of the issue
	Reference string   // The offending reference as written
	Line      int      // Line number (0 if unattributable)
}

// Result contains all issues found during validation.
type Result struct {
	Issues       []Issue
	UnitsChecked int
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			count++
		}
	}
	return count
}

// Promote raises every warning-level issue to an error. Used when the broken
// link policy is "fail"; the validator itself stays policy-free.
func (r *Result) Promote() {
	for i := range r.Issues {
		if r.Issues[i].Severity == SeverityWarning {
			r.Issues[i].Severity = SeverityError
		}
	}
}

package domain

// Severity classifies validation issues.
type Severity string

// Issue severities determine overall validity and reporting behavior.
const (
	// SeverityError marks issues that make the assembly untrustworthy.
	SeverityError Severity = "error"
	// SeverityWarning marks issues that flag but do not block the assembly.
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue reports a single validation finding tied to one field path.
type Issue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Value    any      `json:"value,omitempty"`
}

// Report aggregates validation issues across tiers.
type Report struct {
	Issues []Issue `json:"issues"`
}

// AddError appends an error-level issue.
func (r *Report) AddError(field, message string, value any) {
	r.Issues = append(r.Issues, Issue{Field: field, Message: message, Severity: SeverityError, Value: value})
}

// AddWarning appends a warning-level issue.
func (r *Report) AddWarning(field, message string, value any) {
	r.Issues = append(r.Issues, Issue{Field: field, Message: message, Severity: SeverityWarning, Value: value})
}

// AddInfo appends an info-level issue.
func (r *Report) AddInfo(field, message string, value any) {
	r.Issues = append(r.Issues, Issue{Field: field, Message: message, Severity: SeverityInfo, Value: value})
}

// Merge appends issues from another report.
func (r *Report) Merge(other Report) {
	if len(other.Issues) == 0 {
		return
	}
	r.Issues = append(r.Issues, other.Issues...)
}

// Errors returns only error-level issues.
func (r Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns only warning-level issues.
func (r Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

// IsValid reports whether no error-level issues are present. Warnings never
// flip validity.
func (r Report) IsValid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

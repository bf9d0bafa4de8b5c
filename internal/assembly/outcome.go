package assembly

import (
	"fmt"
	"strings"

	"reflcore/pkg/domain"
)

// Outcome is the result of one assembly call: the assembled records (nil
// when the corresponding input was absent or its builder failed) plus the
// accumulated issues. Non-fatal issues never block record creation; only a
// missing reduced curve aborts the whole assembly.
type Outcome struct {
	Reflectivity *domain.Reflectivity      `json:"reflectivity"`
	Sample       *domain.Sample            `json:"sample"`
	Environment  *domain.Environment       `json:"environment"`
	Model        *domain.ReflectivityModel `json:"reflectivity_model"`

	// Source files used, for traceability.
	ReducedFile  string `json:"reduced_file,omitempty"`
	MetadataFile string `json:"metadata_file,omitempty"`
	ModelFile    string `json:"model_file,omitempty"`

	Warnings    []string          `json:"warnings"`
	Errors      []string          `json:"errors"`
	NeedsReview map[string]string `json:"needs_review"`
}

// IsComplete reports whether the primary record was assembled.
func (o *Outcome) IsComplete() bool { return o.Reflectivity != nil }

// HasErrors reports whether any builder failed.
func (o *Outcome) HasErrors() bool { return len(o.Errors) > 0 }

// NeedsHumanReview reports whether any field was flagged for review.
func (o *Outcome) NeedsHumanReview() bool { return len(o.NeedsReview) > 0 }

// Summary renders a human-readable digest of the outcome.
func (o *Outcome) Summary() string {
	var lines []string
	lines = append(lines, "Assembly summary:")

	if o.Reflectivity != nil {
		r := o.Reflectivity
		lines = append(lines, fmt.Sprintf("  Reflectivity: %s - %s", r.RunNumber, r.RunTitle))
		lines = append(lines, fmt.Sprintf("    Facility: %s  Instrument: %s", r.Facility, r.InstrumentName))
		lines = append(lines, fmt.Sprintf("    Q points: %d", len(r.Reflectivity.Q)))
		if len(r.Reflectivity.Q) > 0 {
			lo, hi := r.Reflectivity.Q[0], r.Reflectivity.Q[0]
			for _, q := range r.Reflectivity.Q[1:] {
				if q < lo {
					lo = q
				}
				if q > hi {
					hi = q
				}
			}
			lines = append(lines, fmt.Sprintf("    Q range: %.4f - %.4f 1/A", lo, hi))
		}
	} else {
		lines = append(lines, "  Reflectivity: not assembled")
	}

	if o.Sample != nil {
		lines = append(lines, fmt.Sprintf("  Sample: %s (%d layers)", o.Sample.Description, len(o.Sample.Layers)))
	} else {
		lines = append(lines, "  Sample: not assembled")
	}

	if o.Environment != nil {
		lines = append(lines, fmt.Sprintf("  Environment: %s", o.Environment.Description))
	} else {
		lines = append(lines, "  Environment: not assembled")
	}

	if o.Model != nil {
		lines = append(lines, fmt.Sprintf("  Model: %s %s (%d experiments)", o.Model.Software, o.Model.SoftwareVersion, o.Model.NumExperiments))
	}

	if len(o.Warnings) > 0 {
		lines = append(lines, fmt.Sprintf("Warnings (%d):", len(o.Warnings)))
		for _, w := range o.Warnings {
			lines = append(lines, "  - "+w)
		}
	}
	if len(o.Errors) > 0 {
		lines = append(lines, fmt.Sprintf("Errors (%d):", len(o.Errors)))
		for _, e := range o.Errors {
			lines = append(lines, "  - "+e)
		}
	}
	if len(o.NeedsReview) > 0 {
		lines = append(lines, fmt.Sprintf("Needs review (%d field(s))", len(o.NeedsReview)))
	}

	return strings.Join(lines, "\n")
}

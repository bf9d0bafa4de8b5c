package validation

import (
	"strings"
	"testing"

	"reflcore/internal/assembly"
	"reflcore/pkg/domain"
)

func cleanOutcome() *assembly.Outcome {
	curve := domain.ReflectivityCurve{}
	for i := 0; i < 12; i++ {
		q := 0.01 + 0.01*float64(i)
		curve.Q = append(curve.Q, q)
		curve.R = append(curve.R, 1.0/(1.0+100*q*q))
		curve.DR = append(curve.DR, 0.001)
		curve.DQ = append(curve.DQ, 0.0005)
	}

	refl := &domain.Reflectivity{Base: domain.Base{ID: "m-1"}, Reflectivity: curve}
	sample := &domain.Sample{Base: domain.Base{ID: "s-1"}}
	env := &domain.Environment{Base: domain.Base{ID: "e-1"}}
	temp := 298.0
	env.Temperature = &temp

	out := &assembly.Outcome{Reflectivity: refl, Sample: sample, Environment: env}
	assembly.Link(out)
	return out
}

func TestValidateCleanOutcome(t *testing.T) {
	report := Validate(cleanOutcome())
	if !report.IsValid() {
		t.Fatalf("clean outcome failed validation: %+v", report.Errors())
	}
	if len(report.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %+v", report.Warnings())
	}
}

func TestValidateArrayLengthMismatchIsError(t *testing.T) {
	out := cleanOutcome()
	out.Reflectivity.Reflectivity.R = out.Reflectivity.Reflectivity.R[:5]

	report := Validate(out)
	if report.IsValid() {
		t.Fatal("length mismatch must invalidate the result")
	}
	found := false
	for _, issue := range report.Errors() {
		if issue.Field == "reflectivity.r" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no error issued for reflectivity.r: %+v", report.Issues)
	}
}

func TestValidateNegativeUncertaintyIsError(t *testing.T) {
	out := cleanOutcome()
	out.Reflectivity.Reflectivity.DR[0] = -0.01

	report := Validate(out)
	if report.IsValid() {
		t.Fatal("negative dR must invalidate the result")
	}
	found := false
	for _, issue := range report.Errors() {
		if strings.Contains(issue.Message, "negative uncertainty") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no negative-uncertainty error: %+v", report.Issues)
	}
}

func TestValidateNonPositiveQIsError(t *testing.T) {
	out := cleanOutcome()
	out.Reflectivity.Reflectivity.Q[0] = 0

	report := Validate(out)
	if report.IsValid() {
		t.Fatal("non-positive Q must invalidate the result")
	}
}

func TestValidateNegativeRIsWarningOnly(t *testing.T) {
	out := cleanOutcome()
	out.Reflectivity.Reflectivity.R[11] = -1e-7

	report := Validate(out)
	if !report.IsValid() {
		t.Fatalf("negative R must stay a warning: %+v", report.Errors())
	}
	if len(report.Warnings()) == 0 {
		t.Fatal("expected a negative-R warning")
	}
}

func TestValidateNormalizationSuspicion(t *testing.T) {
	out := cleanOutcome()
	// All points below the low-Q cutoff read R=2, well above unity.
	out.Reflectivity.Reflectivity.R[0] = 2.0

	report := Validate(out)
	if !report.IsValid() {
		t.Fatalf("normalization suspicion must stay a warning: %+v", report.Errors())
	}
	found := false
	for _, issue := range report.Warnings() {
		if strings.Contains(issue.Message, "normalization") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a normalization warning: %+v", report.Issues)
	}
}

func TestValidateSmallDatasetWarns(t *testing.T) {
	out := cleanOutcome()
	c := &out.Reflectivity.Reflectivity
	c.Q, c.R, c.DR, c.DQ = c.Q[:3], c.R[:3], c.DR[:3], c.DQ[:3]

	report := Validate(out)
	if !report.IsValid() {
		t.Fatalf("small dataset must stay valid: %+v", report.Errors())
	}
	found := false
	for _, issue := range report.Warnings() {
		if strings.Contains(issue.Message, "small dataset") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a small-dataset warning: %+v", report.Issues)
	}
}

func TestValidateTemperatureRange(t *testing.T) {
	out := cleanOutcome()
	hot := 1500.0
	out.Environment.Temperature = &hot

	report := Validate(out)
	if !report.IsValid() {
		t.Fatalf("temperature must stay a warning: %+v", report.Errors())
	}
	if len(report.Warnings()) != 1 {
		t.Fatalf("warnings = %+v", report.Warnings())
	}
}

func TestValidateDanglingReference(t *testing.T) {
	out := cleanOutcome()
	out.Sample = nil // reflectivity.sample_id now dangles

	report := Validate(out)
	if report.IsValid() {
		t.Fatal("dangling sample reference must invalidate the result")
	}
}

func TestValidatePartialOutcome(t *testing.T) {
	out := &assembly.Outcome{Reflectivity: cleanOutcome().Reflectivity}
	out.Reflectivity.SampleID = nil
	out.Reflectivity.EnvironmentID = nil

	report := Validate(out)
	if !report.IsValid() {
		t.Fatalf("unlinked partial outcome must validate: %+v", report.Errors())
	}
}

func TestValidateNilOutcome(t *testing.T) {
	if report := Validate(nil); report.IsValid() {
		t.Fatal("nil outcome must be invalid")
	}
}

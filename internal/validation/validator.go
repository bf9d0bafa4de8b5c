// Package validation checks assembled record sets in three ordered tiers:
// array consistency, cross-reference integrity, and scientific
// plausibility. All tiers run; earlier findings never short-circuit later
// tiers. Only error-severity issues make a result invalid.
package validation

import (
	"fmt"

	"reflcore/internal/assembly"
	"reflcore/pkg/domain"
)

// Thresholds for the data-quality tier.
const (
	// minPoints below which a curve is flagged as unusually small.
	minPoints = 10
	// lowQCutoff bounds the region where R near unity is expected.
	lowQCutoff = 0.02
	// highRThreshold above which a low-Q reflectivity point suggests a
	// normalization problem.
	highRThreshold = 1.5
	// highRFraction of suspicious low-Q points tolerated before warning.
	highRFraction = 0.10

	temperatureMinK = 0.0
	temperatureMaxK = 1000.0
)

// Validate runs all three tiers over an assembled outcome and returns the
// accumulated issue report.
func Validate(out *assembly.Outcome) *domain.Report {
	report := &domain.Report{}
	if out == nil {
		report.AddError("outcome", "no assembly outcome to validate", nil)
		return report
	}
	validateArrays(out, report)
	validateCrossReferences(out, report)
	validateDataQuality(out, report)
	return report
}

// validateArrays is the schema tier: the four curve arrays must agree in
// length.
func validateArrays(out *assembly.Outcome, report *domain.Report) {
	if out.Reflectivity == nil {
		return
	}
	curve := out.Reflectivity.Reflectivity
	n := len(curve.Q)
	for _, arr := range []struct {
		field  string
		length int
	}{
		{"reflectivity.r", len(curve.R)},
		{"reflectivity.dr", len(curve.DR)},
		{"reflectivity.dq", len(curve.DQ)},
	} {
		if arr.length != n {
			report.AddError(arr.field,
				fmt.Sprintf("array length %d does not match q length %d", arr.length, n), arr.length)
		}
	}
}

// validateCrossReferences is the link tier: every identifier reference set
// by the linker must point at a record present in the same outcome.
func validateCrossReferences(out *assembly.Outcome, report *domain.Report) {
	checkLink := func(field string, ref *string, target *string) {
		if ref == nil {
			return
		}
		if target == nil {
			report.AddError(field, "reference points at a record that was not assembled", *ref)
			return
		}
		if *ref != *target {
			report.AddError(field, fmt.Sprintf("reference %q does not match record id %q", *ref, *target), *ref)
		}
	}

	var sampleID, envID, measurementID *string
	if out.Sample != nil {
		sampleID = &out.Sample.ID
	}
	if out.Environment != nil {
		envID = &out.Environment.ID
	}
	if out.Reflectivity != nil {
		measurementID = &out.Reflectivity.ID
	}

	if out.Reflectivity != nil {
		checkLink("reflectivity.sample_id", out.Reflectivity.SampleID, sampleID)
		checkLink("reflectivity.environment_id", out.Reflectivity.EnvironmentID, envID)
	}
	if out.Environment != nil {
		checkLink("environment.sample_id", out.Environment.SampleID, sampleID)
		for _, id := range out.Environment.MeasurementIDs {
			ref := id
			checkLink("environment.measurement_ids", &ref, measurementID)
		}
	}
	if out.Sample != nil {
		for _, id := range out.Sample.EnvironmentIDs {
			ref := id
			checkLink("sample.environment_ids", &ref, envID)
		}
	}
	if out.Model != nil {
		for _, id := range out.Model.MeasurementIDs {
			ref := id
			checkLink("reflectivity_model.measurement_ids", &ref, measurementID)
		}
	}
}

// validateDataQuality is the plausibility tier over the curve arrays and
// the environment conditions.
func validateDataQuality(out *assembly.Outcome, report *domain.Report) {
	if out.Reflectivity != nil {
		validateCurveQuality(&out.Reflectivity.Reflectivity, report)
	}
	if out.Environment != nil && out.Environment.Temperature != nil {
		t := *out.Environment.Temperature
		if t < temperatureMinK || t > temperatureMaxK {
			report.AddWarning("environment.temperature",
				fmt.Sprintf("temperature %.2f outside plausible range [%g, %g] K", t, temperatureMinK, temperatureMaxK), t)
		}
	}
}

func validateCurveQuality(curve *domain.ReflectivityCurve, report *domain.Report) {
	nonPositiveQ := 0
	for _, q := range curve.Q {
		if q <= 0 {
			nonPositiveQ++
		}
	}
	if nonPositiveQ > 0 {
		report.AddError("reflectivity.q",
			fmt.Sprintf("%d non-positive Q values; Q must be strictly positive", nonPositiveQ), nonPositiveQ)
	}

	negativeR := 0
	lowQ, lowQHigh := 0, 0
	for i, r := range curve.R {
		if r < 0 {
			negativeR++
		}
		if i < len(curve.Q) && curve.Q[i] < lowQCutoff {
			lowQ++
			if r > highRThreshold {
				lowQHigh++
			}
		}
	}
	if negativeR > 0 {
		report.AddWarning("reflectivity.r",
			fmt.Sprintf("%d negative reflectivity values", negativeR), negativeR)
	}
	if lowQ > 0 && float64(lowQHigh)/float64(lowQ) > highRFraction {
		report.AddWarning("reflectivity.r",
			fmt.Sprintf("%d of %d points below Q=%.3g have R > %.2g; normalization may be off",
				lowQHigh, lowQ, lowQCutoff, highRThreshold), lowQHigh)
	}

	if n := countNegative(curve.DR); n > 0 {
		report.AddError("reflectivity.dr",
			fmt.Sprintf("%d negative uncertainty values in dR", n), n)
	}
	if n := countNegative(curve.DQ); n > 0 {
		report.AddError("reflectivity.dq",
			fmt.Sprintf("%d negative uncertainty values in dQ", n), n)
	}

	if len(curve.Q) < minPoints {
		report.AddWarning("reflectivity.q",
			fmt.Sprintf("only %d data points - unusually small dataset", len(curve.Q)), len(curve.Q))
	}
}

func countNegative(values []float64) int {
	n := 0
	for _, v := range values {
		if v < 0 {
			n++
		}
	}
	return n
}

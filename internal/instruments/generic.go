package instruments

import (
	"fmt"

	"reflcore/internal/metadata"
	"reflcore/pkg/domain"
)

// Common DAS log channel names tried by the generic handler.
var (
	genericTemperatureLogs = []string{"SampleTemp", "Temperature", "Temp", "sample_temperature"}
	genericPressureLogs    = []string{"Pressure", "VacuumPressure", "sample_pressure"}
	genericHumidityLogs    = []string{"RH", "Humidity", "relative_humidity"}
)

// Generic returns the fallback handler for unknown instruments. It extracts
// environment conditions using common DAS log naming conventions and applies
// the baseline curve checks.
func Generic() Handler {
	return Handler{
		Name:     "GENERIC",
		Defaults: Defaults{Facility: "SNS", Laboratory: "ORNL", Probe: "neutrons", Technique: "reflectivity"},
		ExtractEnvironment: func(doc *metadata.Document) Environment {
			env := Environment{}
			if doc == nil {
				return env
			}
			env.Temperature = doc.LogValue(genericTemperatureLogs...)
			env.Pressure = doc.LogValue(genericPressureLogs...)
			env.RelativeHumidity = doc.LogValue(genericHumidityLogs...)
			return env
		},
		ExtractMetadata: func(doc *metadata.Document) Metadata { return Metadata{} },
		Validate:        ValidateCurve,
	}
}

// ValidateCurve applies the baseline reduced-curve sanity checks shared by
// all handlers and returns warnings.
func ValidateCurve(curve *domain.ReflectivityCurve) []string {
	var warnings []string
	if curve == nil {
		return warnings
	}

	n := len(curve.Q)
	if len(curve.R) != n || len(curve.DR) != n || len(curve.DQ) != n {
		warnings = append(warnings, fmt.Sprintf(
			"array length mismatch: q=%d, r=%d, dr=%d, dq=%d",
			n, len(curve.R), len(curve.DR), len(curve.DQ)))
	}
	if n < 10 {
		warnings = append(warnings, fmt.Sprintf("only %d data points - unusually small dataset", n))
	}
	if n > 0 {
		qMin, qMax := curve.Q[0], curve.Q[0]
		for _, q := range curve.Q[1:] {
			if q < qMin {
				qMin = q
			}
			if q > qMax {
				qMax = q
			}
		}
		if qMax < 0.01 {
			warnings = append(warnings, fmt.Sprintf("Q range very small: %.4f - %.4f 1/A", qMin, qMax))
		}
	}
	return warnings
}

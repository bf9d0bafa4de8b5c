package instruments

import (
	"fmt"
	"strings"

	"reflcore/internal/metadata"
)

// REF_L temperature sensors, in order of preference. The BL4B-prefixed
// channels come from the beamline sample-environment group; SampleTemp is
// the generic fallback.
var reflTemperatureLogs = []string{
	"BL4B:SE:SampleTemp",
	"BL4B:CS:SampleTemp",
	"SampleTemp",
}

// reflSlitLogs maps slit identifiers to their DAS channel names.
var reflSlitLogs = map[string]string{
	"s1": "S1HWidth",
	"s2": "S2HWidth",
	"s3": "S3HWidth",
	"si": "SiHWidth",
}

// RefL returns the handler for the Liquids Reflectometer (REF_L, beamline
// BL-4B at the SNS), which measures free liquid surfaces and liquid-solid
// interfaces in horizontal geometry.
func RefL() Handler {
	wavelength := 6.0
	spread := 0.02
	return Handler{
		Name:     "REF_L",
		Aliases:  []string{"BL4B", "BL-4B"},
		Beamline: "BL-4B",
		Defaults: Defaults{
			Facility:             "SNS",
			Laboratory:           "ORNL",
			Probe:                "neutrons",
			Technique:            "reflectivity",
			TechniqueDescription: "Specular neutron reflectometry",
			Wavelength:           &wavelength,
			WavelengthSpread:     &spread,
		},
		ExtractEnvironment: reflEnvironment,
		ExtractMetadata:    reflMetadata,
		Validate:           ValidateCurve,
	}
}

func reflEnvironment(doc *metadata.Document) Environment {
	env := Environment{}
	if doc == nil {
		return env
	}

	// A reading of exactly zero is usually a disconnected sensor.
	var sourceLog string
	for _, name := range reflTemperatureLogs {
		value := doc.LogValue(name)
		if value != nil && *value != 0.0 {
			env.Temperature = value
			sourceLog = name
			break
		}
	}
	if sourceLog != "" {
		env.TemperatureMin, env.TemperatureMax = doc.LogRange(sourceLog)
		env.SourceLogs = append(env.SourceLogs, sourceLog)
	}

	env.RelativeHumidity = doc.LogValue("BL4B:SE:RH", "RH")

	var parts []string
	if env.Temperature != nil {
		parts = append(parts, fmt.Sprintf("T=%.1fK", *env.Temperature))
	}
	env.Description = strings.Join(parts, ", ")
	return env
}

func reflMetadata(doc *metadata.Document) Metadata {
	meta := Metadata{}
	if doc == nil {
		return meta
	}
	for slit, channel := range reflSlitLogs {
		if value := doc.LogValue(channel); value != nil {
			if meta.SlitWidths == nil {
				meta.SlitWidths = map[string]float64{}
			}
			meta.SlitWidths[slit] = *value
		}
	}
	meta.Wavelength = doc.LogValue("LambdaRequest", "BL4B:Det:Lambda")
	return meta
}

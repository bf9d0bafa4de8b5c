package instruments

import (
	"testing"

	"reflcore/internal/metadata"
	"reflcore/pkg/domain"
)

func fptr(v float64) *float64 { return &v }

func TestLookupMatchesNameAndAliases(t *testing.T) {
	registry := DefaultRegistry()

	cases := map[string]string{
		"REF_L":          "REF_L",
		"ref_l:detector": "REF_L",
		"BL4B":           "REF_L",
		"bl-4b":          "REF_L",
		"POWGEN":         "GENERIC",
		"":               "GENERIC",
	}
	for id, want := range cases {
		if got := registry.Lookup(id).Name; got != want {
			t.Fatalf("lookup %q = %q, want %q", id, got, want)
		}
	}
}

func TestRegisterOverridesBuiltins(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Handler{Name: "CUSTOM", Aliases: []string{"REF_L"}})
	registry.Register(RefL())

	if got := registry.Lookup("REF_L").Name; got != "CUSTOM" {
		t.Fatalf("registration order not honored: %q", got)
	}
}

func TestRefLEnvironmentSkipsZeroSensor(t *testing.T) {
	doc := &metadata.Document{DASLogs: map[string]metadata.DASLog{
		"BL4B:SE:SampleTemp": {AverageValue: fptr(0.0)},
		"SampleTemp":         {AverageValue: fptr(298.2), MinValue: fptr(297.8), MaxValue: fptr(298.6)},
	}}

	env := RefL().ExtractEnvironment(doc)
	if env.Temperature == nil || *env.Temperature != 298.2 {
		t.Fatalf("expected fallback sensor, got %+v", env)
	}
	if env.TemperatureMin == nil || *env.TemperatureMin != 297.8 {
		t.Fatalf("temperature range missing: %+v", env)
	}
	if len(env.SourceLogs) != 1 || env.SourceLogs[0] != "SampleTemp" {
		t.Fatalf("source logs: %+v", env.SourceLogs)
	}
	if env.Description != "T=298.2K" {
		t.Fatalf("description: %q", env.Description)
	}
}

func TestRefLMetadataSlits(t *testing.T) {
	doc := &metadata.Document{DASLogs: map[string]metadata.DASLog{
		"S1HWidth": {AverageValue: fptr(0.4)},
		"S3HWidth": {AverageValue: fptr(1.2)},
	}}
	meta := RefL().ExtractMetadata(doc)
	if meta.SlitWidths["s1"] != 0.4 || meta.SlitWidths["s3"] != 1.2 {
		t.Fatalf("slit widths: %+v", meta.SlitWidths)
	}
}

func TestGenericEnvironment(t *testing.T) {
	doc := &metadata.Document{DASLogs: map[string]metadata.DASLog{
		"Temperature": {AverageValue: fptr(77.0)},
		"Pressure":    {ValueNumeric: fptr(101.3)},
	}}
	env := Generic().ExtractEnvironment(doc)
	if env.Temperature == nil || *env.Temperature != 77.0 {
		t.Fatalf("temperature: %+v", env)
	}
	if env.Pressure == nil || *env.Pressure != 101.3 {
		t.Fatalf("pressure: %+v", env)
	}
}

func TestValidateCurve(t *testing.T) {
	curve := &domain.ReflectivityCurve{
		Q:  []float64{0.001, 0.002, 0.003},
		R:  []float64{1.0, 0.5},
		DR: []float64{0.01, 0.01, 0.01},
		DQ: []float64{0.001, 0.001, 0.001},
	}
	warnings := ValidateCurve(curve)
	if len(warnings) != 3 {
		t.Fatalf("expected mismatch, small dataset, and narrow range warnings, got %v", warnings)
	}
}

func TestValidateCurveClean(t *testing.T) {
	n := 20
	curve := &domain.ReflectivityCurve{}
	for i := 0; i < n; i++ {
		q := 0.01 + float64(i)*0.005
		curve.Q = append(curve.Q, q)
		curve.R = append(curve.R, 1.0/float64(i+1))
		curve.DR = append(curve.DR, 0.01)
		curve.DQ = append(curve.DQ, 0.001)
	}
	if warnings := ValidateCurve(curve); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

package assembly

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"reflcore/pkg/domain"
)

func TestPrometheusMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	complete := &Outcome{
		Reflectivity: &domain.Reflectivity{Base: domain.Base{ID: "r-1"}},
		Warnings:     []string{"a", "b"},
		NeedsReview:  map[string]string{"measurement_geometry": "no model"},
	}
	incomplete := &Outcome{
		Errors: []string{"reflectivity build failed"},
	}

	m.RecordAssembly(complete, 25*time.Millisecond)
	m.RecordAssembly(incomplete, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.assemblies); got != 2 {
		t.Fatalf("assemblies_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.incomplete); got != 1 {
		t.Fatalf("assemblies_incomplete_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.errors); got != 1 {
		t.Fatalf("builder_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.warnings); got != 2 {
		t.Fatalf("warnings_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.needsReview); got != 1 {
		t.Fatalf("needs_review_fields_total = %v, want 1", got)
	}
}

func TestNopMetricsAcceptsAnything(t *testing.T) {
	var m NopMetrics
	m.RecordAssembly(&Outcome{}, 0)
	m.RecordAssembly(&Outcome{Errors: []string{"x"}}, time.Second)
}

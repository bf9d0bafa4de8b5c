// Package instruments maps instrument identifiers to capability handlers:
// per-instrument defaults, environment and metadata extraction from DAS
// logs, and instrument-specific data validation. Handlers are plain values
// selected through an ordered predicate list with a generic fallback, so a
// caller can override any instrument by registering ahead of the built-ins.
package instruments

import (
	"strings"

	"reflcore/internal/metadata"
	"reflcore/pkg/domain"
)

// Defaults holds the fallback values a handler contributes to records when
// the inputs do not say otherwise.
type Defaults struct {
	Facility             string
	Laboratory           string
	Probe                string
	Technique            string
	TechniqueDescription string
	Wavelength           *float64
	WavelengthSpread     *float64
}

// Environment is the conditions a handler extracted from DAS logs.
type Environment struct {
	Temperature      *float64
	TemperatureMin   *float64
	TemperatureMax   *float64
	Pressure         *float64
	MagneticField    *float64
	RelativeHumidity *float64
	Description      string
	SourceLogs       []string
}

// Metadata is additional instrument-specific metadata pulled from DAS logs.
type Metadata struct {
	SlitWidths map[string]float64
	Wavelength *float64
	Extra      map[string]any
}

// Handler is the capability set for one instrument.
type Handler struct {
	Name     string
	Aliases  []string
	Beamline string
	Defaults Defaults

	ExtractEnvironment func(doc *metadata.Document) Environment
	ExtractMetadata    func(doc *metadata.Document) Metadata
	// Validate returns instrument-specific warnings for an assembled curve.
	Validate func(curve *domain.ReflectivityCurve) []string
}

// Matches reports whether the handler's name or an alias occurs in the
// given instrument identifier, case-insensitively.
func (h Handler) Matches(instrumentID string) bool {
	if instrumentID == "" {
		return false
	}
	upper := strings.ToUpper(instrumentID)
	if strings.Contains(upper, strings.ToUpper(h.Name)) {
		return true
	}
	for _, alias := range h.Aliases {
		if strings.Contains(upper, strings.ToUpper(alias)) {
			return true
		}
	}
	return false
}

type entry struct {
	match   func(string) bool
	handler Handler
}

// Registry selects handlers by instrument identifier. Entries are consulted
// in registration order; the fallback answers when nothing matches.
type Registry struct {
	entries  []entry
	fallback Handler
}

// NewRegistry constructs a registry with the generic handler as fallback.
func NewRegistry() *Registry {
	return &Registry{fallback: Generic()}
}

// Register appends a handler matched by its own name/alias predicate.
func (r *Registry) Register(h Handler) {
	r.RegisterFunc(h.Matches, h)
}

// RegisterFunc appends a handler with an explicit predicate.
func (r *Registry) RegisterFunc(match func(string) bool, h Handler) {
	r.entries = append(r.entries, entry{match: match, handler: h})
}

// Lookup returns the first matching handler, or the generic fallback.
func (r *Registry) Lookup(instrumentID string) Handler {
	for _, e := range r.entries {
		if e.match(instrumentID) {
			return e.handler
		}
	}
	return r.fallback
}

// Names lists registered handler names, fallback excluded.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.handler.Name)
	}
	return names
}

// DefaultRegistry builds a registry with the built-in instrument handlers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(RefL())
	return r
}

// Package refl1d decodes refl1d/bumps fitted-model JSON documents: the
// parameter reference graph, the layer stacks of one or more experiments,
// and the probe data refined against them.
package refl1d

import (
	"encoding/json"
	"fmt"
	"os"
)

// Class tags used by the bumps JSON schema.
const (
	classReference = "Reference"
	classParameter = "bumps.parameter.Parameter"
)

// Library describes one software library recorded in the model document.
type Library struct {
	Version       string `json:"version"`
	SchemaVersion string `json:"schema_version"`
}

// FitParameter is a named fit parameter reconstructed from the references map.
type FitParameter struct {
	ID     string
	Name   string
	Value  float64
	Fixed  bool
	Bounds *[2]float64
}

// Probe holds the reduced arrays an experiment was refined against.
type Probe struct {
	Q  []float64
	R  []float64
	DR []float64
	DQ []float64
}

// Experiment is one dataset inside a model. Sample keeps the raw sample node
// so layers can be resolved on demand through the reference graph.
type Experiment struct {
	Name   string
	Sample map[string]any
	Probe  Probe
}

// Model is a fully decoded model document.
type Model struct {
	FilePath      string
	SchemaVersion string
	Name          string
	References    map[string]any
	Parameters    []FitParameter
	Experiments   []Experiment
	Libraries     map[string]Library
	// DatasetIndex selects the experiment matched to a reduced curve. Nil
	// until a selection has been made.
	DatasetIndex *int
	// Raw retains the decoded document for provenance records.
	Raw map[string]any
}

// NumFreeParameters counts parameters not held fixed during the fit.
func (m *Model) NumFreeParameters() int {
	n := 0
	for _, p := range m.Parameters {
		if !p.Fixed {
			n++
		}
	}
	return n
}

// ActiveExperiment returns the experiment selected by DatasetIndex, falling
// back to the first experiment when no selection has been made.
func (m *Model) ActiveExperiment() (Experiment, bool) {
	if len(m.Experiments) == 0 {
		return Experiment{}, false
	}
	idx := 0
	if m.DatasetIndex != nil && *m.DatasetIndex >= 0 && *m.DatasetIndex < len(m.Experiments) {
		idx = *m.DatasetIndex
	}
	return m.Experiments[idx], true
}

// ParseFile reads and decodes a model JSON file.
func ParseFile(path string) (*Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	model, err := Parse(payload)
	if err != nil {
		return nil, err
	}
	model.FilePath = path
	return model, nil
}

// Parse decodes a model document from raw JSON.
func Parse(payload []byte) (*Model, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode model json: %w", err)
	}
	return parseDocument(raw), nil
}

func parseDocument(raw map[string]any) *Model {
	model := &Model{
		References: map[string]any{},
		Libraries:  map[string]Library{},
		Raw:        raw,
	}

	if schema, ok := raw["$schema"].(string); ok {
		model.SchemaVersion = schema
	}

	if refs, ok := raw["references"].(map[string]any); ok {
		model.References = refs
		for id, entry := range refs {
			node, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			if classOf(node) != classParameter {
				continue
			}
			model.Parameters = append(model.Parameters, parseParameter(id, node))
		}
	}

	if libs, ok := raw["libraries"].(map[string]any); ok {
		for name, entry := range libs {
			node, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			lib := Library{}
			if v, ok := node["version"].(string); ok {
				lib.Version = v
			}
			if v, ok := node["schema_version"].(string); ok {
				lib.SchemaVersion = v
			}
			model.Libraries[name] = lib
		}
	}

	obj, _ := raw["object"].(map[string]any)
	if obj != nil {
		if name, ok := obj["name"].(string); ok {
			model.Name = name
		}
		if models, ok := obj["models"].([]any); ok && len(models) > 0 {
			for _, entry := range models {
				node, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				model.Experiments = append(model.Experiments, parseExperiment(node))
			}
		} else if _, ok := obj["sample"]; ok {
			model.Experiments = append(model.Experiments, parseExperiment(obj))
		}
	}

	return model
}

func parseExperiment(node map[string]any) Experiment {
	exp := Experiment{}
	if name, ok := node["name"].(string); ok {
		exp.Name = name
	}
	if sample, ok := node["sample"].(map[string]any); ok {
		exp.Sample = sample
	}
	if probe, ok := node["probe"].(map[string]any); ok {
		exp.Probe = Probe{
			Q:  numericArray(probe["Q"]),
			R:  numericArray(probe["R"]),
			DR: numericArray(probe["dR"]),
			DQ: numericArray(probe["dQ"]),
		}
	}
	return exp
}

func parseParameter(id string, node map[string]any) FitParameter {
	param := FitParameter{ID: id, Name: id, Fixed: true}
	if name, ok := node["name"].(string); ok {
		param.Name = name
	}
	if fixed, ok := node["fixed"].(bool); ok {
		param.Fixed = fixed
	}
	if slot, ok := node["slot"].(map[string]any); ok {
		if v, ok := asFloat(slot["value"]); ok {
			param.Value = v
		}
	}
	if bounds, ok := node["bounds"].([]any); ok && len(bounds) == 2 {
		lo, okLo := asFloat(bounds[0])
		hi, okHi := asFloat(bounds[1])
		if okLo && okHi {
			param.Bounds = &[2]float64{lo, hi}
		}
	}
	return param
}

// numericArray extracts a float slice from either a bare JSON list or the
// bumps NumpyArray wrapper {"values": [...]}.
func numericArray(node any) []float64 {
	switch v := node.(type) {
	case []any:
		return floatSlice(v)
	case map[string]any:
		if values, ok := v["values"].([]any); ok {
			return floatSlice(values)
		}
	}
	return nil
}

func floatSlice(values []any) []float64 {
	out := make([]float64, 0, len(values))
	for _, value := range values {
		if f, ok := asFloat(value); ok {
			out = append(out, f)
		}
	}
	return out
}

func classOf(node map[string]any) string {
	class, _ := node["__class__"].(string)
	return class
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

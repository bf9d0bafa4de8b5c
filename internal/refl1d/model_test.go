package refl1d

import "testing"

const multiExperimentDoc = `{
  "$schema": "bumps-draft-02",
  "references": {
    "p1": {"__class__": "bumps.parameter.Parameter", "name": "film thickness", "fixed": false,
           "slot": {"value": 120.5}, "bounds": [50, 200]},
    "p2": {"__class__": "bumps.parameter.Parameter", "name": "film rho", "fixed": true,
           "slot": {"value": 3.47}}
  },
  "libraries": {
    "refl1d": {"version": "1.0.0", "schema_version": "draft-02"},
    "bumps": {"version": "0.9.3", "schema_version": "draft-02"}
  },
  "object": {
    "name": "co-refinement",
    "models": [
      {
        "name": "d2o",
        "sample": {"layers": [
          {"name": "air", "thickness": 0.0, "interface": 0.0,
           "material": {"name": "air", "rho": 0.0, "irho": 0.0}},
          {"name": "film", "thickness": {"__class__": "Reference", "id": "p1"},
           "interface": 5.0,
           "material": {"name": "SiO2", "rho": {"__class__": "Reference", "id": "p2"}, "irho": 0.0}},
          {"name": "substrate", "thickness": 0.0, "interface": 2.0,
           "material": {"name": "Si", "rho": 2.07, "irho": 0.0}}
        ]},
        "probe": {"Q": {"values": [0.01, 0.02, 0.03]}, "R": {"values": [1.0, 0.5, 0.25]},
                  "dR": [0.01, 0.01, 0.01], "dQ": [0.001, 0.001, 0.001]}
      },
      {
        "name": "h2o",
        "sample": {"layers": []},
        "probe": {"Q": [0.1, 0.2], "R": [0.01, 0.001], "dR": [0.001, 0.0001], "dQ": [0.01, 0.01]}
      }
    ]
  }
}`

func TestParseMultiExperimentModel(t *testing.T) {
	model, err := Parse([]byte(multiExperimentDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if model.SchemaVersion != "bumps-draft-02" {
		t.Fatalf("schema version: %q", model.SchemaVersion)
	}
	if model.Name != "co-refinement" {
		t.Fatalf("model name: %q", model.Name)
	}
	if len(model.Experiments) != 2 {
		t.Fatalf("expected 2 experiments, got %d", len(model.Experiments))
	}
	if len(model.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(model.Parameters))
	}
	if model.NumFreeParameters() != 1 {
		t.Fatalf("free parameters: %d", model.NumFreeParameters())
	}

	lib, ok := model.Libraries["refl1d"]
	if !ok || lib.Version != "1.0.0" {
		t.Fatalf("refl1d library: %+v ok=%v", lib, ok)
	}

	first := model.Experiments[0]
	if first.Name != "d2o" {
		t.Fatalf("experiment name: %q", first.Name)
	}
	if len(first.Probe.Q) != 3 || first.Probe.Q[2] != 0.03 {
		t.Fatalf("probe Q not decoded from NumpyArray form: %+v", first.Probe.Q)
	}
	if len(first.Probe.DR) != 3 {
		t.Fatalf("probe dR not decoded from bare list: %+v", first.Probe.DR)
	}

	stack := ExtractLayers(first.Sample, model.References)
	if len(stack) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(stack))
	}
	if stack[1].Thickness != 120.5 || stack[1].Material.Rho != 3.47 {
		t.Fatalf("referenced parameters not resolved: %+v", stack[1])
	}
}

func TestParseSingleSampleModel(t *testing.T) {
	doc := `{"references": {}, "object": {"sample": {"layers": []},
	         "probe": {"Q": [0.01], "R": [1.0], "dR": [0.1], "dQ": [0.001]}}}`
	model, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(model.Experiments) != 1 {
		t.Fatalf("expected single experiment, got %d", len(model.Experiments))
	}
	if _, ok := model.ActiveExperiment(); !ok {
		t.Fatalf("expected active experiment")
	}
}

func TestActiveExperimentHonorsDatasetIndex(t *testing.T) {
	model, err := Parse([]byte(multiExperimentDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	idx := 1
	model.DatasetIndex = &idx
	exp, ok := model.ActiveExperiment()
	if !ok || exp.Name != "h2o" {
		t.Fatalf("dataset index not honored: %+v ok=%v", exp, ok)
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

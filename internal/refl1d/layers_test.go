package refl1d

import "testing"

func ref(id string) map[string]any {
	return map[string]any{"__class__": "Reference", "id": id}
}

func layerNode(name string, thickness, iface any, material string, rho any) map[string]any {
	return map[string]any{
		"name":      name,
		"thickness": thickness,
		"interface": iface,
		"material": map[string]any{
			"name": material,
			"rho":  rho,
			"irho": 0.0,
		},
	}
}

func TestExtractLayersResolvesReferences(t *testing.T) {
	references := map[string]any{
		"t1": map[string]any{"slot": map[string]any{"value": 100.0}},
		"r1": map[string]any{"slot": map[string]any{"value": 4.5}},
	}
	sample := map[string]any{
		"layers": []any{
			layerNode("air", 0.0, 0.0, "air", 0.0),
			layerNode("film", ref("t1"), 5.0, "SiO2", ref("r1")),
			layerNode("substrate", 0.0, 2.0, "Si", 2.07),
		},
	}

	stack := ExtractLayers(sample, references)
	if len(stack) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(stack))
	}
	if stack[1].Thickness != 100.0 {
		t.Fatalf("film thickness not resolved: %+v", stack[1])
	}
	if stack[1].Material.Rho != 4.5 {
		t.Fatalf("film rho not resolved: %+v", stack[1].Material)
	}

	ambient, ok := stack.Ambient()
	if !ok || ambient.Name != "air" {
		t.Fatalf("ambient detection failed: %+v ok=%v", ambient, ok)
	}
	substrate, ok := stack.Substrate()
	if !ok || substrate.Material.Name != "Si" {
		t.Fatalf("substrate detection failed: %+v ok=%v", substrate, ok)
	}
	films := stack.FilmLayers()
	if len(films) != 1 || films[0].Name != "film" {
		t.Fatalf("film layers wrong: %+v", films)
	}
	if got := stack.TotalThickness(); got != 100.0 {
		t.Fatalf("total thickness = %v", got)
	}
}

func TestExtractLayersDefaultsSilently(t *testing.T) {
	sample := map[string]any{
		"layers": []any{
			map[string]any{"thickness": "not-a-number"},
			"garbage entry",
		},
	}
	stack := ExtractLayers(sample, nil)
	if len(stack) != 2 {
		t.Fatalf("expected degenerate layers, got %d", len(stack))
	}
	for i, layer := range stack {
		if layer.Name != "unknown" || layer.Material.Name != "unknown" {
			t.Fatalf("layer %d not defaulted: %+v", i, layer)
		}
		if !layer.Defaulted {
			t.Fatalf("layer %d missing defaulted flag", i)
		}
	}
}

func TestExtractLayersNilSample(t *testing.T) {
	if stack := ExtractLayers(nil, nil); len(stack) != 0 {
		t.Fatalf("expected empty stack, got %+v", stack)
	}
}

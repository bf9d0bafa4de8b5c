package refl1d

import "testing"

func TestResolveParameterLiteral(t *testing.T) {
	resolved := ResolveParameter(5.0, nil)
	if resolved.Value != 5.0 || resolved.Defaulted {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}
}

func TestResolveParameterReference(t *testing.T) {
	references := map[string]any{
		"p1": map[string]any{"slot": map[string]any{"value": 42.0}},
	}
	param := map[string]any{"__class__": "Reference", "id": "p1"}
	resolved := ResolveParameter(param, references)
	if resolved.Value != 42.0 || resolved.Defaulted {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}
}

func TestResolveParameterMissingReference(t *testing.T) {
	param := map[string]any{"__class__": "Reference", "id": "missing"}
	resolved := ResolveParameter(param, map[string]any{})
	if resolved.Value != 0.0 || !resolved.Defaulted {
		t.Fatalf("expected defaulted zero, got %+v", resolved)
	}
}

func TestResolveParameterBareValueFallback(t *testing.T) {
	references := map[string]any{
		"p2": map[string]any{"value": 7.5},
	}
	param := map[string]any{"__class__": "Reference", "id": "p2"}
	if got := ResolveParameter(param, references); got.Value != 7.5 || got.Defaulted {
		t.Fatalf("expected bare value fallback, got %+v", got)
	}
}

func TestResolveParameterPlainObject(t *testing.T) {
	param := map[string]any{"slot": map[string]any{"value": 3.25}}
	if got := ResolveParameter(param, nil); got.Value != 3.25 || got.Defaulted {
		t.Fatalf("expected direct extraction, got %+v", got)
	}
}

func TestResolveParameterUnrecognizedShapes(t *testing.T) {
	cases := []any{nil, "4.5", []any{1.0}, true}
	for _, param := range cases {
		resolved := ResolveParameter(param, nil)
		if resolved.Value != 0.0 || !resolved.Defaulted {
			t.Fatalf("shape %T: expected silent default, got %+v", param, resolved)
		}
	}
}

func TestResolveParameterChainedReference(t *testing.T) {
	references := map[string]any{
		"outer": map[string]any{"__class__": "Reference", "id": "inner"},
		"inner": map[string]any{"slot": map[string]any{"value": 11.0}},
	}
	param := map[string]any{"__class__": "Reference", "id": "outer"}
	resolved := ResolveParameter(param, references)
	if !resolved.Chained {
		t.Fatalf("expected chained flag, got %+v", resolved)
	}
	// Single-hop only: the inner reference is not followed.
	if resolved.Value != 0.0 || !resolved.Defaulted {
		t.Fatalf("expected defaulted zero for chained reference, got %+v", resolved)
	}
}

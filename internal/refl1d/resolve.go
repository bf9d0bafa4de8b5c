package refl1d

// Resolved is the outcome of resolving one parameter value. Defaulted marks
// values that fell back to zero because no numeric value could be extracted;
// Chained marks single-hop lookups whose target was itself reference-shaped,
// which the resolver deliberately does not follow further.
type Resolved struct {
	Value     float64
	Defaulted bool
	Chained   bool
}

// ResolveParameter resolves a model parameter to a numeric value.
//
// Numbers pass through verbatim. Reference-tagged objects are looked up in
// the references map by id and their slot.value (or bare value) extracted;
// plain objects get the same extraction directly. Every other shape resolves
// to a defaulted zero without raising, so partially-specified model files
// keep assembling.
func ResolveParameter(param any, references map[string]any) Resolved {
	if f, ok := asFloat(param); ok {
		return Resolved{Value: f}
	}

	node, ok := param.(map[string]any)
	if !ok {
		return Resolved{Defaulted: true}
	}

	if classOf(node) == classReference {
		id, _ := node["id"].(string)
		target, ok := references[id].(map[string]any)
		if !ok {
			return Resolved{Defaulted: true}
		}
		resolved := extractValue(target)
		if classOf(target) == classReference {
			resolved.Chained = true
		}
		return resolved
	}

	return extractValue(node)
}

// extractValue pulls a numeric value out of a parameter object, preferring
// slot.value over a bare value key.
func extractValue(node map[string]any) Resolved {
	if slot, ok := node["slot"].(map[string]any); ok {
		if f, ok := asFloat(slot["value"]); ok {
			return Resolved{Value: f}
		}
	}
	if f, ok := asFloat(node["value"]); ok {
		return Resolved{Value: f}
	}
	return Resolved{Defaulted: true}
}

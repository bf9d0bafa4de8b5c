package refl1d

// Material describes a layer material with its scattering length density.
type Material struct {
	Name string
	Rho  float64
	IRho float64
}

// Layer is one resolved entry of a sample's layer stack.
type Layer struct {
	Name      string
	Thickness float64
	Interface float64
	Material  Material
	// Defaulted marks layers where at least one parameter fell back to the
	// zero default during resolution.
	Defaulted bool
	// Chained marks layers whose parameters referenced another reference;
	// only the first hop was followed.
	Chained bool
}

// Stack is an ordered layer stack, ambient first, substrate last.
type Stack []Layer

// Ambient returns the leading zero-thickness layer, if present.
func (s Stack) Ambient() (Layer, bool) {
	if len(s) > 0 && s[0].Thickness == 0 {
		return s[0], true
	}
	return Layer{}, false
}

// Substrate returns the trailing zero-thickness layer, if present.
func (s Stack) Substrate() (Layer, bool) {
	if len(s) > 0 && s[len(s)-1].Thickness == 0 {
		return s[len(s)-1], true
	}
	return Layer{}, false
}

// FilmLayers returns the layers with non-zero thickness.
func (s Stack) FilmLayers() Stack {
	var films Stack
	for _, layer := range s {
		if layer.Thickness > 0 {
			films = append(films, layer)
		}
	}
	return films
}

// TotalThickness sums the film layer thicknesses.
func (s Stack) TotalThickness() float64 {
	total := 0.0
	for _, layer := range s.FilmLayers() {
		total += layer.Thickness
	}
	return total
}

// ExtractLayers walks a sample node's layers list top-to-bottom, resolving
// thickness, interface roughness, and material SLDs through the reference
// graph. Malformed entries yield degenerate layers with "unknown"/zero
// defaults rather than failing.
func ExtractLayers(sample map[string]any, references map[string]any) Stack {
	var stack Stack
	if sample == nil {
		return stack
	}
	entries, _ := sample["layers"].([]any)
	for _, entry := range entries {
		node, ok := entry.(map[string]any)
		if !ok {
			stack = append(stack, Layer{Name: "unknown", Material: Material{Name: "unknown"}, Defaulted: true})
			continue
		}
		stack = append(stack, extractLayer(node, references))
	}
	return stack
}

func extractLayer(node map[string]any, references map[string]any) Layer {
	layer := Layer{Name: "unknown", Material: Material{Name: "unknown"}}
	if name, ok := node["name"].(string); ok {
		layer.Name = name
	}

	thickness := ResolveParameter(node["thickness"], references)
	roughness := ResolveParameter(node["interface"], references)
	layer.Thickness = thickness.Value
	layer.Interface = roughness.Value

	rho := Resolved{Defaulted: true}
	irho := Resolved{Defaulted: true}
	if material, ok := node["material"].(map[string]any); ok {
		if name, ok := material["name"].(string); ok {
			layer.Material.Name = name
		}
		rho = ResolveParameter(material["rho"], references)
		irho = ResolveParameter(material["irho"], references)
	}
	layer.Material.Rho = rho.Value
	layer.Material.IRho = irho.Value

	layer.Defaulted = thickness.Defaulted || roughness.Defaulted || rho.Defaulted || irho.Defaulted
	layer.Chained = thickness.Chained || roughness.Chained || rho.Chained || irho.Chained
	return layer
}

package assembly

import (
	"encoding/json"
	"fmt"
	"strings"

	"reflcore/internal/refl1d"
	"reflcore/pkg/domain"
)

// genericLayerNames are layer names that carry no compositional
// information; layers named this way get flagged for human review.
var genericLayerNames = map[string]bool{
	"unknown":  true,
	"material": true,
	"layer":    true,
	"film":     true,
}

// buildSample assembles the sample record from the model's resolved layer
// stack. Returns nil when there is no model or the builder fails.
func (a *Assembler) buildSample(stack refl1d.Stack, cx *Context) (record *domain.Sample) {
	if len(stack) == 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			cx.Errorf("failed to build sample record: %v", r)
			record = nil
		}
	}()

	substrate, hasSubstrate := stack.Substrate()
	ambient, hasAmbient := stack.Ambient()

	// The record's layer list is everything except the substrate; the
	// ambient medium stays in as layer zero.
	recorded := stack
	if hasSubstrate && len(stack) > 1 {
		recorded = stack[:len(stack)-1]
	}

	// Recorded layers are numbered from 1; the substrate keeps its stack
	// position in the serialized form.
	layers := make([]domain.SampleLayer, 0, len(recorded))
	for i, layer := range recorded {
		layers = append(layers, domain.SampleLayer{
			LayerNumber: i + 1,
			Material:    layer.Material.Name,
			Thickness:   layer.Thickness,
			Roughness:   layer.Interface,
			SLD:         layer.Material.Rho,
		})
		a.reviewLayer(i, layer, cx)
	}

	main := mainComposition(stack)
	description := describeSample(main, ambient, hasAmbient, substrate, hasSubstrate)

	var layersJSON *string
	if payload, err := json.Marshal(layers); err == nil {
		s := string(payload)
		layersJSON = &s
	}
	var substrateJSON *string
	if hasSubstrate {
		payload, err := json.Marshal(domain.SampleLayer{
			LayerNumber: len(stack) - 1,
			Material:    substrate.Material.Name,
			Thickness:   substrate.Thickness,
			Roughness:   substrate.Interface,
			SLD:         substrate.Material.Rho,
		})
		if err == nil {
			s := string(payload)
			substrateJSON = &s
		}
	}

	record = &domain.Sample{
		Base: domain.Base{
			ID:        cx.newID(),
			CreatedAt: a.cxNow(cx),
		},
		Description:     description,
		MainComposition: main,
		Layers:          layers,
		LayersJSON:      layersJSON,
		SubstrateJSON:   substrateJSON,
	}
	return record
}

// reviewLayer flags layers whose identity or values rest on weak evidence.
func (a *Assembler) reviewLayer(index int, layer refl1d.Layer, cx *Context) {
	name := strings.ToLower(strings.TrimSpace(layer.Name))
	if genericLayerNames[name] {
		cx.Review(
			fmt.Sprintf("sample_layer_%d_material", index),
			fmt.Sprintf("generic layer name %q (sld=%.4g, thickness=%.4g)", layer.Name, layer.Material.Rho, layer.Thickness),
		)
	}
	if layer.Chained {
		cx.Review(
			fmt.Sprintf("sample_layer_%d_parameters", index),
			"layer parameters resolved through a chained reference; only the first hop was followed",
		)
	}
}

// mainComposition picks the thickest film layer's material as the sample's
// main composition, falling back to "unknown".
func mainComposition(stack refl1d.Stack) string {
	films := stack.FilmLayers()
	if len(films) == 0 {
		return "unknown"
	}
	main := films[0]
	for _, layer := range films[1:] {
		if layer.Thickness > main.Thickness {
			main = layer
		}
	}
	if main.Material.Name == "" {
		return "unknown"
	}
	return main.Material.Name
}

func describeSample(main string, ambient refl1d.Layer, hasAmbient bool, substrate refl1d.Layer, hasSubstrate bool) string {
	ambientName := "air"
	if hasAmbient && ambient.Material.Name != "" {
		ambientName = ambient.Material.Name
	}
	description := main + " in " + ambientName
	if hasSubstrate && substrate.Material.Name != "" {
		description += " on " + substrate.Material.Name
	}
	return description
}

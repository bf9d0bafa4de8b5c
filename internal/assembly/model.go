package assembly

import (
	"encoding/json"

	"reflcore/internal/refl1d"
	"reflcore/pkg/domain"
)

// modelLibraries lists the software libraries, in preference order, whose
// version names the fitting software in the provenance record.
var modelLibraries = []string{"refl1d", "bumps"}

// unknownSoftware marks a model document without usable library provenance.
const unknownSoftware = "unknown"

// buildModelRecord assembles the fitted-model provenance record. The full
// decoded document is re-serialized into ModelJSON for reproducibility.
func (a *Assembler) buildModelRecord(
	model *refl1d.Model,
	stack refl1d.Stack,
	cx *Context,
) (record *domain.ReflectivityModel) {
	if model == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			cx.Errorf("failed to build reflectivity model record: %v", r)
			record = nil
		}
	}()

	software, version := fittingSoftware(model)
	if software == unknownSoftware {
		cx.Warnf("could not determine modeling software from libraries")
	}

	layers := make([]domain.ModelLayer, 0, len(stack))
	for i, layer := range stack {
		layers = append(layers, domain.ModelLayer{
			LayerNumber: i,
			Name:        layer.Name,
			Thickness:   layer.Thickness,
			Interface:   layer.Interface,
			SLD:         layer.Material.Rho,
			ISLD:        layer.Material.IRho,
		})
	}

	var modelJSON string
	if payload, err := json.Marshal(model.Raw); err == nil {
		modelJSON = string(payload)
	} else {
		cx.Warnf("could not serialize model document: %v", err)
	}

	var name *string
	if model.Name != "" {
		n := model.Name
		name = &n
	}
	var filePath *string
	if model.FilePath != "" {
		p := model.FilePath
		filePath = &p
	}

	record = &domain.ReflectivityModel{
		Base: domain.Base{
			ID:        cx.newID(),
			CreatedAt: a.cxNow(cx),
		},
		ModelName:         name,
		ModelFilePath:     filePath,
		Software:          software,
		SoftwareVersion:   version,
		SchemaVersion:     model.SchemaVersion,
		NumExperiments:    len(model.Experiments),
		DatasetIndex:      model.DatasetIndex,
		NumParameters:     len(model.Parameters),
		NumFreeParameters: model.NumFreeParameters(),
		Layers:            layers,
		ModelJSON:         modelJSON,
	}
	return record
}

// fittingSoftware names the fitting software from the document's library
// versions, preferring refl1d over bumps.
func fittingSoftware(model *refl1d.Model) (string, string) {
	for _, name := range modelLibraries {
		if lib, ok := model.Libraries[name]; ok {
			version := lib.Version
			if version == "" {
				version = unknownSoftware
			}
			return name, version
		}
	}
	return unknownSoftware, unknownSoftware
}

package assembly

import (
	"fmt"
	"strings"

	"reflcore/internal/instruments"
	"reflcore/internal/metadata"
	"reflcore/internal/refl1d"
	"reflcore/pkg/domain"
)

// buildEnvironment assembles the sample-environment record from DAS logs
// via the instrument handler, taking the ambient medium from the model's
// layer stack when one is present. Returns nil when no metadata is
// available or when the builder fails.
func (a *Assembler) buildEnvironment(
	doc *metadata.Document,
	stack refl1d.Stack,
	handler instruments.Handler,
	cx *Context,
) (record *domain.Environment) {
	if doc == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			cx.Errorf("failed to build environment record: %v", r)
			record = nil
		}
	}()

	var env instruments.Environment
	if handler.ExtractEnvironment != nil {
		env = handler.ExtractEnvironment(doc)
	}

	description := env.Description
	if description == "" {
		description = describeConditions(doc, env)
	}
	if env.Temperature == nil {
		cx.Review("environment_temperature", "no temperature sensor reading found in DAS logs")
	}

	var ambientMedium *string
	if ambient, ok := stack.Ambient(); ok && ambient.Material.Name != "" {
		name := ambient.Material.Name
		ambientMedium = &name
	}

	record = &domain.Environment{
		Base: domain.Base{
			ID:        cx.newID(),
			CreatedAt: a.cxNow(cx),
		},
		Description:      description,
		AmbientMedium:    ambientMedium,
		Temperature:      env.Temperature,
		TemperatureMin:   env.TemperatureMin,
		TemperatureMax:   env.TemperatureMax,
		Pressure:         env.Pressure,
		RelativeHumidity: env.RelativeHumidity,
		MagneticField:    env.MagneticField,
		SourceDASLogs:    env.SourceLogs,
	}
	return record
}

// describeConditions composes a human-readable environment description from
// the sample name and the extracted conditions.
func describeConditions(doc *metadata.Document, env instruments.Environment) string {
	var parts []string
	if doc.Sample != nil && doc.Sample.Name != "" {
		parts = append(parts, doc.Sample.Name)
	}
	if env.Temperature != nil {
		parts = append(parts, fmt.Sprintf("T=%.1fK", *env.Temperature))
	}
	if env.Pressure != nil {
		parts = append(parts, fmt.Sprintf("P=%.2g", *env.Pressure))
	}
	if env.RelativeHumidity != nil {
		parts = append(parts, fmt.Sprintf("RH=%.1f%%", *env.RelativeHumidity))
	}
	if len(parts) == 0 {
		return "Standard conditions"
	}
	return strings.Join(parts, ", ")
}

package assembly

// Link threads the record identifiers through an assembled outcome:
// sample <-> environment, measurement <-> both, and model -> measurement.
// Nil records are skipped; linking a partial outcome is valid.
func Link(out *Outcome) {
	if out == nil {
		return
	}

	// The ID lists are single-element and overwritten each call; an
	// assembly covers exactly one measurement.
	if out.Sample != nil && out.Environment != nil {
		out.Sample.EnvironmentIDs = []string{out.Environment.ID}
		sampleID := out.Sample.ID
		out.Environment.SampleID = &sampleID
	}

	if out.Reflectivity != nil {
		if out.Sample != nil {
			sampleID := out.Sample.ID
			out.Reflectivity.SampleID = &sampleID
		}
		if out.Environment != nil {
			envID := out.Environment.ID
			out.Reflectivity.EnvironmentID = &envID
			out.Environment.MeasurementIDs = []string{out.Reflectivity.ID}
		}
		if out.Model != nil {
			out.Model.MeasurementIDs = []string{out.Reflectivity.ID}
		}
	}
}

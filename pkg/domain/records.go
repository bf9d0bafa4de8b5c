// Package domain defines the lakehouse record types produced by the
// assembly engine, along with the severity-tagged validation primitives
// shared across packages.
package domain

import "time"

// RecordType identifies the target lakehouse table for a record.
type RecordType string

// Supported record type identifiers used in catalog buckets and export keys.
const (
	// RecordReflectivity identifies a reflectivity measurement record.
	RecordReflectivity RecordType = "reflectivity"
	// RecordSample identifies a sample record.
	RecordSample RecordType = "sample"
	// RecordEnvironment identifies a sample-environment record.
	RecordEnvironment RecordType = "environment"
	// RecordReflectivityModel identifies a fitted-model provenance record.
	RecordReflectivityModel RecordType = "reflectivity_model"
)

// Base contains common fields for all lakehouse records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	IsDeleted bool      `json:"is_deleted"`
}

// ReflectivityCurve holds the reflectivity-specific payload nested inside a
// Reflectivity record: the reduced Q/R/dR/dQ arrays plus reduction
// provenance.
type ReflectivityCurve struct {
	MeasurementGeometry *string    `json:"measurement_geometry"`
	ReductionTime       *time.Time `json:"reduction_time"`
	ReductionVersion    *string    `json:"reduction_version"`
	// ReductionParameters carries the reduction flags serialized as JSON.
	ReductionParameters *string   `json:"reduction_parameters,omitempty"`
	Q                   []float64 `json:"q"`
	R                   []float64 `json:"r"`
	DR                  []float64 `json:"dr"`
	DQ                  []float64 `json:"dq"`
}

// Reflectivity is a measurement record for the reflectivity table. The flat
// fields identify the run; the nested curve carries the data arrays.
type Reflectivity struct {
	Base
	ProposalNumber       string            `json:"proposal_number"`
	Facility             string            `json:"facility"`
	Laboratory           string            `json:"laboratory"`
	Probe                string            `json:"probe"`
	Technique            string            `json:"technique"`
	TechniqueDescription *string           `json:"technique_description"`
	IsSimulated          bool              `json:"is_simulated"`
	RunTitle             string            `json:"run_title"`
	RunNumber            string            `json:"run_number"`
	RunStart             time.Time         `json:"run_start"`
	RawFilePath          *string           `json:"raw_file_path"`
	InstrumentName       string            `json:"instrument_name"`
	SampleID             *string           `json:"sample_id"`
	EnvironmentID        *string           `json:"environment_id"`
	Reflectivity         ReflectivityCurve `json:"reflectivity"`
}

// SampleLayer is one film layer in a sample record, in stack order.
type SampleLayer struct {
	LayerNumber int     `json:"layer_number"`
	Material    string  `json:"material"`
	Thickness   float64 `json:"thickness"`
	Roughness   float64 `json:"roughness"`
	SLD         float64 `json:"sld"`
}

// Sample is a sample record for the sample table. Layers excludes the
// substrate, which is kept separately in serialized form.
type Sample struct {
	Base
	Description     string        `json:"description"`
	MainComposition string        `json:"main_composition"`
	Geometry        *string       `json:"geometry"`
	EnvironmentIDs  []string      `json:"environment_ids"`
	Layers          []SampleLayer `json:"layers"`
	LayersJSON      *string       `json:"layers_json"`
	SubstrateJSON   *string       `json:"substrate_json"`
}

// Environment is a sample-environment record: the measured conditions
// during one or more runs.
type Environment struct {
	Base
	Description      string   `json:"description"`
	AmbientMedium    *string  `json:"ambient_medium"`
	Temperature      *float64 `json:"temperature"`
	TemperatureMin   *float64 `json:"temperature_min,omitempty"`
	TemperatureMax   *float64 `json:"temperature_max,omitempty"`
	Pressure         *float64 `json:"pressure"`
	RelativeHumidity *float64 `json:"relative_humidity"`
	MagneticField    *float64 `json:"magnetic_field,omitempty"`
	SampleID         *string  `json:"sample_id"`
	MeasurementIDs   []string `json:"measurement_ids"`
	// SourceDASLogs lists the DAS log channels the values were read from.
	SourceDASLogs []string `json:"source_daslogs,omitempty"`
}

// ModelLayer is one layer of the fitted model stack, substrate included.
type ModelLayer struct {
	LayerNumber int     `json:"layer_number"`
	Name        string  `json:"name"`
	Thickness   float64 `json:"thickness"`
	Interface   float64 `json:"interface"`
	SLD         float64 `json:"sld"`
	ISLD        float64 `json:"isld"`
}

// ReflectivityModel is a provenance record for a fitted refl1d/bumps model,
// keeping the full model JSON for reproducibility.
type ReflectivityModel struct {
	Base
	MeasurementIDs    []string     `json:"measurement_ids"`
	ModelName         *string      `json:"model_name"`
	ModelFilePath     *string      `json:"model_file_path"`
	Software          string       `json:"software"`
	SoftwareVersion   string       `json:"software_version"`
	SchemaVersion     string       `json:"schema_version"`
	NumExperiments    int          `json:"num_experiments"`
	DatasetIndex      *int         `json:"dataset_index"`
	NumParameters     int          `json:"num_parameters"`
	NumFreeParameters int          `json:"num_free_parameters"`
	Layers            []ModelLayer `json:"layers"`
	ModelJSON         string       `json:"model_json"`
}

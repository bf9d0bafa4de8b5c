// Package assembly turns the three ingestion inputs (reduced data file,
// instrument metadata, fitted model document) into linked lakehouse
// records. Only a missing or unparseable reduced file is fatal; every
// other failure degrades to warnings, builder errors, or review flags on
// the outcome.
package assembly

import (
	"context"
	"fmt"
	"time"

	"reflcore/internal/instruments"
	"reflcore/internal/metadata"
	"reflcore/internal/reduced"
	"reflcore/internal/refl1d"
)

// Inputs names the files for one assembly call. Pre-parsed values take
// precedence over paths; the metadata and model inputs are optional.
type Inputs struct {
	ReducedPath  string
	MetadataPath string
	ModelPath    string

	Curve    *reduced.Curve
	Metadata *metadata.Document
	Model    *refl1d.Model
}

// Assembler runs assembly calls against a fixed instrument registry.
type Assembler struct {
	registry *instruments.Registry
	metrics  MetricsRecorder

	// newContext is replaced in tests to pin identifiers and timestamps.
	newContext func() *Context
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithMetrics sets the metrics recorder. Default is NopMetrics.
func WithMetrics(m MetricsRecorder) Option {
	return func(a *Assembler) { a.metrics = m }
}

// WithContextFactory overrides how per-call contexts are made.
func WithContextFactory(factory func() *Context) Option {
	return func(a *Assembler) { a.newContext = factory }
}

// New constructs an assembler. A nil registry gets the built-in handlers.
func New(registry *instruments.Registry, opts ...Option) *Assembler {
	if registry == nil {
		registry = instruments.DefaultRegistry()
	}
	a := &Assembler{
		registry:   registry,
		metrics:    NopMetrics{},
		newContext: NewContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble runs one assembly call. The error return is non-nil only when
// the reduced curve is missing or unparseable; all other problems surface
// on the outcome.
func (a *Assembler) Assemble(ctx context.Context, in Inputs) (*Outcome, error) {
	start := time.Now()
	cx := a.newContext()
	out := &Outcome{
		ReducedFile:  in.ReducedPath,
		MetadataFile: in.MetadataPath,
		ModelFile:    in.ModelPath,
	}

	curve, err := a.loadCurve(in)
	if err != nil {
		cx.Errorf("reduced data unavailable: %v", err)
		out.Errors = cx.errors
		return out, fmt.Errorf("assemble: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := a.loadMetadata(in, cx)
	model := a.loadModel(in, cx)

	instrumentID := ""
	if doc != nil {
		instrumentID = doc.InstrumentID
	}
	handler := a.registry.Lookup(instrumentID)

	var stack refl1d.Stack
	if model != nil {
		a.matchDataset(curve, model, cx)
		if experiment, ok := model.ActiveExperiment(); ok {
			stack = refl1d.ExtractLayers(experiment.Sample, model.References)
		}
	}

	out.Reflectivity = a.buildReflectivity(curve, doc, stack, model != nil, handler, cx)
	out.Environment = a.buildEnvironment(doc, stack, handler, cx)
	out.Sample = a.buildSample(stack, cx)
	out.Model = a.buildModelRecord(model, stack, cx)

	Link(out)

	out.Warnings = cx.warnings
	out.Errors = cx.errors
	out.NeedsReview = cx.needsReview

	a.metrics.RecordAssembly(out, time.Since(start))
	return out, nil
}

// matchDataset selects which experiment in a multi-dataset model the
// reduced curve belongs to and records the choice on the model. An explicit
// selection made by the caller is kept; a non-confident match keeps index
// zero and warns.
func (a *Assembler) matchDataset(curve *reduced.Curve, model *refl1d.Model, cx *Context) {
	if model.DatasetIndex != nil || len(model.Experiments) == 0 {
		return
	}
	match := refl1d.MatchDataset(curve.Q, curve.R, model.Experiments)
	if !match.Confident && len(model.Experiments) > 1 {
		cx.Warnf("no confident dataset match among %d experiments (best score %.3g); defaulting to index 0",
			len(model.Experiments), match.Score)
	}
	idx := match.Index
	model.DatasetIndex = &idx
}

func (a *Assembler) loadCurve(in Inputs) (*reduced.Curve, error) {
	if in.Curve != nil {
		return in.Curve, nil
	}
	if in.ReducedPath == "" {
		return nil, fmt.Errorf("no reduced data provided")
	}
	return reduced.ParseFile(in.ReducedPath)
}

func (a *Assembler) loadMetadata(in Inputs, cx *Context) *metadata.Document {
	if in.Metadata != nil {
		return in.Metadata
	}
	if in.MetadataPath == "" {
		return nil
	}
	doc, err := metadata.LoadFile(in.MetadataPath)
	if err != nil {
		cx.Warnf("could not load metadata file %s: %v", in.MetadataPath, err)
		return nil
	}
	return doc
}

func (a *Assembler) loadModel(in Inputs, cx *Context) *refl1d.Model {
	if in.Model != nil {
		return in.Model
	}
	if in.ModelPath == "" {
		return nil
	}
	model, err := refl1d.ParseFile(in.ModelPath)
	if err != nil {
		cx.Warnf("could not load model file %s: %v", in.ModelPath, err)
		return nil
	}
	return model
}

package assembly

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"reflcore/internal/instruments"
	"reflcore/internal/metadata"
	"reflcore/internal/reduced"
	"reflcore/internal/refl1d"
	"reflcore/pkg/domain"
)

// Sentinel strings used when identity fields cannot be determined.
const (
	unknownUpper = "UNKNOWN"
	unknownTitle = "Unknown"
)

// Measurement geometry labels derived from the model's leading layer.
const (
	geometryFront = "front reflection"
	geometryBack  = "back reflection"
)

// buildReflectivity assembles the measurement record from the reduced curve,
// preferring instrument metadata over the reduced-file header when both
// exist. Any unexpected failure is recorded and yields a nil record.
func (a *Assembler) buildReflectivity(
	curve *reduced.Curve,
	doc *metadata.Document,
	stack refl1d.Stack,
	hasModel bool,
	handler instruments.Handler,
	cx *Context,
) (record *domain.Reflectivity) {
	defer func() {
		if r := recover(); r != nil {
			cx.Errorf("failed to build reflectivity record: %v", r)
			record = nil
		}
	}()

	var (
		proposal    string
		runNumber   string
		runTitle    string
		instrument  string
		runStart    time.Time
		rawFilePath *string
	)

	if doc != nil {
		proposal = doc.ExperimentIdentifier
		if proposal == "" {
			proposal = unknownUpper
		}
		runNumber = strconv.FormatInt(doc.RunNumber, 10)
		runTitle = firstNonEmpty(doc.Title, curve.RunTitle, unknownTitle)
		instrument = doc.InstrumentID
		runStart = a.parseStartTime(doc.StartTime, cx)
		if doc.SourcePath != "" {
			path := doc.SourcePath
			rawFilePath = &path
		}
	} else {
		proposal = firstNonEmpty(curve.ExperimentID, unknownUpper)
		if curve.RunNumber != nil {
			runNumber = strconv.Itoa(*curve.RunNumber)
		} else {
			runNumber = unknownUpper
		}
		runTitle = firstNonEmpty(curve.RunTitle, unknownTitle)
		// Default assumption when no instrument metadata exists.
		instrument = "REF_L"
		if curve.RunStart != nil {
			runStart = curve.RunStart.UTC()
		} else {
			runStart = a.cxNow(cx)
		}
		if proposal == unknownUpper {
			cx.Warnf("proposal number not found, using %q", unknownUpper)
		}
	}

	var reductionParams *string
	if curve.QSumming != nil || curve.TOFWeighted != nil || curve.BckInQ != nil || curve.ThetaOffset != nil {
		payload, err := json.Marshal(map[string]any{
			"q_summing":    curve.QSumming,
			"tof_weighted": curve.TOFWeighted,
			"bck_in_q":     curve.BckInQ,
			"theta_offset": curve.ThetaOffset,
		})
		if err == nil {
			s := string(payload)
			reductionParams = &s
		}
	}

	var geometry *string
	if hasModel && len(stack) > 0 {
		label := geometryBack
		if stack[0].Thickness != 0 {
			label = geometryFront
		}
		geometry = &label
	} else {
		cx.Review("measurement_geometry", "no model supplied; geometry cannot be derived from the layer stack")
	}

	var reductionVersion *string
	if curve.ReductionVersion != "" {
		v := curve.ReductionVersion
		reductionVersion = &v
	}
	var techniqueDescription *string
	if handler.Defaults.TechniqueDescription != "" {
		d := handler.Defaults.TechniqueDescription
		techniqueDescription = &d
	}

	record = &domain.Reflectivity{
		Base: domain.Base{
			ID:        cx.newID(),
			CreatedAt: a.cxNow(cx),
		},
		ProposalNumber:       proposal,
		Facility:             handler.Defaults.Facility,
		Laboratory:           handler.Defaults.Laboratory,
		Probe:                handler.Defaults.Probe,
		Technique:            handler.Defaults.Technique,
		TechniqueDescription: techniqueDescription,
		RunTitle:             runTitle,
		RunNumber:            runNumber,
		RunStart:             runStart,
		RawFilePath:          rawFilePath,
		InstrumentName:       instrument,
		Reflectivity: domain.ReflectivityCurve{
			MeasurementGeometry: geometry,
			ReductionTime:       curve.ReductionTime,
			ReductionVersion:    reductionVersion,
			ReductionParameters: reductionParams,
			Q:                   curve.Q,
			R:                   curve.R,
			DR:                  curve.DR,
			DQ:                  curve.DQ,
		},
	}

	if handler.Validate != nil {
		for _, warning := range handler.Validate(&record.Reflectivity) {
			cx.Warnf("%s", warning)
		}
	}

	return record
}

// parseStartTime parses the metadata start time, warning and substituting
// the current time when the value is unparseable or absent.
func (a *Assembler) parseStartTime(value string, cx *Context) time.Time {
	if value == "" {
		return a.cxNow(cx)
	}
	normalized := strings.Replace(value, "Z", "+00:00", 1)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t.UTC()
		}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC()
	}
	cx.Warnf("could not parse start_time: %s", value)
	return a.cxNow(cx)
}

func (a *Assembler) cxNow(cx *Context) time.Time {
	return cx.now()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

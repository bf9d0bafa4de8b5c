// Package reduced parses the reduced reflectivity text files produced by
// the SNS reduction software: a commented header with run metadata followed
// by whitespace-separated Q/R/dR/dQ columns.
package reduced

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Run describes a single data run folded into a reduction, as listed in the
// header's run table.
type Run struct {
	DataRun   int
	NormRun   int
	TwoTheta  float64
	LambdaMin float64
	LambdaMax float64
	QMin      float64
	QMax      float64
	ScaleA    float64
	ScaleB    float64
}

// Curve is a parsed reduced reflectivity dataset: header metadata plus the
// Q/R/dR/dQ columns.
type Curve struct {
	FilePath string

	ExperimentID     string
	RunNumber        *int
	ReductionVersion string
	RunTitle         string
	RunStart         *time.Time
	ReductionTime    *time.Time

	QSumming    *bool
	TOFWeighted *bool
	BckInQ      *bool
	ThetaOffset *float64

	Runs []Run

	Q  []float64
	R  []float64
	DR []float64
	DQ []float64
}

// NumPoints returns the number of data points.
func (c *Curve) NumPoints() int { return len(c.Q) }

// QRange returns the Q extent, or zeros for an empty curve.
func (c *Curve) QRange() (float64, float64) {
	if len(c.Q) == 0 {
		return 0, 0
	}
	lo, hi := c.Q[0], c.Q[0]
	for _, q := range c.Q[1:] {
		if q < lo {
			lo = q
		}
		if q > hi {
			hi = q
		}
	}
	return lo, hi
}

// PrimaryRun returns the first data run from the run table, falling back to
// the header run number.
func (c *Curve) PrimaryRun() *int {
	if len(c.Runs) > 0 {
		run := c.Runs[0].DataRun
		return &run
	}
	return c.RunNumber
}

var (
	experimentPattern    = regexp.MustCompile(`(?i)Experiment\s+(IPTS-\d+)\s+Run\s+(\d+)`)
	reductionPattern     = regexp.MustCompile(`(?i)^Reduction\s+(.+)$`)
	runTitlePattern      = regexp.MustCompile(`(?i)Run title:\s*(.+)$`)
	runStartPattern      = regexp.MustCompile(`(?i)Run start time:\s*(.+)$`)
	reductionTimePattern = regexp.MustCompile(`(?i)Reduction time:\s*(.+)$`)
	qSummingPattern      = regexp.MustCompile(`(?i)Q summing:\s*(True|False)`)
	tofWeightedPattern   = regexp.MustCompile(`(?i)TOF weighted:\s*(True|False)`)
	bckInQPattern        = regexp.MustCompile(`(?i)Bck in Q:\s*(True|False)`)
	thetaOffsetPattern   = regexp.MustCompile(`(?i)Theta offset:\s*([\d.eE+-]+)`)

	runTablePattern = regexp.MustCompile(
		`^\s*(\d+)\s+(\d+)\s+([\d.eE+-]+)\s+([\d.eE+-]+)\s+([\d.eE+-]+)\s+` +
			`([\d.eE+-]+)\s+([\d.eE+-]+)\s+([\d.eE+-]+)\s+([\d.eE+-]+)\s*$`)
)

// timeLayouts covers the timestamp formats the reduction software emits.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"01/02/2006 15:04:05",
}

// ParseFile reads and parses a reduced data file.
func ParseFile(path string) (*Curve, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reduced file: %w", err)
	}
	defer func() { _ = f.Close() }()
	curve, err := Parse(f)
	if err != nil {
		return nil, err
	}
	curve.FilePath = path
	return curve, nil
}

// Parse reads a reduced dataset from r. Header lines start with '#'; every
// remaining line with at least four numeric columns contributes a data
// point. Unrecognized header lines are skipped.
func Parse(r io.Reader) (*Curve, error) {
	curve := &Curve{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			parseHeaderLine(curve, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#")))
			continue
		}
		parseDataLine(curve, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reduced data: %w", err)
	}
	if len(curve.Q) == 0 {
		return nil, fmt.Errorf("no data points found")
	}
	return curve, nil
}

func parseHeaderLine(curve *Curve, line string) {
	if m := experimentPattern.FindStringSubmatch(line); m != nil {
		curve.ExperimentID = m[1]
		if run, err := strconv.Atoi(m[2]); err == nil {
			curve.RunNumber = &run
		}
		return
	}
	if m := runTitlePattern.FindStringSubmatch(line); m != nil {
		curve.RunTitle = strings.TrimSpace(m[1])
		return
	}
	if m := runStartPattern.FindStringSubmatch(line); m != nil {
		curve.RunStart = parseTime(m[1])
		return
	}
	if m := reductionTimePattern.FindStringSubmatch(line); m != nil {
		curve.ReductionTime = parseTime(m[1])
		return
	}
	if m := qSummingPattern.FindStringSubmatch(line); m != nil {
		curve.QSumming = parseBool(m[1])
		return
	}
	if m := tofWeightedPattern.FindStringSubmatch(line); m != nil {
		curve.TOFWeighted = parseBool(m[1])
		return
	}
	if m := bckInQPattern.FindStringSubmatch(line); m != nil {
		curve.BckInQ = parseBool(m[1])
		return
	}
	if m := thetaOffsetPattern.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			curve.ThetaOffset = &v
		}
		return
	}
	if m := runTablePattern.FindStringSubmatch(line); m != nil {
		if run, ok := parseRunRow(m); ok {
			curve.Runs = append(curve.Runs, run)
		}
		return
	}
	if m := reductionPattern.FindStringSubmatch(line); m != nil {
		curve.ReductionVersion = strings.TrimSpace(m[1])
	}
}

func parseDataLine(curve *Curve, line string) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return
	}
	values := make([]float64, 0, 4)
	for _, field := range fields[:4] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return
		}
		values = append(values, v)
	}
	curve.Q = append(curve.Q, values[0])
	curve.R = append(curve.R, values[1])
	curve.DR = append(curve.DR, values[2])
	curve.DQ = append(curve.DQ, values[3])
}

func parseRunRow(m []string) (Run, bool) {
	dataRun, err1 := strconv.Atoi(m[1])
	normRun, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return Run{}, false
	}
	floats := make([]float64, 7)
	for i := 0; i < 7; i++ {
		v, err := strconv.ParseFloat(m[i+3], 64)
		if err != nil {
			return Run{}, false
		}
		floats[i] = v
	}
	return Run{
		DataRun:   dataRun,
		NormRun:   normRun,
		TwoTheta:  floats[0],
		LambdaMin: floats[1],
		LambdaMax: floats[2],
		QMin:      floats[3],
		QMax:      floats[4],
		ScaleA:    floats[5],
		ScaleB:    floats[6],
	}, true
}

func parseTime(value string) *time.Time {
	value = strings.TrimSpace(strings.Replace(value, "Z", "+00:00", 1))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSuffix(value, "+00:00")); err == nil {
			t = t.UTC()
			return &t
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.Replace(value, "+00:00", "Z", 1)); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}

func parseBool(value string) *bool {
	b := strings.EqualFold(value, "true")
	return &b
}

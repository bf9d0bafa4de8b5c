// Package metadata defines the instrument-metadata contract produced by the
// upstream parquet extraction stage: run identity plus the DAS-log channel
// map recorded by the data-acquisition system.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// DASLog is one data-acquisition channel, aggregated over a run.
type DASLog struct {
	AverageValue *float64 `json:"average_value"`
	MinValue     *float64 `json:"min_value"`
	MaxValue     *float64 `json:"max_value"`
	ValueNumeric *float64 `json:"value_numeric"`
	Value        string   `json:"value,omitempty"`
}

// SampleInfo carries the sample description logged with the run.
type SampleInfo struct {
	Name string `json:"name"`
}

// Document is the instrument metadata for a single run. It is created once
// per ingestion call and read-only thereafter.
type Document struct {
	InstrumentID         string            `json:"instrument_id"`
	RunNumber            int64             `json:"run_number"`
	ExperimentIdentifier string            `json:"experiment_identifier"`
	Title                string            `json:"title"`
	StartTime            string            `json:"start_time"`
	EndTime              string            `json:"end_time,omitempty"`
	SourcePath           string            `json:"source_path,omitempty"`
	DirectoryPath        string            `json:"directory_path,omitempty"`
	Sample               *SampleInfo       `json:"sample,omitempty"`
	DASLogs              map[string]DASLog `json:"daslogs"`
}

// LogValue returns the first numeric reading found under any of the given
// channel names, preferring the run average over the last point value. NaN
// averages are skipped.
func (d *Document) LogValue(names ...string) *float64 {
	for _, name := range names {
		log, ok := d.DASLogs[name]
		if !ok {
			continue
		}
		if log.AverageValue != nil && !math.IsNaN(*log.AverageValue) {
			return log.AverageValue
		}
		if log.ValueNumeric != nil {
			return log.ValueNumeric
		}
	}
	return nil
}

// LogRange returns the min/max readings for the first matching channel.
func (d *Document) LogRange(names ...string) (*float64, *float64) {
	for _, name := range names {
		if log, ok := d.DASLogs[name]; ok {
			return log.MinValue, log.MaxValue
		}
	}
	return nil, nil
}

// LogString returns the first non-empty string reading under the given
// channel names.
func (d *Document) LogString(names ...string) string {
	for _, name := range names {
		if log, ok := d.DASLogs[name]; ok && log.Value != "" {
			return log.Value
		}
	}
	return ""
}

// LogNames lists the recorded channel names.
func (d *Document) LogNames() []string {
	names := make([]string, 0, len(d.DASLogs))
	for name := range d.DASLogs {
		names = append(names, name)
	}
	return names
}

// Decode reads a metadata document from JSON.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &doc, nil
}

// LoadFile reads a metadata JSON document from disk.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata file: %w", err)
	}
	defer func() { _ = f.Close() }()
	doc, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if doc.SourcePath == "" {
		doc.SourcePath = path
	}
	return doc, nil
}

// Package export materializes assembled record sets into lakehouse upload
// artifacts (JSON bundles, CSV curves, parquet surrogates) and writes them
// to a blob store asynchronously, keeping an audit trail per job.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"reflcore/internal/assembly"
	"reflcore/internal/blob"
)

// Status describes the lifecycle stage of an export job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Format identifies an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	// FormatParquet currently encodes rows as JSON; the key and content
	// type are stable so a true parquet writer can slot in later.
	FormatParquet Format = "parquet"
)

var supportedFormats = map[Format]struct{}{
	FormatJSON:    {},
	FormatCSV:     {},
	FormatParquet: {},
}

// Artifact describes one stored export artifact.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Record tracks an export job and its resulting artifacts.
type Record struct {
	ID          string     `json:"id"`
	RunNumber   string     `json:"run_number"`
	Formats     []Format   `json:"formats"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifacts   []Artifact `json:"artifacts,omitempty"`
	RequestedBy string     `json:"requested_by"`
	Reason      string     `json:"reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (r Record) copy() Record {
	dup := r
	dup.Formats = append([]Format(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	return dup
}

// Request enqueues one outcome for export.
type Request struct {
	Outcome     *assembly.Outcome
	Formats     []Format
	RequestedBy string
	Reason      string
}

// AuditEntry captures audit trail metadata for export jobs.
type AuditEntry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	RunNumber  string         `json:"run_number"`
	Status     Status         `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

type task struct {
	id      string
	outcome *assembly.Outcome
}

// Worker executes export jobs asynchronously from an in-process queue.
type Worker struct {
	store blob.Store
	audit AuditLogger
	log   *slog.Logger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs an export worker writing artifacts to store. A nil
// audit logger disables the audit trail; a nil logger discards logs.
func NewWorker(store blob.Store, audit AuditLogger, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		store:  store,
		audit:  audit,
		log:    log,
		queue:  make(chan task, 32),
		jobs:   map[string]*Record{},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing export jobs.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record snapshot.
func (w *Worker) Enqueue(ctx context.Context, req Request) (Record, error) {
	if req.Outcome == nil || req.Outcome.Reflectivity == nil {
		return Record{}, fmt.Errorf("outcome with a reflectivity record required")
	}

	formats := req.Formats
	if len(formats) == 0 {
		formats = []Format{FormatJSON, FormatParquet}
	}
	uniq := make([]Format, 0, len(formats))
	seen := map[Format]struct{}{}
	for _, format := range formats {
		if _, dup := seen[format]; dup {
			continue
		}
		if _, ok := supportedFormats[format]; !ok {
			return Record{}, fmt.Errorf("unsupported export format %s", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		RunNumber:   req.Outcome.Reflectivity.RunNumber,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: req.RequestedBy,
		Reason:      req.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	snapshot := record.copy()
	w.mu.Unlock()

	w.recordAudit(ctx, record, StatusQueued, nil)

	select {
	case w.queue <- task{id: id, outcome: req.Outcome}:
	default:
		return Record{}, fmt.Errorf("export queue full")
	}
	return snapshot, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(t task) {
	w.mu.RLock()
	record, ok := w.jobs[t.id]
	var formats []Format
	if ok {
		formats = append(formats, record.Formats...)
	}
	w.mu.RUnlock()
	if !ok {
		return
	}

	w.setStatus(t.id, StatusRunning, "")
	w.log.Info("export started", "job", t.id, "run", t.outcome.Reflectivity.RunNumber)

	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		artifact, payload, err := materialize(format, t.outcome)
		if err != nil {
			w.fail(t.id, err.Error())
			return
		}
		if w.store != nil {
			info, err := w.store.Put(w.ctx, artifact.Key, bytes.NewReader(payload), blob.PutOptions{ContentType: artifact.ContentType})
			if err != nil {
				w.fail(t.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			artifact.URL = info.URL
			if info.Size > 0 {
				artifact.SizeBytes = info.Size
			}
		}
		artifacts = append(artifacts, artifact)
	}
	w.complete(t.id, artifacts)
	w.log.Info("export finished", "job", t.id, "artifacts", len(artifacts))
}

func (w *Worker) setStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	var snapshot Record
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
		snapshot = record.copy()
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, snapshot, status, nil)
}

func (w *Worker) complete(id string, artifacts []Artifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	var snapshot Record
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
		snapshot = record.copy()
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, snapshot, StatusSucceeded, map[string]any{"artifacts": len(artifacts)})
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	var snapshot Record
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
		snapshot = record.copy()
	}
	w.mu.Unlock()
	w.recordAudit(w.ctx, snapshot, StatusFailed, map[string]any{"error": reason})
	w.log.Error("export failed", "job", id, "reason", reason)
}

func (w *Worker) recordAudit(ctx context.Context, record Record, status Status, metadata map[string]any) {
	if w.audit == nil || record.ID == "" {
		return
	}
	w.audit.Record(ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     "record_export",
		Actor:      record.RequestedBy,
		RunNumber:  record.RunNumber,
		Status:     status,
		Reason:     record.Reason,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	})
}

// materialize renders one outcome into the requested artifact encoding.
func materialize(format Format, out *assembly.Outcome) (Artifact, []byte, error) {
	run := out.Reflectivity.RunNumber
	now := time.Now().UTC()
	key := func(ext string) string {
		return fmt.Sprintf("exports/run-%s/%s.%s", run, uuid.NewString(), ext)
	}

	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return Artifact{}, nil, fmt.Errorf("marshal json bundle: %w", err)
		}
		return Artifact{Key: key("json"), Format: FormatJSON, ContentType: "application/json", SizeBytes: int64(len(payload)), CreatedAt: now}, payload, nil

	case FormatCSV:
		curve := out.Reflectivity.Reflectivity
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write([]string{"q", "r", "dr", "dq"}); err != nil {
			return Artifact{}, nil, err
		}
		for i := range curve.Q {
			row := []string{
				strconv.FormatFloat(curve.Q[i], 'g', -1, 64),
				value(curve.R, i), value(curve.DR, i), value(curve.DQ, i),
			}
			if err := writer.Write(row); err != nil {
				return Artifact{}, nil, err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return Artifact{}, nil, err
		}
		payload := buf.Bytes()
		return Artifact{Key: key("csv"), Format: FormatCSV, ContentType: "text/csv", SizeBytes: int64(len(payload)), CreatedAt: now}, payload, nil

	case FormatParquet:
		curve := out.Reflectivity.Reflectivity
		rows := make([]map[string]float64, 0, len(curve.Q))
		for i := range curve.Q {
			row := map[string]float64{"q": curve.Q[i]}
			if i < len(curve.R) {
				row["r"] = curve.R[i]
			}
			if i < len(curve.DR) {
				row["dr"] = curve.DR[i]
			}
			if i < len(curve.DQ) {
				row["dq"] = curve.DQ[i]
			}
			rows = append(rows, row)
		}
		payload, err := json.Marshal(rows)
		if err != nil {
			return Artifact{}, nil, fmt.Errorf("marshal parquet surrogate: %w", err)
		}
		return Artifact{Key: key("parquet"), Format: FormatParquet, ContentType: "application/octet-stream", SizeBytes: int64(len(payload)), CreatedAt: now}, payload, nil

	default:
		return Artifact{}, nil, fmt.Errorf("unsupported export format %s", format)
	}
}

func value(arr []float64, i int) string {
	if i >= len(arr) {
		return ""
	}
	return strconv.FormatFloat(arr[i], 'g', -1, 64)
}

// MemoryAuditLog captures audit entries in memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

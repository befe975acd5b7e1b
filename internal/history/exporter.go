// Package history renders population and lineage reports asynchronously and
// stores the resulting artifacts in a blob backend.
package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	blobcore "speciescore/internal/infra/blob/core"
	"speciescore/pkg/domain"
)

// ReportKind selects the data set a report renders.
type ReportKind string

const (
	// ReportPopulation renders one row per living species.
	ReportPopulation ReportKind = "population"
	// ReportLineage renders one row per recorded patch history entry.
	ReportLineage ReportKind = "lineage"
)

// ReportFormat identifies a rendered artifact encoding.
type ReportFormat string

const (
	// FormatJSON renders the report as a JSON document.
	FormatJSON ReportFormat = "json"
	// FormatCSV renders the report as comma-separated rows.
	FormatCSV ReportFormat = "csv"
)

// ReportStatus describes the lifecycle stage of a report request.
type ReportStatus string

const (
	StatusQueued    ReportStatus = "queued"
	StatusRunning   ReportStatus = "running"
	StatusSucceeded ReportStatus = "succeeded"
	StatusFailed    ReportStatus = "failed"
)

// ReportArtifact captures one stored rendering of a report.
type ReportArtifact struct {
	ID          string            `json:"id"`
	Format      ReportFormat      `json:"format"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	URL         string            `json:"url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ReportRecord tracks a report request and its resulting artifacts.
type ReportRecord struct {
	ID          string           `json:"id"`
	Kind        ReportKind       `json:"kind"`
	Formats     []ReportFormat   `json:"formats"`
	Status      ReportStatus     `json:"status"`
	Error       string           `json:"error,omitempty"`
	Artifacts   []ReportArtifact `json:"artifacts,omitempty"`
	RequestedBy string           `json:"requested_by"`
	Reason      string           `json:"reason,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// ReportInput represents an enqueue request for the worker.
type ReportInput struct {
	Kind        ReportKind
	Formats     []ReportFormat
	RequestedBy string
	Reason      string
}

// Source supplies the data a report renders. The registry's persistent store
// satisfies it.
type Source interface {
	ListSpecies() []domain.SpeciesVariant
	ListPatches() []domain.PatchRecord
}

// AuditLogger records report audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures audit trail metadata for report runs.
type AuditEntry struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	Actor      string            `json:"actor"`
	Kind       ReportKind        `json:"kind"`
	Status     ReportStatus      `json:"status"`
	Reason     string            `json:"reason,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Worker executes report requests asynchronously.
type Worker struct {
	source Source
	store  blobcore.Store
	audit  AuditLogger

	queue chan reportTask
	mu    sync.RWMutex
	jobs  map[string]*ReportRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type reportTask struct {
	id   string
	kind ReportKind
}

// NewWorker constructs a report worker over the given source and blob store.
func NewWorker(source Source, store blobcore.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		store:  store,
		audit:  audit,
		queue:  make(chan reportTask, 32),
		jobs:   make(map[string]*ReportRecord),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing report requests.
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
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// Enqueue schedules a report run and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input ReportInput) (ReportRecord, error) {
	if w.source == nil {
		return ReportRecord{}, fmt.Errorf("report source not configured")
	}
	switch input.Kind {
	case ReportPopulation, ReportLineage:
	default:
		return ReportRecord{}, fmt.Errorf("unknown report kind %q", input.Kind)
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []ReportFormat{FormatJSON, FormatCSV}
	}
	uniq := make([]ReportFormat, 0, len(formats))
	seen := make(map[ReportFormat]struct{})
	for _, format := range formats {
		if _, dup := seen[format]; dup {
			continue
		}
		switch format {
		case FormatJSON, FormatCSV:
		default:
			return ReportRecord{}, fmt.Errorf("unsupported report format %q", format)
		}
		uniq = append(uniq, format)
		seen[format] = struct{}{}
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	record := ReportRecord{
		ID:          id,
		Kind:        input.Kind,
		Formats:     uniq,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record.copy()
	w.mu.Unlock()

	w.record(ctx, id, StatusQueued, nil)

	select {
	case w.queue <- reportTask{id: id, kind: input.Kind}:
	default:
		return ReportRecord{}, fmt.Errorf("report queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the report record.
func (w *Worker) Get(id string) (ReportRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return ReportRecord{}, false
	}
	return record.copy(), true
}

func (w *Worker) process(task reportTask) {
	w.updateStatus(task.id, StatusRunning, "")

	columns, rows := w.buildRows(task.kind)
	formats := w.formatsFor(task.id)

	artifacts := make([]ReportArtifact, 0, len(formats))
	for _, format := range formats {
		artifact, payload, err := w.render(task, format, columns, rows)
		if err != nil {
			w.fail(task.id, err.Error())
			return
		}
		if w.store != nil {
			key := fmt.Sprintf("reports/%s/%s.%s", task.kind, task.id, format)
			info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blobcore.PutOptions{
				ContentType: artifact.ContentType,
				Metadata:    artifact.Metadata,
			})
			if err != nil {
				w.fail(task.id, fmt.Sprintf("store artifact: %v", err))
				return
			}
			artifact.URL = info.URL
		}
		artifacts = append(artifacts, artifact)
	}

	w.complete(task.id, artifacts)
}

func (w *Worker) buildRows(kind ReportKind) ([]string, [][]string) {
	switch kind {
	case ReportLineage:
		columns := []string{"species_id", "name", "generation", "colour", "recorded_at"}
		patches := w.source.ListPatches()
		rows := make([][]string, 0, len(patches))
		for _, patch := range patches {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(patch.Info.ID), 10),
				patch.Name,
				strconv.FormatInt(int64(patch.Generation), 10),
				formatColour(patch.Colour),
				patch.RecordedAt.UTC().Format(time.RFC3339),
			})
		}
		return columns, rows
	default:
		columns := []string{"id", "identifier", "variant", "generation", "player", "genome"}
		species := w.source.ListSpecies()
		rows := make([][]string, 0, len(species))
		for _, variant := range species {
			base := variant.Base()
			rows = append(rows, []string{
				strconv.FormatUint(uint64(base.ID), 10),
				base.FormattedIdentifier(),
				string(variant.Kind()),
				strconv.FormatInt(int64(base.Generation), 10),
				strconv.FormatBool(base.PlayerSpecies),
				variant.StringCode(),
			})
		}
		return columns, rows
	}
}

func (w *Worker) render(task reportTask, format ReportFormat, columns []string, rows [][]string) (ReportArtifact, []byte, error) {
	var payload []byte
	var contentType string
	switch format {
	case FormatJSON:
		doc := struct {
			Kind        ReportKind          `json:"kind"`
			GeneratedAt time.Time           `json:"generated_at"`
			Rows        []map[string]string `json:"rows"`
		}{Kind: task.kind, GeneratedAt: time.Now().UTC()}
		for _, row := range rows {
			entry := make(map[string]string, len(columns))
			for i, column := range columns {
				entry[column] = row[i]
			}
			doc.Rows = append(doc.Rows, entry)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return ReportArtifact{}, nil, fmt.Errorf("marshal json report: %w", err)
		}
		payload = data
		contentType = "application/json"
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(columns); err != nil {
			return ReportArtifact{}, nil, err
		}
		for _, row := range rows {
			if err := writer.Write(row); err != nil {
				return ReportArtifact{}, nil, err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return ReportArtifact{}, nil, err
		}
		payload = buf.Bytes()
		contentType = "text/csv"
	default:
		return ReportArtifact{}, nil, fmt.Errorf("unsupported report format %s", format)
	}
	artifact := ReportArtifact{
		ID:          uuid.NewString(),
		Format:      format,
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
		Metadata:    map[string]string{"rows": strconv.Itoa(len(rows))},
		CreatedAt:   time.Now().UTC(),
	}
	return artifact, payload, nil
}

func (w *Worker) formatsFor(id string) []ReportFormat {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if record, ok := w.jobs[id]; ok {
		return append([]ReportFormat(nil), record.Formats...)
	}
	return nil
}

func (w *Worker) updateStatus(id string, status ReportStatus, message string) {
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = time.Now().UTC()
	}
	w.mu.Unlock()
	w.record(w.ctx, id, status, nil)
}

func (w *Worker) complete(id string, artifacts []ReportArtifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, id, StatusSucceeded, nil)
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.record(w.ctx, id, StatusFailed, map[string]string{"error": reason})
}

func (w *Worker) record(ctx context.Context, id string, status ReportStatus, metadata map[string]string) {
	if w.audit == nil {
		return
	}
	var actor string
	var kind ReportKind
	var reason string
	w.mu.RLock()
	if rec, ok := w.jobs[id]; ok {
		actor = rec.RequestedBy
		kind = rec.Kind
		reason = rec.Reason
	}
	w.mu.RUnlock()
	w.audit.Record(ctx, AuditEntry{
		ID:         uuid.NewString(),
		Action:     "history_report",
		Actor:      actor,
		Kind:       kind,
		Status:     status,
		Reason:     reason,
		Metadata:   metadata,
		OccurredAt: time.Now().UTC(),
	})
}

func formatColour(c domain.Colour) string {
	parts := []string{
		strconv.FormatFloat(c.R, 'f', 3, 64),
		strconv.FormatFloat(c.G, 'f', 3, 64),
		strconv.FormatFloat(c.B, 'f', 3, 64),
	}
	return strings.Join(parts, "/")
}

func (r ReportRecord) copy() ReportRecord {
	dup := r
	dup.Formats = append([]ReportFormat(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]ReportArtifact(nil), r.Artifacts...)
	}
	return dup
}

// MemoryAuditLog captures audit entries in-memory for assertions.
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

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

package history

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	blobmemory "speciescore/internal/infra/blob/memory"
	"speciescore/pkg/domain"
)

type staticSource struct {
	species []domain.SpeciesVariant
	patches []domain.PatchRecord
}

func (s staticSource) ListSpecies() []domain.SpeciesVariant { return s.species }
func (s staticSource) ListPatches() []domain.PatchRecord    { return s.patches }

func waitForReport(t *testing.T, w *Worker, id string) ReportRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := w.Get(id)
		if !ok {
			t.Fatalf("report %s vanished", id)
		}
		if record.Status == StatusSucceeded || record.Status == StatusFailed {
			return record
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("report %s did not finish", id)
	return ReportRecord{}
}

func TestPopulationReportRendersBothFormats(t *testing.T) {
	microbe := domain.NewMicrobeSpecies(12, "Testus", "exampleus")
	if err := microbe.SetStringCode("NMC"); err != nil {
		t.Fatalf("set genome: %v", err)
	}
	source := staticSource{species: []domain.SpeciesVariant{microbe}}
	store := blobmemory.New()
	audit := &MemoryAuditLog{}

	worker := NewWorker(source, store, audit)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	queued, err := worker.Enqueue(context.Background(), ReportInput{Kind: ReportPopulation, RequestedBy: "tester"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	record := waitForReport(t, worker, queued.ID)
	if record.Status != StatusSucceeded {
		t.Fatalf("report failed: %s", record.Error)
	}
	if len(record.Artifacts) != 2 {
		t.Fatalf("expected json+csv artifacts, got %d", len(record.Artifacts))
	}

	infos, err := store.List(context.Background(), "reports/population/")
	if err != nil {
		t.Fatalf("list artifacts: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 stored artifacts, got %d", len(infos))
	}

	var jsonKey string
	for _, info := range infos {
		if strings.HasSuffix(info.Key, ".json") {
			jsonKey = info.Key
		}
	}
	_, rc, err := store.Get(context.Background(), jsonKey)
	if err != nil {
		t.Fatalf("get json artifact: %v", err)
	}
	payload, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var doc struct {
		Kind ReportKind          `json:"kind"`
		Rows []map[string]string `json:"rows"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if doc.Kind != ReportPopulation || len(doc.Rows) != 1 {
		t.Fatalf("unexpected report body: %+v", doc)
	}
	if doc.Rows[0]["identifier"] != "Testus exampleus (12)" {
		t.Fatalf("unexpected identifier %q", doc.Rows[0]["identifier"])
	}
	if doc.Rows[0]["genome"] != "NMC" {
		t.Fatalf("unexpected genome %q", doc.Rows[0]["genome"])
	}

	statuses := make(map[ReportStatus]bool)
	for _, entry := range audit.Entries() {
		statuses[entry.Status] = true
		if entry.Action != "history_report" {
			t.Fatalf("unexpected audit action %q", entry.Action)
		}
	}
	if !statuses[StatusQueued] || !statuses[StatusRunning] || !statuses[StatusSucceeded] {
		t.Fatalf("audit trail incomplete: %v", statuses)
	}
}

func TestLineageReportRowsFollowPatchHistory(t *testing.T) {
	patches := []domain.PatchRecord{
		{Info: domain.SpeciesInfo{ID: 3}, Name: "Primus cellula", Generation: 1, RecordedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{Info: domain.SpeciesInfo{ID: 3}, Name: "Primus cellula", Generation: 2, RecordedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
	}
	worker := NewWorker(staticSource{patches: patches}, blobmemory.New(), nil)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	queued, err := worker.Enqueue(context.Background(), ReportInput{Kind: ReportLineage, Formats: []ReportFormat{FormatCSV}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	record := waitForReport(t, worker, queued.ID)
	if record.Status != StatusSucceeded {
		t.Fatalf("report failed: %s", record.Error)
	}
	if len(record.Artifacts) != 1 || record.Artifacts[0].Format != FormatCSV {
		t.Fatalf("unexpected artifacts: %+v", record.Artifacts)
	}
	if record.Artifacts[0].Metadata["rows"] != "2" {
		t.Fatalf("expected 2 rows, metadata %v", record.Artifacts[0].Metadata)
	}
}

func TestEnqueueValidatesInput(t *testing.T) {
	worker := NewWorker(staticSource{}, nil, nil)

	if _, err := worker.Enqueue(context.Background(), ReportInput{Kind: "bogus"}); err == nil {
		t.Fatalf("expected unknown kind to be rejected")
	}
	if _, err := worker.Enqueue(context.Background(), ReportInput{Kind: ReportPopulation, Formats: []ReportFormat{"yaml"}}); err == nil {
		t.Fatalf("expected unsupported format to be rejected")
	}
}

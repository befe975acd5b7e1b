package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatalf("expected generated export name")
	}

	rec.Observe(context.Background(), "create_species", true, 20*time.Millisecond)
	rec.Observe(context.Background(), "create_species", false, 5*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	snapshot := rec.Snapshot()
	if snapshot.DurationsMS["create_species"] != 25 {
		t.Fatalf("unexpected duration total %v", snapshot.DurationsMS)
	}
	results := snapshot.Results["create_species"]
	if results["success"] != 1 || results["error"] != 1 {
		t.Fatalf("unexpected result counters %v", results)
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	buf := &bytes.Buffer{}
	tracer := NewJSONTracer(buf)

	_, span := tracer.Start(context.Background(), "apply_mutation")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "apply_mutation")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if !strings.Contains(buf.String(), "apply_mutation") {
		t.Fatalf("span not serialized: %q", buf.String())
	}
}

func TestPrometheusMetricsRecorderRegistersCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	rec.Observe(context.Background(), "create_species", true, 10*time.Millisecond)
	rec.Observe(context.Background(), "create_species", false, 10*time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	if !names["speciescore_service_operation_duration_seconds"] || !names["speciescore_service_operation_results_total"] {
		t.Fatalf("expected collectors registered, got %v", names)
	}

	// Double registration against the same registry must fail.
	if _, err := NewPrometheusMetricsRecorder(registry); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

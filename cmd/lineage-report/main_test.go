package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"speciescore/internal/core"
	"speciescore/internal/history"
	"speciescore/internal/infra/persistence/sqlite"
	"speciescore/pkg/domain"
)

func seedDatabase(t *testing.T, path string) {
	t.Helper()
	store, err := sqlite.NewStore(path, core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	microbe := domain.NewMicrobeSpecies(1, "Testus", "exampleus")
	if err := microbe.SetStringCode("NMC"); err != nil {
		t.Fatalf("set genome: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx sqlite.Transaction) error {
		_, txErr := tx.CreateSpecies(microbe)
		return txErr
	})
	if err != nil {
		t.Fatalf("seed species: %v", err)
	}
}

func TestCLIRendersPopulationReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "species.db")
	seedDatabase(t, dbPath)
	t.Setenv("SPECIESCORE_BLOB_DRIVER", "fs")
	t.Setenv("SPECIESCORE_BLOB_FS_ROOT", filepath.Join(dir, "blobs"))

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := cli([]string{"-db", dbPath, "-kind", "population"}, stdout, stderr)
	if code != 0 {
		t.Fatalf("cli exited %d: %s", code, stderr.String())
	}

	var record history.ReportRecord
	if err := json.Unmarshal(stdout.Bytes(), &record); err != nil {
		t.Fatalf("decode output: %v\n%s", err, stdout.String())
	}
	if record.Status != history.StatusSucceeded {
		t.Fatalf("unexpected status %s", record.Status)
	}
	if len(record.Artifacts) != 2 {
		t.Fatalf("expected json+csv artifacts, got %d", len(record.Artifacts))
	}
}

func TestCLIRejectsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "species.db")
	seedDatabase(t, dbPath)
	t.Setenv("SPECIESCORE_BLOB_DRIVER", "memory")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	if code := cli([]string{"-db", dbPath, "-kind", "bogus"}, stdout, stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestCLIRejectsBadFlags(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	if code := cli([]string{"-nonsense"}, stdout, stderr); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"speciescore/pkg/domain"
)

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	microbe := domain.NewMicrobeSpecies(11, "Testus", "exampleus")
	microbe.PlayerSpecies = true
	if err := microbe.SetStringCode("NMC"); err != nil {
		t.Fatalf("set genome: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, txErr := tx.CreateSpecies(microbe); txErr != nil {
			return txErr
		}
		_, txErr := tx.AppendPatch(domain.NewPatchRecord(&microbe.Species, time.Now()))
		return txErr
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	variant, ok := reopened.GetSpecies(11)
	if !ok {
		t.Fatalf("species 11 lost across reopen")
	}
	restored, ok := variant.(*domain.MicrobeSpecies)
	if !ok {
		t.Fatalf("variant type lost across reopen: %T", variant)
	}
	if got := restored.StringCode(); got != "NMC" {
		t.Fatalf("genome lost across reopen: %q", got)
	}
	if !restored.PlayerSpecies {
		t.Fatalf("player flag lost across reopen")
	}
	if got := len(reopened.ListPatches()); got != 1 {
		t.Fatalf("expected 1 patch after reopen, got %d", got)
	}
	if got := reopened.LastIdentifier(); got != 11 {
		t.Fatalf("identifier watermark lost across reopen: %d", got)
	}
}

func TestStoreDoesNotPersistFailedTransaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "species.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	bad := domain.NewMicrobeSpecies(0, "Nullus", "idensis")
	_, err = store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, txErr := tx.CreateSpecies(bad)
		return txErr
	})
	if err == nil {
		t.Fatalf("expected zero identifier rejection")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if got := len(reopened.ListSpecies()); got != 0 {
		t.Fatalf("failed transaction left %d species", got)
	}
}

func TestStoreDefaultsPath(t *testing.T) {
	dir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if got := store.Path(); got != "speciescore.db" {
		t.Fatalf("unexpected default path %q", got)
	}
}

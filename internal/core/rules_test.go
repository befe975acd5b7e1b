package core

import (
	"context"
	"errors"
	"testing"

	"speciescore/internal/infra/persistence/memory"
	"speciescore/pkg/domain"
)

func TestColourRangeRuleBlocksOutOfRangeChannels(t *testing.T) {
	service := newTestService()

	bad := domain.NewMicrobeSpecies(0, "Testus", "exampleus")
	bad.Colour = domain.Colour{R: 1.5, G: 0.2, B: 0.2}
	_, res, err := service.CreateSpecies(context.Background(), bad)
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	var found bool
	for _, v := range res.Violations {
		if v.Rule == "colour_range" && v.Severity == domain.SeverityBlock {
			found = true
		}
	}
	if !found {
		t.Fatalf("colour_range violation missing: %+v", res.Violations)
	}
	if got := len(service.ListSpecies()); got != 0 {
		t.Fatalf("blocked species committed: %d", got)
	}
}

func TestBehaviourBoundsRuleWarnsWithoutBlocking(t *testing.T) {
	service := newTestService()

	odd := domain.NewMicrobeSpecies(0, "Testus", "exampleus")
	odd.Behaviour[domain.TraitAggression] = 999
	created, res, err := service.CreateSpecies(context.Background(), odd)
	if err != nil {
		t.Fatalf("warning must not block commit: %v", err)
	}
	if created == nil {
		t.Fatalf("expected committed species")
	}
	var found bool
	for _, v := range res.Violations {
		if v.Rule == "behaviour_bounds" && v.Severity == domain.SeverityWarn {
			found = true
		}
	}
	if !found {
		t.Fatalf("behaviour_bounds warning missing: %+v", res.Violations)
	}
}

func TestGenerationMonotonicRuleBlocksRewind(t *testing.T) {
	engine := NewDefaultRulesEngine()
	store := memory.NewStore(engine)
	service := NewService(store, engine)
	created := mustCreateMicrobe(t, service, "Testus", "exampleus")
	if _, _, err := service.AdvanceGeneration(context.Background(), created.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, txErr := tx.UpdateSpecies(created.ID, func(variant SpeciesVariant) error {
			variant.Base().Generation = 1
			return nil
		})
		return txErr
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected generation rewind to be blocked, got %v", err)
	}

	stored, _ := service.GetSpecies(created.ID)
	if stored.Base().Generation != 2 {
		t.Fatalf("rewind committed: generation %d", stored.Base().Generation)
	}
}

func TestGenerationMonotonicRuleBlocksPlayerFlagClear(t *testing.T) {
	engine := NewDefaultRulesEngine()
	store := memory.NewStore(engine)
	service := NewService(store, engine)
	created := mustCreateMicrobe(t, service, "Testus", "exampleus")
	if _, _, err := service.BecomePlayerSpecies(context.Background(), created.ID); err != nil {
		t.Fatalf("become player: %v", err)
	}

	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, txErr := tx.UpdateSpecies(created.ID, func(variant SpeciesVariant) error {
			variant.Base().PlayerSpecies = false
			return nil
		})
		return txErr
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected player flag clear to be blocked, got %v", err)
	}

	stored, _ := service.GetSpecies(created.ID)
	if !stored.Base().PlayerSpecies {
		t.Fatalf("player flag clear committed")
	}
}

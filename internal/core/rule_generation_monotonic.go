package core

import (
	"context"
	"fmt"

	"speciescore/pkg/domain"
)

// NewGenerationMonotonicRule returns the rule blocking updates that rewind a
// species' generation counter or clear its player flag.
func NewGenerationMonotonicRule() domain.Rule {
	return generationMonotonicRule{}
}

type generationMonotonicRule struct{}

func (generationMonotonicRule) Name() string { return "generation_monotonic" }

func (generationMonotonicRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntitySpecies || change.Action != domain.ActionUpdate {
			continue
		}
		if change.Before == nil || change.After == nil {
			continue
		}
		before := change.Before.Base()
		after := change.After.Base()
		if after.Generation < before.Generation {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:      "generation_monotonic",
				Severity:  domain.SeverityBlock,
				Message:   fmt.Sprintf("species %d generation rewound %d -> %d", change.ID, before.Generation, after.Generation),
				SpeciesID: change.ID,
			})
		}
		if before.PlayerSpecies && !after.PlayerSpecies {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:      "generation_monotonic",
				Severity:  domain.SeverityBlock,
				Message:   fmt.Sprintf("species %d player flag cleared", change.ID),
				SpeciesID: change.ID,
			})
		}
	}
	return res, nil
}

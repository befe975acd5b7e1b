package core

import (
	"context"
	"fmt"

	"speciescore/pkg/domain"
)

// NewSinglePlayerRule returns the rule enforcing that at most one species
// carries the player flag.
func NewSinglePlayerRule() domain.Rule {
	return singlePlayerRule{}
}

type singlePlayerRule struct{}

func (singlePlayerRule) Name() string { return "single_player_species" }

func (singlePlayerRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	var seen []uint32
	for _, variant := range view.ListSpecies() {
		base := variant.Base()
		if base.PlayerSpecies {
			seen = append(seen, base.ID)
		}
	}
	if len(seen) > 1 {
		for _, id := range seen {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:      "single_player_species",
				Severity:  domain.SeverityBlock,
				Message:   fmt.Sprintf("%d species carry the player flag", len(seen)),
				SpeciesID: id,
			})
		}
	}
	return res, nil
}

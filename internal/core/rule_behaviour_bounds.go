package core

import (
	"context"
	"fmt"

	"speciescore/pkg/domain"
)

// Behaviour values outside this range are almost always editor bugs, but the
// simulation tolerates them, so the rule warns instead of blocking.
const (
	behaviourMin = 0
	behaviourMax = 400
)

// NewBehaviourBoundsRule returns the rule auditing behaviour trait values.
func NewBehaviourBoundsRule() domain.Rule {
	return behaviourBoundsRule{}
}

type behaviourBoundsRule struct{}

func (behaviourBoundsRule) Name() string { return "behaviour_bounds" }

func (behaviourBoundsRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, variant := range view.ListSpecies() {
		base := variant.Base()
		for trait, value := range base.Behaviour {
			if value >= behaviourMin && value <= behaviourMax {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:      "behaviour_bounds",
				Severity:  domain.SeverityWarn,
				Message:   fmt.Sprintf("species %s trait %s=%.2f outside [%d,%d]", base.FormattedIdentifier(), trait, value, behaviourMin, behaviourMax),
				SpeciesID: base.ID,
			})
		}
	}
	return res, nil
}

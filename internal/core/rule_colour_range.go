package core

import (
	"context"
	"fmt"

	"speciescore/pkg/domain"
)

// NewColourRangeRule returns the in-transaction rule requiring every colour
// channel to stay within [0,1].
func NewColourRangeRule() domain.Rule {
	return colourRangeRule{}
}

type colourRangeRule struct{}

func (colourRangeRule) Name() string { return "colour_range" }

func (colourRangeRule) Evaluate(_ context.Context, view domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, variant := range view.ListSpecies() {
		base := variant.Base()
		if channelInRange(base.Colour.R) && channelInRange(base.Colour.G) && channelInRange(base.Colour.B) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:      "colour_range",
			Severity:  domain.SeverityBlock,
			Message:   fmt.Sprintf("species %s has colour channels outside [0,1]: %+v", base.FormattedIdentifier(), base.Colour),
			SpeciesID: base.ID,
		})
	}
	return res, nil
}

func channelInRange(v float64) bool {
	return v >= 0 && v <= 1
}

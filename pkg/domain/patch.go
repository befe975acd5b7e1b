package domain

import "time"

// PatchRecord is a durable, lightweight record of a species at one
// generational step. It embeds SpeciesInfo rather than the live entity, so it
// serializes without pulling in the trait containers.
type PatchRecord struct {
	Info       SpeciesInfo `json:"info"`
	Name       string      `json:"name"`
	Generation int32       `json:"generation"`
	Colour     Colour      `json:"colour"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// NewPatchRecord captures a patch record from the species' current state.
func NewPatchRecord(s *Species, at time.Time) PatchRecord {
	return PatchRecord{
		Info:       s.RecordSpeciesInfo(),
		Name:       s.FormattedName(),
		Generation: s.Generation,
		Colour:     s.Colour,
		RecordedAt: at.UTC(),
	}
}

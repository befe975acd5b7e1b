package domain

import (
	"fmt"
	"strings"
)

// OrganellePlacement positions one organelle on the axial hex grid.
type OrganellePlacement struct {
	Symbol string `json:"symbol"`
	Q      int    `json:"q"`
	R      int    `json:"r"`
}

// Organelle symbols accepted in a microbe genome.
var microbeSymbols = map[string]struct{}{
	"N": {}, // nucleus
	"M": {}, // mitochondrion
	"C": {}, // cytoplasm
	"F": {}, // flagellum
	"V": {}, // vacuole
	"T": {}, // thylakoid
	"P": {}, // pilus
	"X": {}, // toxin vacuole
}

// MicrobeSpecies is a unicellular species whose genome is a string of
// organelle symbols laid out on a hex grid, plus membrane properties.
type MicrobeSpecies struct {
	Species
	MembraneRigidity float64              `json:"membrane_rigidity"`
	IsBacteria       bool                 `json:"is_bacteria"`
	Organelles       []OrganellePlacement `json:"organelles"`
}

// NewMicrobeSpecies constructs a microbe species under the given identity.
func NewMicrobeSpecies(id uint32, genus, epithet string) *MicrobeSpecies {
	return &MicrobeSpecies{Species: NewSpecies(id, genus, epithet)}
}

// Base exposes the shared species state.
func (m *MicrobeSpecies) Base() *Species { return &m.Species }

// Kind returns the microbe variant discriminator.
func (m *MicrobeSpecies) Kind() VariantKind { return VariantMicrobe }

// Clone returns an independent microbe copy, identity included.
func (m *MicrobeSpecies) Clone() SpeciesVariant {
	clone := &MicrobeSpecies{
		Species:          NewSpecies(0, "", ""),
		MembraneRigidity: m.MembraneRigidity,
		IsBacteria:       m.IsBacteria,
		Organelles:       append([]OrganellePlacement(nil), m.Organelles...),
	}
	m.ClonePropertiesTo(&clone.Species)
	return clone
}

// RepositionToOrigin recenters the organelle layout around (0,0).
func (m *MicrobeSpecies) RepositionToOrigin() {
	if len(m.Organelles) == 0 {
		return
	}
	var sumQ, sumR int
	for _, placement := range m.Organelles {
		sumQ += placement.Q
		sumR += placement.R
	}
	offsetQ := sumQ / len(m.Organelles)
	offsetR := sumR / len(m.Organelles)
	for i := range m.Organelles {
		m.Organelles[i].Q -= offsetQ
		m.Organelles[i].R -= offsetR
	}
}

// StringCode returns the genome as the concatenated organelle symbols.
func (m *MicrobeSpecies) StringCode() string {
	var builder strings.Builder
	for _, placement := range m.Organelles {
		builder.WriteString(placement.Symbol)
	}
	return builder.String()
}

// SetStringCode validates the symbols and rebuilds the organelle layout as a
// row starting at the origin. Spatial detail beyond symbol order is owned by
// the editor, not the encoding.
func (m *MicrobeSpecies) SetStringCode(code string) error {
	placements := make([]OrganellePlacement, 0, len(code))
	for i, r := range code {
		symbol := string(r)
		if _, ok := microbeSymbols[symbol]; !ok {
			return fmt.Errorf("invalid organelle symbol %q at position %d", symbol, i)
		}
		placements = append(placements, OrganellePlacement{Symbol: symbol, Q: i})
	}
	m.Organelles = placements
	return nil
}

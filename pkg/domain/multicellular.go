package domain

import (
	"encoding/json"
	"fmt"
)

// CellTemplate positions one specialised cell type in the body layout.
type CellTemplate struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// MulticellularSpecies is a species composed of specialised cell types whose
// genome is the JSON-encoded body layout.
type MulticellularSpecies struct {
	Species
	CellTypes []CellTemplate `json:"cell_types"`
}

// NewMulticellularSpecies constructs a multicellular species under the given
// identity.
func NewMulticellularSpecies(id uint32, genus, epithet string) *MulticellularSpecies {
	return &MulticellularSpecies{Species: NewSpecies(id, genus, epithet)}
}

// Base exposes the shared species state.
func (m *MulticellularSpecies) Base() *Species { return &m.Species }

// Kind returns the multicellular variant discriminator.
func (m *MulticellularSpecies) Kind() VariantKind { return VariantMulticellular }

// Clone returns an independent multicellular copy, identity included.
func (m *MulticellularSpecies) Clone() SpeciesVariant {
	clone := &MulticellularSpecies{
		Species:   NewSpecies(0, "", ""),
		CellTypes: append([]CellTemplate(nil), m.CellTypes...),
	}
	m.ClonePropertiesTo(&clone.Species)
	return clone
}

// RepositionToOrigin recenters the cell layout around (0,0).
func (m *MulticellularSpecies) RepositionToOrigin() {
	if len(m.CellTypes) == 0 {
		return
	}
	var sumX, sumY int
	for _, cell := range m.CellTypes {
		sumX += cell.X
		sumY += cell.Y
	}
	offsetX := sumX / len(m.CellTypes)
	offsetY := sumY / len(m.CellTypes)
	for i := range m.CellTypes {
		m.CellTypes[i].X -= offsetX
		m.CellTypes[i].Y -= offsetY
	}
}

// StringCode returns the genome as the JSON-encoded cell layout.
func (m *MulticellularSpecies) StringCode() string {
	data, err := json.Marshal(m.CellTypes)
	if err != nil {
		return ""
	}
	return string(data)
}

// SetStringCode decodes and validates a JSON cell layout.
func (m *MulticellularSpecies) SetStringCode(code string) error {
	var cells []CellTemplate
	if err := json.Unmarshal([]byte(code), &cells); err != nil {
		return fmt.Errorf("decode cell layout: %w", err)
	}
	for i, cell := range cells {
		if cell.Type == "" {
			return fmt.Errorf("cell %d has no type", i)
		}
	}
	m.CellTypes = cells
	return nil
}

package domain

import (
	"encoding/json"
	"fmt"
)

// SpeciesEnvelope wraps one species record with its variant discriminator so
// the concrete type survives a serialization round trip.
type SpeciesEnvelope struct {
	Variant VariantKind     `json:"variant"`
	Species json.RawMessage `json:"species"`
}

// EncodeSpecies wraps a variant in its envelope.
func EncodeSpecies(variant SpeciesVariant) (SpeciesEnvelope, error) {
	if variant == nil {
		return SpeciesEnvelope{}, fmt.Errorf("nil species")
	}
	payload, err := json.Marshal(variant)
	if err != nil {
		return SpeciesEnvelope{}, fmt.Errorf("encode %s species: %w", variant.Kind(), err)
	}
	return SpeciesEnvelope{Variant: variant.Kind(), Species: payload}, nil
}

// DecodeSpecies reconstructs the concrete variant named by the envelope's
// discriminator.
func DecodeSpecies(envelope SpeciesEnvelope) (SpeciesVariant, error) {
	switch envelope.Variant {
	case VariantMicrobe:
		var microbe MicrobeSpecies
		if err := json.Unmarshal(envelope.Species, &microbe); err != nil {
			return nil, fmt.Errorf("decode microbe species: %w", err)
		}
		ensureContainers(&microbe.Species)
		return &microbe, nil
	case VariantMulticellular:
		var multi MulticellularSpecies
		if err := json.Unmarshal(envelope.Species, &multi); err != nil {
			return nil, fmt.Errorf("decode multicellular species: %w", err)
		}
		ensureContainers(&multi.Species)
		return &multi, nil
	default:
		return nil, fmt.Errorf("unknown species variant %q", envelope.Variant)
	}
}

// Trait containers must never be nil after decoding an old or sparse record.
func ensureContainers(s *Species) {
	if s.Behaviour == nil {
		s.Behaviour = make(map[BehaviourTrait]float64)
	}
	if s.InitialCompounds == nil {
		s.InitialCompounds = make(map[Compound]float64)
	}
}

// SaveGraph is the canonical persisted form of a population: one record per
// identifier in an object table, with in-graph references (the player pointer,
// patch history) encoded as identifier lookups rather than embedded copies.
type SaveGraph struct {
	Species  map[uint32]SpeciesEnvelope `json:"species"`
	PlayerID uint32                     `json:"player_id,omitempty"`
	Patches  []PatchRecord              `json:"patches,omitempty"`
}

// BuildSaveGraph assembles an object table from live species. A species
// referenced from multiple in-memory structures still yields exactly one
// record, keyed by its identifier.
func BuildSaveGraph(species []SpeciesVariant, patches []PatchRecord) (SaveGraph, error) {
	graph := SaveGraph{
		Species: make(map[uint32]SpeciesEnvelope, len(species)),
		Patches: append([]PatchRecord(nil), patches...),
	}
	for _, variant := range species {
		base := variant.Base()
		if _, dup := graph.Species[base.ID]; dup {
			continue
		}
		envelope, err := EncodeSpecies(variant)
		if err != nil {
			return SaveGraph{}, err
		}
		graph.Species[base.ID] = envelope
		if base.PlayerSpecies {
			graph.PlayerID = base.ID
		}
	}
	return graph, nil
}

// Resolve materializes the object table back into live variants keyed by
// identifier.
func (g SaveGraph) Resolve() (map[uint32]SpeciesVariant, error) {
	out := make(map[uint32]SpeciesVariant, len(g.Species))
	for id, envelope := range g.Species {
		variant, err := DecodeSpecies(envelope)
		if err != nil {
			return nil, fmt.Errorf("species %d: %w", id, err)
		}
		if got := variant.Base().ID; got != id {
			return nil, fmt.Errorf("species %d decoded with mismatched identifier %d", id, got)
		}
		out[id] = variant
	}
	if g.PlayerID != 0 {
		if _, ok := out[g.PlayerID]; !ok {
			return nil, fmt.Errorf("player reference %d has no record", g.PlayerID)
		}
	}
	return out, nil
}

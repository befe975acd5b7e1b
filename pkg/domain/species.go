// Package domain defines the species entity, its heritable trait containers,
// and the mutation/clone state transitions used by speciescore.
package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BehaviourTrait identifies a heritable behavioural tendency.
type BehaviourTrait string

// Canonical behaviour traits tracked for every species.
const (
	TraitAggression  BehaviourTrait = "aggression"
	TraitOpportunism BehaviourTrait = "opportunism"
	TraitFear        BehaviourTrait = "fear"
	TraitActivity    BehaviourTrait = "activity"
	TraitFocus       BehaviourTrait = "focus"
)

// Compound identifies a simulated resource compound.
type Compound string

// Compounds appearing in initial endowments.
const (
	CompoundATP        Compound = "atp"
	CompoundAmmonia    Compound = "ammonia"
	CompoundGlucose    Compound = "glucose"
	CompoundPhosphates Compound = "phosphates"
)

// Colour is an RGB triple with channels in [0,1].
type Colour struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Species holds the state shared by every concrete species variant: identity
// and lineage fields (ID, taxonomy, generation, player flag) plus the
// heritable trait containers (colour, behaviour, initial compounds).
//
// ID uniqueness is owned by the registry; the entity only stores the value.
// Behaviour and InitialCompounds are never nil on a constructed species, and
// an absent key means a zero value to consumers.
type Species struct {
	ID               uint32                     `json:"id"`
	Genus            string                     `json:"genus"`
	Epithet          string                     `json:"epithet"`
	Colour           Colour                     `json:"colour"`
	Behaviour        map[BehaviourTrait]float64 `json:"behaviour"`
	InitialCompounds map[Compound]float64       `json:"initial_compounds"`
	Generation       int32                      `json:"generation"`
	PlayerSpecies    bool                       `json:"player_species"`
}

// NewSpecies constructs shared species state with initialized trait containers
// and a starting generation of 1.
func NewSpecies(id uint32, genus, epithet string) Species {
	return Species{
		ID:               id,
		Genus:            genus,
		Epithet:          epithet,
		Behaviour:        make(map[BehaviourTrait]float64),
		InitialCompounds: make(map[Compound]float64),
		Generation:       1,
	}
}

// ApplyMutation folds the candidate's heritable trait state into the receiver.
// Initial compounds are replaced wholesale, behaviour entries are upserted
// (receiver-only keys survive), and the colour is overwritten. Identity and
// lineage fields (ID, Genus, Epithet, Generation, PlayerSpecies) and the
// genome are never touched.
//
// The candidate is expected to be the same concrete variant as the receiver;
// this is a caller precondition and is not checked here.
func (s *Species) ApplyMutation(mutation *Species) {
	s.InitialCompounds = make(map[Compound]float64, len(mutation.InitialCompounds))
	for compound, amount := range mutation.InitialCompounds {
		s.InitialCompounds[compound] = amount
	}
	if s.Behaviour == nil {
		s.Behaviour = make(map[BehaviourTrait]float64, len(mutation.Behaviour))
	}
	for trait, value := range mutation.Behaviour {
		s.Behaviour[trait] = value
	}
	s.Colour = mutation.Colour
}

// ClonePropertiesTo copies every field, identity included, into target.
// Trait containers are deep-copied by upserting each key; the target is
// expected to be freshly constructed, so pre-existing keys are not cleared.
func (s *Species) ClonePropertiesTo(target *Species) {
	if target.InitialCompounds == nil {
		target.InitialCompounds = make(map[Compound]float64, len(s.InitialCompounds))
	}
	for compound, amount := range s.InitialCompounds {
		target.InitialCompounds[compound] = amount
	}
	if target.Behaviour == nil {
		target.Behaviour = make(map[BehaviourTrait]float64, len(s.Behaviour))
	}
	for trait, value := range s.Behaviour {
		target.Behaviour[trait] = value
	}
	target.Genus = s.Genus
	target.Epithet = s.Epithet
	target.Colour = s.Colour
	target.Generation = s.Generation
	target.ID = s.ID
	target.PlayerSpecies = s.PlayerSpecies
}

// BecomePlayerSpecies marks the species as the player's. The transition is
// one-way; calling it again is a no-op.
func (s *Species) BecomePlayerSpecies() {
	s.PlayerSpecies = true
}

// RecordSpeciesInfo produces an independent snapshot of the species for
// historical record keeping. The snapshot shares no containers with the
// live entity.
func (s *Species) RecordSpeciesInfo() SpeciesInfo {
	return SpeciesInfo{ID: s.ID}
}

var identifierPrinter = message.NewPrinter(language.English)

// FormattedName returns "<Genus> <Epithet>", recomputed on every call.
func (s *Species) FormattedName() string {
	return s.Genus + " " + s.Epithet
}

// FormattedIdentifier returns "<Genus> <Epithet> (<ID>)" with thousands
// grouping applied to the identifier.
func (s *Species) FormattedIdentifier() string {
	return identifierPrinter.Sprintf("%s (%d)", s.FormattedName(), s.ID)
}

func (s *Species) String() string {
	return s.FormattedIdentifier()
}

// SpeciesInfo is a minimal, independently owned snapshot of select species
// data consumed by patch history. It deliberately carries no trait containers
// so it stays serializable on its own.
type SpeciesInfo struct {
	ID uint32 `json:"id"`
}

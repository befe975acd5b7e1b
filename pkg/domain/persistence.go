package domain

import "context"

// Transaction exposes the species operations a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateSpecies(SpeciesVariant) (SpeciesVariant, error)
	UpdateSpecies(id uint32, mutator func(SpeciesVariant) error) (SpeciesVariant, error)
	DeleteSpecies(id uint32) error
	AppendPatch(PatchRecord) (PatchRecord, error)
	FindSpecies(id uint32) (SpeciesVariant, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListSpecies() []SpeciesVariant
	FindSpecies(id uint32) (SpeciesVariant, bool)
	PlayerSpecies() (SpeciesVariant, bool)
	ListPatches() []PatchRecord
}

// PersistentStore is a minimal abstraction over durable backends. Returned
// records are always independent copies of stored state.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetSpecies(id uint32) (SpeciesVariant, bool)
	ListSpecies() []SpeciesVariant
	ListPatches() []PatchRecord
	// LastIdentifier reports the highest species identifier ever stored, so
	// an external registry can resume allocation after a reload.
	LastIdentifier() uint32
}

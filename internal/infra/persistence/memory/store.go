// Package memory provides an in-memory implementation of the species
// persistence store used for tests and ephemeral simulations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"speciescore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain
// persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// SpeciesVariant aliases the polymorphic species contract.
	SpeciesVariant = domain.SpeciesVariant
	// PatchRecord aliases domain.PatchRecord.
	PatchRecord = domain.PatchRecord
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	species map[uint32]SpeciesVariant
	patches []PatchRecord
	lastID  uint32
}

func newMemoryState() memoryState {
	return memoryState{species: make(map[uint32]SpeciesVariant)}
}

func (s memoryState) clone() memoryState {
	cloned := memoryState{
		species: make(map[uint32]SpeciesVariant, len(s.species)),
		patches: append([]PatchRecord(nil), s.patches...),
		lastID:  s.lastID,
	}
	for id, variant := range s.species {
		cloned.species[id] = variant.Clone()
	}
	return cloned
}

// Snapshot captures a point-in-time serializable copy of the store state:
// the species object table plus history and allocation bookkeeping.
type Snapshot struct {
	domain.SaveGraph
	LastID uint32 `json:"last_id"`
}

func snapshotFromMemoryState(state memoryState) (Snapshot, error) {
	variants := make([]SpeciesVariant, 0, len(state.species))
	for _, variant := range state.species {
		variants = append(variants, variant)
	}
	graph, err := domain.BuildSaveGraph(variants, state.patches)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{SaveGraph: graph, LastID: state.lastID}, nil
}

func memoryStateFromSnapshot(snapshot Snapshot) (memoryState, error) {
	resolved, err := snapshot.Resolve()
	if err != nil {
		return memoryState{}, err
	}
	state := newMemoryState()
	for id, variant := range resolved {
		state.species[id] = variant
		if id > state.lastID {
			state.lastID = id
		}
	}
	state.patches = append([]PatchRecord(nil), snapshot.Patches...)
	if snapshot.LastID > state.lastID {
		state.lastID = snapshot.LastID
	}
	return state, nil
}

// Store is the canonical in-memory persistent store. All mutation goes
// through transactions evaluated by the rules engine; reads return
// independent clones.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) error {
	state, err := memoryStateFromSnapshot(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// RulesEngine exposes the configured engine for integration points like
// plugins.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListSpecies returns clones of every species in the snapshot, ordered by
// identifier.
func (v transactionView) ListSpecies() []SpeciesVariant {
	out := make([]SpeciesVariant, 0, len(v.state.species))
	for _, variant := range v.state.species {
		out = append(out, variant.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base().ID < out[j].Base().ID })
	return out
}

// FindSpecies retrieves a species clone by identifier.
func (v transactionView) FindSpecies(id uint32) (SpeciesVariant, bool) {
	variant, ok := v.state.species[id]
	if !ok {
		return nil, false
	}
	return variant.Clone(), true
}

// PlayerSpecies returns the species carrying the player flag, if any.
func (v transactionView) PlayerSpecies() (SpeciesVariant, bool) {
	for _, variant := range v.state.species {
		if variant.Base().PlayerSpecies {
			return variant.Clone(), true
		}
	}
	return nil, false
}

// ListPatches returns a copy of the recorded patch history.
func (v transactionView) ListPatches() []PatchRecord {
	return append([]PatchRecord(nil), v.state.patches...)
}

// RunInTransaction executes fn within a transactional copy of the store
// state, evaluates the rules engine, and commits unless blocked.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateSpecies inserts a new species record. Identifiers are allocated by
// the registry before the transaction; zero or duplicate identifiers are
// rejected here to keep the uniqueness guarantee.
func (tx *transaction) CreateSpecies(variant SpeciesVariant) (SpeciesVariant, error) {
	if variant == nil {
		return nil, fmt.Errorf("species cannot be nil")
	}
	id := variant.Base().ID
	if id == 0 {
		return nil, fmt.Errorf("species has no identifier")
	}
	if _, exists := tx.state.species[id]; exists {
		return nil, fmt.Errorf("species %d already exists", id)
	}
	stored := variant.Clone()
	tx.state.species[id] = stored
	if id > tx.state.lastID {
		tx.state.lastID = id
	}
	tx.recordChange(Change{
		Entity: domain.EntitySpecies,
		Action: domain.ActionCreate,
		ID:     id,
		After:  stored.Clone(),
	})
	return stored.Clone(), nil
}

// UpdateSpecies applies the mutator to a transactional copy of the record.
// The mutator must not reassign the identifier.
func (tx *transaction) UpdateSpecies(id uint32, mutator func(SpeciesVariant) error) (SpeciesVariant, error) {
	current, ok := tx.state.species[id]
	if !ok {
		return nil, fmt.Errorf("species %d not found", id)
	}
	before := current.Clone()
	working := current.Clone()
	if err := mutator(working); err != nil {
		return nil, err
	}
	if working.Base().ID != id {
		return nil, fmt.Errorf("species %d identifier reassigned in update", id)
	}
	tx.state.species[id] = working
	tx.recordChange(Change{
		Entity: domain.EntitySpecies,
		Action: domain.ActionUpdate,
		ID:     id,
		Before: before,
		After:  working.Clone(),
	})
	return working.Clone(), nil
}

// DeleteSpecies removes a species record.
func (tx *transaction) DeleteSpecies(id uint32) error {
	current, ok := tx.state.species[id]
	if !ok {
		return fmt.Errorf("species %d not found", id)
	}
	delete(tx.state.species, id)
	tx.recordChange(Change{
		Entity: domain.EntitySpecies,
		Action: domain.ActionDelete,
		ID:     id,
		Before: current,
	})
	return nil
}

// AppendPatch records a patch history entry. The record's timestamp defaults
// to the transaction time when unset.
func (tx *transaction) AppendPatch(record PatchRecord) (PatchRecord, error) {
	if record.Info.ID == 0 {
		return PatchRecord{}, fmt.Errorf("patch record has no species reference")
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = tx.now
	}
	tx.state.patches = append(tx.state.patches, record)
	tx.recordChange(Change{
		Entity: domain.EntityPatch,
		Action: domain.ActionCreate,
		ID:     record.Info.ID,
	})
	return record, nil
}

// FindSpecies exposes species lookup within the transaction scope.
func (tx *transaction) FindSpecies(id uint32) (SpeciesVariant, bool) {
	variant, ok := tx.state.species[id]
	if !ok {
		return nil, false
	}
	return variant.Clone(), true
}

// GetSpecies returns a clone of the stored species.
func (s *Store) GetSpecies(id uint32) (SpeciesVariant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	variant, ok := s.state.species[id]
	if !ok {
		return nil, false
	}
	return variant.Clone(), true
}

// ListSpecies returns clones of every stored species, ordered by identifier.
func (s *Store) ListSpecies() []SpeciesVariant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SpeciesVariant, 0, len(s.state.species))
	for _, variant := range s.state.species {
		out = append(out, variant.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base().ID < out[j].Base().ID })
	return out
}

// ListPatches returns a copy of the recorded patch history.
func (s *Store) ListPatches() []PatchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PatchRecord(nil), s.state.patches...)
}

// LastIdentifier reports the highest species identifier ever stored.
func (s *Store) LastIdentifier() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.lastID
}

package core

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"speciescore/pkg/domain"
)

// Service exposes the registry operations for the species population:
// identifier allocation, transactional mutation, cloning, generational
// bookkeeping, and the one-way player switch.
type Service struct {
	store   PersistentStore
	engine  *RulesEngine
	plugins map[string]PluginMetadata

	lastID    atomic.Uint32
	metrics   MetricsRecorder
	tracer    Tracer
	notifiers []domain.Notifier
}

// ServiceOption customises service construction.
type ServiceOption func(*Service)

// WithMetrics attaches a metrics recorder to the service.
func WithMetrics(rec MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer attaches a tracer to the service.
func WithTracer(tr Tracer) ServiceOption {
	return func(s *Service) {
		if tr != nil {
			s.tracer = tr
		}
	}
}

// WithNotifier subscribes a notification channel to committed species events.
func WithNotifier(n domain.Notifier) ServiceOption {
	return func(s *Service) {
		if n != nil {
			s.notifiers = append(s.notifiers, n)
		}
	}
}

// NewService constructs a service backed by the supplied store and rules
// engine. Identifier allocation resumes from the highest identifier the store
// has ever seen.
func NewService(store PersistentStore, engine *RulesEngine, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		engine:  engine,
		plugins: make(map[string]PluginMetadata),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
	}
	s.lastID.Store(store.LastIdentifier())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// AllocateIdentifier hands out the next globally unique species identifier.
func (s *Service) AllocateIdentifier() uint32 {
	return s.lastID.Add(1)
}

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err error) {
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
}

// Best effort: a slow or dead notification channel must never fail a
// committed transaction.
func (s *Service) publish(ctx context.Context, action domain.EventAction, base *Species) {
	if len(s.notifiers) == 0 {
		return
	}
	event := domain.SpeciesEvent{
		Action:     action,
		Info:       base.RecordSpeciesInfo(),
		Name:       base.FormattedName(),
		Generation: base.Generation,
		OccurredAt: time.Now().UTC(),
	}
	for _, notifier := range s.notifiers {
		_ = notifier.Notify(ctx, event)
	}
}

// CreateSpecies persists a new species record. A zero identifier is replaced
// with a freshly allocated one; a non-zero identifier is kept, and the store
// rejects duplicates.
func (s *Service) CreateSpecies(ctx context.Context, variant SpeciesVariant) (created SpeciesVariant, res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "create_species")
	start := time.Now()
	defer func() {
		span.End(err)
		s.observe(ctx, "create_species", start, err)
	}()

	if variant == nil {
		return nil, Result{}, fmt.Errorf("species cannot be nil")
	}
	if variant.Base().ID == 0 {
		variant.Base().ID = s.AllocateIdentifier()
	} else if variant.Base().ID > s.lastID.Load() {
		s.lastID.Store(variant.Base().ID)
	}
	res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var txErr error
		created, txErr = tx.CreateSpecies(variant)
		return txErr
	})
	if err != nil {
		return nil, res, err
	}
	s.publish(ctx, domain.EventSpeciesCreated, created.Base())
	return created, res, nil
}

// GetSpecies returns an independent copy of the stored species.
func (s *Service) GetSpecies(id uint32) (SpeciesVariant, bool) {
	return s.store.GetSpecies(id)
}

// ListSpecies returns independent copies of every stored species.
func (s *Service) ListSpecies() []SpeciesVariant {
	return s.store.ListSpecies()
}

// ListPatches returns the recorded patch history.
func (s *Service) ListPatches() []PatchRecord {
	return s.store.ListPatches()
}

// RecordSpeciesInfo produces a decoupled snapshot of the stored species.
func (s *Service) RecordSpeciesInfo(id uint32) (SpeciesInfo, error) {
	variant, ok := s.store.GetSpecies(id)
	if !ok {
		return SpeciesInfo{}, ErrNotFound{ID: id}
	}
	return variant.Base().RecordSpeciesInfo(), nil
}

// ApplyMutation folds the candidate's heritable traits into the stored
// species. The candidate must be the same concrete variant as the target;
// mixing variants fails with ErrVariantMismatch before any state changes.
func (s *Service) ApplyMutation(ctx context.Context, id uint32, candidate SpeciesVariant) (updated SpeciesVariant, res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "apply_mutation")
	start := time.Now()
	defer func() {
		span.End(err)
		s.observe(ctx, "apply_mutation", start, err)
	}()

	if candidate == nil {
		return nil, Result{}, fmt.Errorf("mutation candidate cannot be nil")
	}
	target, ok := s.store.GetSpecies(id)
	if !ok {
		return nil, Result{}, ErrNotFound{ID: id}
	}
	if target.Kind() != candidate.Kind() {
		return nil, Result{}, ErrVariantMismatch{Target: target.Kind(), Candidate: candidate.Kind()}
	}
	res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var txErr error
		updated, txErr = tx.UpdateSpecies(id, func(variant SpeciesVariant) error {
			variant.Base().ApplyMutation(candidate.Base())
			return nil
		})
		return txErr
	})
	if err != nil {
		return nil, res, err
	}
	s.publish(ctx, domain.EventSpeciesMutated, updated.Base())
	return updated, res, nil
}

// CloneSpecies returns a fully independent copy of the stored species for
// speculative editing. The copy keeps the source identifier and is not
// registered; use AdoptClone to promote it into a new lineage record.
func (s *Service) CloneSpecies(id uint32) (SpeciesVariant, error) {
	variant, ok := s.store.GetSpecies(id)
	if !ok {
		return nil, ErrNotFound{ID: id}
	}
	return variant.Clone(), nil
}

// AdoptClone registers a speculative clone as a new lineage record under a
// freshly allocated identifier. The new record never inherits the player
// flag; the player lineage stays with the original.
func (s *Service) AdoptClone(ctx context.Context, clone SpeciesVariant) (SpeciesVariant, Result, error) {
	if clone == nil {
		return nil, Result{}, fmt.Errorf("clone cannot be nil")
	}
	clone.Base().ID = s.AllocateIdentifier()
	clone.Base().PlayerSpecies = false
	return s.CreateSpecies(ctx, clone)
}

// BecomePlayerSpecies flips the one-way player flag on the stored species.
// The single-player rule blocks the transaction when a different species
// already carries the flag.
func (s *Service) BecomePlayerSpecies(ctx context.Context, id uint32) (updated SpeciesVariant, res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "become_player_species")
	start := time.Now()
	defer func() {
		span.End(err)
		s.observe(ctx, "become_player_species", start, err)
	}()

	res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var txErr error
		updated, txErr = tx.UpdateSpecies(id, func(variant SpeciesVariant) error {
			variant.Base().BecomePlayerSpecies()
			return nil
		})
		return txErr
	})
	if err != nil {
		return nil, res, err
	}
	s.publish(ctx, domain.EventPlayerSwitched, updated.Base())
	return updated, res, nil
}

// AdvanceGeneration increments the species' generation counter and appends a
// patch record capturing the pre-step state. Generational bookkeeping is
// owned here, never by the mutation merge.
func (s *Service) AdvanceGeneration(ctx context.Context, id uint32) (updated SpeciesVariant, res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "advance_generation")
	start := time.Now()
	defer func() {
		span.End(err)
		s.observe(ctx, "advance_generation", start, err)
	}()

	res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
		current, ok := tx.FindSpecies(id)
		if !ok {
			return ErrNotFound{ID: id}
		}
		if _, txErr := tx.AppendPatch(domain.NewPatchRecord(current.Base(), time.Now())); txErr != nil {
			return txErr
		}
		var txErr error
		updated, txErr = tx.UpdateSpecies(id, func(variant SpeciesVariant) error {
			variant.Base().Generation++
			return nil
		})
		return txErr
	})
	if err != nil {
		return nil, res, err
	}
	s.publish(ctx, domain.EventGenerationStep, updated.Base())
	return updated, res, nil
}

// DeleteSpecies removes a species record. The player lineage cannot be
// deleted.
func (s *Service) DeleteSpecies(ctx context.Context, id uint32) (res Result, err error) {
	ctx, span := s.tracer.Start(ctx, "delete_species")
	start := time.Now()
	defer func() {
		span.End(err)
		s.observe(ctx, "delete_species", start, err)
	}()

	variant, ok := s.store.GetSpecies(id)
	if !ok {
		return Result{}, ErrNotFound{ID: id}
	}
	if variant.Base().PlayerSpecies {
		return Result{}, fmt.Errorf("species %d is the player species and cannot be deleted", id)
	}
	res, err = s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteSpecies(id)
	})
	if err != nil {
		return res, err
	}
	s.publish(ctx, domain.EventSpeciesDeleted, variant.Base())
	return res, nil
}

// ErrNotFound is returned when a species identifier resolves to no record.
type ErrNotFound struct {
	ID uint32
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("species %d not found", e.ID)
}

// ErrVariantMismatch is returned when a mutation candidate's concrete variant
// differs from the target's.
type ErrVariantMismatch struct {
	Target    domain.VariantKind
	Candidate domain.VariantKind
}

func (e ErrVariantMismatch) Error() string {
	return fmt.Sprintf("mutation candidate is %s but target is %s", e.Candidate, e.Target)
}

// InstallPlugin registers a plugin, wiring its rules into the active engine.
func (s *Service) InstallPlugin(plugin Plugin) (PluginMetadata, error) {
	if plugin == nil {
		return PluginMetadata{}, fmt.Errorf("plugin cannot be nil")
	}
	if _, ok := s.plugins[plugin.Name()]; ok {
		return PluginMetadata{}, fmt.Errorf("plugin %s already registered", plugin.Name())
	}

	registry := NewPluginRegistry()
	if err := plugin.Register(registry); err != nil {
		return PluginMetadata{}, err
	}
	for _, rule := range registry.Rules() {
		s.engine.Register(rule)
	}

	meta := PluginMetadata{
		Name:    plugin.Name(),
		Version: plugin.Version(),
		Schemas: registry.Schemas(),
	}
	s.plugins[plugin.Name()] = meta
	return meta, nil
}

// RegisteredPlugins returns metadata describing installed plugins.
func (s *Service) RegisteredPlugins() []PluginMetadata {
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		out = append(out, meta)
	}
	return out
}

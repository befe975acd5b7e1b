// Package core implements the species registry service: identifier
// allocation, transactional mutation and cloning, rule evaluation, and
// patch-history bookkeeping on top of a persistent store.
package core

import "speciescore/pkg/domain"

type (
	// Species aliases the shared species state.
	Species = domain.Species
	// SpeciesVariant aliases the polymorphic species contract.
	SpeciesVariant = domain.SpeciesVariant
	// SpeciesInfo aliases the decoupled species snapshot.
	SpeciesInfo = domain.SpeciesInfo
	// PatchRecord aliases the durable patch history record.
	PatchRecord = domain.PatchRecord
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// Violation aliases domain.Violation.
	Violation = domain.Violation
	// Rule aliases domain.Rule evaluated inside transactions.
	Rule = domain.Rule
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)

// Rule severities re-exported for plugin authors.
const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

// NewRulesEngine re-exports the domain constructor for wiring convenience.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewColourRangeRule())
	engine.Register(NewBehaviourBoundsRule())
	engine.Register(NewSinglePlayerRule())
	engine.Register(NewGenerationMonotonicRule())
	return engine
}

package domain

// EntityType identifies the kind of record touched by a change.
type EntityType string

// Entity types captured in transaction change sets.
const (
	// EntitySpecies identifies a species record.
	EntitySpecies EntityType = "species"
	// EntityPatch identifies a patch history record.
	EntityPatch EntityType = "patch"
)

// Action indicates the type of modification performed.
type Action string

// Change actions captured for rule evaluation and audit.
const (
	// ActionCreate indicates a record was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates a record was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes a mutation applied to a record during a transaction.
// Before and After hold independent copies, never the live record.
type Change struct {
	Entity EntityType
	Action Action
	ID     uint32
	Before SpeciesVariant
	After  SpeciesVariant
}

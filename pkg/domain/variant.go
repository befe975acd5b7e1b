package domain

// VariantKind discriminates concrete species representations across
// serialization boundaries.
type VariantKind string

// Supported variant discriminators.
const (
	// VariantMicrobe identifies a unicellular species record.
	VariantMicrobe VariantKind = "microbe"
	// VariantMulticellular identifies a multicellular species record.
	VariantMulticellular VariantKind = "multicellular"
)

// SpeciesVariant is implemented by each concrete species representation.
// The shared mutation and clone-helper logic lives on Species; every variant
// supplies its own full copy, spatial recentering, and genome accessors.
type SpeciesVariant interface {
	// Base exposes the shared species state for mutation and bookkeeping.
	Base() *Species
	// Kind returns the variant discriminator used by the codec.
	Kind() VariantKind
	// Clone returns a fully independent copy of the same concrete variant.
	// The copy keeps the source identifier; callers that need a distinct
	// identity rebind it through the registry afterwards.
	Clone() SpeciesVariant
	// RepositionToOrigin recenters the variant's spatial structure around
	// the canonical origin.
	RepositionToOrigin()
	// StringCode returns the opaque genetic encoding of the variant.
	StringCode() string
	// SetStringCode replaces the genetic encoding after variant-specific
	// validation.
	SetStringCode(code string) error
}

package core

// Plugin describes a variant module that contributes rules and schema for one
// species representation.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

// PluginRegistry accumulates plugin contributions during registration.
type PluginRegistry struct {
	rules   []Rule
	schemas map[string]map[string]any
}

// NewPluginRegistry constructs a plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		schemas: make(map[string]map[string]any),
	}
}

// RegisterRule adds an in-transaction rule contributed by the plugin.
func (r *PluginRegistry) RegisterRule(rule Rule) {
	if rule == nil {
		return
	}
	r.rules = append(r.rules, rule)
}

// RegisterSchema stores a JSON Schema fragment describing a variant's genome
// and trait extensions.
func (r *PluginRegistry) RegisterSchema(variant string, schema map[string]any) {
	if variant == "" || schema == nil {
		return
	}
	cp := make(map[string]any, len(schema))
	for k, v := range schema {
		cp[k] = v
	}
	r.schemas[variant] = cp
}

// Rules returns a copy of registered rules.
func (r *PluginRegistry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Schemas returns a copy of registered schema fragments keyed by variant.
func (r *PluginRegistry) Schemas() map[string]map[string]any {
	out := make(map[string]map[string]any, len(r.schemas))
	for variant, schema := range r.schemas {
		cp := make(map[string]any, len(schema))
		for k, v := range schema {
			cp[k] = v
		}
		out[variant] = cp
	}
	return out
}

// PluginMetadata stores metadata describing an installed plugin.
type PluginMetadata struct {
	Name    string
	Version string
	Schemas map[string]map[string]any
}

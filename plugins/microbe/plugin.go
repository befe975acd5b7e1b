// Package microbe contributes the unicellular variant module: genome schema
// plus audit rules over organelle layouts.
package microbe

import (
	"context"
	"strings"

	"speciescore/internal/core"
	"speciescore/pkg/domain"
)

// Plugin implements the microbe variant module.
type Plugin struct{}

// New constructs a microbe plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return "microbe" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register wires variant-specific schema extensions and rules.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterSchema("microbe", map[string]any{
		"$id":  "speciescore:microbe:species",
		"type": "object",
		"properties": map[string]any{
			"membrane_rigidity": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     1,
				"description": "Membrane stiffness factor",
			},
			"is_bacteria": map[string]any{
				"type":        "boolean",
				"description": "Prokaryotic flag; bacteria carry no nucleus",
			},
			"organelles": map[string]any{
				"type":        "array",
				"description": "Organelle symbols placed on the axial hex grid",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"symbol": map[string]any{"type": "string", "pattern": "^[NMCFVTPX]$"},
						"q":      map[string]any{"type": "integer"},
						"r":      map[string]any{"type": "integer"},
					},
				},
			},
		},
	})

	registry.RegisterRule(genomeAuditRule{})
	return nil
}

type genomeAuditRule struct{}

func (genomeAuditRule) Name() string { return "microbe_genome_audit" }

// Empty genomes and nucleus-free eukaryotes are almost always editor bugs,
// but they are survivable, so the rule warns instead of blocking.
func (genomeAuditRule) Evaluate(_ context.Context, view core.TransactionView, _ []core.Change) (core.Result, error) {
	var result core.Result
	for _, variant := range view.ListSpecies() {
		cell, ok := variant.(*domain.MicrobeSpecies)
		if !ok {
			continue
		}
		if len(cell.Organelles) == 0 {
			result.Violations = append(result.Violations, core.Violation{
				Rule:      "microbe_genome_audit",
				Severity:  core.SeverityWarn,
				Message:   "microbe has an empty genome",
				SpeciesID: cell.ID,
			})
			continue
		}
		if !cell.IsBacteria && !strings.Contains(cell.StringCode(), "N") {
			result.Violations = append(result.Violations, core.Violation{
				Rule:      "microbe_genome_audit",
				Severity:  core.SeverityWarn,
				Message:   "eukaryotic microbe lacks a nucleus",
				SpeciesID: cell.ID,
			})
		}
	}
	return result, nil
}

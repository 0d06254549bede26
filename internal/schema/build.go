// Package schema builds the JSON definitions for every remote resource in
// the pipeline chain. Builders are pure: deterministic for a given
// configuration, never touching the network, so every branching rule
// (ACL on/off, image verbalization) is unit-testable in isolation.
package schema

import (
	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// obj and arr shorten the JSON literal syntax used throughout this package.
type (
	obj = map[string]any
	arr = []any
)

// Build returns the definition for one resource kind.
func Build(cfg *domain.Configuration, kind domain.ResourceKind) (domain.Definition, error) {
	if err := checkModeConflict(cfg); err != nil {
		return domain.Definition{}, err
	}

	switch kind {
	case domain.KindDataSource:
		return buildDataSource(cfg), nil
	case domain.KindIndex:
		return buildIndex(cfg), nil
	case domain.KindSkillset:
		return buildSkillset(cfg), nil
	case domain.KindIndexer:
		return buildIndexer(cfg), nil
	case domain.KindKnowledgeSource:
		return buildKnowledgeSource(cfg), nil
	case domain.KindKnowledgeBase:
		return buildKnowledgeBase(cfg), nil
	default:
		return domain.Definition{}, domain.NewConfigError("unknown resource kind: " + kind.String())
	}
}

// BuildAll returns definitions for the whole chain in dependency order.
func BuildAll(cfg *domain.Configuration) ([]domain.Definition, error) {
	defs := make([]domain.Definition, 0, len(domain.ApplyOrder))
	for _, kind := range domain.ApplyOrder {
		def, err := Build(cfg, kind)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

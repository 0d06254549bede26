package schema

import (
	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// Permission field names. The two fields and the index-level permission
// flag appear together on the data source, the index, the projection
// mappings and the indexer mappings, or in none of them.
const (
	userIDsField  = "UserIds"
	groupIDsField = "GroupIds"
)

// checkModeConflict rejects configurations the remote service cannot
// satisfy, before any definition is built. The chat completion skill is
// unavailable on ACL-enabled pipelines, so an explicit request for image
// verbalization together with ACL mode fails here instead of being
// silently dropped or discovered at apply time.
func checkModeConflict(cfg *domain.Configuration) error {
	if cfg.EnableACL && cfg.ImageVerbalization == domain.VerbalizeOn {
		return &domain.ModeConflictError{
			Reason: "image verbalization cannot be combined with ACL ingestion; disable one of the two",
		}
	}
	return nil
}

// applyACL augments a built definition body with the permission-carrying
// parts for its kind. With enabled false it is a no-op: the fields are
// omitted entirely, not left empty, because the remote service reserves
// their validation for permission-filtered indexes.
func applyACL(body obj, kind domain.ResourceKind, enabled bool) {
	if !enabled {
		return
	}

	switch kind {
	case domain.KindDataSource:
		body["indexerPermissionOptions"] = arr{"userIds", "groupIds"}

	case domain.KindIndex:
		fields, _ := body["fields"].(arr)
		body["fields"] = append(fields, permissionFields()...)
		body["permissionFilterOption"] = "enabled"

	case domain.KindSkillset:
		projections, _ := body["indexProjections"].(obj)
		selectors, _ := projections["selectors"].(arr)
		for _, s := range selectors {
			selector, ok := s.(obj)
			if !ok {
				continue
			}
			mappings, _ := selector["mappings"].(arr)
			selector["mappings"] = append(mappings, permissionProjectionMappings()...)
		}

	case domain.KindIndexer:
		mappings, _ := body["fieldMappings"].(arr)
		body["fieldMappings"] = append(mappings,
			obj{"sourceFieldName": "metadata_user_ids", "targetFieldName": userIDsField},
			obj{"sourceFieldName": "metadata_group_ids", "targetFieldName": groupIDsField},
		)
	}
}

// permissionFields returns the two multi-valued identity-reference index
// fields that the remote service evaluates at query time.
func permissionFields() arr {
	field := func(name, filter string) obj {
		return obj{
			"name":             name,
			"type":             "Collection(Edm.String)",
			"permissionFilter": filter,
			"filterable":       true,
			// Retrievable so the diagnostics can inspect value shapes.
			"retrievable": true,
			"searchable":  false,
			"sortable":    false,
			"facetable":   false,
		}
	}
	return arr{
		field(userIDsField, "userIds"),
		field(groupIDsField, "groupIds"),
	}
}

// permissionProjectionMappings returns the skillset projection mappings
// that copy source permission data onto the permission fields.
func permissionProjectionMappings() arr {
	return arr{
		obj{"name": userIDsField, "source": "/document/metadata_user_ids"},
		obj{"name": groupIDsField, "source": "/document/metadata_group_ids"},
	}
}

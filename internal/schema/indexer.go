package schema

import (
	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// buildIndexer builds the ingestion job binding data source, skillset and
// index. Source-system metadata is copied verbatim by name; the ACL
// mappings are added by applyACL when permission filtering is on.
func buildIndexer(cfg *domain.Configuration) domain.Definition {
	imageAction := "none"
	if cfg.VerbalizeImages() {
		imageAction = "generateNormalizedImages"
	}

	body := obj{
		"name":            cfg.IndexerName(),
		"description":     "Indexer for SharePoint with metadata extraction",
		"dataSourceName":  cfg.DataSourceName(),
		"skillsetName":    cfg.SkillsetName(),
		"targetIndexName": cfg.IndexName(),
		"disabled":        false,
		"schedule": obj{
			"interval": "P1D",
		},
		"parameters": obj{
			"maxFailedItems":         -1,
			"maxFailedItemsPerBatch": -1,
			"configuration": obj{
				"dataToExtract":               "contentAndMetadata",
				"parsingMode":                 "default",
				"allowSkillsetToReadFileData": true,
				"imageAction":                 imageAction,
			},
		},
		"fieldMappings": arr{
			// Custom columns from additionalColumns are auto-mapped to
			// fields with matching names and need no explicit entry.
			obj{
				"sourceFieldName": "metadata_spo_item_path",
				"targetFieldName": "doc_url",
			},
		},
		"outputFieldMappings": arr{},
	}

	applyACL(body, domain.KindIndexer, cfg.EnableACL)

	return domain.Definition{
		Kind: domain.KindIndexer,
		Name: cfg.IndexerName(),
		Body: body,
	}
}

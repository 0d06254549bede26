package schema

import (
	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// stringField builds an Edm.String field with the given capabilities.
func stringField(name string, searchable, filterable, sortable, facetable bool) obj {
	return obj{
		"name":        name,
		"type":        "Edm.String",
		"searchable":  searchable,
		"filterable":  filterable,
		"retrievable": true,
		"stored":      true,
		"sortable":    sortable,
		"facetable":   facetable,
	}
}

// dateField builds an Edm.DateTimeOffset field.
func dateField(name string) obj {
	return obj{
		"name":        name,
		"type":        "Edm.DateTimeOffset",
		"searchable":  false,
		"filterable":  true,
		"retrievable": true,
		"stored":      true,
		"sortable":    true,
		"facetable":   false,
	}
}

// buildIndex builds the search index definition: chunk text, vector
// embedding, source and document metadata, configured custom columns,
// and the permission fields when ACL mode is on.
func buildIndex(cfg *domain.Configuration) domain.Definition {
	prefix := cfg.ResourcePrefix

	key := stringField("uid", true, false, true, false)
	key["key"] = true
	key["analyzer"] = "keyword"

	fields := arr{
		key,
		stringField("snippet_parent_id", false, true, false, false),
		stringField("doc_url", false, true, false, false),
		stringField("snippet", true, false, false, false),
		stringField("image_snippet_parent_id", false, true, false, false),
		obj{
			"name":                "snippet_vector",
			"type":                "Collection(Edm.Single)",
			"searchable":          true,
			"filterable":          false,
			"retrievable":         true,
			"stored":              true,
			"sortable":            false,
			"facetable":           false,
			"dimensions":          cfg.EmbeddingDimensions,
			"vectorSearchProfile": prefix + "-vector-search-profile",
		},
		// Source-system item metadata.
		stringField("metadata_spo_item_name", true, true, true, false),
		stringField("metadata_spo_item_path", false, true, false, false),
		stringField("metadata_spo_item_weburi", false, false, false, false),
		dateField("metadata_spo_item_last_modified"),
		obj{
			"name":        "metadata_spo_item_size",
			"type":        "Edm.Int64",
			"searchable":  false,
			"filterable":  true,
			"retrievable": true,
			"stored":      true,
			"sortable":    true,
			"facetable":   false,
		},
		stringField("metadata_spo_item_content_type", false, true, false, true),
		stringField("metadata_spo_item_extension", false, true, false, true),
		// Document content metadata, extracted from the files themselves.
		stringField("metadata_author", true, true, true, true),
		dateField("metadata_creation_date"),
		dateField("metadata_last_modified"),
		stringField("metadata_title", true, true, true, false),
		stringField("metadata_content_type", false, true, false, true),
	}

	// Custom source columns are indexed under their own names so they can
	// be used in filter expressions verbatim.
	for _, col := range cfg.AdditionalColumns {
		fields = append(fields, stringField(col, true, true, true, true))
	}

	body := obj{
		"name":        cfg.IndexName(),
		"description": "SharePoint index with custom metadata fields for agentic retrieval",
		"fields":      fields,
		"similarity": obj{
			"@odata.type": "#Microsoft.Azure.Search.BM25Similarity",
		},
		// Semantic ranking is required for agentic retrieval.
		"semantic": obj{
			"defaultConfiguration": prefix + "-semantic-configuration",
			"configurations": arr{
				obj{
					"name": prefix + "-semantic-configuration",
					"prioritizedFields": obj{
						"prioritizedContentFields": arr{
							obj{"fieldName": "snippet"},
						},
						"prioritizedKeywordsFields": arr{
							obj{"fieldName": "metadata_title"},
							obj{"fieldName": "metadata_author"},
						},
					},
				},
			},
		},
		"vectorSearch": obj{
			"algorithms": arr{
				obj{
					"name": prefix + "-vector-search-algorithm",
					"kind": "hnsw",
					"hnswParameters": obj{
						"metric":         "cosine",
						"m":              4,
						"efConstruction": 400,
						"efSearch":       500,
					},
				},
			},
			"profiles": arr{
				obj{
					"name":        prefix + "-vector-search-profile",
					"algorithm":   prefix + "-vector-search-algorithm",
					"vectorizer":  prefix + "-vectorizer",
					"compression": prefix + "-scalar-quantization",
				},
			},
			"vectorizers": arr{
				obj{
					"name": prefix + "-vectorizer",
					"kind": "azureOpenAI",
					"azureOpenAIParameters": obj{
						"resourceUri":  cfg.EmbeddingEndpoint,
						"deploymentId": cfg.EmbeddingDeployment,
						"apiKey":       cfg.EmbeddingKey,
						"modelName":    cfg.EmbeddingModel,
					},
				},
			},
			"compressions": arr{
				obj{
					"name": prefix + "-scalar-quantization",
					"kind": "scalarQuantization",
					"scalarQuantizationParameters": obj{
						"quantizedDataType": "int8",
					},
				},
			},
		},
	}

	applyACL(body, domain.KindIndex, cfg.EnableACL)

	return domain.Definition{
		Kind: domain.KindIndex,
		Name: cfg.IndexName(),
		Body: body,
	}
}

package schema

import (
	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// Chunking parameters for the split skill.
const (
	chunkSize    = 2000
	chunkOverlap = 200
)

// buildSkillset builds the enrichment pipeline: text splitting, vector
// embedding, and optionally chat-model image verbalization. Index
// projections map the skill outputs onto index fields.
func buildSkillset(cfg *domain.Configuration) domain.Definition {
	skills := arr{
		obj{
			"@odata.type":         "#Microsoft.Skills.Text.SplitSkill",
			"name":                "SplitSkill",
			"description":         "Split document content into chunks",
			"context":             "/document",
			"defaultLanguageCode": "en",
			"textSplitMode":       "pages",
			"maximumPageLength":   chunkSize,
			"pageOverlapLength":   chunkOverlap,
			"maximumPagesToTake":  0,
			"unit":                "characters",
			"inputs": arr{
				obj{"name": "text", "source": "/document/content"},
			},
			"outputs": arr{
				obj{"name": "textItems", "targetName": "pages"},
			},
		},
		embeddingSkill(cfg, "AzureOpenAIEmbeddingSkill",
			"Generate embeddings for text chunks",
			"/document/pages/*", "/document/pages/*", "text_vector"),
	}

	if cfg.VerbalizeImages() {
		skills = append(skills,
			obj{
				"@odata.type": "#Microsoft.Skills.Custom.ChatCompletionSkill",
				"name":        "GenAISkill",
				"description": "Generate descriptions for images",
				"context":     "/document/normalized_images/*",
				"uri":         cfg.ChatEndpoint + "/openai/deployments/" + cfg.ChatDeployment + "/chat/completions?api-version=2024-10-21",
				"httpMethod":  "POST",
				"timeout":     "PT1M",
				"batchSize":   1,
				"apiKey":      cfg.ChatKey,
				"inputs": arr{
					obj{"name": "systemMessage", "source": "='You are tasked with generating concise, accurate descriptions of images, figures, diagrams, or charts in documents.'"},
					obj{"name": "userMessage", "source": "='Please describe this image.'"},
					obj{"name": "image", "source": "/document/normalized_images/*/data"},
				},
				"outputs": arr{
					obj{"name": "response", "targetName": "verbalizedImage"},
				},
			},
			embeddingSkill(cfg, "VerbalizedImageAzureOpenAIEmbeddingSkill",
				"Generate embeddings for verbalized images",
				"/document/normalized_images/*", "/document/normalized_images/*/verbalizedImage", "verbalizedImage_vector"),
		)
	}

	selectors := arr{
		obj{
			"targetIndexName":    cfg.IndexName(),
			"parentKeyFieldName": "snippet_parent_id",
			"sourceContext":      "/document/pages/*",
			"mappings": projectionMappings(cfg, arr{
				obj{"name": "snippet_vector", "source": "/document/pages/*/text_vector"},
				obj{"name": "snippet", "source": "/document/pages/*"},
			}),
		},
	}

	if cfg.VerbalizeImages() {
		selectors = append(selectors, obj{
			"targetIndexName":    cfg.IndexName(),
			"parentKeyFieldName": "image_snippet_parent_id",
			"sourceContext":      "/document/normalized_images/*",
			"mappings": projectionMappings(cfg, arr{
				obj{"name": "snippet_vector", "source": "/document/normalized_images/*/verbalizedImage_vector"},
				obj{"name": "snippet", "source": "/document/normalized_images/*/verbalizedImage"},
			}),
		})
	}

	body := obj{
		"name":        cfg.SkillsetName(),
		"description": "Skillset for SharePoint indexing with metadata extraction",
		"skills":      skills,
		"indexProjections": obj{
			"selectors": selectors,
			"parameters": obj{
				"projectionMode": "skipIndexingParentDocuments",
			},
		},
	}

	applyACL(body, domain.KindSkillset, cfg.EnableACL)

	return domain.Definition{
		Kind: domain.KindSkillset,
		Name: cfg.SkillsetName(),
		Body: body,
	}
}

// embeddingSkill builds one Azure OpenAI embedding skill instance.
func embeddingSkill(cfg *domain.Configuration, name, description, context, source, target string) obj {
	return obj{
		"@odata.type":  "#Microsoft.Skills.Text.AzureOpenAIEmbeddingSkill",
		"name":         name,
		"description":  description,
		"context":      context,
		"resourceUri":  cfg.EmbeddingEndpoint,
		"apiKey":       cfg.EmbeddingKey,
		"deploymentId": cfg.EmbeddingDeployment,
		"dimensions":   cfg.EmbeddingDimensions,
		"modelName":    cfg.EmbeddingModel,
		"inputs": arr{
			obj{"name": "text", "source": source},
		},
		"outputs": arr{
			obj{"name": "embedding", "targetName": target},
		},
	}
}

// projectionMappings builds the per-selector field mappings: the
// chunk-specific mappings first, then the shared metadata pass-through,
// then custom columns. Permission mappings are not built here; applyACL
// adds them to every selector so the all-or-none invariant lives in one
// place.
func projectionMappings(cfg *domain.Configuration, chunkMappings arr) arr {
	mappings := append(arr{}, chunkMappings...)
	mappings = append(mappings,
		obj{"name": "doc_url", "source": "/document/metadata_spo_item_path"},
		obj{"name": "metadata_spo_item_name", "source": "/document/metadata_spo_item_name"},
		obj{"name": "metadata_spo_item_path", "source": "/document/metadata_spo_item_path"},
		obj{"name": "metadata_spo_item_weburi", "source": "/document/metadata_spo_item_weburi"},
		obj{"name": "metadata_spo_item_last_modified", "source": "/document/metadata_spo_item_last_modified"},
		obj{"name": "metadata_spo_item_size", "source": "/document/metadata_spo_item_size"},
		obj{"name": "metadata_spo_item_content_type", "source": "/document/metadata_spo_item_content_type"},
		obj{"name": "metadata_spo_item_extension", "source": "/document/metadata_spo_item_extension"},
		obj{"name": "metadata_author", "source": "/document/metadata_author"},
		obj{"name": "metadata_creation_date", "source": "/document/metadata_creation_date"},
		obj{"name": "metadata_last_modified", "source": "/document/metadata_last_modified"},
		obj{"name": "metadata_title", "source": "/document/metadata_title"},
		obj{"name": "metadata_content_type", "source": "/document/metadata_content_type"},
	)
	for _, col := range cfg.AdditionalColumns {
		mappings = append(mappings, obj{"name": col, "source": "/document/" + col})
	}
	return mappings
}

package schema

import (
	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// sourceDataFields are returned with each citation for display.
// Every entry must be retrievable in the index.
var sourceDataFields = []string{
	"metadata_spo_item_weburi",
	"snippet",
	"metadata_spo_item_name",
	"metadata_author",
	"metadata_creation_date",
	"metadata_last_modified",
	"metadata_title",
	"metadata_spo_item_content_type",
	"metadata_spo_item_size",
}

// searchFields are the fields retrieval queries search against.
var searchFields = []string{
	"snippet",
	"metadata_author",
	"metadata_title",
	"metadata_spo_item_name",
}

// buildKnowledgeSource builds the retrieval wrapper around the index:
// which fields are searched and which are returned for citations.
func buildKnowledgeSource(cfg *domain.Configuration) domain.Definition {
	sourceData := make(arr, 0, len(sourceDataFields)+len(cfg.AdditionalColumns))
	for _, f := range sourceDataFields {
		sourceData = append(sourceData, obj{"name": f})
	}
	for _, col := range cfg.AdditionalColumns {
		sourceData = append(sourceData, obj{"name": col})
	}

	search := make(arr, 0, len(searchFields))
	for _, f := range searchFields {
		search = append(search, obj{"name": f})
	}

	body := obj{
		"name":        cfg.KnowledgeSourceName(),
		"kind":        "searchIndex",
		"description": "Knowledge source wrapping custom SharePoint index '" + cfg.IndexName() + "' with metadata fields",
		"searchIndexParameters": obj{
			"searchIndexName":  cfg.IndexName(),
			"sourceDataFields": sourceData,
			"searchFields":     search,
		},
	}

	return domain.Definition{
		Kind: domain.KindKnowledgeSource,
		Name: cfg.KnowledgeSourceName(),
		Body: body,
	}
}

// buildKnowledgeBase builds the answer-synthesis wrapper: it references
// the knowledge source and declares the generation model, instructions
// and reasoning effort.
func buildKnowledgeBase(cfg *domain.Configuration) domain.Definition {
	body := obj{
		"name":                  cfg.KBName(),
		"description":           "Knowledge base for SharePoint content with agentic retrieval capabilities.",
		"retrievalInstructions": "Use this knowledge source to answer questions about SharePoint documents and content.",
		"answerInstructions":    "Provide a concise and informative answer based on the retrieved documents. Include relevant details and cite sources when possible.",
		"outputMode":            "answerSynthesis",
		"knowledgeSources": arr{
			obj{"name": cfg.KnowledgeSourceName()},
		},
		"models": arr{
			obj{
				"kind": "azureOpenAI",
				"azureOpenAIParameters": obj{
					"resourceUri":  cfg.ChatEndpoint,
					"apiKey":       cfg.ChatKey,
					"deploymentId": cfg.ChatDeployment,
					"modelName":    cfg.ChatModel,
				},
			},
		},
		"retrievalReasoningEffort": obj{"kind": "low"},
	}

	return domain.Definition{
		Kind: domain.KindKnowledgeBase,
		Name: cfg.KBName(),
		Body: body,
	}
}

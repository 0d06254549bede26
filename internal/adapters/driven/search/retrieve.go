package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
	"github.com/arclight-labs/kbctl/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.Retriever = (*Client)(nil)

// Retrieve sends a retrieval request against the named knowledge base.
// The service key authenticates the call; in ACL mode the caller's
// delegated token rides in x-ms-query-source-authorization as the raw
// token value, without a Bearer prefix. An elevated read instead sends
// the operator's token as a standard bearer credential, since the
// elevated-read role is checked against that principal. A response with
// zero references is returned as a valid, empty result.
func (c *Client) Retrieve(ctx context.Context, knowledgeBase string, req driven.RetrievalRequest) (*domain.QueryResult, error) {
	sourceParams := map[string]any{
		"kind":                       "searchIndex",
		"knowledgeSourceName":        req.KnowledgeSource,
		"includeReferences":          true,
		"includeReferenceSourceData": true,
	}
	if req.Filter != "" {
		sourceParams["filterAddOn"] = req.Filter
	}

	body := map[string]any{
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": req.Query},
				},
			},
		},
		"knowledgeSourceParams":    []any{sourceParams},
		"includeActivity":          req.IncludeActivity,
		"retrievalReasoningEffort": map[string]any{"kind": "low"},
	}

	headers := map[string]string{}
	if req.DelegatedToken != "" {
		headers[HeaderQuerySourceAuthorization] = req.DelegatedToken
	}
	if req.BearerToken != "" {
		headers["Authorization"] = "Bearer " + req.BearerToken
	}
	if req.Elevated {
		headers[HeaderElevatedRead] = "true"
	}

	resp, err := c.do(ctx, http.MethodPost, "/knowledgebases/"+knowledgeBase+"/retrieve", body, headers)
	if err != nil {
		return nil, err
	}
	if !success(resp.status, http.StatusOK) {
		return nil, &domain.QueryError{StatusCode: resp.status, Body: string(resp.body)}
	}

	return parseRetrievalResponse(resp.body)
}

// retrievalResponse mirrors the wire shape of a retrieve call.
type retrievalResponse struct {
	Response []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"response"`
	References []struct {
		ID             string         `json:"id"`
		DocKey         string         `json:"docKey"`
		RerankerScore  float64        `json:"rerankerScore"`
		SourceData     map[string]any `json:"sourceData"`
		ActivitySource int            `json:"activitySource"`
	} `json:"references"`
	Activity []map[string]any `json:"activity"`
}

// parseRetrievalResponse maps the wire response onto the domain result,
// keeping citation order and relevance scores intact for display.
func parseRetrievalResponse(data []byte) (*domain.QueryResult, error) {
	var wire retrievalResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode retrieval response: %w", err)
	}

	result := &domain.QueryResult{}

	for _, r := range wire.Response {
		for _, c := range r.Content {
			if result.Answer != "" {
				result.Answer += "\n"
			}
			result.Answer += c.Text
		}
	}

	for _, ref := range wire.References {
		citation := domain.Citation{
			ID:         ref.ID,
			DocKey:     ref.DocKey,
			Score:      ref.RerankerScore,
			SourceData: ref.SourceData,
		}
		citation.Title = stringField(ref.SourceData, "metadata_title")
		if citation.Title == "" {
			citation.Title = stringField(ref.SourceData, "metadata_spo_item_name")
		}
		citation.URL = stringField(ref.SourceData, "metadata_spo_item_weburi")
		citation.Author = stringField(ref.SourceData, "metadata_author")
		result.Citations = append(result.Citations, citation)
	}

	for _, step := range wire.Activity {
		stepType, _ := step["type"].(string)
		result.Activity = append(result.Activity, domain.ActivityStep{Type: stepType, Detail: step})
	}

	logger.Debug("retrieval returned %d citations, %d activity steps", len(result.Citations), len(result.Activity))
	return result, nil
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

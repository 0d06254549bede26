package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.SearchAPI = (*Client)(nil)

// GetResource fetches a resource by kind and name.
func (c *Client) GetResource(ctx context.Context, kind domain.ResourceKind, name string) (map[string]any, error) {
	resp, err := c.do(ctx, http.MethodGet, "/"+kind.Collection()+"/"+name, nil, nil)
	if err != nil {
		return nil, err
	}
	if !success(resp.status, http.StatusOK) {
		return nil, apiError(name, "get "+kind.String(), resp)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", kind, name, err)
	}
	return body, nil
}

// PutResource creates or updates a resource from its definition.
func (c *Client) PutResource(ctx context.Context, def domain.Definition) error {
	resp, err := c.do(ctx, http.MethodPut, "/"+def.Kind.Collection()+"/"+def.Name, def.Body, nil)
	if err != nil {
		return err
	}
	if !success(resp.status, http.StatusOK, http.StatusCreated, http.StatusNoContent) {
		return apiError(def.Name, "put "+def.Kind.String(), resp)
	}
	return nil
}

// DeleteResource removes a resource. An already-absent resource surfaces
// as domain.ErrNotFound; the reconciler treats that as success.
func (c *Client) DeleteResource(ctx context.Context, kind domain.ResourceKind, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/"+kind.Collection()+"/"+name, nil, nil)
	if err != nil {
		return err
	}
	if !success(resp.status, http.StatusNoContent) {
		return apiError(name, "delete "+kind.String(), resp)
	}
	return nil
}

// ListResources enumerates existing resources of a kind.
func (c *Client) ListResources(ctx context.Context, kind domain.ResourceKind) ([]domain.ResourceSummary, error) {
	resp, err := c.do(ctx, http.MethodGet, "/"+kind.Collection(), nil, nil)
	if err != nil {
		return nil, err
	}
	if !success(resp.status, http.StatusOK) {
		return nil, apiError(kind.Collection(), "list", resp)
	}

	var listing struct {
		Value []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"value"`
	}
	if err := json.Unmarshal(resp.body, &listing); err != nil {
		return nil, fmt.Errorf("decode %s listing: %w", kind.Collection(), err)
	}

	summaries := make([]domain.ResourceSummary, 0, len(listing.Value))
	for _, v := range listing.Value {
		summaries = append(summaries, domain.ResourceSummary{Name: v.Name, Kind: v.Kind})
	}
	return summaries, nil
}

// RunIndexer triggers an ingestion run. The remote side accepts with 202
// and executes asynchronously.
func (c *Client) RunIndexer(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPost, "/indexers/"+name+"/run", nil, nil)
	if err != nil {
		return err
	}
	if !success(resp.status, http.StatusAccepted) {
		return apiError(name, "run indexer", resp)
	}
	return nil
}

// ResetIndexer clears ingestion state for a full reprocess.
func (c *Client) ResetIndexer(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodPost, "/indexers/"+name+"/reset", nil, nil)
	if err != nil {
		return err
	}
	if !success(resp.status, http.StatusNoContent, http.StatusAccepted) {
		return apiError(name, "reset indexer", resp)
	}
	return nil
}

// IndexerStatus reads a point-in-time status snapshot.
func (c *Client) IndexerStatus(ctx context.Context, name string) (*domain.IndexerStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/indexers/"+name+"/status", nil, nil)
	if err != nil {
		return nil, err
	}
	if !success(resp.status, http.StatusOK) {
		return nil, apiError(name, "indexer status", resp)
	}

	var body struct {
		Status     string `json:"status"`
		LastResult *struct {
			Status         string `json:"status"`
			ItemsProcessed int    `json:"itemsProcessed"`
			ItemsFailed    int    `json:"itemsFailed"`
			ErrorMessage   string `json:"errorMessage"`
		} `json:"lastResult"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, fmt.Errorf("decode indexer status: %w", err)
	}

	status := &domain.IndexerStatus{Status: body.Status}
	if body.LastResult != nil {
		status.LastRunStatus = body.LastResult.Status
		status.ItemsProcessed = body.LastResult.ItemsProcessed
		status.ItemsFailed = body.LastResult.ItemsFailed
		status.ErrorMessage = body.LastResult.ErrorMessage
	}
	return status, nil
}

// IndexStats reads document count and storage size for an index.
func (c *Client) IndexStats(ctx context.Context, name string) (*domain.IndexStats, error) {
	resp, err := c.do(ctx, http.MethodGet, "/indexes/"+name+"/stats", nil, nil)
	if err != nil {
		return nil, err
	}
	if !success(resp.status, http.StatusOK) {
		return nil, apiError(name, "index stats", resp)
	}

	var body struct {
		DocumentCount int64 `json:"documentCount"`
		StorageSize   int64 `json:"storageSize"`
	}
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, fmt.Errorf("decode index stats: %w", err)
	}
	return &domain.IndexStats{DocumentCount: body.DocumentCount, StorageSize: body.StorageSize}, nil
}

// SampleDocuments reads up to top documents, returning only the selected
// fields. Used by the ACL diagnostics to inspect permission value shapes.
func (c *Client) SampleDocuments(ctx context.Context, index string, fields []string, top int) ([]map[string]any, error) {
	body := map[string]any{
		"search": "*",
		"top":    top,
		"count":  true,
	}
	if len(fields) > 0 {
		sel := ""
		for i, f := range fields {
			if i > 0 {
				sel += ","
			}
			sel += f
		}
		body["select"] = sel
	}

	resp, err := c.do(ctx, http.MethodPost, "/indexes/"+index+"/docs/search", body, nil)
	if err != nil {
		return nil, err
	}
	if !success(resp.status, http.StatusOK) {
		return nil, apiError(index, "search documents", resp)
	}

	var result struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return nil, fmt.Errorf("decode document search: %w", err)
	}
	return result.Value, nil
}

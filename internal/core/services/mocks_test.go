package services

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
)

// mockSearchAPI is an in-memory stand-in for the resource API.
type mockSearchAPI struct {
	resources map[string]map[string]any

	getCalls    int
	putCalls    int
	deleteCalls int

	putOrder    []string
	deleteOrder []string

	putErr    error
	deleteErr error

	runs   []string
	resets []string
	status *domain.IndexerStatus
	stats  *domain.IndexStats
	docs   []map[string]any
	listed []domain.ResourceSummary
}

var _ driven.SearchAPI = (*mockSearchAPI)(nil)

func newMockSearchAPI() *mockSearchAPI {
	return &mockSearchAPI{resources: map[string]map[string]any{}}
}

func resourceKey(kind domain.ResourceKind, name string) string {
	return string(kind) + "/" + name
}

func (m *mockSearchAPI) GetResource(_ context.Context, kind domain.ResourceKind, name string) (map[string]any, error) {
	m.getCalls++
	body, ok := m.resources[resourceKey(kind, name)]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", kind, name, domain.ErrNotFound)
	}
	return body, nil
}

func (m *mockSearchAPI) PutResource(_ context.Context, def domain.Definition) error {
	m.putCalls++
	m.putOrder = append(m.putOrder, string(def.Kind))
	if m.putErr != nil {
		return m.putErr
	}
	m.resources[resourceKey(def.Kind, def.Name)] = def.Body
	return nil
}

func (m *mockSearchAPI) DeleteResource(_ context.Context, kind domain.ResourceKind, name string) error {
	m.deleteCalls++
	m.deleteOrder = append(m.deleteOrder, string(kind))
	if m.deleteErr != nil {
		return m.deleteErr
	}
	key := resourceKey(kind, name)
	if _, ok := m.resources[key]; !ok {
		return fmt.Errorf("%s %s: %w", kind, name, domain.ErrNotFound)
	}
	delete(m.resources, key)
	return nil
}

func (m *mockSearchAPI) ListResources(_ context.Context, _ domain.ResourceKind) ([]domain.ResourceSummary, error) {
	return m.listed, nil
}

func (m *mockSearchAPI) RunIndexer(_ context.Context, name string) error {
	m.runs = append(m.runs, name)
	return nil
}

func (m *mockSearchAPI) ResetIndexer(_ context.Context, name string) error {
	m.resets = append(m.resets, name)
	return nil
}

func (m *mockSearchAPI) IndexerStatus(_ context.Context, _ string) (*domain.IndexerStatus, error) {
	if m.status == nil {
		return nil, domain.ErrNotFound
	}
	return m.status, nil
}

func (m *mockSearchAPI) IndexStats(_ context.Context, _ string) (*domain.IndexStats, error) {
	if m.stats == nil {
		return nil, domain.ErrNotFound
	}
	return m.stats, nil
}

func (m *mockSearchAPI) SampleDocuments(_ context.Context, _ string, _ []string, _ int) ([]map[string]any, error) {
	return m.docs, nil
}

// mockRetriever records the last retrieval request.
type mockRetriever struct {
	lastKB  string
	lastReq driven.RetrievalRequest
	result  *domain.QueryResult
	err     error
}

var _ driven.Retriever = (*mockRetriever)(nil)

func (m *mockRetriever) Retrieve(_ context.Context, kb string, req driven.RetrievalRequest) (*domain.QueryResult, error) {
	m.lastKB = kb
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.QueryResult{}, nil
}

// mockTokenProvider returns a fixed token.
type mockTokenProvider struct {
	token     string
	err       error
	lastScope string
	calls     int
}

var _ driven.TokenProvider = (*mockTokenProvider)(nil)

func (m *mockTokenProvider) Token(_ context.Context, scope string) (*oauth2.Token, error) {
	m.calls++
	m.lastScope = scope
	if m.err != nil {
		return nil, m.err
	}
	return &oauth2.Token{AccessToken: m.token, TokenType: "Bearer"}, nil
}

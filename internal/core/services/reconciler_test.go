package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/schema"
)

// testConfig returns a complete configuration for service tests.
func testConfig() *domain.Configuration {
	return &domain.Configuration{
		SearchEndpoint:      "https://example.search.windows.net",
		APIKey:              "service-key",
		APIVersion:          domain.ACLAPIVersion,
		ConnectionString:    "SharePointOnlineEndpoint=https://contoso.sharepoint.com;ApplicationId=app",
		ContainerName:       "useQuery",
		ContainerQuery:      "includeLibrariesInSite=https://contoso.sharepoint.com/sites/Docs",
		ResourcePrefix:      "sp-custom",
		EnableACL:           true,
		EmbeddingEndpoint:   "https://example.openai.azure.com",
		EmbeddingKey:        "embed-key",
		EmbeddingDeployment: "text-embedding-3-small",
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		ChatEndpoint:        "https://example.openai.azure.com",
		ChatKey:             "chat-key",
		ChatDeployment:      "gpt-4o",
		ChatModel:           "gpt-4o",
	}
}

// seedRemoteState populates the mock with the state a converged service
// would report: the desired bodies, round-tripped through JSON the way a
// real response decodes (numbers become float64), plus server-populated
// metadata and redacted credentials.
func seedRemoteState(t *testing.T, api *mockSearchAPI, cfg *domain.Configuration) {
	t.Helper()
	defs, err := schema.BuildAll(cfg)
	require.NoError(t, err)

	for _, def := range defs {
		raw, err := json.Marshal(def.Body)
		require.NoError(t, err)
		var remote map[string]any
		require.NoError(t, json.Unmarshal(raw, &remote))

		remote["@odata.etag"] = `"0x123"`
		delete(remote, "credentials")
		api.resources[resourceKey(def.Kind, def.Name)] = remote
	}
}

func TestApplyCreatesChainInDependencyOrder(t *testing.T) {
	api := newMockSearchAPI()
	err := NewReconciler(testConfig(), api).Apply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, api.putCalls)
	assert.Equal(t, []string{
		"datasource", "index", "skillset", "indexer", "knowledgesource", "knowledgebase",
	}, api.putOrder)
}

func TestApplyIsIdempotent(t *testing.T) {
	// Re-applying an unchanged configuration reads every resource once
	// and writes nothing.
	cfg := testConfig()
	api := newMockSearchAPI()
	seedRemoteState(t, api, cfg)

	err := NewReconciler(cfg, api).Apply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, api.getCalls)
	assert.Zero(t, api.putCalls)
}

func TestApplyUpdatesDriftedResource(t *testing.T) {
	cfg := testConfig()
	api := newMockSearchAPI()
	seedRemoteState(t, api, cfg)

	// Someone changed the indexer schedule out of band.
	remote := api.resources[resourceKey(domain.KindIndexer, cfg.IndexerName())]
	remote["schedule"] = map[string]any{"interval": "PT1H"}

	err := NewReconciler(cfg, api).Apply(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, api.putCalls)
	assert.Equal(t, []string{"indexer"}, api.putOrder)
}

func TestApplyIgnoresServerPopulatedFields(t *testing.T) {
	// Remote-only defaults, volatile metadata and redacted credentials
	// must not read as drift.
	cfg := testConfig()
	api := newMockSearchAPI()
	seedRemoteState(t, api, cfg)

	for _, remote := range api.resources {
		remote["@odata.context"] = "https://example.search.windows.net/$metadata"
		remote["encryptionKey"] = nil
		remote["serverDefault"] = "populated"
	}

	err := NewReconciler(cfg, api).Apply(context.Background())
	require.NoError(t, err)
	assert.Zero(t, api.putCalls)
}

func TestApplyRefusesACLFlipOnExistingIndex(t *testing.T) {
	// The index exists without permission filtering; configuration now
	// wants ACL mode. The option cannot change in place.
	open := testConfig()
	open.EnableACL = false
	api := newMockSearchAPI()
	seedRemoteState(t, api, open)

	locked := testConfig()
	err := NewReconciler(locked, api).Apply(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsModeConflict(err))

	// The data source (earlier in the chain) may have been written, but
	// the index itself must not be.
	for _, kind := range api.putOrder {
		assert.NotEqual(t, "index", kind)
	}
}

func TestApplyModeConflictBeforeAnyNetworkCall(t *testing.T) {
	cfg := testConfig()
	cfg.ImageVerbalization = domain.VerbalizeOn

	api := newMockSearchAPI()
	err := NewReconciler(cfg, api).Apply(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsModeConflict(err))
	assert.Zero(t, api.getCalls)
	assert.Zero(t, api.putCalls)
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	api := newMockSearchAPI()
	api.putErr = &domain.RemoteAPIError{Resource: "sp-custom-datasource", Action: "put", StatusCode: 400, Body: "bad"}

	err := NewReconciler(testConfig(), api).Apply(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, api.putCalls)

	var apiErr *domain.RemoteAPIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestDeleteAllReverseOrder(t *testing.T) {
	cfg := testConfig()
	api := newMockSearchAPI()
	seedRemoteState(t, api, cfg)

	err := NewReconciler(cfg, api).DeleteAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"knowledgebase", "knowledgesource", "indexer", "skillset", "index", "datasource",
	}, api.deleteOrder)
	assert.Empty(t, api.resources)
}

func TestDeleteAllIdempotent(t *testing.T) {
	// Nothing exists; every delete reports not-found and the whole
	// operation still succeeds.
	api := newMockSearchAPI()
	err := NewReconciler(testConfig(), api).DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, api.deleteCalls)
}

func TestResetClearsStateThenRuns(t *testing.T) {
	cfg := testConfig()
	api := newMockSearchAPI()

	err := NewReconciler(cfg, api).Reset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{cfg.IndexerName()}, api.resets)
	assert.Equal(t, []string{cfg.IndexerName()}, api.runs)
}

func TestStatusReadsIndexerSnapshot(t *testing.T) {
	api := newMockSearchAPI()
	api.status = &domain.IndexerStatus{Status: "running", ItemsProcessed: 7}

	status, err := NewReconciler(testConfig(), api).Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, 7, status.ItemsProcessed)
}

func TestSubsetComparison(t *testing.T) {
	tests := []struct {
		name    string
		desired map[string]any
		remote  map[string]any
		want    bool
	}{
		{
			name:    "numeric types normalized",
			desired: map[string]any{"dimensions": 1536},
			remote:  map[string]any{"dimensions": float64(1536)},
			want:    true,
		},
		{
			name:    "remote extras ignored",
			desired: map[string]any{"name": "idx"},
			remote:  map[string]any{"name": "idx", "defaultScoringProfile": nil},
			want:    true,
		},
		{
			name:    "missing desired key is drift",
			desired: map[string]any{"name": "idx", "similarity": map[string]any{"k1": 1.2}},
			remote:  map[string]any{"name": "idx"},
			want:    false,
		},
		{
			name:    "nested value change is drift",
			desired: map[string]any{"schedule": map[string]any{"interval": "P1D"}},
			remote:  map[string]any{"schedule": map[string]any{"interval": "PT1H"}},
			want:    false,
		},
		{
			name:    "array length change is drift",
			desired: map[string]any{"fields": []any{map[string]any{"name": "a"}}},
			remote:  map[string]any{"fields": []any{}},
			want:    false,
		},
		{
			name:    "redacted credentials ignored",
			desired: map[string]any{"credentials": map[string]any{"connectionString": "secret"}},
			remote:  map[string]any{},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, subset(tt.desired, tt.remote))
		})
	}
}

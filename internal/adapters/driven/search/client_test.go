package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

func testClient(serverURL string) *Client {
	return NewClient(&domain.Configuration{
		SearchEndpoint: serverURL,
		APIKey:         "service-key",
		APIVersion:     domain.ACLAPIVersion,
	})
}

func TestRequestCarriesServiceKeyAndAPIVersion(t *testing.T) {
	var gotKey, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(HeaderAPIKey)
		gotVersion = r.URL.Query().Get("api-version")
		w.Write([]byte(`{"name":"sp-custom-index"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetResource(context.Background(), domain.KindIndex, "sp-custom-index")
	require.NoError(t, err)
	assert.Equal(t, "service-key", gotKey)
	assert.Equal(t, domain.ACLAPIVersion, gotVersion)
}

func TestGetResourceNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such resource", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetResource(context.Background(), domain.KindIndex, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestPutResourceSurfacesErrorBodyVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"field 'UserIds' requires permissionFilterOption"}}`))
	}))
	defer server.Close()

	err := testClient(server.URL).PutResource(context.Background(), domain.Definition{
		Kind: domain.KindIndex,
		Name: "sp-custom-index",
		Body: map[string]any{"name": "sp-custom-index"},
	})
	require.Error(t, err)

	var apiErr *domain.RemoteAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "permissionFilterOption")
	assert.Equal(t, "sp-custom-index", apiErr.Resource)
}

func TestDeleteResourceAlreadyAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := testClient(server.URL).DeleteResource(context.Background(), domain.KindIndexer, "gone")
	assert.True(t, domain.IsNotFound(err))
}

func TestGetRetriesOn5xx(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "transient", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"name":"ds"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetResource(context.Background(), domain.KindDataSource, "ds")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPutDoesNotRetry(t *testing.T) {
	// Writes are not idempotent from the caller's perspective; a 5xx on
	// PUT is surfaced immediately.
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	err := testClient(server.URL).PutResource(context.Background(), domain.Definition{
		Kind: domain.KindSkillset, Name: "ss", Body: map[string]any{},
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunIndexerAccepted(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	err := testClient(server.URL).RunIndexer(context.Background(), "sp-custom-indexer")
	require.NoError(t, err)
	assert.Equal(t, "/indexers/sp-custom-indexer/run", path)
}

func TestIndexerStatusParsesSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "running",
			"lastResult": {"status": "success", "itemsProcessed": 42, "itemsFailed": 1}
		}`))
	}))
	defer server.Close()

	status, err := testClient(server.URL).IndexerStatus(context.Background(), "idx")
	require.NoError(t, err)
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, "success", status.LastRunStatus)
	assert.Equal(t, 42, status.ItemsProcessed)
	assert.Equal(t, 1, status.ItemsFailed)
}

func TestSampleDocumentsSelectsFields(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/sp-custom-index/docs/search", r.URL.Path)
		require.NoError(t, jsonDecode(r, &gotBody))
		w.Write([]byte(`{"value":[{"UserIds":["abc"]}]}`))
	}))
	defer server.Close()

	docs, err := testClient(server.URL).SampleDocuments(
		context.Background(), "sp-custom-index", []string{"UserIds", "GroupIds"}, 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "UserIds,GroupIds", gotBody["select"])
	assert.Equal(t, float64(10), gotBody["top"])
}

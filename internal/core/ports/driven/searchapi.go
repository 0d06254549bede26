// Package driven defines secondary ports: interfaces the core services
// require from infrastructure adapters.
package driven

import (
	"context"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// SearchAPI is the port to the remote resource API of the search service.
// Every call is authenticated with the service key and versioned with the
// configured api-version. Implementations surface non-success responses
// as *domain.RemoteAPIError with status and body verbatim.
type SearchAPI interface {
	// GetResource fetches a resource by kind and name.
	// Returns domain.ErrNotFound if the resource is absent.
	GetResource(ctx context.Context, kind domain.ResourceKind, name string) (map[string]any, error)

	// PutResource creates or updates a resource from its definition.
	PutResource(ctx context.Context, def domain.Definition) error

	// DeleteResource removes a resource.
	// Returns domain.ErrNotFound if it was already absent.
	DeleteResource(ctx context.Context, kind domain.ResourceKind, name string) error

	// ListResources enumerates existing resources of a kind.
	ListResources(ctx context.Context, kind domain.ResourceKind) ([]domain.ResourceSummary, error)

	// RunIndexer triggers an ingestion run. The remote job executes
	// asynchronously; this returns as soon as the run is accepted.
	RunIndexer(ctx context.Context, name string) error

	// ResetIndexer clears ingestion state so the next run reprocesses
	// every source document from scratch.
	ResetIndexer(ctx context.Context, name string) error

	// IndexerStatus reads a point-in-time status snapshot.
	IndexerStatus(ctx context.Context, name string) (*domain.IndexerStatus, error)

	// IndexStats reads document count and storage size for an index.
	IndexStats(ctx context.Context, name string) (*domain.IndexStats, error)

	// SampleDocuments reads up to top documents from an index, returning
	// only the selected fields. Used by the ACL diagnostics.
	SampleDocuments(ctx context.Context, index string, fields []string, top int) ([]map[string]any, error)
}

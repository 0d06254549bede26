// Package driving defines primary ports: the use-case interfaces exposed
// to the CLI adapter.
package driving

import (
	"context"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// Provisioner reconciles the full chain of remote resources.
type Provisioner interface {
	// Apply ensures every resource in the chain is present and up to
	// date, in dependency order. It aborts on the first failure rather
	// than continuing in a partially-applied state.
	Apply(ctx context.Context) error

	// Run triggers the ingestion job. Fire and forget: the remote job
	// executes asynchronously and Status is the only way to observe it.
	Run(ctx context.Context) error

	// Status reads a point-in-time snapshot of the ingestion job.
	Status(ctx context.Context) (*domain.IndexerStatus, error)

	// Reset clears ingestion state and triggers a fresh run, so schema
	// or mapping changes take effect for all source documents.
	Reset(ctx context.Context) error

	// DeleteAll removes every resource in reverse dependency order.
	// Idempotent: already-absent resources are a success, so cleanup
	// is safe to re-run.
	DeleteAll(ctx context.Context) error

	// ListKnowledgeSources enumerates existing knowledge sources.
	ListKnowledgeSources(ctx context.Context) ([]domain.ResourceSummary, error)
}

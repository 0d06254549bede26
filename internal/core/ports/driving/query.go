package driving

import (
	"context"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// QueryService issues permission-filtered retrieval queries.
type QueryService interface {
	// Query sends a question to the knowledge base. In ACL mode it
	// first obtains the caller's delegated token and attaches it
	// alongside the service credential so the remote service evaluates
	// document-level permissions.
	Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.QueryResult, error)
}

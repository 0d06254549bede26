package services

import (
	"context"
	"fmt"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
	"github.com/arclight-labs/kbctl/internal/core/ports/driving"
	"github.com/arclight-labs/kbctl/internal/logger"
)

// SearchScope is the token scope for delegated search queries.
const SearchScope = "https://search.azure.com/.default"

// Ensure QueryOrchestrator implements the interface.
var _ driving.QueryService = (*QueryOrchestrator)(nil)

// QueryOrchestrator runs retrieval queries against the knowledge base.
// In ACL mode it acquires the caller's delegated token first, so results
// are filtered to documents the caller can read at the source.
type QueryOrchestrator struct {
	cfg       *domain.Configuration
	retriever driven.Retriever
	tokens    driven.TokenProvider
}

// NewQueryOrchestrator creates a query service. tokens may be nil when
// ACL mode is off; it is only consulted for permission-filtered queries.
func NewQueryOrchestrator(cfg *domain.Configuration, retriever driven.Retriever, tokens driven.TokenProvider) *QueryOrchestrator {
	return &QueryOrchestrator{cfg: cfg, retriever: retriever, tokens: tokens}
}

// Query sends the question to the knowledge base. With ACL mode on, the
// delegated token rides alongside the service credential; the two are
// never interchangeable. A result with zero citations is returned as-is:
// for a caller whose identity grants access to nothing, empty is the
// correct answer, not an error.
func (q *QueryOrchestrator) Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	if text == "" {
		return nil, domain.NewConfigError("query text must not be empty")
	}

	req := driven.RetrievalRequest{
		Query:           text,
		KnowledgeSource: q.cfg.KnowledgeSourceName(),
		Filter:          opts.Filter,
		IncludeActivity: opts.IncludeActivity,
		Elevated:        opts.Elevated,
	}

	switch {
	case opts.Elevated:
		// The elevated-read role is bound to the operator's principal,
		// so the token goes in the standard Authorization header instead
		// of the query-source header.
		if q.tokens == nil {
			return nil, domain.NewConfigError("elevated read requires an identity provider; set ENTRA_TENANT_ID and ENTRA_CLIENT_ID")
		}
		token, err := q.tokens.Token(ctx, SearchScope)
		if err != nil {
			return nil, fmt.Errorf("acquire operator token: %w", err)
		}
		req.BearerToken = token.AccessToken
		logger.Debug("operator token acquired, expires %s", token.Expiry.Format("15:04:05"))

	case q.cfg.EnableACL:
		if q.tokens == nil {
			return nil, domain.NewConfigError("ACL mode requires an identity provider; set ENTRA_TENANT_ID and ENTRA_CLIENT_ID")
		}
		token, err := q.tokens.Token(ctx, SearchScope)
		if err != nil {
			return nil, fmt.Errorf("acquire delegated token: %w", err)
		}
		req.DelegatedToken = token.AccessToken
		logger.Debug("delegated token acquired, expires %s", token.Expiry.Format("15:04:05"))
	}

	return q.retriever.Retrieve(ctx, q.cfg.KBName(), req)
}

package driven

import (
	"context"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// RetrievalRequest is one knowledge base retrieval call.
type RetrievalRequest struct {
	// Query is the user question.
	Query string

	// KnowledgeSource names the knowledge source to retrieve against.
	KnowledgeSource string

	// Filter is an optional OData filter add-on.
	Filter string

	// IncludeActivity requests the reasoning/retrieval trace.
	IncludeActivity bool

	// DelegatedToken is the caller's own short-lived identity token.
	// When set, the adapter sends it in the query-source authorization
	// header so the remote service trims results to the caller's
	// permissions. It is owned by the caller and passed per call,
	// never cached by the adapter.
	DelegatedToken string

	// Elevated requests an elevated read that bypasses ACL trimming.
	// Requires BearerToken: the elevated-read role is bound to the
	// token's principal.
	Elevated bool

	// BearerToken is the operator's identity token, sent as a standard
	// Authorization bearer credential. The remote service authorizes the
	// elevated read against this principal's role assignments.
	BearerToken string
}

// Retriever is the port to the remote query API (knowledge base retrieve).
type Retriever interface {
	// Retrieve sends a retrieval request against the named knowledge
	// base and parses the synthesized answer, citations and activity.
	// A zero-citation response is a valid result, not an error.
	Retrieve(ctx context.Context, knowledgeBase string, req RetrievalRequest) (*domain.QueryResult, error)
}

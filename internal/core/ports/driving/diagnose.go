package driving

import (
	"context"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// Diagnoser inspects the indexed permission fields for the known
// degraded state where values are opaque source-system IDs instead of
// identity-provider GUIDs.
type Diagnoser interface {
	// Diagnose samples indexed documents and classifies their
	// permission field values by shape.
	Diagnose(ctx context.Context) (*domain.ACLReport, error)
}

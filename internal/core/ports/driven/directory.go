package driven

import (
	"context"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// DirectoryAPI is the port to the identity provider's directory, used to
// resolve permission field values back to principals.
type DirectoryAPI interface {
	// Group fetches a group by object ID.
	Group(ctx context.Context, id string) (*domain.Group, error)

	// GroupMembers lists the members of a group, following pagination.
	GroupMembers(ctx context.Context, id string) ([]domain.GroupMember, error)
}

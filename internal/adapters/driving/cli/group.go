package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arclight-labs/kbctl/internal/adapters/driven/auth"
	"github.com/arclight-labs/kbctl/internal/core/domain"
)

var groupMembers bool

var groupCmd = &cobra.Command{
	Use:   "group [object-id]",
	Short: "Resolve a GroupIds value against the directory",
	Long: `Looks up a directory group by the object ID found in an indexed
GroupIds field. Useful for verifying who a permission value actually
grants access to. Requires interactive sign-in.`,
	Args: cobra.ExactArgs(1),
	RunE: runGroup,
}

func init() {
	groupCmd.Flags().BoolVar(&groupMembers, "members", false, "also list group members")
	rootCmd.AddCommand(groupCmd)
}

func runGroup(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if tokenProvider == nil {
		return errors.New("directory lookup requires ENTRA_TENANT_ID and ENTRA_CLIENT_ID")
	}

	ctx := context.Background()
	token, err := tokenProvider.Token(ctx, auth.GraphScope)
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	directory := newDirectoryClient(token)
	id := args[0]

	group, err := directory.Group(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			return fmt.Errorf("no directory group with ID %s; a numeric value here is a SharePoint site group, not a directory object", id)
		}
		return fmt.Errorf("group lookup failed: %w", err)
	}

	cmd.Printf("Group:  %s\n", group.DisplayName)
	cmd.Printf("Type:   %s\n", group.TypeLabel())
	cmd.Printf("ID:     %s\n", group.ID)
	if group.Mail != "" {
		cmd.Printf("Mail:   %s\n", group.Mail)
	}

	if !groupMembers {
		return nil
	}

	members, err := directory.GroupMembers(ctx, id)
	if err != nil {
		return fmt.Errorf("member listing failed: %w", err)
	}

	cmd.Printf("\nMembers (%d):\n", len(members))
	for _, m := range members {
		cmd.Printf("  %s", m.DisplayName)
		if ident := m.Identifier(); ident != m.DisplayName && ident != "" {
			cmd.Printf(" <%s>", ident)
		}
		cmd.Println()
	}
	return nil
}

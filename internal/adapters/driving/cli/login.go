package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arclight-labs/kbctl/internal/adapters/driven/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify interactive sign-in",
	Long: `Runs the device-code sign-in once and reports whether a delegated
token could be acquired for the search service. Tokens are not stored;
each ACL-mode query signs in for its own session.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if tokenProvider == nil {
		return errors.New("sign-in requires ENTRA_TENANT_ID and ENTRA_CLIENT_ID")
	}

	token, err := tokenProvider.Token(context.Background(), auth.DefaultScope)
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	cmd.Printf("Signed in. Token valid until %s.\n", token.Expiry.Format("15:04:05"))
	return nil
}

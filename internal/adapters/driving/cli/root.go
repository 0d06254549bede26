// Package cli is the command-line adapter. Commands depend only on the
// driving ports; concrete services are wired on first use so that
// configuration problems surface as command errors, not process panics.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/arclight-labs/kbctl/internal/adapters/driven/auth"
	"github.com/arclight-labs/kbctl/internal/adapters/driven/config/env"
	"github.com/arclight-labs/kbctl/internal/adapters/driven/graph"
	"github.com/arclight-labs/kbctl/internal/adapters/driven/search"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
	"github.com/arclight-labs/kbctl/internal/core/ports/driving"
	"github.com/arclight-labs/kbctl/internal/core/services"
	"github.com/arclight-labs/kbctl/internal/logger"
	"golang.org/x/oauth2"
)

// version is set by Execute from the build-time value in main.
var version = "dev"

var verbose bool

// Services used by the commands. Wired lazily by ensureServices; tests
// substitute their own implementations.
var (
	provisioner   driving.Provisioner
	queryService  driving.QueryService
	diagnoser     driving.Diagnoser
	tokenProvider driven.TokenProvider

	// newDirectoryClient builds a directory client from a delegated token.
	newDirectoryClient = func(token *oauth2.Token) driven.DirectoryAPI {
		return graph.NewClient(token)
	}
)

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "Manage a permission-aware SharePoint retrieval pipeline",
	Long: `kbctl provisions and queries an Azure AI Search retrieval pipeline
fed from SharePoint. It reconciles the full resource chain (data source,
index, skillset, indexer, knowledge source, knowledge base) from
declarative configuration, and issues queries that respect each caller's
document-level permissions.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// ensureServices resolves configuration and wires the concrete adapters
// behind the driving ports. Idempotent; the first failing resolution is
// returned on every call until the environment is fixed.
func ensureServices() error {
	if provisioner != nil && queryService != nil && diagnoser != nil {
		return nil
	}

	resolver := &env.Resolver{}
	cfg, err := resolver.Resolve()
	if err != nil {
		return err
	}

	client := search.NewClient(cfg)

	if tokenProvider == nil && cfg.TenantID != "" && cfg.ClientID != "" {
		authenticator, err := auth.NewDeviceCodeAuthenticator(cfg.TenantID, cfg.ClientID)
		if err != nil {
			return err
		}
		tokenProvider = authenticator
	}

	if provisioner == nil {
		provisioner = services.NewReconciler(cfg, client)
	}
	if queryService == nil {
		queryService = services.NewQueryOrchestrator(cfg, client, tokenProvider)
	}
	if diagnoser == nil {
		diagnoser = services.NewACLInspector(cfg, client)
	}
	return nil
}

// Execute runs the root command. v is the build-time version string.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

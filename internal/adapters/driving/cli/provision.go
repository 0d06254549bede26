package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	provisionRun    bool
	provisionStatus bool
	provisionReset  bool
	provisionDelete bool
	provisionList   bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Reconcile the remote resource chain",
	Long: `Creates or updates every resource in the pipeline chain, in
dependency order: data source, index, skillset, indexer, knowledge
source, knowledge base. Re-running with unchanged configuration is a
no-op. The --status, --reset, --delete and --list flags perform their
action instead of applying; --run triggers an indexer run after a
successful apply.`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().BoolVar(&provisionRun, "run", false, "trigger an indexer run after applying")
	provisionCmd.Flags().BoolVar(&provisionStatus, "status", false, "show indexer status instead of applying")
	provisionCmd.Flags().BoolVar(&provisionReset, "reset", false, "reset indexer state and trigger a fresh run")
	provisionCmd.Flags().BoolVar(&provisionDelete, "delete", false, "delete every resource in the chain")
	provisionCmd.Flags().BoolVar(&provisionList, "list", false, "list existing knowledge sources")
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if provisioner == nil {
		return errors.New("provisioner not configured")
	}

	ctx := context.Background()

	switch {
	case provisionStatus:
		return showIndexerStatus(ctx, cmd)

	case provisionReset:
		cmd.Println("Resetting indexer and starting a fresh run...")
		if err := provisioner.Reset(ctx); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		cmd.Println("Indexer reset; run started.")
		return nil

	case provisionDelete:
		cmd.Println("Deleting all resources...")
		if err := provisioner.DeleteAll(ctx); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		cmd.Println("All resources deleted.")
		return nil

	case provisionList:
		return listKnowledgeSources(ctx, cmd)
	}

	cmd.Println("Applying resource chain...")
	if err := provisioner.Apply(ctx); err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	cmd.Println("Resource chain is up to date.")

	if provisionRun {
		if err := provisioner.Run(ctx); err != nil {
			return fmt.Errorf("indexer run failed: %w", err)
		}
		cmd.Println("Indexer run started. Check progress with: kbctl provision --status")
	}
	return nil
}

func showIndexerStatus(ctx context.Context, cmd *cobra.Command) error {
	status, err := provisioner.Status(ctx)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Printf("Indexer status: %s\n", status.Status)
	if status.LastRunStatus != "" {
		cmd.Printf("Last run:       %s\n", status.LastRunStatus)
		cmd.Printf("Processed:      %d\n", status.ItemsProcessed)
		cmd.Printf("Failed:         %d\n", status.ItemsFailed)
	}
	if status.ErrorMessage != "" {
		cmd.Printf("Error:          %s\n", status.ErrorMessage)
	}
	return nil
}

func listKnowledgeSources(ctx context.Context, cmd *cobra.Command) error {
	sources, err := provisioner.ListKnowledgeSources(ctx)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No knowledge sources found.")
		return nil
	}
	cmd.Println("Knowledge sources:")
	for _, s := range sources {
		if s.Kind != "" {
			cmd.Printf("  %s (%s)\n", s.Name, s.Kind)
			continue
		}
		cmd.Printf("  %s\n", s.Name)
	}
	return nil
}

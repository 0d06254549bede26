package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Inspect indexed permission fields",
	Long: `Samples indexed documents and classifies the values in the UserIds
and GroupIds permission fields. Healthy values are directory GUIDs;
opaque numeric site IDs are a known connector degradation that silently
hides documents from every caller, and this command makes it visible.`,
	RunE: runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if diagnoser == nil {
		return errors.New("diagnostics not configured")
	}

	report, err := diagnoser.Diagnose(context.Background())
	if err != nil {
		return fmt.Errorf("diagnose failed: %w", err)
	}

	cmd.Printf("Index: %s (%d documents, %d bytes)\n",
		report.IndexName, report.Stats.DocumentCount, report.Stats.StorageSize)
	cmd.Printf("Sampled: %d documents\n\n", report.SampledDocuments)

	for _, field := range report.Fields {
		cmd.Printf("%s: %d values\n", field.Field, field.Total)
		printShape(cmd, field, domain.ShapeGUID, "directory GUIDs")
		printShape(cmd, field, domain.ShapeNumeric, "numeric source IDs")
		printShape(cmd, field, domain.ShapeOther, "other")
	}

	cmd.Println()
	if report.Degraded() {
		cmd.Println("DEGRADED: some permission values are not directory GUIDs.")
		cmd.Println("Those values never match a caller identity, so the affected")
		cmd.Println("documents are hidden from everyone. Re-check the connector's")
		cmd.Println("permission configuration, then reset and re-run the indexer.")
		return nil
	}
	cmd.Println("OK: all sampled permission values are directory GUIDs.")
	return nil
}

func printShape(cmd *cobra.Command, field domain.ACLFieldSample, shape domain.ACLValueShape, label string) {
	count := field.Shapes[shape]
	if count == 0 {
		return
	}
	line := fmt.Sprintf("  %-20s %d", label, count)
	if examples := field.Examples[shape]; len(examples) > 0 {
		line += "  e.g. " + strings.Join(examples, ", ")
	}
	cmd.Println(line)
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

var (
	queryFilter     string
	queryActivity   bool
	queryReferences bool
	queryElevated   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask the knowledge base a question",
	Long: `Sends a question to the knowledge base and prints the synthesized
answer with its source citations. With ACL mode enabled the caller signs
in first and results are trimmed to documents their identity can read;
an empty result means exactly that, not a failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryFilter, "filter", "", "OData filter narrowing candidate documents, e.g. \"Department eq 'IT'\"")
	queryCmd.Flags().BoolVar(&queryActivity, "activity", false, "show the retrieval activity trace")
	queryCmd.Flags().BoolVar(&queryReferences, "references", false, "show full reference source data")
	queryCmd.Flags().BoolVar(&queryElevated, "elevated", false, "bypass permission trimming (requires the elevated read role)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	result, err := queryService.Query(context.Background(), args[0], domain.QueryOptions{
		Filter:          queryFilter,
		IncludeActivity: queryActivity,
		Elevated:        queryElevated,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	printResult(cmd, result)
	return nil
}

func printResult(cmd *cobra.Command, result *domain.QueryResult) {
	if result.Answer != "" {
		cmd.Println(result.Answer)
		cmd.Println()
	}

	if len(result.Citations) == 0 {
		cmd.Println("No matching documents. With ACL mode on this can simply mean your identity has access to none.")
		return
	}

	cmd.Println("Sources:")
	for i, c := range result.Citations {
		title := c.Title
		if title == "" {
			title = c.DocKey
		}
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, c.Score)
		if c.Author != "" {
			cmd.Printf("      Author: %s\n", c.Author)
		}
		if c.URL != "" {
			cmd.Printf("      %s\n", c.URL)
		}
		if queryReferences {
			for k, v := range c.SourceData {
				cmd.Printf("      %s: %v\n", k, v)
			}
		}
	}

	if queryActivity && len(result.Activity) > 0 {
		cmd.Println()
		cmd.Println("Activity:")
		for _, step := range result.Activity {
			cmd.Printf("  - %s\n", step.Type)
		}
	}
}

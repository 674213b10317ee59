package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var (
	searchTopK     int
	searchMinScore float64
	searchPerDoc   int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [collection] [query]",
	Short: "Retrieve relevant passages from a collection",
	Long: `Embeds the query and returns the most relevant indexed passages,
ranked by similarity.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 5, "maximum number of passages")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "drop passages scoring below this")
	searchCmd.Flags().IntVar(&searchPerDoc, "per-document", 0, "cap passages per document (0 = unlimited)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrieveService == nil {
		return errors.New("retrieve service not configured")
	}

	collectionID, query := args[0], args[1]
	ctx := context.Background()

	opts := domain.RetrieveOptions{
		TopK:                 searchTopK,
		MaxChunksPerDocument: searchPerDoc,
	}
	if cmd.Flags().Changed("min-score") {
		opts.MinScore = &searchMinScore
	}

	result, err := retrieveService.Retrieve(ctx, query, collectionID, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(result.Passages) == 0 {
		cmd.Println("No passages found.")
		return nil
	}

	cmd.Println("Passages:")
	cmd.Println()
	for i, p := range result.Passages {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, p.ChunkID, p.Score)
		cmd.Printf("      %s\n", p.Content)
		cmd.Println()
	}
	return nil
}

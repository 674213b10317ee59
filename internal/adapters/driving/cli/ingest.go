package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [collection] [file...]",
	Short: "Ingest documents into a collection",
	Long: `Reads plain text or markdown files, chunks them, embeds the chunks
and indexes them under the given collection. Re-ingesting an unchanged
file is a no-op; changed files replace their previous version.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	collectionID := args[0]
	ctx := context.Background()

	failed := 0
	for _, path := range args[1:] {
		text, err := os.ReadFile(path)
		if err != nil {
			cmd.Printf("  %s: %v\n", path, err)
			failed++
			continue
		}

		doc, err := ingestService.Ingest(ctx, domain.Upload{
			CollectionID: collectionID,
			Filename:     filepath.Base(path),
			Text:         string(text),
		})
		if err != nil {
			cmd.Printf("  %s: %v\n", path, err)
			failed++
			continue
		}

		switch doc.Status {
		case domain.StatusIndexed:
			cmd.Printf("  %s: indexed (%d chunks)\n", doc.Filename, doc.ChunkCount)
		case domain.StatusFailed:
			cmd.Printf("  %s: failed (%s)\n", doc.Filename, doc.FailureReason)
			failed++
		default:
			cmd.Printf("  %s: %s\n", doc.Filename, doc.Status)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args)-1)
	}
	return nil
}

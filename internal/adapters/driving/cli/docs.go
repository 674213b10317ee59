package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage ingested documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list [collection]",
	Short: "List documents in a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsList,
}

var docsDeleteCmd = &cobra.Command{
	Use:   "delete [collection] [doc-id]",
	Short: "Delete a document and its indexed chunks",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocsDelete,
}

var docsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsShow,
}

func init() {
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDeleteCmd)
	docsCmd.AddCommand(docsShowCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errors.New("document store not configured")
	}

	collectionID := args[0]
	docs, err := documentStore.List(context.Background(), collectionID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents in collection %s.\n", collectionID)
		return nil
	}

	cmd.Printf("Documents in %s:\n\n", collectionID)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File:   %s\n", docs[i].Filename)
		cmd.Printf("    Status: %s", docs[i].Status)
		if docs[i].Status == domain.StatusFailed && docs[i].FailureReason != "" {
			cmd.Printf(" (%s)", docs[i].FailureReason)
		}
		cmd.Println()
		if docs[i].ChunkCount > 0 {
			cmd.Printf("    Chunks: %d\n", docs[i].ChunkCount)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocsDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	collectionID, docID := args[0], args[1]
	if err := ingestService.Delete(context.Background(), collectionID, docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", docID)
	return nil
}

func runDocsShow(cmd *cobra.Command, args []string) error {
	if documentStore == nil {
		return errors.New("document store not configured")
	}

	doc, err := documentStore.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:       %s\n", doc.Filename)
	cmd.Printf("  Collection: %s\n", doc.CollectionID)
	cmd.Printf("  Status:     %s\n", doc.Status)
	if doc.FailureReason != "" {
		cmd.Printf("  Failure:    %s\n", doc.FailureReason)
	}
	cmd.Printf("  Chunks:     %d\n", doc.ChunkCount)
	cmd.Printf("  Uploaded:   %s\n", doc.UploadedAt.Format("2006-01-02 15:04:05"))
	if !doc.IndexedAt.IsZero() {
		cmd.Printf("  Indexed:    %s\n", doc.IndexedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

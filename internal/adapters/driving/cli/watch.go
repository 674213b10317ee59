package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/adapters/driven/watcher"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [collection] [directory]",
	Short: "Watch a directory and ingest new or changed files",
	Long: `Monitors the directory for new or modified text and markdown files
and ingests them into the collection as they appear. Removed files are
deleted from the collection. Runs until interrupted.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil || documentStore == nil {
		return errors.New("ingest service not configured")
	}

	collectionID, dir := args[0], args[1]

	w, err := watcher.New()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, err := w.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	sessionID := uuid.NewString()
	logger.Info("watch session %s on %s", sessionID, dir)
	cmd.Printf("Watching %s for collection %s (Ctrl+C to stop)\n", dir, collectionID)

	for event := range events {
		handleFileEvent(ctx, cmd, collectionID, event)
	}
	cmd.Println("Watch stopped.")
	return nil
}

func handleFileEvent(
	ctx context.Context, cmd *cobra.Command, collectionID string, event driven.FileEvent,
) {
	filename := filepath.Base(event.Path)

	switch event.Operation {
	case driven.FileCreated, driven.FileModified:
		text, err := os.ReadFile(event.Path)
		if err != nil {
			cmd.Printf("  %s: %v\n", filename, err)
			return
		}
		doc, err := ingestService.Ingest(ctx, domain.Upload{
			CollectionID: collectionID,
			Filename:     filename,
			Text:         string(text),
		})
		if err != nil {
			cmd.Printf("  %s: %v\n", filename, err)
			return
		}
		cmd.Printf("  %s: %s\n", filename, doc.Status)

	case driven.FileRemoved:
		doc, err := documentStore.GetByFilename(ctx, collectionID, filename)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				cmd.Printf("  %s: %v\n", filename, err)
			}
			return
		}
		if err := ingestService.Delete(ctx, collectionID, doc.ID); err != nil {
			cmd.Printf("  %s: %v\n", filename, err)
			return
		}
		cmd.Printf("  %s: removed\n", filename)
	}
}

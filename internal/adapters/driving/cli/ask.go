package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [collection] [question]",
	Short: "Ask a question grounded in a collection",
	Long: `Retrieves the most relevant passages from the collection and asks
the configured LLM to answer using only that material.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant not configured: set an LLM API key")
	}

	collectionID, question := args[0], args[1]

	answer, err := assistantService.Ask(context.Background(), collectionID, question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Printf("Sources: %s\n", strings.Join(answer.Sources, ", "))
	}
	return nil
}

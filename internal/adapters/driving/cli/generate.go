package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

var (
	generateDocs       []string
	generateCount      int
	generateDifficulty string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate course material from indexed documents",
}

var generateAssignmentCmd = &cobra.Command{
	Use:   "assignment [collection]",
	Short: "Generate assignment questions",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerateAssignment,
}

var generateMCQCmd = &cobra.Command{
	Use:   "mcq [collection]",
	Short: "Generate multiple choice questions",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerateMCQ,
}

func init() {
	generateCmd.PersistentFlags().StringSliceVarP(&generateDocs, "docs", "d", nil, "document IDs to draw from (required)")
	generateCmd.PersistentFlags().IntVarP(&generateCount, "count", "c", 5, "number of questions")
	generateCmd.PersistentFlags().StringVar(&generateDifficulty, "difficulty", "medium", "difficulty (easy, medium, hard)")

	generateCmd.AddCommand(generateAssignmentCmd)
	generateCmd.AddCommand(generateMCQCmd)
	rootCmd.AddCommand(generateCmd)
}

func runGenerateAssignment(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant not configured: set an LLM API key")
	}
	if len(generateDocs) == 0 {
		return errors.New("at least one --docs document ID is required")
	}

	questions, err := assistantService.GenerateAssignment(
		context.Background(), args[0], generateDocs, generateCount, generateDifficulty)
	if err != nil {
		return fmt.Errorf("generating assignment: %w", err)
	}

	for _, q := range questions {
		cmd.Printf("Q%d. %s", q.Number, q.Question)
		if q.Marks > 0 {
			cmd.Printf(" [%d marks]", q.Marks)
		}
		cmd.Println()
		if q.MarkingScheme != "" {
			cmd.Printf("    Marking: %s\n", q.MarkingScheme)
		}
		if q.SampleAnswer != "" {
			cmd.Printf("    Sample answer: %s\n", q.SampleAnswer)
		}
		cmd.Println()
	}
	return nil
}

func runGenerateMCQ(cmd *cobra.Command, args []string) error {
	if assistantService == nil {
		return errors.New("assistant not configured: set an LLM API key")
	}
	if len(generateDocs) == 0 {
		return errors.New("at least one --docs document ID is required")
	}

	questions, err := assistantService.GenerateMCQs(
		context.Background(), args[0], generateDocs, generateCount, generateDifficulty)
	if err != nil {
		return fmt.Errorf("generating MCQs: %w", err)
	}

	for _, q := range questions {
		printMCQ(cmd, q)
	}
	return nil
}

func printMCQ(cmd *cobra.Command, q domain.GeneratedQuestion) {
	cmd.Printf("Q%d. %s\n", q.Number, q.Question)
	for i, opt := range q.Options {
		cmd.Printf("    %c) %s\n", 'a'+i, opt)
	}
	if q.CorrectOption != "" {
		cmd.Printf("    Answer: %s\n", q.CorrectOption)
	}
	if q.Explanation != "" {
		cmd.Printf("    Why: %s\n", q.Explanation)
	}
	cmd.Println()
}

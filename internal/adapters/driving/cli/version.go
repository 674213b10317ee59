package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.Printf("lectern version %s\n", version)
		if versionCheck {
			runHealthChecks(cmd)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "ping the configured backing services")
	rootCmd.AddCommand(versionCmd)
}

// runHealthChecks pings the external services and reports reachability.
func runHealthChecks(cmd *cobra.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if embeddingService != nil {
		id := embeddingService.Identity()
		if err := embeddingService.Ping(ctx); err != nil {
			cmd.Printf("  embedding (%s): unreachable: %v\n", id.ModelID, err)
		} else {
			cmd.Printf("  embedding (%s): ok\n", id.ModelID)
		}
	} else {
		cmd.Println("  embedding: not configured")
	}

	if llmService != nil {
		if err := llmService.Ping(ctx); err != nil {
			cmd.Printf("  llm (%s): unreachable: %v\n", llmService.ModelName(), err)
		} else {
			cmd.Printf("  llm (%s): ok\n", llmService.ModelName())
		}
	} else {
		cmd.Println("  llm: not configured")
	}
}

/*-------------------------------------------------------------------------
 *
 * root.go
 *    Root command and global flags for perch-cli
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/cli/cmd/root.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL       string
	apiToken     string
	reviewer     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "perch-cli",
	Short: "PerchAgent CLI - review queued agent actions",
	Long: `perch-cli is the human side of the PerchAgent approval loop: it lists
actions the agent wants to take and lets a reviewer approve, edit, or
reject them before anything reaches the platform.

Examples:
  # List pending approval requests
  perch-cli list

  # Show one request in full
  perch-cli show <approval-id>

  # Approve a request as-is
  perch-cli approve <approval-id> --reviewer alex

  # Approve with edited content
  perch-cli approve <approval-id> --reviewer alex --content "better wording"

  # Reject a request
  perch-cli reject <approval-id> --reviewer alex --reason "off brand"
`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", getEnvOrDefault("PERCHAGENT_URL", "http://localhost:8080"), "PerchAgent API URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", getEnvOrDefault("PERCHAGENT_TOKEN", ""), "Bearer token for the API (if the server requires one)")
	rootCmd.PersistentFlags().StringVar(&reviewer, "reviewer", getEnvOrDefault("PERCHAGENT_REVIEWER", ""), "Reviewer name recorded on decisions")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

/* Execute runs the root command */
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

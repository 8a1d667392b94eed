/*-------------------------------------------------------------------------
 *
 * review.go
 *    Approve and reject commands
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/cli/cmd/review.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perchlabs/PerchAgent/cli/pkg/client"
)

var (
	approveContent string
	rejectReason   string
)

var approveCmd = &cobra.Command{
	Use:   "approve <approval-id>",
	Short: "Approve a pending request, optionally with edited content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewer == "" {
			return fmt.Errorf("--reviewer is required (or set PERCHAGENT_REVIEWER)")
		}

		c := client.NewClient(apiURL, apiToken)
		if err := c.Approve(args[0], reviewer, approveContent); err != nil {
			return fmt.Errorf("failed to approve request: %w", err)
		}

		fmt.Printf("Approved %s\n", args[0])
		return nil
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <approval-id>",
	Short: "Reject a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewer == "" {
			return fmt.Errorf("--reviewer is required (or set PERCHAGENT_REVIEWER)")
		}

		c := client.NewClient(apiURL, apiToken)
		if err := c.Reject(args[0], reviewer, rejectReason); err != nil {
			return fmt.Errorf("failed to reject request: %w", err)
		}

		fmt.Printf("Rejected %s\n", args[0])
		return nil
	},
}

func init() {
	approveCmd.Flags().StringVar(&approveContent, "content", "", "Replacement content to publish instead of the original")
	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "Reason recorded with the rejection")
}

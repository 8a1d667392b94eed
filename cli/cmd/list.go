/*-------------------------------------------------------------------------
 *
 * list.go
 *    Commands for listing and inspecting approval requests
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/cli/cmd/list.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/perchlabs/PerchAgent/cli/pkg/client"
)

var (
	listStatus string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List approval requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(apiURL, apiToken)
		reqs, err := c.ListApprovals(listStatus, listLimit)
		if err != nil {
			return fmt.Errorf("failed to list approval requests: %w", err)
		}

		if outputFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(reqs)
		}

		if len(reqs) == 0 {
			fmt.Printf("No %s approval requests\n", listStatus)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tTARGET\tCREATED\tCONTENT")
		for _, req := range reqs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				req.ID, req.Kind, req.TargetRef,
				req.CreatedAt.Format("2006-01-02 15:04"),
				truncate(req.Content, 60))
		}
		return w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <approval-id>",
	Short: "Show one approval request in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(apiURL, apiToken)
		req, err := c.GetApproval(args[0])
		if err != nil {
			return fmt.Errorf("failed to get approval request: %w", err)
		}

		if outputFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(req)
		}

		fmt.Printf("ID:       %s\n", req.ID)
		fmt.Printf("Kind:     %s\n", req.Kind)
		fmt.Printf("Status:   %s\n", req.Status)
		fmt.Printf("Created:  %s\n", req.CreatedAt.Format("2006-01-02 15:04:05"))
		if req.TargetRef != "" {
			fmt.Printf("Target:   %s\n", req.TargetRef)
		}
		fmt.Printf("Content:  %s\n", req.Content)
		if req.ModifiedContent != "" {
			fmt.Printf("Modified: %s\n", req.ModifiedContent)
		}
		if req.Reviewer != "" {
			fmt.Printf("Reviewer: %s\n", req.Reviewer)
		}
		if req.Reason != "" {
			fmt.Printf("Reason:   %s\n", req.Reason)
		}
		if req.ResultRef != "" {
			fmt.Printf("Result:   %s\n", req.ResultRef)
		}
		if original, ok := req.Context["original_text"].(string); ok && original != "" {
			fmt.Printf("Replying to: %s\n", original)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "pending", "Filter by status (pending, approved, rejected, sent, error)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of requests to list")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for perch-cli
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/cli/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"github.com/perchlabs/PerchAgent/cli/cmd"
)

func main() {
	cmd.Execute()
}

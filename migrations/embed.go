/*-------------------------------------------------------------------------
 *
 * embed.go
 *    Embedded SQL migrations
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/migrations/embed.go
 *
 *-------------------------------------------------------------------------
 */

package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

/*-------------------------------------------------------------------------
 *
 * logging.go
 *    Structured logging initialization for PerchAgent
 *
 * Configures the global zerolog logger from the logging section of the
 * configuration (level and output format).
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/metrics/logging.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

/* InitLogging initializes the global logger with the given level and format */
func InitLogging(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if strings.ToLower(format) == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		/* JSON output to stderr by default */
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for the PerchAgent server
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/cmd/agent-server/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/perchlabs/PerchAgent/internal/api"
	"github.com/perchlabs/PerchAgent/internal/approval"
	"github.com/perchlabs/PerchAgent/internal/config"
	"github.com/perchlabs/PerchAgent/internal/db"
	"github.com/perchlabs/PerchAgent/internal/executor"
	"github.com/perchlabs/PerchAgent/internal/generators"
	"github.com/perchlabs/PerchAgent/internal/metrics"
	"github.com/perchlabs/PerchAgent/internal/notify"
	"github.com/perchlabs/PerchAgent/internal/platform"
	"github.com/perchlabs/PerchAgent/internal/scheduler"
	"github.com/perchlabs/PerchAgent/migrations"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion    = flag.Bool("version", false, "Show version information")
		configPath     = flag.String("c", "", "Path to configuration file")
		configPathLong = flag.String("config", "", "Path to configuration file")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "PerchAgent Server - autonomous social agent with human approval\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfiguration:\n")
		fmt.Fprintf(os.Stderr, "  - Command line flag: -c or --config\n")
		fmt.Fprintf(os.Stderr, "  - Environment variable: CONFIG_PATH\n")
		fmt.Fprintf(os.Stderr, "  - Environment variables with AGENT_ prefix\n")
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("perch-agent version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}

	/* Load configuration */
	cfg := config.DefaultConfig()
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = *configPathLong
	}
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Failed to load config: %v\n", err)
			os.Exit(1)
		}
	} else {
		config.LoadFromEnv(cfg)
	}

	/* Initialize logging */
	metrics.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	/* Connect to database */
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Database)

	database, err := db.NewDBWithRetry(connStr, db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, 5, 2*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	poolStats := scheduler.NewPeriodic("db-pool-stats", time.Minute, 0.1, func(context.Context) {
		database.ReportPoolStats()
	})
	poolStats.Start()
	defer poolStats.Stop()

	/* Run migrations */
	migrationRunner := db.NewMigrationRunner(database.DB, migrations.FS)
	if err := migrationRunner.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Migration failed: %v\n", err)
		os.Exit(1)
	}

	/* Initialize the approval pipeline */
	queries := db.NewQueries(database.DB)
	store := approval.NewPostgresStore(queries, approval.Identity{
		AgentName:     cfg.Agent.Name,
		AgentUsername: cfg.Agent.Username,
	})

	cache := approval.NewPendingCache(cfg.Approval.CacheTTL)
	defer cache.Close()

	session := platform.NewSession(platform.SessionConfig{
		GatewayURL: cfg.Platform.GatewayURL,
		AuthToken:  cfg.Platform.AuthToken,
		Username:   cfg.Agent.Username,
		Timeout:    cfg.Platform.RequestTimeout,
		DryRun:     cfg.Platform.DryRun,
	})
	if err := session.Connect(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Platform session not ready at startup, executions will retry")
	}

	requestQueue := platform.NewRequestQueue(cfg.Platform.MinRequestDelay, cfg.Platform.MaxRequestDelay)
	exec := executor.New(store, session, requestQueue)

	var notifier approval.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Secret)
	}

	manager := approval.NewManager(store, cache, exec, notifier, approval.ManagerConfig{
		PollInterval:  cfg.Approval.PollInterval,
		RecencyWindow: cfg.Approval.RecencyWindow,
	})

	if seeded, err := cache.Seed(context.Background(), store); err != nil {
		log.Warn().Err(err).Msg("Failed to seed approval cache")
	} else if seeded > 0 {
		log.Info().Int("requests", seeded).Msg("Seeded approval cache from store")
	}

	manager.StartPolling()
	defer manager.StopPolling()

	/* Start candidate generators */
	persona := generators.Persona{
		Name:     cfg.Agent.Name,
		Username: cfg.Agent.Username,
		Bio:      cfg.Agent.Bio,
		Topics:   cfg.Agent.Topics,
	}

	if cfg.Generator.CompletionURL != "" {
		textGen := generators.NewCompletionClient(generators.CompletionConfig{
			BaseURL: cfg.Generator.CompletionURL,
			APIKey:  cfg.Generator.CompletionKey,
			Model:   cfg.Generator.CompletionModel,
		})

		poster := generators.NewPoster(manager, session, generators.PromptComposer{}, textGen, persona, generators.PosterConfig{
			Interval:      cfg.Generator.PostInterval,
			TimelineCount: cfg.Generator.TimelineCount,
		})
		poster.Start()
		defer poster.Stop()

		scanner := generators.NewScanner(manager, session, generators.PromptComposer{}, textGen, persona, generators.ScannerConfig{
			Interval:           cfg.Generator.ScanInterval,
			FetchCount:         cfg.Generator.MentionFetchCount,
			LikeProbability:    cfg.Generator.LikeProbability,
			RetweetProbability: cfg.Generator.RetweetProbability,
			ReplyProbability:   cfg.Generator.ReplyProbability,
		})
		scanner.Start()
		defer scanner.Stop()
	} else {
		log.Warn().Msg("No completion endpoint configured, generators disabled")
	}

	/* Setup router */
	router := mux.NewRouter()
	router.Use(api.RequestIDMiddleware)
	router.Use(api.CORSMiddleware)
	router.Use(api.LoggingMiddleware)
	if cfg.Server.APIToken != "" {
		router.Use(api.AuthMiddleware(cfg.Server.APIToken))
	}

	handlers := api.NewHandlers(manager, database)
	handlers.RegisterRoutes(router)

	/* Start server */
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Str("version", version).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	/* Graceful shutdown */
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

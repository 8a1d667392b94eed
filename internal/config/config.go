/*-------------------------------------------------------------------------
 *
 * config.go
 *    Configuration loading for PerchAgent
 *
 * Configuration comes from defaults, then an optional YAML file, or the
 * environment (AGENT_ prefix) when no file is given.
 *
 * Copyright (c) 2024-2026, Perch Labs, Inc. <support@perchlabs.ai>
 *
 * IDENTIFICATION
 *    PerchAgent/internal/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

/* Config is the full server configuration */
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Agent     AgentConfig     `yaml:"agent"`
	Platform  PlatformConfig  `yaml:"platform"`
	Approval  ApprovalConfig  `yaml:"approval"`
	Generator GeneratorConfig `yaml:"generator"`
	Notify    NotifyConfig    `yaml:"notify"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	APIToken     string        `yaml:"api_token"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AgentConfig struct {
	Name     string   `yaml:"name"`
	Username string   `yaml:"username"`
	Bio      string   `yaml:"bio"`
	Topics   []string `yaml:"topics"`
}

type PlatformConfig struct {
	GatewayURL      string        `yaml:"gateway_url"`
	AuthToken       string        `yaml:"auth_token"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MinRequestDelay time.Duration `yaml:"min_request_delay"`
	MaxRequestDelay time.Duration `yaml:"max_request_delay"`
	DryRun          bool          `yaml:"dry_run"`
}

type ApprovalConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	RecencyWindow time.Duration `yaml:"recency_window"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

type GeneratorConfig struct {
	PostInterval       time.Duration `yaml:"post_interval"`
	ScanInterval       time.Duration `yaml:"scan_interval"`
	TimelineCount      int           `yaml:"timeline_count"`
	MentionFetchCount  int           `yaml:"mention_fetch_count"`
	LikeProbability    float64       `yaml:"like_probability"`
	RetweetProbability float64       `yaml:"retweet_probability"`
	ReplyProbability   float64       `yaml:"reply_probability"`
	CompletionURL      string        `yaml:"completion_url"`
	CompletionKey      string        `yaml:"completion_key"`
	CompletionModel    string        `yaml:"completion_model"`
}

type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Secret     string `yaml:"secret"`
}

/* DefaultConfig returns the configuration defaults */
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "perch",
			Database:        "perch_agent",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Agent: AgentConfig{
			Name:     "Perch",
			Username: "perch_agent",
		},
		Platform: PlatformConfig{
			RequestTimeout:  30 * time.Second,
			MinRequestDelay: 1500 * time.Millisecond,
			MaxRequestDelay: 4 * time.Second,
		},
		Approval: ApprovalConfig{
			PollInterval:  30 * time.Second,
			RecencyWindow: time.Hour,
			CacheTTL:      24 * time.Hour,
		},
		Generator: GeneratorConfig{
			PostInterval:       4 * time.Hour,
			ScanInterval:       2 * time.Minute,
			TimelineCount:      10,
			MentionFetchCount:  20,
			LikeProbability:    0.3,
			RetweetProbability: 0.1,
			ReplyProbability:   0.4,
		},
	}
}

/* LoadConfig loads configuration from a YAML file over the defaults */
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

/* LoadFromEnv overrides cfg from AGENT_-prefixed environment variables */
func LoadFromEnv(cfg *Config) {
	setString(&cfg.Server.Host, "AGENT_SERVER_HOST")
	setInt(&cfg.Server.Port, "AGENT_SERVER_PORT")
	setString(&cfg.Server.APIToken, "AGENT_API_TOKEN")

	setString(&cfg.Database.Host, "AGENT_DB_HOST")
	setInt(&cfg.Database.Port, "AGENT_DB_PORT")
	setString(&cfg.Database.User, "AGENT_DB_USER")
	setString(&cfg.Database.Password, "AGENT_DB_PASSWORD")
	setString(&cfg.Database.Database, "AGENT_DB_NAME")
	setInt(&cfg.Database.MaxOpenConns, "AGENT_DB_MAX_OPEN_CONNS")
	setInt(&cfg.Database.MaxIdleConns, "AGENT_DB_MAX_IDLE_CONNS")

	setString(&cfg.Logging.Level, "AGENT_LOG_LEVEL")
	setString(&cfg.Logging.Format, "AGENT_LOG_FORMAT")

	setString(&cfg.Agent.Name, "AGENT_NAME")
	setString(&cfg.Agent.Username, "AGENT_USERNAME")
	setString(&cfg.Agent.Bio, "AGENT_BIO")

	setString(&cfg.Platform.GatewayURL, "AGENT_PLATFORM_GATEWAY_URL")
	setString(&cfg.Platform.AuthToken, "AGENT_PLATFORM_AUTH_TOKEN")
	setBool(&cfg.Platform.DryRun, "AGENT_PLATFORM_DRY_RUN")

	setDuration(&cfg.Approval.PollInterval, "AGENT_APPROVAL_POLL_INTERVAL")
	setDuration(&cfg.Approval.RecencyWindow, "AGENT_APPROVAL_RECENCY_WINDOW")
	setDuration(&cfg.Approval.CacheTTL, "AGENT_APPROVAL_CACHE_TTL")

	setDuration(&cfg.Generator.PostInterval, "AGENT_POST_INTERVAL")
	setDuration(&cfg.Generator.ScanInterval, "AGENT_SCAN_INTERVAL")
	setInt(&cfg.Generator.MentionFetchCount, "AGENT_MENTION_FETCH_COUNT")
	setFloat(&cfg.Generator.LikeProbability, "AGENT_LIKE_PROBABILITY")
	setFloat(&cfg.Generator.RetweetProbability, "AGENT_RETWEET_PROBABILITY")
	setFloat(&cfg.Generator.ReplyProbability, "AGENT_REPLY_PROBABILITY")
	setString(&cfg.Generator.CompletionURL, "AGENT_COMPLETION_URL")
	setString(&cfg.Generator.CompletionKey, "AGENT_COMPLETION_KEY")
	setString(&cfg.Generator.CompletionModel, "AGENT_COMPLETION_MODEL")

	setString(&cfg.Notify.WebhookURL, "AGENT_NOTIFY_WEBHOOK_URL")
	setString(&cfg.Notify.Secret, "AGENT_NOTIFY_SECRET")
}

/* Validate checks cross-field constraints */
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Agent.Username == "" {
		return fmt.Errorf("agent username is required")
	}
	total := c.Generator.LikeProbability + c.Generator.RetweetProbability + c.Generator.ReplyProbability
	if total < 0 || total > 1.0 {
		return fmt.Errorf("interaction probabilities must sum to at most 1.0, got %.2f", total)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig provides settings for the asynq-backed batch queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MarketplaceConfig provides settings for the marketplace HTTP session.
type MarketplaceConfig interface {
	GetMarketplaceBaseURL() string
	GetMarketplaceAccount() string
	GetMarketplaceUsername() string
	GetMarketplacePassword() string
	GetMarketplaceTimeout() time.Duration
	GetJitterRange() float64
}

// SelectionConfig provides the tunable business parameters of the
// selection pipeline.
type SelectionConfig interface {
	GetPerRegionCap() int
	GetTotalSlotBudget() int
	GetCoverageThreshold() float64
	GetMinIndividualQtyPercent() float64
	GetFreshnessWindowYears() int
	GetMinOrderMultiplierAbundant() float64
	GetMinOrderMultiplierScarce() float64
}

// OrchestratorConfig provides settings for the batch worker pool.
type OrchestratorConfig interface {
	GetWorkerCount() int
	GetDryRun() bool
}

// RunLockConfig provides settings for the run lock directory.
type RunLockConfig interface {
	GetLockDir() string
}

// ReportConfig provides settings for report output.
type ReportConfig interface {
	GetOutputDir() string
}

// EmailConfig provides settings for batch summary email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSummaryRecipient() string
}

// StorageConfig provides settings for object storage report uploads.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketReports() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env              string
	DatabaseURL      string
	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	MarketplaceBaseURL  string
	MarketplaceAccount  string
	MarketplaceUsername string
	MarketplacePassword string
	MarketplaceTimeout  time.Duration

	PerRegionCap               int
	TotalSlotBudget            int
	CoverageThreshold          float64
	MinIndividualQtyPercent    float64
	FreshnessWindowYears       int
	MinOrderMultiplierAbundant float64
	MinOrderMultiplierScarce   float64

	WorkerCount int
	JitterRange float64
	DryRun      bool

	LockDir   string
	OutputDir string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
	SummaryRecipient string

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinioBucketReports string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// MarketplaceConfig implementation
func (c *Config) GetMarketplaceBaseURL() string        { return c.MarketplaceBaseURL }
func (c *Config) GetMarketplaceAccount() string        { return c.MarketplaceAccount }
func (c *Config) GetMarketplaceUsername() string       { return c.MarketplaceUsername }
func (c *Config) GetMarketplacePassword() string       { return c.MarketplacePassword }
func (c *Config) GetMarketplaceTimeout() time.Duration { return c.MarketplaceTimeout }
func (c *Config) GetJitterRange() float64              { return c.JitterRange }

// SelectionConfig implementation
func (c *Config) GetPerRegionCap() int                   { return c.PerRegionCap }
func (c *Config) GetTotalSlotBudget() int                { return c.TotalSlotBudget }
func (c *Config) GetCoverageThreshold() float64          { return c.CoverageThreshold }
func (c *Config) GetMinIndividualQtyPercent() float64    { return c.MinIndividualQtyPercent }
func (c *Config) GetFreshnessWindowYears() int           { return c.FreshnessWindowYears }
func (c *Config) GetMinOrderMultiplierAbundant() float64 { return c.MinOrderMultiplierAbundant }
func (c *Config) GetMinOrderMultiplierScarce() float64   { return c.MinOrderMultiplierScarce }

// OrchestratorConfig implementation
func (c *Config) GetWorkerCount() int { return c.WorkerCount }
func (c *Config) GetDryRun() bool     { return c.DryRun }

// RunLockConfig implementation
func (c *Config) GetLockDir() string { return c.LockDir }

// ReportConfig implementation
func (c *Config) GetOutputDir() string { return c.OutputDir }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSummaryRecipient() string { return c.SummaryRecipient }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string      { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketReports() string { return c.MinioBucketReports }
func (c *Config) IsMinIOEnabled() bool          { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "sourcing"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "1")),

		MarketplaceBaseURL:  getEnv("MARKETPLACE_BASE_URL", "https://www.netcomponents.com"),
		MarketplaceAccount:  getEnv("MARKETPLACE_ACCOUNT", ""),
		MarketplaceUsername: getEnv("MARKETPLACE_USERNAME", ""),
		MarketplacePassword: getEnv("MARKETPLACE_PASSWORD", ""),
		MarketplaceTimeout:  mustDuration(getEnv("MARKETPLACE_TIMEOUT", "30s")),

		PerRegionCap:               mustInt(getEnv("PER_REGION_CAP", "3")),
		TotalSlotBudget:            mustInt(getEnv("TOTAL_SLOT_BUDGET", "6")),
		CoverageThreshold:          mustFloat(getEnv("COVERAGE_THRESHOLD", "0.80")),
		MinIndividualQtyPercent:    mustFloat(getEnv("MIN_INDIVIDUAL_QTY_PERCENT", "0.10")),
		FreshnessWindowYears:       mustInt(getEnv("FRESHNESS_WINDOW_YEARS", "2")),
		MinOrderMultiplierAbundant: mustFloat(getEnv("MIN_ORDER_MULTIPLIER_ABUNDANT", "0.2")),
		MinOrderMultiplierScarce:   mustFloat(getEnv("MIN_ORDER_MULTIPLIER_SCARCE", "0.7")),

		WorkerCount: mustInt(getEnv("WORKER_COUNT", "3")),
		JitterRange: mustFloat(getEnv("JITTER_RANGE", "0.4")),
		DryRun:      strings.EqualFold(getEnv("DRY_RUN", "false"), "true"),

		LockDir:   getEnv("LOCK_DIR", "."),
		OutputDir: getEnv("OUTPUT_DIR", "output"),

		EmailEnabled:     emailEnabled,
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Sourcing"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
		SummaryRecipient: getEnv("SUMMARY_RECIPIENT", ""),

		MinIOEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketReports: getEnv("MINIO_BUCKET_REPORTS", "sourcing-reports"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MarketplaceAccount == "" || cfg.MarketplaceUsername == "" || cfg.MarketplacePassword == "" {
		return nil, fmt.Errorf("MARKETPLACE_ACCOUNT, MARKETPLACE_USERNAME and MARKETPLACE_PASSWORD are required")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	if cfg.JitterRange < 0 || cfg.JitterRange >= 1 {
		return nil, fmt.Errorf("JITTER_RANGE must be in [0, 1)")
	}
	if emailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "" || cfg.SummaryRecipient == "") {
		return nil, fmt.Errorf("SMTP_HOST, EMAIL_FROM_ADDRESS and SUMMARY_RECIPIENT are required when EMAIL_ENABLED is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

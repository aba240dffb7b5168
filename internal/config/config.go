package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/docgen-gateway/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr  string   `env:"SERVER_ADDR,notEmpty"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Database configuration (profiles, current project, onboarding flags)
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	BackendConnectorCfg  BackendConnectorConfig  `envPrefix:"BACKEND_"`
	CallbackConnectorCfg CallbackConnectorConfig `envPrefix:"CALLBACK_"`

	// Real-time generation connections
	RealtimeCfg RealtimeConfig `envPrefix:"REALTIME_"`

	// Per-document-type connection URL patterns
	DocumentsCfg DocumentsConfig `envPrefix:"DOCUMENTS_"`

	// Workspace cache
	WorkspaceCfg WorkspaceConfig `envPrefix:"WORKSPACE_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`
	LogFile  string `env:"LOG_FILE"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram notifier configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram notifier configuration.
// The notifier is disabled when BotToken is empty.
type TelegramConfig struct {
	BotToken string `env:"BOT_TOKEN"`
}

// RealtimeConfig configures the generation job connections
type RealtimeConfig struct {
	HandshakeTimeout     time.Duration `env:"HANDSHAKE_TIMEOUT" envDefault:"10s"`
	MaxReconnectAttempts int           `env:"MAX_RECONNECT_ATTEMPTS" envDefault:"3"`
	ReconnectBaseDelay   time.Duration `env:"RECONNECT_BASE_DELAY" envDefault:"2s"`
	ReadLimit            int64         `env:"READ_LIMIT" envDefault:"1048576"`
	PongWait             time.Duration `env:"PONG_WAIT" envDefault:"60s"`
	// MockURL is the job URL the mock backend hands out; the mock job server answers it
	MockURL  string        `env:"MOCK_URL" envDefault:"ws://localhost:8080/mock/jobs"`
	MockStep time.Duration `env:"MOCK_STEP" envDefault:"500ms"`
}

// DocumentsConfig holds the host pattern each document type's bridge accepts.
// An empty pattern accepts every URL.
type DocumentsConfig struct {
	GTMURLPattern      string `env:"GTM_URL_PATTERN"`
	ICPURLPattern      string `env:"ICP_URL_PATTERN"`
	KMFURLPattern      string `env:"KMF_URL_PATTERN"`
	SRURLPattern       string `env:"SR_URL_PATTERN"`
	BSURLPattern       string `env:"BS_URL_PATTERN"`
	MRURLPattern       string `env:"MR_URL_PATTERN"`
	LinkedInURLPattern string `env:"LINKEDIN_URL_PATTERN"`
}

type WorkspaceConfig struct {
	IdleTTL         time.Duration `env:"IDLE_TTL" envDefault:"2h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

type BackendConnectorConfig struct {
	HTTPClientConfig
	QuestionsEndpoint string               `env:"QUESTIONS_ENDPOINT" envDefault:"/documents/questions"`
	GenerateEndpoint  string               `env:"GENERATE_ENDPOINT" envDefault:"/documents/generate"`
	UploadEndpoint    string               `env:"UPLOAD_ENDPOINT" envDefault:"/documents/upload"`
	Retry             pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type CallbackConnectorConfig struct {
	HTTPClientConfig
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"5242880"`    // 5 MiB
	MaxTotalSize  int64 `env:"MAX_TOTAL_SIZE" envDefault:"26214400"`  // 25 MiB
	MaxFileCount  int   `env:"MAX_FILE_COUNT" envDefault:"16"`        // Max 16 files
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"` // 32 MiB
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.RealtimeCfg.MaxReconnectAttempts < 0 || cfg.RealtimeCfg.MaxReconnectAttempts > 10 {
		errors = append(errors, fmt.Sprintf("REALTIME_MAX_RECONNECT_ATTEMPTS must be between 0 and 10, got %d", cfg.RealtimeCfg.MaxReconnectAttempts))
	}

	if cfg.RealtimeCfg.ReconnectBaseDelay <= 0 {
		errors = append(errors, fmt.Sprintf("REALTIME_RECONNECT_BASE_DELAY must be positive, got %s", cfg.RealtimeCfg.ReconnectBaseDelay))
	}

	if !cfg.EnableMocks && cfg.BackendConnectorCfg.Url == "" {
		errors = append(errors, "BACKEND_SERVICE_URL is required when mocks are disabled")
	}

	if !cfg.EnableMocks && cfg.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL is required when mocks are disabled")
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		CORS
		Tasks
		Locations
		Reader
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret   string
		TokenExpiry time.Duration
		BcryptCost  int

		// Rate limiting configuration
		MaxLoginAttempts  int           // Max failed attempts before lockout (default: 5)
		LockoutDuration   time.Duration // How long to lock out (default: 30m)
		RequestsPerWindow int           // Requests allowed per client IP (default: 100)
		RequestWindow     time.Duration // Window for counting requests (default: 1m)
	}
	CORS struct {
		AllowedOrigins []string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Locations struct {
		ChunkSize     int    // Characters per location (default: 1024)
		SweepEnabled  bool   // Periodically generate missing indexes
		SweepSchedule string // Cron format: "*/30 * * * *" = every 30 minutes
		CacheSize     int    // Generated indexes kept in memory
	}
	Reader struct {
		StateDir   string        // Local database and log location for the terminal reader
		AckGrace   time.Duration // Wait for renderer acknowledgement before saving optimistically
		SyncURL    string        // Optional backend base URL
		SyncToken  string        // Bearer token for SyncURL
		SyncMaxTry int
	}
	Log struct {
		Level      string
		Encoding   string // json or console
		File       string // Optional rotated log file
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("jwt_secret", "")               // Auto-generated if empty
	v.SetDefault("auth_token_expiry", "720h")    // 30 days
	v.SetDefault("auth_bcrypt_cost", 10)         // bcrypt cost factor
	v.SetDefault("auth_max_login_attempts", 5)   // Max failed attempts
	v.SetDefault("auth_lockout_duration", "30m") // Lockout duration
	v.SetDefault("rate_limit_requests", 100)     // Requests per window
	v.SetDefault("rate_limit_window", "1m")      // Window for counting requests

	v.SetDefault("cors_allowed_origins", "http://localhost:5500")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Locations defaults
	v.SetDefault("locations_chunk_size", DefaultLocationChunkSize)
	v.SetDefault("locations_sweep_enabled", true)
	v.SetDefault("locations_sweep_schedule", "*/30 * * * *")
	v.SetDefault("locations_cache_size", 64)

	// Terminal reader defaults
	v.SetDefault("reader_state_dir", DefaultReaderStateDir)
	v.SetDefault("reader_ack_grace", "250ms")
	v.SetDefault("reader_sync_url", "")
	v.SetDefault("reader_sync_token", "")
	v.SetDefault("reader_sync_max_attempts", 3)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_encoding", "json")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			JWTSecret:         v.GetString("JWT_SECRET"),
			TokenExpiry:       v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:        v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts:  v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:   v.GetDuration("AUTH_LOCKOUT_DURATION"),
			RequestsPerWindow: v.GetInt("RATE_LIMIT_REQUESTS"),
			RequestWindow:     v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Locations: Locations{
			ChunkSize:     v.GetInt("LOCATIONS_CHUNK_SIZE"),
			SweepEnabled:  v.GetBool("LOCATIONS_SWEEP_ENABLED"),
			SweepSchedule: v.GetString("LOCATIONS_SWEEP_SCHEDULE"),
			CacheSize:     v.GetInt("LOCATIONS_CACHE_SIZE"),
		},
		Reader: Reader{
			StateDir:   v.GetString("READER_STATE_DIR"),
			AckGrace:   v.GetDuration("READER_ACK_GRACE"),
			SyncURL:    v.GetString("READER_SYNC_URL"),
			SyncToken:  v.GetString("READER_SYNC_TOKEN"),
			SyncMaxTry: v.GetInt("READER_SYNC_MAX_ATTEMPTS"),
		},
		Log: Log{
			Level:      v.GetString("LOG_LEVEL"),
			Encoding:   v.GetString("LOG_ENCODING"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
}

// splitList parses a comma-separated environment value.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

type Config struct {
	Port       int
	StaticRoot string

	RemoteBackend      string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseTable      string
	DatabaseURL        string
	RemoteTimeout      time.Duration
	CheckInterval      time.Duration

	LocalDBPath     string
	LocalQuotaBytes int
	SeedSamplePosts bool

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	return FromEnv()
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (*Config, error) {
	def := func(key, d string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		StaticRoot:         def("STATIC_ROOT", "./public"),
		SupabaseURL:        def("SUPABASE_URL", ""),
		SupabaseServiceKey: def("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseTable:      def("SUPABASE_TABLE", "blogs"),
		DatabaseURL:        def("DATABASE_URL", ""),
		LocalDBPath:        def("LOCAL_DB_PATH", "./folio.db"),
		LogLevel:           strings.ToLower(def("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(def("LOG_FORMAT", "console")),
		LogFile:            def("LOG_FILE", ""),
	}

	defaultBackend := BackendNone
	if cfg.SupabaseURL != "" {
		defaultBackend = BackendSupabase
	}
	cfg.RemoteBackend = strings.ToLower(def("REMOTE_BACKEND", defaultBackend))

	var err error
	if cfg.Port, err = strconv.Atoi(def("PORT", "5000")); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if cfg.LocalQuotaBytes, err = strconv.Atoi(def("LOCAL_QUOTA_BYTES", strconv.Itoa(5<<20))); err != nil {
		return nil, fmt.Errorf("invalid LOCAL_QUOTA_BYTES: %w", err)
	}
	if cfg.RemoteTimeout, err = time.ParseDuration(def("REMOTE_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid REMOTE_TIMEOUT: %w", err)
	}
	if cfg.CheckInterval, err = time.ParseDuration(def("CHECK_INTERVAL", "30s")); err != nil {
		return nil, fmt.Errorf("invalid CHECK_INTERVAL: %w", err)
	}
	if cfg.SeedSamplePosts, err = strconv.ParseBool(def("SEED_SAMPLE_POSTS", "true")); err != nil {
		return nil, fmt.Errorf("invalid SEED_SAMPLE_POSTS: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the chosen remote backend has what it needs.
func (c *Config) Validate() error {
	switch c.RemoteBackend {
	case BackendNone:
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseServiceKey == "" {
			return fmt.Errorf("supabase backend needs SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("postgres backend needs DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown REMOTE_BACKEND %q", c.RemoteBackend)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/tokenizer"
)

type Config struct {
	Port string

	// Auth
	DocchunkAPIKey string

	// Chunk budget
	TargetTokens int
	MinTokens    int
	MaxTokens    int
	Tokenizer    string

	// Document registry
	DBPath string

	// Vector index. Indexing is skipped when IndexURL is empty.
	IndexURL       string
	IndexAPIKey    string
	IndexNamespace string

	// Worker pool
	WorkerCount       int
	MaxQueueSize      int
	MaxConcurrentDocs int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	def := chunker.DefaultBudget()
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocchunkAPIKey: os.Getenv("DOCCHUNK_API_KEY"),

		TargetTokens: envInt("TARGET_TOKENS", def.Target),
		MinTokens:    envInt("MIN_TOKENS", def.Min),
		MaxTokens:    envInt("MAX_TOKENS", def.Max),
		Tokenizer:    envOr("TOKENIZER", tokenizer.DefaultEncoding),

		DBPath: envOr("DB_PATH", "docchunk.db"),

		IndexURL:       os.Getenv("INDEX_URL"),
		IndexAPIKey:    os.Getenv("INDEX_API_KEY"),
		IndexNamespace: envOr("INDEX_NAMESPACE", "staging"),

		WorkerCount:       envInt("WORKER_COUNT", 4),
		MaxQueueSize:      envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentDocs: envInt("MAX_CONCURRENT_DOCS", 8),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentDocs <= 0 {
		cfg.MaxConcurrentDocs = 8
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Budget returns the configured chunk budget.
func (c Config) Budget() chunker.Budget {
	return chunker.Budget{Target: c.TargetTokens, Min: c.MinTokens, Max: c.MaxTokens}
}

// Validate checks the settings the server cannot run without. Budget
// problems come back as *chunker.ConfigError.
func (c Config) Validate() error {
	if c.DocchunkAPIKey == "" {
		return fmt.Errorf("DOCCHUNK_API_KEY is required")
	}
	if c.IndexURL != "" && c.IndexAPIKey == "" {
		return fmt.Errorf("INDEX_API_KEY is required when INDEX_URL is set")
	}
	if err := c.Budget().Validate(); err != nil {
		return err
	}
	if _, err := tokenizer.New(c.Tokenizer); err != nil {
		return fmt.Errorf("TOKENIZER: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

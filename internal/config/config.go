package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	DocvoiceAPIKey string

	// TTS backend (OpenAI-compatible speech endpoint)
	TTSBaseURL string
	TTSAPIKey  string
	TTSModel   string
	TTSVoice   string
	TTSSpeed   float64
	SampleRate int

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentSynth int

	// Upload limits
	MaxUploadBytes int64

	// Chunking defaults
	DefaultMaxChars int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DocvoiceAPIKey: os.Getenv("DOCVOICE_API_KEY"),

		TTSBaseURL: envOr("TTS_BASE_URL", "http://localhost:8880/v1"),
		TTSAPIKey:  envOr("TTS_API_KEY", "not-needed"),
		TTSModel:   envOr("TTS_MODEL", "kokoro"),
		TTSVoice:   envOr("TTS_VOICE", "af_heart"),
		TTSSpeed:   envFloat("TTS_SPEED", 1.0),
		SampleRate: envInt("TTS_SAMPLE_RATE", 24000),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentSynth: envInt("MAX_CONCURRENT_SYNTH", 2),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DefaultMaxChars: envInt("DEFAULT_MAX_CHARS", 500),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentSynth <= 0 {
		cfg.MaxConcurrentSynth = 2
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.TTSSpeed <= 0 {
		cfg.TTSSpeed = 1.0
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 24000
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.DocvoiceAPIKey == "" {
		return fmt.Errorf("DOCVOICE_API_KEY is required")
	}
	if c.TTSBaseURL == "" {
		return fmt.Errorf("TTS_BASE_URL is required")
	}
	if c.DefaultMaxChars <= 0 {
		return fmt.Errorf("DEFAULT_MAX_CHARS must be positive, got %d", c.DefaultMaxChars)
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

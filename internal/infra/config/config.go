// Package config provides application-wide configuration loaded from env
// vars. All fields have safe defaults so the binary runs locally without any
// env setup; an optional .env file can be loaded for development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sobot-ai/sobot/internal/infra/llm"
)

// Config holds runtime configuration for the sobot service.
type Config struct {
	// HTTP
	HTTPHost     string        // HTTP_HOST — default: "0.0.0.0"
	HTTPPort     int           // HTTP_PORT — default: 8080
	ReadTimeout  time.Duration // HTTP_READ_TIMEOUT — default: 15s
	WriteTimeout time.Duration // HTTP_WRITE_TIMEOUT — default: 15s
	IdleTimeout  time.Duration // HTTP_IDLE_TIMEOUT — default: 60s

	// Model backend
	BackendMode    llm.Mode // BACKEND_MODE — "remote" (default) or "local"
	ModelName      string   // MODEL_NAME — default: llm.DefaultModel
	ModelBaseURL   string   // MODEL_BASE_URL fallback; the remote backend re-reads the env per call
	ModelAPIKey    string   // MODEL_API_KEY — default: "dummy-key" (tunnel hosts ignore it)
	Temperature    float64  // MODEL_TEMPERATURE — default: 0.7
	TopP           float64  // MODEL_TOP_P — default: 0.9
	MaxTokens      int      // MODEL_MAX_TOKENS — default: 256
	LlamaServerURL string   // LLAMA_SERVER_URL — default: "http://127.0.0.1:8081" (local mode)

	// Storage and persona
	DBPath      string // DB_PATH — default: "data/sobot.sqlite"
	PersonaPath string // PERSONA_PATH — default: "" (compiled-in persona)
}

const (
	envHTTPHost     = "HTTP_HOST"
	envHTTPPort     = "HTTP_PORT"
	envReadTimeout  = "HTTP_READ_TIMEOUT"
	envWriteTimeout = "HTTP_WRITE_TIMEOUT"
	envIdleTimeout  = "HTTP_IDLE_TIMEOUT"

	envBackendMode    = "BACKEND_MODE"
	envModelName      = "MODEL_NAME"
	envModelAPIKey    = "MODEL_API_KEY"
	envTemperature    = "MODEL_TEMPERATURE"
	envTopP           = "MODEL_TOP_P"
	envMaxTokens      = "MODEL_MAX_TOKENS"
	envLlamaServerURL = "LLAMA_SERVER_URL"

	envDBPath      = "DB_PATH"
	envPersonaPath = "PERSONA_PATH"
)

// Load reads configuration from environment variables, applying defaults for
// missing values. When envFile is non-empty, it is loaded first (missing
// file is not an error — production sets real env vars instead).
func Load(envFile string) Config {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	return Config{
		HTTPHost:     envOr(envHTTPHost, "0.0.0.0"),
		HTTPPort:     envOrInt(envHTTPPort, 8080),
		ReadTimeout:  envOrDuration(envReadTimeout, 15*time.Second),
		WriteTimeout: envOrDuration(envWriteTimeout, 15*time.Second),
		IdleTimeout:  envOrDuration(envIdleTimeout, 60*time.Second),

		BackendMode:    llm.Mode(strings.ToLower(envOr(envBackendMode, string(llm.ModeRemote)))),
		ModelName:      envOr(envModelName, llm.DefaultModel),
		ModelBaseURL:   os.Getenv(llm.EnvModelBaseURL),
		ModelAPIKey:    envOr(envModelAPIKey, "dummy-key"),
		Temperature:    envOrFloat(envTemperature, 0.7),
		TopP:           envOrFloat(envTopP, 0.9),
		MaxTokens:      envOrInt(envMaxTokens, 256),
		LlamaServerURL: envOr(envLlamaServerURL, "http://127.0.0.1:8081"),

		DBPath:      envOr(envDBPath, "data/sobot.sqlite"),
		PersonaPath: os.Getenv(envPersonaPath),
	}
}

// BackendConfig assembles the immutable llm.Config from the loaded values.
func (c Config) BackendConfig() llm.Config {
	params := llm.DefaultSamplingParams()
	params.Temperature = c.Temperature
	params.TopP = c.TopP
	params.MaxTokens = c.MaxTokens

	return llm.Config{
		Mode:    c.BackendMode,
		Model:   c.ModelName,
		BaseURL: c.ModelBaseURL,
		APIKey:  c.ModelAPIKey,
		Params:  params,
	}
}

// envOr returns the value of the environment variable key, or fallback if
// not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// Package config provides application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Port string

	// LLMBackend selects the completion client: "openai", "vertex" or "mock".
	LLMBackend   string
	OpenAIAPIKey string
	ModelName    string

	GCPProjectID string
	GCPLocation  string

	// StorageBackend selects the remote store: "firestore" or "memory".
	StorageBackend string
	CachePath      string

	// DefaultUserID, when set, attaches a session for that user at startup:
	// the store pulls that scope's chats and pushes after every mutation.
	DefaultUserID string
}

// Load reads all env vars and builds the config.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		LLMBackend:   strings.ToLower(getEnv("LLM_BACKEND", "")),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		ModelName:    getEnv("MODEL_NAME", "gpt-3.5-turbo"),

		GCPProjectID: getEnv("GCP_PROJECT", ""),
		GCPLocation:  getEnv("GCP_LOCATION", "us-central1"),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "memory")),
		CachePath:      getEnv("CACHE_PATH", "./data/assistd.db"),

		DefaultUserID: getEnv("DEFAULT_USER_ID", ""),
	}

	if cfg.LLMBackend == "" {
		if cfg.OpenAIAPIKey != "" {
			cfg.LLMBackend = "openai"
		} else {
			cfg.LLMBackend = "mock"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.CachePath == "" {
		return fmt.Errorf("CACHE_PATH cannot be empty")
	}
	switch c.LLMBackend {
	case "mock":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set for the openai backend")
		}
	case "vertex":
		if c.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT must be set for the vertex backend")
		}
	default:
		return fmt.Errorf("unknown LLM_BACKEND %q", c.LLMBackend)
	}
	switch c.StorageBackend {
	case "memory":
	case "firestore":
		if c.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT must be set for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

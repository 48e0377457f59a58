package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds everything the service needs at startup.
type Config struct {
	ServerAddr string           `json:"server_addr,omitempty"`
	LLM        *LLMConfig       `json:"llm,omitempty"`
	Auth       *AuthConfig      `json:"auth,omitempty"`
	Extractor  *ExtractorConfig `json:"extractor,omitempty"`
	OutputsDir string           `json:"outputs_dir,omitempty"`
}

// LLMConfig selects the model provider used by all agents.
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// AuthConfig points at the external auth provider (Supabase-compatible REST).
// Disable skips token verification entirely for local runs.
type AuthConfig struct {
	URL     string `json:"url,omitempty"`
	AnonKey string `json:"anon_key,omitempty"`
	Disable bool   `json:"disable,omitempty"`
}

// ExtractorConfig points at the external document-extraction service.
// When BaseURL is empty, uploads fall back to plain-text reading.
type ExtractorConfig struct {
	BaseURL string `json:"base_url,omitempty"`
}

// Load reads and parses the JSON config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.OutputsDir == "" {
		cfg.OutputsDir = "outputs"
	}
	return cfg, nil
}

package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port    int
	MCPPort int
}

type LLMConfig struct {
	Provider        string // "anthropic" or "openai"
	Model           string
	MaxTokens       int
	AnthropicAPIKey string
	OpenAIAPIKey    string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port:    4700,
			MCPPort: 4701,
		},
		LLM: LLMConfig{
			Provider:  "anthropic",
			MaxTokens: 16000,
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a .env file (if present), the
// platform-native backend, environment variables, and platform secret
// store.
//
// On macOS the backend is UserDefaults (domain: com.qualia.app) and API
// keys fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/qualia/config.json
// and API keys fall back to a secrets file under $XDG_DATA_HOME/qualia.
//
// Environment variables (QUALIA_* plus ANTHROPIC_API_KEY and
// OPENAI_API_KEY) override backend values on all platforms. Load does
// not require an API key; callers that invoke the language model check
// with RequireAPIKey first.
func Load() (Config, error) {
	// A .env file in the working directory feeds the env overrides.
	_ = godotenv.Load()
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret-store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try platform secret store for API keys still empty.
	if cfg.LLM.AnthropicAPIKey == "" {
		if key, err := kc.Get("qualia", "anthropic_api_key"); err == nil && key != "" {
			cfg.LLM.AnthropicAPIKey = key
		}
	}
	if cfg.LLM.OpenAIAPIKey == "" {
		if key, err := kc.Get("qualia", "openai_api_key"); err == nil && key != "" {
			cfg.LLM.OpenAIAPIKey = key
		}
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModel(cfg.LLM.Provider)
	}

	return cfg, nil
}

func defaultModel(provider string) string {
	if provider == "openai" {
		return "gpt-4o"
	}
	return "claude-3-5-sonnet-latest"
}

// APIKey returns the key matching the configured provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.AnthropicAPIKey
}

// RequireAPIKey returns an error when no API key is configured for the
// active provider. Commands that call the language model check this
// before starting work.
func (c LLMConfig) RequireAPIKey() error {
	if c.APIKey() != "" {
		return nil
	}
	env := "ANTHROPIC_API_KEY"
	account := "anthropic_api_key"
	if c.Provider == "openai" {
		env = "OPENAI_API_KEY"
		account = "openai_api_key"
	}
	return fmt.Errorf("missing required config: %s API key. Set it via environment variable %s%s",
		c.Provider, env, apiKeyHint(account))
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

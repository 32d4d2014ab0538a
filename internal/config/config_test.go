package config

import (
	"strings"
	"testing"
)

// fakeBackend is an in-memory ConfigBackend.
type fakeBackend struct {
	strings map[string]string
	ints    map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{strings: map[string]string{}, ints: map[string]int{}}
}

func (b *fakeBackend) GetString(key string) (string, bool, error) {
	v, ok := b.strings[key]
	return v, ok, nil
}

func (b *fakeBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.ints[key]
	return v, ok, nil
}

func (b *fakeBackend) SetString(key, val string) error { b.strings[key] = val; return nil }
func (b *fakeBackend) SetInt(key string, val int) error { b.ints[key] = val; return nil }
func (b *fakeBackend) Delete(key string) error {
	delete(b.strings, key)
	delete(b.ints, key)
	return nil
}

// mockKeychain is a test double for the secret store.
type mockKeychain struct {
	values map[string]string
	err    error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.values[account], m.err
}

// clearEnv blanks every config env var for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		if s.env != "" {
			t.Setenv(s.env, "")
		}
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newFakeBackend(), mockKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 4700 {
		t.Errorf("Server.Port = %d, want 4700", cfg.Server.Port)
	}
	if cfg.Server.MCPPort != 4701 {
		t.Errorf("Server.MCPPort = %d, want 4701", cfg.Server.MCPPort)
	}
	if cfg.LLM.Provider != "anthropic" {
		t.Errorf("LLM.Provider = %q, want anthropic", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "claude-3-5-sonnet-latest" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 16000 {
		t.Errorf("LLM.MaxTokens = %d, want 16000", cfg.LLM.MaxTokens)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir should have a default")
	}
}

func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newFakeBackend()
	b.SetInt("server.port", 5000)
	b.SetString("llm.provider", "openai")
	b.SetString("storage.data_dir", "/tmp/qualia-test")

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM.Provider = %q, want openai", cfg.LLM.Provider)
	}
	// Model default follows the resolved provider.
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("LLM.Model = %q, want gpt-4o", cfg.LLM.Model)
	}
	if cfg.Storage.DataDir != "/tmp/qualia-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	clearEnv(t)

	b := newFakeBackend()
	b.SetInt("server.port", 5000)
	b.SetString("llm.model", "backend-model")

	t.Setenv("QUALIA_SERVER_PORT", "6000")
	t.Setenv("QUALIA_LLM_MODEL", "env-model")
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000 (env wins)", cfg.Server.Port)
	}
	if cfg.LLM.Model != "env-model" {
		t.Errorf("LLM.Model = %q, want env-model", cfg.LLM.Model)
	}
	if cfg.LLM.AnthropicAPIKey != "env-key" {
		t.Errorf("AnthropicAPIKey = %q", cfg.LLM.AnthropicAPIKey)
	}
}

func TestEnvInvalidIntIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUALIA_SERVER_PORT", "not-a-number")

	cfg, err := loadWith(newFakeBackend(), mockKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4700 {
		t.Errorf("Server.Port = %d, want default 4700", cfg.Server.Port)
	}
}

func TestKeychainFallback(t *testing.T) {
	clearEnv(t)

	kc := mockKeychain{values: map[string]string{
		"anthropic_api_key": "keychain-secret",
	}}
	cfg, err := loadWith(newFakeBackend(), kc)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.LLM.AnthropicAPIKey != "keychain-secret" {
		t.Errorf("AnthropicAPIKey = %q, want keychain-secret", cfg.LLM.AnthropicAPIKey)
	}
}

func TestEnvBeatsKeychain(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	kc := mockKeychain{values: map[string]string{"anthropic_api_key": "keychain-key"}}
	cfg, err := loadWith(newFakeBackend(), kc)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.LLM.AnthropicAPIKey != "env-key" {
		t.Errorf("AnthropicAPIKey = %q, want env-key", cfg.LLM.AnthropicAPIKey)
	}
}

func TestAPIKeySelection(t *testing.T) {
	c := LLMConfig{Provider: "anthropic", AnthropicAPIKey: "a-key", OpenAIAPIKey: "o-key"}
	if c.APIKey() != "a-key" {
		t.Errorf("APIKey = %q, want a-key", c.APIKey())
	}

	c.Provider = "openai"
	if c.APIKey() != "o-key" {
		t.Errorf("APIKey = %q, want o-key", c.APIKey())
	}
}

func TestRequireAPIKey(t *testing.T) {
	c := LLMConfig{Provider: "anthropic"}
	err := c.RequireAPIKey()
	if err == nil {
		t.Fatal("expected error without API key")
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Errorf("error = %q", err)
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("error should name the env var, got %q", err)
	}

	c.AnthropicAPIKey = "set"
	if err := c.RequireAPIKey(); err != nil {
		t.Errorf("unexpected error with key set: %v", err)
	}

	openai := LLMConfig{Provider: "openai"}
	if err := openai.RequireAPIKey(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("openai error = %v", err)
	}
}

func TestDefaultModel(t *testing.T) {
	if got := defaultModel("anthropic"); got != "claude-3-5-sonnet-latest" {
		t.Errorf("defaultModel(anthropic) = %q", got)
	}
	if got := defaultModel("openai"); got != "gpt-4o" {
		t.Errorf("defaultModel(openai) = %q", got)
	}
}

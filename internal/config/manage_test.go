package config

import (
	"strings"
	"testing"
)

func TestShowAllSkipsSecrets(t *testing.T) {
	cfg := defaults()
	cfg.LLM.AnthropicAPIKey = "should-not-appear"

	infos := ShowAll(cfg)
	if len(infos) == 0 {
		t.Fatal("expected key infos")
	}

	for _, info := range infos {
		if strings.Contains(info.Key, "api_key") {
			t.Errorf("secret key %q should not be listed", info.Key)
		}
		if info.Value == "should-not-appear" {
			t.Errorf("secret value leaked through %q", info.Key)
		}
	}
}

func TestShowAllIncludesKnownKeys(t *testing.T) {
	infos := ShowAll(defaults())

	byKey := make(map[string]KeyInfo, len(infos))
	for _, info := range infos {
		byKey[info.Key] = info
	}

	port, ok := byKey["server.port"]
	if !ok {
		t.Fatal("server.port missing")
	}
	if port.Value != "4700" {
		t.Errorf("server.port value = %q, want 4700", port.Value)
	}
	if port.EnvVar != "QUALIA_SERVER_PORT" {
		t.Errorf("server.port env = %q", port.EnvVar)
	}

	if _, ok := byKey["llm.provider"]; !ok {
		t.Error("llm.provider missing")
	}
}

func TestValidKeys(t *testing.T) {
	keys := ValidKeys()

	for _, key := range keys {
		if strings.Contains(key, "api_key") {
			t.Errorf("secret key %q listed as settable", key)
		}
	}

	found := false
	for _, key := range keys {
		if key == "log.level" {
			found = true
		}
	}
	if !found {
		t.Error("log.level missing from valid keys")
	}
}

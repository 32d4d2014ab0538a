package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Keychain abstracts the platform secret store.
type Keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

type platformKeychain struct{}

// NewKeychain returns the platform secret store.
func NewKeychain() Keychain { return platformKeychain{} }

func (platformKeychain) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (platformKeychain) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}

// GetAPIToken returns the bearer token protecting the management API,
// generating and persisting one on first use. The QUALIA_API_TOKEN
// environment variable overrides the stored token.
func GetAPIToken(kc Keychain) (string, error) {
	if t := os.Getenv("QUALIA_API_TOKEN"); t != "" {
		return t, nil
	}
	if t, err := kc.Get("qualia", "api_token"); err == nil && t != "" {
		return t, nil
	}
	token := uuid.NewString()
	if err := kc.Set("qualia", "api_token", token); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return token, nil
}

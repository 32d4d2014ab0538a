package config

import (
	"errors"
	"testing"
)

// fakeSecretStore records what GetAPIToken persists.
type fakeSecretStore struct {
	stored map[string]string
	getErr error
}

func newFakeSecretStore() *fakeSecretStore {
	return &fakeSecretStore{stored: map[string]string{}}
}

func (f *fakeSecretStore) Get(service, account string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.stored[account], nil
}

func (f *fakeSecretStore) Set(service, account, value string) error {
	f.stored[account] = value
	return nil
}

func TestGetAPITokenEnvOverride(t *testing.T) {
	t.Setenv("QUALIA_API_TOKEN", "env-token")

	got, err := GetAPIToken(newFakeSecretStore())
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if got != "env-token" {
		t.Errorf("token = %q, want env-token", got)
	}
}

func TestGetAPITokenFromStore(t *testing.T) {
	t.Setenv("QUALIA_API_TOKEN", "")

	kc := newFakeSecretStore()
	kc.stored["api_token"] = "stored-token"

	got, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if got != "stored-token" {
		t.Errorf("token = %q, want stored-token", got)
	}
}

func TestGetAPITokenGeneratesAndPersists(t *testing.T) {
	t.Setenv("QUALIA_API_TOKEN", "")

	kc := newFakeSecretStore()
	kc.getErr = errors.New("not found")

	got, err := GetAPIToken(kc)
	if err != nil {
		t.Fatalf("GetAPIToken: %v", err)
	}
	if got == "" {
		t.Fatal("expected generated token")
	}
	if kc.stored["api_token"] != got {
		t.Error("generated token should be persisted")
	}
}

package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvRaindropToken = "RDTAGGER_RAINDROP_TOKEN"
	EnvAIKey         = "RDTAGGER_AI_KEY"
)

// EnvironmentStore is a read-only CredentialStore over environment variables.
// It answers for any profile.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Name identifies the backend
func (e *EnvironmentStore) Name() string { return "environment" }

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(*Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve builds credentials from the environment
func (e *EnvironmentStore) Retrieve(profile string) (*Credentials, error) {
	token := os.Getenv(EnvRaindropToken)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}
	if profile == "" {
		profile = DefaultProfile
	}

	return &Credentials{
		Profile:       profile,
		RaindropToken: token,
		AIKey:         os.Getenv(EnvAIKey),
		LastModified:  time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(string) bool {
	return os.Getenv(EnvRaindropToken) != ""
}

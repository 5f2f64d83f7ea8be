package secrets

import (
	"context"
	"time"

	"replypilot/backend/pkg/logger"
)

// Manager resolves credentials for external integrations. Values come
// from Vault when it is enabled, with environment variables as the
// fallback, so local development works without a Vault deployment.
type Manager struct {
	vault *VaultManager
}

// NewManager creates a Manager backed by Vault (or env-only when
// VAULT_ENABLED is false).
func NewManager(log *logger.Logger) (*Manager, error) {
	vm, err := NewVaultManager(log)
	if err != nil {
		return nil, err
	}
	return &Manager{vault: vm}, nil
}

// Get retrieves a secret by key.
func (m *Manager) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.vault.GetSecret(ctx, key)
}

// GetWithDefault retrieves a secret, returning defaultValue when the
// key is not present in Vault or the environment.
func (m *Manager) GetWithDefault(key, defaultValue string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.vault.GetSecretWithDefault(ctx, key, defaultValue)
}

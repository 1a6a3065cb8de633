package gateway

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/nextlevelbuilder/pairlink/internal/config"
)

const (
	keyringService  = "pairlink"
	keyringTokenKey = "gateway-token"
)

// ResolveToken returns the gateway auth token: the config value when set,
// otherwise the OS keyring entry. A missing keyring entry yields an empty
// token, which the gateway may still accept for local connections.
func ResolveToken(cfg config.GatewayConfig) (string, error) {
	if cfg.Token != "" {
		return cfg.Token, nil
	}
	token, err := keyring.Get(keyringService, keyringTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read gateway token from keyring: %w", err)
	}
	return token, nil
}

// StoreToken saves the gateway auth token in the OS keyring.
func StoreToken(token string) error {
	if err := keyring.Set(keyringService, keyringTokenKey, token); err != nil {
		return fmt.Errorf("store gateway token in keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the gateway auth token from the OS keyring.
func DeleteToken() error {
	if err := keyring.Delete(keyringService, keyringTokenKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete gateway token from keyring: %w", err)
	}
	return nil
}

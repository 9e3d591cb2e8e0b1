// Package credential stores secrets in the OS keyring so nothing
// sensitive ever lands in the YAML config file.
package credential

import (
	"fmt"
	"sync"

	"github.com/99designs/keyring"
)

const serviceName = "campuscompanion"

// KeyBackendAccess is the keyring key holding the backend access key
// appended to the postgres DSN at connection time.
const KeyBackendAccess = "backend-access-key"

var (
	ringOnce sync.Once
	ring     keyring.Keyring
	ringErr  error
)

// openRing opens the OS keyring once and reuses the handle; keyring
// backends may prompt the user on open, so repeated opens are avoided.
func openRing() (keyring.Keyring, error) {
	ringOnce.Do(func() {
		ring, ringErr = keyring.Open(keyring.Config{
			ServiceName: serviceName,
			AllowedBackends: []keyring.BackendType{
				keyring.KeychainBackend,
				keyring.SecretServiceBackend,
				keyring.WinCredBackend,
				keyring.PassBackend,
				keyring.FileBackend,
			},
			FileDir:                  "~/.config/campuscompanion/credentials",
			FilePasswordFunc:         keyring.FixedStringPrompt("campuscompanion-file-key"),
			KeychainTrustApplication: true,
		})
	})
	if ringErr != nil {
		return nil, fmt.Errorf("opening keyring: %w", ringErr)
	}
	return ring, nil
}

// Get returns the stored value for key.
func Get(key string) (string, error) {
	r, err := openRing()
	if err != nil {
		return "", err
	}

	item, err := r.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores value under key, replacing any previous value.
func Set(key, value string) error {
	r, err := openRing()
	if err != nil {
		return err
	}

	if err := r.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key.
func Delete(key string) error {
	r, err := openRing()
	if err != nil {
		return err
	}

	if err := r.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

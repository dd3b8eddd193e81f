package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const keychainService = "astrometer"

// KeyEnvVar, when set, overrides every keystore lookup with a single key.
const KeyEnvVar = "ASTROMETER_KEY"

var ErrKeyNotFound = errors.New("key not found")

// KeystoreBackend stores private keys by reference.
type KeystoreBackend interface {
	Store(name, hexKey string) (ref string, err error)
	Retrieve(ref string) (string, error)
	Delete(ref string) error
}

// KeyRef is the reference a wallet's key is stored under.
func KeyRef(name string) string { return keychainService + "." + name }

// sessionCache holds keys unlocked during this process.
var sessionCache sync.Map

// Keystore keeps keys in a 99designs keyring. A nil ring keeps them in the
// process cache only.
type Keystore struct {
	ring keyring.Keyring
}

// osBackends narrows the keyring choice on headless Linux; nil lets the
// keyring pick for the platform.
func osBackends(goos string) []keyring.BackendType {
	if goos != "linux" {
		return nil
	}
	return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.FileBackend}
}

// DefaultKeystore opens the OS keychain, falling back to the keyring file
// backend when no keychain answers.
func DefaultKeystore() *Keystore {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		AllowedBackends:          osBackends(runtime.GOOS),
	})
	if err != nil {
		ring, _ = keyring.Open(keyring.Config{
			ServiceName:     keychainService,
			AllowedBackends: []keyring.BackendType{keyring.FileBackend},
		})
	}
	return &Keystore{ring: ring}
}

// FileKeystore encrypts keys on disk under dir with passphrase.
func FileKeystore(dir, passphrase string) (*Keystore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      keychainService,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt(passphrase),
	})
	if err != nil {
		return nil, fmt.Errorf("opening file keystore: %w", err)
	}
	return &Keystore{ring: ring}, nil
}

func (k *Keystore) Store(name, hexKey string) (string, error) {
	ref := KeyRef(name)
	if k.ring == nil {
		sessionCache.Store(ref, hexKey)
		return ref, nil
	}
	if err := k.ring.Set(keyring.Item{Key: ref, Data: []byte(hexKey)}); err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

// unlockedKey checks, in order, the env override, the process cache and the
// session file.
func unlockedKey(ref string) (string, bool) {
	if v := os.Getenv(KeyEnvVar); v != "" {
		return normaliseHexKey(v), true
	}
	if v, ok := sessionCache.Load(ref); ok {
		return v.(string), true
	}
	if v, ok := GetSessionKey(ref); ok {
		sessionCache.Store(ref, v)
		return v, true
	}
	return "", false
}

func (k *Keystore) Retrieve(ref string) (string, error) {
	if v, ok := unlockedKey(ref); ok {
		return v, nil
	}
	if k.ring == nil {
		return "", fmt.Errorf("keystore not available: %w: %s", ErrKeyNotFound, ref)
	}
	item, err := k.ring.Get(ref)
	switch {
	case errors.Is(err, keyring.ErrKeyNotFound), errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	case err != nil:
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Delete removes ref from the keyring and from every unlock cache.
func (k *Keystore) Delete(ref string) error {
	sessionCache.Delete(ref)
	RemoveSessionKey(ref)
	if k.ring == nil {
		return nil
	}
	err := k.ring.Remove(ref)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func normaliseHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

// InMemoryKeystore serves tests and read-only tools.
type InMemoryKeystore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewInMemoryKeystore() *InMemoryKeystore {
	return &InMemoryKeystore{data: make(map[string]string)}
}

func (k *InMemoryKeystore) Store(name, hexKey string) (string, error) {
	ref := KeyRef(name)
	k.mu.Lock()
	k.data[ref] = hexKey
	k.mu.Unlock()
	return ref, nil
}

func (k *InMemoryKeystore) Retrieve(ref string) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	return v, nil
}

func (k *InMemoryKeystore) Delete(ref string) error {
	k.mu.Lock()
	delete(k.data, ref)
	k.mu.Unlock()
	return nil
}

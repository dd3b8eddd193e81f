package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet types.
const (
	TypeWatchOnly = "watch-only"
	TypeSigning   = "signing"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrWalletExists   = errors.New("wallet already exists")
	ErrInvalidName    = errors.New("invalid wallet name")
	ErrInvalidKey     = errors.New("invalid private key")
	ErrInvalidAddress = errors.New("invalid address")
	ErrWatchOnly      = errors.New("wallet is watch-only")
)

// Wallet names one account the CLI can act or read as. Only signing wallets
// have a key in the keystore, referenced by KeyRef.
type Wallet struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Type      string `json:"type"`
	KeyRef    string `json:"key_ref,omitempty"`
	IsDefault bool   `json:"is_default,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (w *Wallet) Addr() common.Address { return common.HexToAddress(w.Address) }

func (w *Wallet) CanSign() bool { return w.Type == TypeSigning }

type Store interface {
	Load() ([]*Wallet, error)
	Save([]*Wallet) error
}

// Manager keeps the wallet set in memory, loading it from the Store on first
// use and writing it back after every change.
type Manager struct {
	store   Store
	ks      KeystoreBackend
	wallets map[string]*Wallet
	loaded  bool
}

type Option func(*Manager)

// WithInMemoryStore keeps both wallets and keys in memory.
func WithInMemoryStore() Option {
	return func(m *Manager) {
		m.store = &memStore{}
		m.ks = NewInMemoryKeystore()
	}
}

func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

func WithKeystore(ks KeystoreBackend) Option {
	return func(m *Manager) { m.ks = ks }
}

// NewManager defaults to an in-memory wallet set and the OS keychain.
func NewManager(opts ...Option) *Manager {
	m := &Manager{wallets: make(map[string]*Wallet), store: &memStore{}}
	for _, opt := range opts {
		opt(m)
	}
	if m.ks == nil {
		m.ks = DefaultKeystore()
	}
	return m
}

func (m *Manager) Keystore() KeystoreBackend { return m.ks }

// ValidateName rejects names that could not double as a keystore reference
// or that would be read as an address.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case strings.HasPrefix(strings.ToLower(name), "0x"):
		return fmt.Errorf("%w: %q looks like an address", ErrInvalidName, name)
	case strings.ContainsFunc(name, func(r rune) bool { return unicode.IsSpace(r) || r == '/' || r == '\\' }):
		return fmt.Errorf("%w: %q contains whitespace or a path separator", ErrInvalidName, name)
	}
	return nil
}

// reserve loads the wallet set and checks that name is free to use.
func (m *Manager) reserve(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := m.load(); err != nil {
		return err
	}
	if _, exists := m.wallets[name]; exists {
		return fmt.Errorf("%w: %q", ErrWalletExists, name)
	}
	return nil
}

func (m *Manager) insert(w *Wallet) error {
	if w.CreatedAt == "" {
		w.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.wallets[w.Name] = w
	return m.persist()
}

// AddWatchOnly registers an address for reads and as a named target.
func (m *Manager) AddWatchOnly(name, address string) (*Wallet, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if err := m.reserve(name); err != nil {
		return nil, err
	}
	w := &Wallet{Name: name, Address: common.HexToAddress(address).Hex(), Type: TypeWatchOnly}
	return w, m.insert(w)
}

// AddWithKey imports a hex private key.
func (m *Manager) AddWithKey(name, hexKey string) error {
	if err := m.reserve(name); err != nil {
		return err
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	_, err = m.addSigning(name, crypto.PubkeyToAddress(key.PublicKey), hexKey)
	return err
}

// Generate creates a fresh key and returns it 0x-prefixed alongside the wallet.
func (m *Manager) Generate(name string) (*Wallet, string, error) {
	if err := m.reserve(name); err != nil {
		return nil, "", err
	}
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, "", fmt.Errorf("generating key: %w", err)
	}
	hexKey := hexutil.Encode(crypto.FromECDSA(key))
	w, err := m.addSigning(name, crypto.PubkeyToAddress(key.PublicKey), hexKey)
	if err != nil {
		return nil, "", err
	}
	return w, hexKey, nil
}

func (m *Manager) addSigning(name string, addr common.Address, hexKey string) (*Wallet, error) {
	ref, err := m.ks.Store(name, hexKey)
	if err != nil {
		return nil, fmt.Errorf("storing key: %w", err)
	}
	w := &Wallet{Name: name, Address: addr.Hex(), Type: TypeSigning, KeyRef: ref}
	return w, m.insert(w)
}

func (m *Manager) ExportKey(name string) (string, error) {
	w, err := m.Get(name)
	if err != nil {
		return "", err
	}
	if !w.CanSign() {
		return "", fmt.Errorf("%w: %q has no private key", ErrWatchOnly, name)
	}
	return m.ks.Retrieve(w.KeyRef)
}

func (m *Manager) Get(name string) (*Wallet, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	if w, ok := m.wallets[name]; ok {
		return w, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
}

// Holding returns the wallets for addr, signing wallets first.
func (m *Manager) Holding(addr common.Address) []*Wallet {
	var out []*Wallet
	for _, w := range m.List() {
		if w.Addr() == addr {
			out = append(out, w)
		}
	}
	slices.SortStableFunc(out, func(a, b *Wallet) int {
		switch {
		case a.CanSign() == b.CanSign():
			return 0
		case a.CanSign():
			return -1
		default:
			return 1
		}
	})
	return out
}

// Names maps each known address to the wallet that best represents it, so
// governance listings can show names next to addresses.
func (m *Manager) Names() map[common.Address]string {
	names := make(map[common.Address]string)
	for _, w := range m.List() {
		if held := m.Holding(w.Addr()); len(held) > 0 {
			names[w.Addr()] = held[0].Name
		}
	}
	return names
}

// Resolve accepts a wallet name or a hex address.
func (m *Manager) Resolve(nameOrAddress string) (common.Address, error) {
	if common.IsHexAddress(nameOrAddress) {
		return common.HexToAddress(nameOrAddress), nil
	}
	if strings.HasPrefix(nameOrAddress, "0x") {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, nameOrAddress)
	}
	w, err := m.Get(nameOrAddress)
	if err != nil {
		return common.Address{}, err
	}
	return w.Addr(), nil
}

// Remove drops the wallet and its key.
func (m *Manager) Remove(name string) error {
	w, err := m.Get(name)
	if err != nil {
		return err
	}
	if w.KeyRef != "" {
		if err := m.ks.Delete(w.KeyRef); err != nil {
			return fmt.Errorf("deleting key: %w", err)
		}
	}
	delete(m.wallets, name)
	return m.persist()
}

// List is sorted by name.
func (m *Manager) List() []*Wallet {
	m.load() //nolint:errcheck
	out := make([]*Wallet, 0, len(m.wallets))
	for _, w := range m.wallets {
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b *Wallet) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (m *Manager) SetDefault(name string) error {
	if _, err := m.Get(name); err != nil {
		return err
	}
	for _, w := range m.wallets {
		w.IsDefault = w.Name == name
	}
	return m.persist()
}

// Default returns the marked wallet, the only wallet when there is just one,
// or nil.
func (m *Manager) Default() *Wallet {
	all := m.List()
	for _, w := range all {
		if w.IsDefault {
			return w
		}
	}
	if len(all) == 1 {
		return all[0]
	}
	return nil
}

func (m *Manager) load() error {
	if m.loaded {
		return nil
	}
	wallets, err := m.store.Load()
	if err != nil {
		return err
	}
	for _, w := range wallets {
		m.wallets[w.Name] = w
	}
	m.loaded = true
	return nil
}

func (m *Manager) persist() error {
	return m.store.Save(m.List())
}

// --- in-memory store ---

type memStore struct {
	wallets []*Wallet
}

func (s *memStore) Load() ([]*Wallet, error) {
	return s.wallets, nil
}

func (s *memStore) Save(wallets []*Wallet) error {
	s.wallets = wallets
	return nil
}

// --- JSON file store ---

// JSONStore persists wallets to a JSON file.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed wallet store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Load() ([]*Wallet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var wallets []*Wallet
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, err
	}
	return wallets, nil
}

func (s *JSONStore) Save(wallets []*Wallet) error {
	data, err := json.MarshalIndent(wallets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

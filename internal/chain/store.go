package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNoState is returned by Store.Load before anything was deployed.
var ErrNoState = errors.New("no deployed state")

// State is everything a Node needs to resume.
type State struct {
	ChainID uint64                    `json:"chain_id"`
	Block   uint64                    `json:"block"`
	Nonces  map[common.Address]uint64 `json:"nonces"`
	Token   token.Snapshot            `json:"token"`
}

// Store persists node state between runs.
type Store interface {
	Load() (*State, error)
	Save(s *State) error
}

// FileStore keeps the state as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(f.path), err)
	}
	return &s, nil
}

func (f *FileStore) Save(s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

// memStore is an in-memory Store for tests and dry runs.
type memStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemStore returns a Store that keeps state in memory only.
func NewMemStore() Store {
	return &memStore{}
}

func (m *memStore) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoState
	}
	var s State
	if err := json.Unmarshal(m.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memStore) Save(s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

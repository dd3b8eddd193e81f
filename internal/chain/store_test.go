package chain_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/astrometer/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores(t *testing.T) {
	stores := map[string]chain.Store{
		"memory": chain.NewMemStore(),
		"file":   chain.NewFileStore(filepath.Join(t.TempDir(), "nested", "state.json")),
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load()
			assert.ErrorIs(t, err, chain.ErrNoState)

			addr := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
			in := &chain.State{ChainID: 31337, Block: 4, Nonces: map[common.Address]uint64{addr: 3}}
			require.NoError(t, s.Save(in))

			// Mutating the saved value must not leak into the store.
			in.Nonces[addr] = 99

			out, err := s.Load()
			require.NoError(t, err)
			assert.Equal(t, uint64(3), out.Nonces[addr])
			assert.Equal(t, uint64(4), out.Block)
			assert.Equal(t, uint64(31337), out.ChainID)
		})
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := chain.NewFileStore(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state.json")
}

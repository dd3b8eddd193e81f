package chain_test

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/astrometer/internal/chain"
	"github.com/Mohsinsiddi/astrometer/internal/contract"
	"github.com/Mohsinsiddi/astrometer/internal/logging"
	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = 31337

// Hardhat account #0.
const creatorKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type account struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func hardhatCreator(t *testing.T) account {
	t.Helper()
	key, err := crypto.HexToECDSA(creatorKey)
	require.NoError(t, err)
	return account{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func newAccount(t *testing.T) account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

type fixture struct {
	node    *chain.Node
	creator account
	super1  account
	super2  account
	logger  *logging.CapturingLogger
	journal *recordingJournal
}

type recordingJournal struct {
	receipts []*chain.Receipt
	fail     error
}

func (j *recordingJournal) Record(r *chain.Receipt) error {
	if j.fail != nil {
		return j.fail
	}
	j.receipts = append(j.receipts, r)
	return nil
}

// flakyStore fails every Save while fail is set.
type flakyStore struct {
	chain.Store
	fail error
}

func (s *flakyStore) Save(st *chain.State) error {
	if s.fail != nil {
		return s.fail
	}
	return s.Store.Save(st)
}

func genesis(creator, s1, s2 common.Address) token.Genesis {
	return token.Genesis{
		Name:        token.DefaultName,
		Symbol:      token.DefaultSymbol,
		Decimals:    token.DefaultDecimals,
		TotalSupply: uint256.NewInt(1_000_000),
		Creator:     creator,
		SuperOwners: []common.Address{s1, s2},
		Threshold:   token.DefaultThreshold,
	}
}

func deploy(t *testing.T, store chain.Store) *fixture {
	t.Helper()
	f := &fixture{
		creator: hardhatCreator(t),
		super1:  newAccount(t),
		super2:  newAccount(t),
		logger:  &logging.CapturingLogger{},
		journal: &recordingJournal{},
	}
	n, _, err := chain.Deploy(genesis(f.creator.addr, f.super1.addr, f.super2.addr), testChainID, chain.Options{
		Store:   store,
		Journal: f.journal,
		Logger:  f.logger,
	})
	require.NoError(t, err)
	f.node = n
	return f
}

func (f *fixture) signed(t *testing.T, from account, method string, args ...any) *types.Transaction {
	t.Helper()
	fn, err := contract.FindFunction(f.node.ABI(), method)
	require.NoError(t, err)
	data, err := contract.EncodeCall(fn, args...)
	require.NoError(t, err)
	return signTx(t, from, f.node.Nonce(from.addr), f.node.TokenAddress(), data, big.NewInt(testChainID))
}

func signTx(t *testing.T, from account, nonce uint64, to common.Address, data []byte, chainID *big.Int) *types.Transaction {
	t.Helper()
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		To:        &to,
		Gas:       100_000,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(1),
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), from.key)
	require.NoError(t, err)
	return signed
}

func (f *fixture) send(t *testing.T, from account, method string, args ...any) *chain.Receipt {
	t.Helper()
	raw, err := f.signed(t, from, method, args...).MarshalBinary()
	require.NoError(t, err)
	r, err := f.node.SendRawTransaction(raw)
	require.NoError(t, err)
	return r
}

func (f *fixture) view(t *testing.T, from common.Address, method string, args ...any) []any {
	t.Helper()
	fn, err := contract.FindFunction(f.node.ABI(), method)
	require.NoError(t, err)
	data, err := contract.EncodeCall(fn, args...)
	require.NoError(t, err)
	res, err := f.node.Call(from, data)
	require.NoError(t, err)
	return res.Values
}

func (f *fixture) balance(t *testing.T, addr common.Address) int64 {
	t.Helper()
	return f.view(t, addr, "balanceOf", addr)[0].(*big.Int).Int64()
}

// ---------------------------------------------------------------------------
// Deploy / Open
// ---------------------------------------------------------------------------

func TestDeploy(t *testing.T) {
	f := deploy(t, nil)

	assert.Equal(t, crypto.CreateAddress(f.creator.addr, 0), f.node.TokenAddress())
	assert.Equal(t, int64(testChainID), f.node.ChainID().Int64())
	assert.Equal(t, uint64(0), f.node.BlockNumber())
	assert.Equal(t, uint64(1), f.node.Nonce(f.creator.addr))
	assert.Equal(t, int64(1_000_000), f.balance(t, f.creator.addr))

	require.Len(t, f.journal.receipts, 1)
	r := f.journal.receipts[0]
	assert.Equal(t, "constructor", r.Method)
	assert.True(t, r.Succeeded())
	assert.Equal(t, f.node.TokenAddress(), r.ContractAddress)
	require.Len(t, r.Logs, 1)

	dec, err := contract.DecodeLog(f.node.ABI(), r.Logs[0].Log)
	require.NoError(t, err)
	assert.Equal(t, "Transfer", dec.Event)
	assert.Equal(t, common.Address{}, dec.Args[0].Value)

	assert.Contains(t, f.logger.Messages()[0], "deployed AstroMeter")
}

func TestDeployTwiceFails(t *testing.T) {
	store := chain.NewMemStore()
	deploy(t, store)

	c := hardhatCreator(t)
	_, _, err := chain.Deploy(genesis(c.addr, newAccount(t).addr, newAccount(t).addr), testChainID, chain.Options{Store: store})
	assert.ErrorIs(t, err, chain.ErrAlreadyDeployed)
}

func TestDeployRejectsBadGenesis(t *testing.T) {
	c := hardhatCreator(t)
	g := genesis(c.addr, newAccount(t).addr, newAccount(t).addr)
	g.Threshold = 3

	_, _, err := chain.Deploy(g, testChainID, chain.Options{})
	assert.ErrorIs(t, err, token.ErrInvalidGenesis)
}

func TestOpenResumesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	f := deploy(t, chain.NewFileStore(path))
	receiver := newAccount(t)
	f.send(t, f.creator, "transfer", receiver.addr, big.NewInt(40))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	n, err := chain.Open(chain.Options{Store: chain.NewFileStore(path)})
	require.NoError(t, err)
	assert.Equal(t, f.node.TokenAddress(), n.TokenAddress())
	assert.Equal(t, uint64(1), n.BlockNumber())
	assert.Equal(t, uint64(2), n.Nonce(f.creator.addr))

	resumed := &fixture{node: n}
	assert.Equal(t, int64(40), resumed.balance(t, receiver.addr))
}

func TestOpenWithoutState(t *testing.T) {
	_, err := chain.Open(chain.Options{Store: chain.NewFileStore(filepath.Join(t.TempDir(), "missing.json"))})
	assert.ErrorIs(t, err, chain.ErrNoState)
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

func TestTransferTransaction(t *testing.T) {
	f := deploy(t, nil)
	receiver := newAccount(t)

	r := f.send(t, f.creator, "transfer", receiver.addr, big.NewInt(250))
	assert.True(t, r.Succeeded())
	assert.Equal(t, "transfer", r.Method)
	assert.Equal(t, f.creator.addr, r.From)
	assert.Equal(t, uint64(1), r.BlockNumber)
	require.Len(t, r.Logs, 1)
	assert.Equal(t, r.TxHash, r.Logs[0].TxHash)
	assert.Equal(t, uint64(1), r.Logs[0].BlockNumber)

	assert.Equal(t, int64(250), f.balance(t, receiver.addr))
	assert.Equal(t, int64(999_750), f.balance(t, f.creator.addr))
	assert.Equal(t, uint64(2), f.node.Nonce(f.creator.addr))
	assert.Len(t, f.journal.receipts, 2)
}

func TestRevertedTransactionConsumesNonce(t *testing.T) {
	f := deploy(t, nil)
	poor := newAccount(t)

	r := f.send(t, poor, "transfer", f.creator.addr, big.NewInt(1))
	assert.False(t, r.Succeeded())
	assert.Contains(t, r.RevertReason, token.ErrInsufficientBalance.Error())
	assert.Empty(t, r.Logs)

	assert.Equal(t, uint64(1), f.node.Nonce(poor.addr))
	assert.Equal(t, uint64(1), f.node.BlockNumber())
	assert.Equal(t, int64(1_000_000), f.balance(t, f.creator.addr))

	msgs := f.logger.Messages()
	assert.Contains(t, msgs[len(msgs)-1], "reverted")
}

func TestUnknownSelectorReverts(t *testing.T) {
	f := deploy(t, nil)

	tx := signTx(t, f.creator, 1, f.node.TokenAddress(), []byte{0xde, 0xad, 0xbe, 0xef}, big.NewInt(testChainID))
	r, err := f.node.SendTransaction(tx)
	require.NoError(t, err)
	assert.False(t, r.Succeeded())
	assert.Equal(t, "0xdeadbeef", r.Method)
}

func TestOwnerConfirmationAcrossTransactions(t *testing.T) {
	f := deploy(t, nil)
	candidate := newAccount(t).addr

	r := f.send(t, f.super1, "addAddress", candidate)
	require.True(t, r.Succeeded())
	assert.Equal(t, []any{false}, f.view(t, candidate, "hasOwner", candidate))

	pending := f.view(t, candidate, "getWaitingConfirmationsList")
	assert.Equal(t, []common.Address{candidate}, pending[1])

	r = f.send(t, f.super2, "addAddress", candidate)
	require.True(t, r.Succeeded())
	require.Len(t, r.Logs, 2)
	assert.Equal(t, []any{true}, f.view(t, candidate, "hasOwner", candidate))
}

func TestNonSuperOwnerGovernanceReverts(t *testing.T) {
	f := deploy(t, nil)

	r := f.send(t, f.creator, "startDistribution")
	assert.False(t, r.Succeeded())
	assert.Contains(t, r.RevertReason, token.ErrUnauthorized.Error())

	r = f.send(t, f.super1, "startDistribution")
	assert.True(t, r.Succeeded())
	assert.Equal(t, []any{true, f.super1.addr}, f.view(t, f.creator.addr, "getDistributionStatus"))
}

func TestCheckSuperOwnerSeesCaller(t *testing.T) {
	f := deploy(t, nil)
	assert.Equal(t, []any{true}, f.view(t, f.super2.addr, "checkSuperOwner"))
	assert.Equal(t, []any{false}, f.view(t, f.creator.addr, "checkSuperOwner"))
}

func TestCallRefusesWrites(t *testing.T) {
	f := deploy(t, nil)
	fn, err := contract.FindFunction(f.node.ABI(), "startDistribution")
	require.NoError(t, err)
	data, err := contract.EncodeCall(fn)
	require.NoError(t, err)

	_, err = f.node.Call(f.super1.addr, data)
	assert.ErrorIs(t, err, contract.ErrReadOnlyCall)
}

// ---------------------------------------------------------------------------
// Admission
// ---------------------------------------------------------------------------

func TestAdmissionErrors(t *testing.T) {
	f := deploy(t, nil)
	data := []byte{0x06, 0xfd, 0xde, 0x03} // name()

	tests := []struct {
		name string
		tx   *types.Transaction
		want error
	}{
		{"wrong chain", signTx(t, f.creator, 1, f.node.TokenAddress(), data, big.NewInt(1)), chain.ErrChainIDMismatch},
		{"wrong recipient", signTx(t, f.creator, 1, f.creator.addr, data, big.NewInt(testChainID)), chain.ErrUnknownRecipient},
		{"nonce too low", signTx(t, f.creator, 0, f.node.TokenAddress(), data, big.NewInt(testChainID)), chain.ErrNonceTooLow},
		{"nonce too high", signTx(t, f.creator, 5, f.node.TokenAddress(), data, big.NewInt(testChainID)), chain.ErrNonceTooHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.node.SendTransaction(tt.tx)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, uint64(1), f.node.Nonce(f.creator.addr))
	assert.Equal(t, uint64(0), f.node.BlockNumber())
}

func TestValueTransferRejected(t *testing.T) {
	f := deploy(t, nil)
	to := f.node.TokenAddress()
	chainID := big.NewInt(testChainID)
	tx, err := types.SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID: chainID, Nonce: 1, To: &to, Gas: 21_000,
		GasTipCap: big.NewInt(1), GasFeeCap: big.NewInt(1), Value: big.NewInt(1),
	}), types.LatestSignerForChainID(chainID), f.creator.key)
	require.NoError(t, err)

	_, err = f.node.SendTransaction(tx)
	assert.ErrorIs(t, err, chain.ErrNotPayable)
}

func TestSendRawTransactionGarbage(t *testing.T) {
	f := deploy(t, nil)
	_, err := f.node.SendRawTransaction([]byte{0x02, 0xff})
	assert.ErrorIs(t, err, chain.ErrInvalidTx)
}

func TestFailedCommitRollsBack(t *testing.T) {
	errDisk := errors.New("disk full")

	for _, stage := range []string{"store", "journal"} {
		t.Run(stage, func(t *testing.T) {
			store := &flakyStore{Store: chain.NewMemStore()}
			f := deploy(t, store)
			receiver := newAccount(t)
			tx := f.signed(t, f.creator, "transfer", receiver.addr, big.NewInt(250))

			if stage == "store" {
				store.fail = errDisk
			} else {
				f.journal.fail = errDisk
			}
			r, err := f.node.SendTransaction(tx)
			assert.ErrorIs(t, err, errDisk)
			assert.Nil(t, r)

			assert.Equal(t, uint64(1), f.node.Nonce(f.creator.addr), "nonce not consumed")
			assert.Equal(t, uint64(0), f.node.BlockNumber())
			assert.Equal(t, int64(0), f.balance(t, receiver.addr))
			assert.Len(t, f.journal.receipts, 1, "only the deployment is journaled")

			store.fail, f.journal.fail = nil, nil
			st, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, uint64(0), st.Block, "persisted state is the previous block")

			r, err = f.node.SendTransaction(tx)
			require.NoError(t, err, "same transaction is accepted once commits work again")
			assert.True(t, r.Succeeded())
			assert.Equal(t, uint64(1), r.BlockNumber)
			assert.Equal(t, int64(250), f.balance(t, receiver.addr))
			assert.Equal(t, uint64(2), f.node.Nonce(f.creator.addr))
		})
	}
}

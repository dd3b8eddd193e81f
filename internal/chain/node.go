package chain

import (
	"errors"
	"fmt"
	"maps"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/astrometer/internal/contract"
	"github.com/Mohsinsiddi/astrometer/internal/logging"
	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Transaction admission errors. A transaction rejected with one of these is
// not included and does not consume a nonce.
var (
	ErrAlreadyDeployed  = errors.New("token already deployed")
	ErrInvalidTx        = errors.New("invalid transaction")
	ErrChainIDMismatch  = errors.New("chain id mismatch")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnknownRecipient = errors.New("transaction is not addressed to the token")
	ErrNotPayable       = errors.New("token does not accept value transfers")
	ErrNonceTooLow      = errors.New("nonce too low")
	ErrNonceTooHigh     = errors.New("nonce too high")
)

// Journal receives every receipt the node produces.
type Journal interface {
	Record(r *Receipt) error
}

// Options wires a Node's collaborators. Zero values fall back to an
// in-memory store, no journal and a discarding logger.
type Options struct {
	Store   Store
	Journal Journal
	Logger  logging.Logger
}

func (o Options) withDefaults() Options {
	if o.Store == nil {
		o.Store = NewMemStore()
	}
	if o.Logger == nil {
		o.Logger = logging.Discard
	}
	return o
}

// Node executes signed transactions against a single deployed token.
type Node struct {
	mu       sync.RWMutex
	chainID  *big.Int
	signer   types.Signer
	token    *token.Token
	dispatch *contract.Dispatcher
	nonces   map[common.Address]uint64
	block    uint64

	store   Store
	journal Journal
	log     logging.Logger
}

// Deploy creates the token described by g at the address a contract created
// by g.Creator with nonce 0 would get, then persists the genesis state.
func Deploy(g token.Genesis, chainID uint64, opts Options) (*Node, *Receipt, error) {
	opts = opts.withDefaults()
	if _, err := opts.Store.Load(); err == nil {
		return nil, nil, ErrAlreadyDeployed
	} else if !errors.Is(err, ErrNoState) {
		return nil, nil, fmt.Errorf("loading state: %w", err)
	}

	g.Address = crypto.CreateAddress(g.Creator, 0)
	t, events, err := token.New(g)
	if err != nil {
		return nil, nil, err
	}

	n := newNode(t, chainID, opts)
	n.nonces[g.Creator] = 1

	logs, err := n.dispatch.Logs(events)
	if err != nil {
		return nil, nil, err
	}
	hash := crypto.Keccak256Hash(g.Creator.Bytes(), g.Address.Bytes())
	r := &Receipt{
		TxHash:          hash,
		From:            g.Creator,
		Method:          "constructor",
		Status:          types.ReceiptStatusSuccessful,
		BlockNumber:     n.block,
		ContractAddress: g.Address,
		Logs:            entries(logs, n.block, hash),
	}

	if err := n.commit(r); err != nil {
		return nil, nil, err
	}
	n.log.Printf("deployed %s (%s) at %s on chain %d", t.Name(), t.Symbol(), g.Address.Hex(), chainID)
	return n, r, nil
}

// Open resumes a previously deployed node from opts.Store.
func Open(opts Options) (*Node, error) {
	opts = opts.withDefaults()
	st, err := opts.Store.Load()
	if err != nil {
		return nil, err
	}
	t, err := token.Restore(st.Token)
	if err != nil {
		return nil, err
	}

	n := newNode(t, st.ChainID, opts)
	n.block = st.Block
	for a, nonce := range st.Nonces {
		n.nonces[a] = nonce
	}
	return n, nil
}

func newNode(t *token.Token, chainID uint64, opts Options) *Node {
	id := new(big.Int).SetUint64(chainID)
	return &Node{
		chainID:  id,
		signer:   types.LatestSignerForChainID(id),
		token:    t,
		dispatch: contract.NewDispatcher(t),
		nonces:   make(map[common.Address]uint64),
		store:    opts.Store,
		journal:  opts.Journal,
		log:      opts.Logger,
	}
}

// ChainID returns the chain id transactions must be signed for.
func (n *Node) ChainID() *big.Int { return new(big.Int).Set(n.chainID) }

// TokenAddress returns the deployed token's address.
func (n *Node) TokenAddress() common.Address {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.token.Address()
}

// ABI returns the ABI the token serves.
func (n *Node) ABI() []contract.ABIEntry {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.dispatch.ABI()
}

// BlockNumber returns the number of the latest block.
func (n *Node) BlockNumber() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.block
}

// Nonce returns the next nonce expected from addr.
func (n *Node) Nonce(addr common.Address) uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.nonces[addr]
}

// Call runs a view function as from without creating a transaction.
func (n *Node) Call(from common.Address, calldata []byte) (*contract.Result, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.dispatch.Call(from, calldata)
}

// SendRawTransaction decodes a signed, binary-encoded transaction and
// applies it.
func (n *Node) SendRawTransaction(raw []byte) (*Receipt, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	return n.SendTransaction(tx)
}

// SendTransaction applies a signed transaction in its own block. A call that
// reverts still consumes the sender's nonce and yields a receipt with
// status 0; token state is left as it was. If the result cannot be persisted
// or journaled, the node and its store are put back to the previous block
// and the transaction can be resent with the same nonce.
func (n *Node) SendTransaction(tx *types.Transaction) (*Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if tx.ChainId().Cmp(n.chainID) != 0 {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrChainIDMismatch, tx.ChainId(), n.chainID)
	}
	from, err := types.Sender(n.signer, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if to := tx.To(); to == nil || *to != n.token.Address() {
		return nil, ErrUnknownRecipient
	}
	if tx.Value().Sign() != 0 {
		return nil, ErrNotPayable
	}
	switch want := n.nonces[from]; {
	case tx.Nonce() < want:
		return nil, fmt.Errorf("%w: %s has nonce %d, tx has %d", ErrNonceTooLow, from.Hex(), want, tx.Nonce())
	case tx.Nonce() > want:
		return nil, fmt.Errorf("%w: %s has nonce %d, tx has %d", ErrNonceTooHigh, from.Hex(), want, tx.Nonce())
	}

	prev := n.state()
	n.nonces[from]++
	n.block++

	r := &Receipt{
		TxHash:      tx.Hash(),
		From:        from,
		To:          n.token.Address(),
		Nonce:       tx.Nonce(),
		Method:      n.methodName(tx.Data()),
		BlockNumber: n.block,
	}

	res, err := n.dispatch.Execute(from, tx.Data())
	if err != nil {
		r.Status = types.ReceiptStatusFailed
		r.RevertReason = err.Error()
		n.log.Printf("block %d: %s from %s reverted: %s", r.BlockNumber, r.Method, from.Hex(), r.RevertReason)
	} else {
		r.Status = types.ReceiptStatusSuccessful
		r.Output = res.Output
		r.Logs = entries(res.Logs, n.block, r.TxHash)
		n.log.Printf("block %d: %s from %s applied, %d log(s)", r.BlockNumber, r.Method, from.Hex(), len(r.Logs))
	}

	if err := n.commit(r); err != nil {
		n.log.Printf("block %d: commit failed, rolling back: %v", r.BlockNumber, err)
		return nil, errors.Join(err, n.rollback(prev))
	}
	return r, nil
}

func (n *Node) methodName(calldata []byte) string {
	fn, err := n.dispatch.Lookup(calldata)
	if err != nil {
		if len(calldata) >= 4 {
			return fmt.Sprintf("0x%x", calldata[:4])
		}
		return "fallback"
	}
	return fn.Name
}

func (n *Node) state() *State {
	return &State{
		ChainID: n.chainID.Uint64(),
		Block:   n.block,
		Nonces:  maps.Clone(n.nonces),
		Token:   n.token.Snapshot(),
	}
}

// rollback restores prev in memory and in the store.
func (n *Node) rollback(prev *State) error {
	t, err := token.Restore(prev.Token)
	if err != nil {
		return fmt.Errorf("rolling back: %w", err)
	}
	n.token, n.dispatch = t, contract.NewDispatcher(t)
	n.block = prev.Block
	n.nonces = maps.Clone(prev.Nonces)
	if err := n.store.Save(prev); err != nil {
		return fmt.Errorf("rolling back: %w", err)
	}
	return nil
}

// commit persists the state and journals r.
func (n *Node) commit(r *Receipt) error {
	if err := n.store.Save(n.state()); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	if n.journal != nil {
		if err := n.journal.Record(r); err != nil {
			return fmt.Errorf("journaling %s: %w", r.TxHash.Hex(), err)
		}
	}
	return nil
}

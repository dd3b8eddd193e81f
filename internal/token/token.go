package token

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Defaults for the AstroMeter deployment.
const (
	DefaultName      = "AstroMeter"
	DefaultSymbol    = "AM"
	DefaultDecimals  = uint8(18)
	DefaultThreshold = 2

	RoleOwner      = uint64(1)
	RoleOwnerLabel = "OWNER"
)

// RoleGrant seeds a role and its holders at genesis.
type RoleGrant struct {
	ID      uint64
	Label   string
	Holders []common.Address
}

// Genesis holds construction parameters for a Token.
type Genesis struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *uint256.Int
	Creator     common.Address // receives the entire supply
	Address     common.Address // the token's own address
	SuperOwners []common.Address
	Owners      []common.Address
	Roles       []RoleGrant
	Threshold   int // distinct super-owner confirmations per owner change
}

// Token is the AstroMeter state machine: ledger, owner registry with its
// confirmation queue, role registry and distribution gate. All methods are
// safe for concurrent use and each one is atomic.
type Token struct {
	mu sync.RWMutex

	name     string
	symbol   string
	decimals uint8
	address  common.Address

	totalSupply *uint256.Int
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int

	superOwners []common.Address
	isSuper     map[common.Address]bool
	threshold   int

	owners  map[common.Address]struct{}
	pending []*PendingAction
	roles   map[uint64]*roleEntry

	distribution DistributionStatus
}

// New builds a Token from g and mints the total supply to the creator.
// The returned events hold the genesis mint.
func New(g Genesis) (*Token, []Event, error) {
	if err := g.validate(); err != nil {
		return nil, nil, err
	}

	t := empty()
	t.name = g.Name
	t.symbol = g.Symbol
	t.decimals = g.Decimals
	t.address = g.Address
	t.threshold = g.Threshold
	t.setSuperOwners(g.SuperOwners)

	for _, o := range g.Owners {
		t.owners[o] = struct{}{}
	}
	for _, r := range g.Roles {
		entry := t.roleOrCreate(r.ID, r.Label)
		for _, h := range r.Holders {
			entry.holders[h] = struct{}{}
		}
	}

	t.totalSupply = new(uint256.Int).Set(g.TotalSupply)
	t.balances[g.Creator] = new(uint256.Int).Set(g.TotalSupply)

	return t, []Event{transferEvent(common.Address{}, g.Creator, g.TotalSupply)}, nil
}

func empty() *Token {
	return &Token{
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
		isSuper:    make(map[common.Address]bool),
		owners:     make(map[common.Address]struct{}),
		roles:      make(map[uint64]*roleEntry),
	}
}

func (t *Token) setSuperOwners(addrs []common.Address) {
	t.superOwners = slices.Clone(addrs)
	for _, a := range addrs {
		t.isSuper[a] = true
	}
}

func (g Genesis) validate() error {
	if g.Name == "" || g.Symbol == "" {
		return fmt.Errorf("%w: name and symbol are required", ErrInvalidGenesis)
	}
	if g.TotalSupply == nil {
		return fmt.Errorf("%w: total supply is required", ErrInvalidGenesis)
	}
	if g.Creator == (common.Address{}) {
		return fmt.Errorf("%w: creator is the zero address", ErrInvalidGenesis)
	}
	if err := validateSuperOwners(g.SuperOwners, g.Threshold); err != nil {
		return err
	}
	for _, r := range g.Roles {
		if r.Label == "" {
			return fmt.Errorf("%w: role %d has no label", ErrInvalidGenesis, r.ID)
		}
	}
	return nil
}

func validateSuperOwners(addrs []common.Address, threshold int) error {
	seen := make(map[common.Address]bool, len(addrs))
	for _, a := range addrs {
		if a == (common.Address{}) {
			return fmt.Errorf("%w: zero address in super-owner set", ErrInvalidGenesis)
		}
		if seen[a] {
			return fmt.Errorf("%w: duplicate super owner %s", ErrInvalidGenesis, a.Hex())
		}
		seen[a] = true
	}
	if threshold < 2 || threshold > len(addrs) {
		return fmt.Errorf("%w: threshold %d must be between 2 and %d super owners",
			ErrInvalidGenesis, threshold, len(addrs))
	}
	return nil
}

// Name returns the token name.
func (t *Token) Name() string { return t.name }

// Symbol returns the token symbol.
func (t *Token) Symbol() string { return t.symbol }

// Decimals returns the number of display decimals.
func (t *Token) Decimals() uint8 { return t.decimals }

// Address returns the token's own address.
func (t *Token) Address() common.Address { return t.address }

// Threshold returns the number of distinct confirmations an owner change needs.
func (t *Token) Threshold() int { return t.threshold }

// CheckSuperOwner reports whether caller belongs to the fixed super-owner set.
func (t *Token) CheckSuperOwner(caller common.Address) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isSuper[caller]
}

// SuperOwners returns the fixed super-owner set in configured order.
func (t *Token) SuperOwners() []common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.superOwners)
}

func (t *Token) requireSuperOwner(caller common.Address) error {
	if !t.isSuper[caller] {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return nil
}

func sortedAddrs(set map[common.Address]struct{}) []common.Address {
	out := make([]common.Address, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b common.Address) int { return a.Cmp(b) })
	return out
}

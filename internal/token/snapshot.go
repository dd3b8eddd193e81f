package token

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Snapshot is the full serialisable state of a Token. Amounts are decimal
// strings.
type Snapshot struct {
	Name         string                                       `json:"name"`
	Symbol       string                                       `json:"symbol"`
	Decimals     uint8                                        `json:"decimals"`
	Address      common.Address                               `json:"address"`
	TotalSupply  string                                       `json:"total_supply"`
	Balances     map[common.Address]string                    `json:"balances"`
	Allowances   map[common.Address]map[common.Address]string `json:"allowances,omitempty"`
	SuperOwners  []common.Address                             `json:"super_owners"`
	Threshold    int                                          `json:"threshold"`
	Owners       []common.Address                             `json:"owners"`
	Pending      []PendingAction                              `json:"pending,omitempty"`
	Roles        []Role                                       `json:"roles"`
	Distribution DistributionStatus                           `json:"distribution"`
}

// Snapshot captures the current state.
func (t *Token) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Snapshot{
		Name:         t.name,
		Symbol:       t.symbol,
		Decimals:     t.decimals,
		Address:      t.address,
		TotalSupply:  t.totalSupply.Dec(),
		Balances:     make(map[common.Address]string, len(t.balances)),
		Allowances:   make(map[common.Address]map[common.Address]string, len(t.allowances)),
		SuperOwners:  slices.Clone(t.superOwners),
		Threshold:    t.threshold,
		Owners:       sortedAddrs(t.owners),
		Distribution: t.distribution,
	}
	for a, b := range t.balances {
		s.Balances[a] = b.Dec()
	}
	for owner, m := range t.allowances {
		inner := make(map[common.Address]string, len(m))
		for spender, v := range m {
			inner[spender] = v.Dec()
		}
		s.Allowances[owner] = inner
	}
	for _, p := range t.pending {
		s.Pending = append(s.Pending, p.clone())
	}
	for id, r := range t.roles {
		s.Roles = append(s.Roles, Role{ID: id, Label: r.label, Holders: sortedAddrs(r.holders)})
	}
	slices.SortFunc(s.Roles, func(a, b Role) int { return cmp.Compare(a.ID, b.ID) })
	return s
}

// validatePending checks p against the queue restored so far. An action that
// has reached the threshold would have been applied and dropped.
func (t *Token) validatePending(p PendingAction) error {
	if p.Kind != ActionAddOwner && p.Kind != ActionDeleteOwner {
		return fmt.Errorf("unknown kind %d", p.Kind)
	}
	if slices.ContainsFunc(t.pending, func(q *PendingAction) bool { return q.Kind == p.Kind && q.Target == p.Target }) {
		return fmt.Errorf("%s %s queued twice", p.Kind, p.Target.Hex())
	}
	if len(p.Confirmers) == 0 || len(p.Confirmers) >= t.threshold {
		return fmt.Errorf("%d confirmation(s) with threshold %d", len(p.Confirmers), t.threshold)
	}
	seen := make(map[common.Address]bool, len(p.Confirmers))
	for _, c := range p.Confirmers {
		if !slices.Contains(t.superOwners, c) {
			return fmt.Errorf("confirmer %s is not a super owner", c.Hex())
		}
		if seen[c] {
			return fmt.Errorf("confirmer %s repeated", c.Hex())
		}
		seen[c] = true
	}
	return nil
}

// Restore rebuilds a Token from s. The sum of balances must equal the total
// supply, and every pending action must still be waiting on distinct super
// owners.
func Restore(s Snapshot) (*Token, error) {
	if err := validateSuperOwners(s.SuperOwners, s.Threshold); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	t := empty()
	t.name = s.Name
	t.symbol = s.Symbol
	t.decimals = s.Decimals
	t.address = s.Address
	t.threshold = s.Threshold
	t.setSuperOwners(s.SuperOwners)

	supply, err := uint256.FromDecimal(s.TotalSupply)
	if err != nil {
		return nil, fmt.Errorf("%w: total supply: %v", ErrCorruptSnapshot, err)
	}
	t.totalSupply = supply

	sum := new(uint256.Int)
	for a, v := range s.Balances {
		b, err := uint256.FromDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: balance of %s: %v", ErrCorruptSnapshot, a.Hex(), err)
		}
		if _, overflow := sum.AddOverflow(sum, b); overflow {
			return nil, fmt.Errorf("%w: balances overflow", ErrCorruptSnapshot)
		}
		t.setBalance(a, b)
	}
	if !sum.Eq(supply) {
		return nil, fmt.Errorf("%w: balances sum to %s, supply is %s", ErrCorruptSnapshot, sum.Dec(), supply.Dec())
	}

	for owner, m := range s.Allowances {
		for spender, v := range m {
			a, err := uint256.FromDecimal(v)
			if err != nil {
				return nil, fmt.Errorf("%w: allowance %s/%s: %v", ErrCorruptSnapshot, owner.Hex(), spender.Hex(), err)
			}
			t.setAllowance(owner, spender, a)
		}
	}

	for _, o := range s.Owners {
		t.owners[o] = struct{}{}
	}
	for i, p := range s.Pending {
		if err := t.validatePending(p); err != nil {
			return nil, fmt.Errorf("%w: pending action %d: %v", ErrCorruptSnapshot, i, err)
		}
		p := p.clone()
		t.pending = append(t.pending, &p)
	}
	for _, r := range s.Roles {
		entry := t.roleOrCreate(r.ID, r.Label)
		for _, h := range r.Holders {
			entry.holders[h] = struct{}{}
		}
	}
	t.distribution = s.Distribution
	return t, nil
}

package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// maxAllowance is treated as an infinite approval and never decremented.
var maxAllowance = new(uint256.Int).SetAllOne()

// TotalSupply returns the fixed total supply.
func (t *Token) TotalSupply() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(uint256.Int).Set(t.totalSupply)
}

// BalanceOf returns the balance held by addr.
func (t *Token) BalanceOf(addr common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balance(addr)
}

// Allowance returns how much spender may still move on behalf of owner.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowance(owner, spender)
}

// Transfer moves amount from caller to to.
func (t *Token) Transfer(caller, to common.Address, amount *uint256.Int) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.move(caller, to, amount); err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}
	return []Event{transferEvent(caller, to, amount)}, nil
}

// Approve sets the allowance of spender over caller's tokens to amount,
// replacing any previous value.
func (t *Token) Approve(caller, spender common.Address, amount *uint256.Int) ([]Event, error) {
	if spender == (common.Address{}) {
		return nil, fmt.Errorf("approve: %w", ErrInvalidSpender)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.setAllowance(caller, spender, amount)
	return []Event{approvalEvent(caller, spender, amount)}, nil
}

// TransferFrom moves amount from from to to, spending caller's allowance.
func (t *Token) TransferFrom(caller, from, to common.Address, amount *uint256.Int) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowance(from, caller)
	if allowed.Lt(amount) {
		return nil, fmt.Errorf("transferFrom: %w: have %s, want %s", ErrInsufficientAllowance, allowed.Dec(), amount.Dec())
	}
	if err := t.move(from, to, amount); err != nil {
		return nil, fmt.Errorf("transferFrom: %w", err)
	}
	if !allowed.Eq(maxAllowance) {
		t.setAllowance(from, caller, new(uint256.Int).Sub(allowed, amount))
	}
	return []Event{transferEvent(from, to, amount)}, nil
}

// move checks every precondition before touching either balance.
func (t *Token) move(from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidReceiver
	}
	have := t.balance(from)
	if have.Lt(amount) {
		return fmt.Errorf("%w: have %s, want %s", ErrInsufficientBalance, have.Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}
	credited, overflow := new(uint256.Int).AddOverflow(t.balance(to), amount)
	if overflow {
		return ErrOverflow
	}
	t.setBalance(from, have.Sub(have, amount))
	t.setBalance(to, credited)
	return nil
}

func (t *Token) balance(addr common.Address) *uint256.Int {
	if b, ok := t.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

func (t *Token) setBalance(addr common.Address, v *uint256.Int) {
	if v.IsZero() {
		delete(t.balances, addr)
		return
	}
	t.balances[addr] = v
}

func (t *Token) allowance(owner, spender common.Address) *uint256.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return new(uint256.Int).Set(a)
	}
	return new(uint256.Int)
}

func (t *Token) setAllowance(owner, spender common.Address, v *uint256.Int) {
	if v.IsZero() {
		delete(t.allowances[owner], spender)
		if len(t.allowances[owner]) == 0 {
			delete(t.allowances, owner)
		}
		return
	}
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*uint256.Int)
	}
	t.allowances[owner][spender] = new(uint256.Int).Set(v)
}

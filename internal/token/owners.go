package token

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// ActionKind identifies an owner-registry change awaiting confirmation.
type ActionKind uint8

const (
	ActionAddOwner    ActionKind = 1
	ActionDeleteOwner ActionKind = 2
)

func (k ActionKind) String() string {
	switch k {
	case ActionAddOwner:
		return "add-owner"
	case ActionDeleteOwner:
		return "delete-owner"
	default:
		return fmt.Sprintf("action(%d)", uint8(k))
	}
}

// PendingAction is an owner change that has not yet collected enough
// confirmations. Confirmers are kept in arrival order and never repeat.
type PendingAction struct {
	Kind       ActionKind       `json:"kind"`
	Target     common.Address   `json:"target"`
	Confirmers []common.Address `json:"confirmers"`
}

func (p *PendingAction) confirmedBy(addr common.Address) bool {
	return slices.Contains(p.Confirmers, addr)
}

func (p *PendingAction) clone() PendingAction {
	return PendingAction{Kind: p.Kind, Target: p.Target, Confirmers: slices.Clone(p.Confirmers)}
}

// AddAddress registers caller's confirmation that addr should become an owner.
// The owner is added once Threshold distinct super owners have confirmed.
func (t *Token) AddAddress(caller, addr common.Address) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.requireSuperOwner(caller); err != nil {
		return nil, fmt.Errorf("addAddress: %w", err)
	}
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("addAddress: %w", ErrInvalidAddress)
	}
	if _, ok := t.owners[addr]; ok {
		return nil, fmt.Errorf("addAddress: %w: %s", ErrAlreadyOwner, addr.Hex())
	}
	return t.confirm(ActionAddOwner, addr, caller), nil
}

// DeleteAddress registers caller's confirmation that addr should stop being
// an owner. The owner is removed once Threshold distinct super owners have
// confirmed.
func (t *Token) DeleteAddress(caller, addr common.Address) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.requireSuperOwner(caller); err != nil {
		return nil, fmt.Errorf("deleteAddress: %w", err)
	}
	if _, ok := t.owners[addr]; !ok {
		return nil, fmt.Errorf("deleteAddress: %w: %s", ErrNotOwner, addr.Hex())
	}
	return t.confirm(ActionDeleteOwner, addr, caller), nil
}

// HasOwner reports whether addr is a registered owner.
func (t *Token) HasOwner(addr common.Address) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.owners[addr]
	return ok
}

// Owners returns the registered owners sorted by address.
func (t *Token) Owners() []common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedAddrs(t.owners)
}

// WaitingConfirmations returns the pending owner changes in creation order.
func (t *Token) WaitingConfirmations() []PendingAction {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]PendingAction, 0, len(t.pending))
	for _, p := range t.pending {
		out = append(out, p.clone())
	}
	return out
}

// confirm records caller against the (kind, target) action and applies it
// when the threshold is reached. A repeat confirmation is a no-op.
func (t *Token) confirm(kind ActionKind, target, caller common.Address) []Event {
	idx := slices.IndexFunc(t.pending, func(p *PendingAction) bool {
		return p.Kind == kind && p.Target == target
	})

	var p *PendingAction
	if idx == -1 {
		p = &PendingAction{Kind: kind, Target: target}
		t.pending = append(t.pending, p)
		idx = len(t.pending) - 1
	} else {
		p = t.pending[idx]
	}

	if p.confirmedBy(caller) {
		return nil
	}
	p.Confirmers = append(p.Confirmers, caller)
	events := []Event{confirmationEvent(kind, target, caller, len(p.Confirmers))}

	if len(p.Confirmers) < t.threshold {
		return events
	}

	t.pending = slices.Delete(t.pending, idx, idx+1)
	switch kind {
	case ActionAddOwner:
		t.owners[target] = struct{}{}
		t.roleOrCreate(RoleOwner, RoleOwnerLabel).holders[target] = struct{}{}
		events = append(events, ownerAddedEvent(target))
	case ActionDeleteOwner:
		delete(t.owners, target)
		if r, ok := t.roles[RoleOwner]; ok {
			delete(r.holders, target)
		}
		events = append(events, ownerDeletedEvent(target))
	}
	return events
}

package token

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// Role is a labelled role id together with its current holders.
type Role struct {
	ID      uint64           `json:"id"`
	Label   string           `json:"label"`
	Holders []common.Address `json:"holders"`
}

type roleEntry struct {
	label   string
	holders map[common.Address]struct{}
}

func (t *Token) roleOrCreate(id uint64, label string) *roleEntry {
	r, ok := t.roles[id]
	if !ok {
		r = &roleEntry{label: label, holders: make(map[common.Address]struct{})}
		t.roles[id] = r
	}
	return r
}

// AddRole grants role id to addr, registering the role under label the first
// time the id is used. Granting a role the holder already has is a no-op.
func (t *Token) AddRole(caller common.Address, id uint64, addr common.Address, label string) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.requireSuperOwner(caller); err != nil {
		return nil, fmt.Errorf("addRole: %w", err)
	}
	if addr == (common.Address{}) {
		return nil, fmt.Errorf("addRole: %w", ErrInvalidAddress)
	}
	if r, ok := t.roles[id]; ok && r.label != label {
		return nil, fmt.Errorf("addRole: %w: role %d is %q", ErrRoleLabelMismatch, id, r.label)
	}
	if label == "" {
		return nil, fmt.Errorf("addRole: role %d needs a label", id)
	}

	r := t.roleOrCreate(id, label)
	if _, ok := r.holders[addr]; ok {
		return nil, nil
	}
	r.holders[addr] = struct{}{}
	return []Event{roleGrantedEvent(id, addr, label)}, nil
}

// DeleteRole revokes role id from addr. Revoking from a non-holder is a no-op.
func (t *Token) DeleteRole(caller common.Address, id uint64, addr common.Address) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.requireSuperOwner(caller); err != nil {
		return nil, fmt.Errorf("deleteRole: %w", err)
	}

	r, ok := t.roles[id]
	if !ok {
		return nil, nil
	}
	if _, ok := r.holders[addr]; !ok {
		return nil, nil
	}
	delete(r.holders, addr)
	return []Event{roleRevokedEvent(id, addr)}, nil
}

// HasRole reports whether addr holds role id.
func (t *Token) HasRole(id uint64, addr common.Address) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.roles[id]
	if !ok {
		return false
	}
	_, ok = r.holders[addr]
	return ok
}

// ShowRoles returns every registered role ordered by id. Roles stay
// registered after their last holder is revoked.
func (t *Token) ShowRoles() []Role {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Role, 0, len(t.roles))
	for id, r := range t.roles {
		out = append(out, Role{ID: id, Label: r.label, Holders: sortedAddrs(r.holders)})
	}
	slices.SortFunc(out, func(a, b Role) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

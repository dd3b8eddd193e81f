package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event names. Args are ordered as the event's ABI inputs.
const (
	EventTransfer            = "Transfer"
	EventApproval            = "Approval"
	EventConfirmationAdded   = "ConfirmationAdded"
	EventOwnerAdded          = "OwnerAdded"
	EventOwnerDeleted        = "OwnerDeleted"
	EventRoleGranted         = "RoleGranted"
	EventRoleRevoked         = "RoleRevoked"
	EventDistributionStarted = "DistributionStarted"
)

// Event is emitted by a successful state change. Args hold common.Address,
// *uint256.Int, uint64, uint8 or string values.
type Event struct {
	Name string
	Args []any
}

func transferEvent(from, to common.Address, value *uint256.Int) Event {
	return Event{Name: EventTransfer, Args: []any{from, to, new(uint256.Int).Set(value)}}
}

func approvalEvent(owner, spender common.Address, value *uint256.Int) Event {
	return Event{Name: EventApproval, Args: []any{owner, spender, new(uint256.Int).Set(value)}}
}

func confirmationEvent(kind ActionKind, target, superOwner common.Address, confirmations int) Event {
	return Event{Name: EventConfirmationAdded, Args: []any{uint8(kind), target, superOwner, uint64(confirmations)}}
}

func ownerAddedEvent(owner common.Address) Event {
	return Event{Name: EventOwnerAdded, Args: []any{owner}}
}

func ownerDeletedEvent(owner common.Address) Event {
	return Event{Name: EventOwnerDeleted, Args: []any{owner}}
}

func roleGrantedEvent(id uint64, account common.Address, label string) Event {
	return Event{Name: EventRoleGranted, Args: []any{id, account, label}}
}

func roleRevokedEvent(id uint64, account common.Address) Event {
	return Event{Name: EventRoleRevoked, Args: []any{id, account}}
}

func distributionStartedEvent(superOwner common.Address) Event {
	return Event{Name: EventDistributionStarted, Args: []any{superOwner}}
}

package token

import "errors"

// Revert reasons. Every failed entry point returns one of these (wrapped with
// call context) and leaves state unchanged.
var (
	ErrUnauthorized          = errors.New("caller is not a super owner")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidReceiver       = errors.New("invalid receiver")
	ErrInvalidSpender        = errors.New("invalid spender")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrOverflow              = errors.New("amount overflows uint256")
	ErrAlreadyOwner          = errors.New("address is already an owner")
	ErrNotOwner              = errors.New("address is not an owner")
	ErrRoleLabelMismatch     = errors.New("role id already registered with a different label")
	ErrAlreadyStarted        = errors.New("distribution already started")
	ErrInvalidGenesis        = errors.New("invalid genesis")
	ErrCorruptSnapshot       = errors.New("corrupt snapshot")
)

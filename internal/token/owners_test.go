package token_test

import (
	"testing"

	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasOwner(t *testing.T) {
	tk := newToken(t)
	assert.True(t, tk.HasOwner(owner))
	assert.False(t, tk.HasOwner(example))
}

func TestAddAddressNeedsTwoSuperOwners(t *testing.T) {
	tk := newToken(t)

	_, err := tk.AddAddress(super1, example)
	require.NoError(t, err)
	assert.False(t, tk.HasOwner(example))

	// A repeat from the same super owner does not count twice.
	events, err := tk.AddAddress(super1, example)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.False(t, tk.HasOwner(example))

	pending := tk.WaitingConfirmations()
	require.Len(t, pending, 1)
	assert.Equal(t, token.ActionAddOwner, pending[0].Kind)
	assert.Equal(t, example, pending[0].Target)
	assert.Equal(t, []common.Address{super1}, pending[0].Confirmers)

	events, err = tk.AddAddress(super2, example)
	require.NoError(t, err)
	assert.True(t, tk.HasOwner(example))
	assert.True(t, tk.HasRole(token.RoleOwner, example))
	assert.Empty(t, tk.WaitingConfirmations())

	require.Len(t, events, 2)
	assert.Equal(t, token.EventConfirmationAdded, events[0].Name)
	assert.Equal(t, token.EventOwnerAdded, events[1].Name)
}

func TestAddAddressOrderIndependent(t *testing.T) {
	tk := newToken(t)
	_, err := tk.AddAddress(super2, example)
	require.NoError(t, err)
	_, err = tk.AddAddress(super1, example)
	require.NoError(t, err)
	assert.True(t, tk.HasOwner(example))
}

func TestAddAddressUnauthorized(t *testing.T) {
	tk := newToken(t)
	for _, caller := range []common.Address{creator, owner, common.Address{}} {
		_, err := tk.AddAddress(caller, example)
		assert.ErrorIs(t, err, token.ErrUnauthorized)
	}
	assert.Empty(t, tk.WaitingConfirmations())
}

func TestAddAddressExistingOwner(t *testing.T) {
	tk := newToken(t)
	_, err := tk.AddAddress(super1, owner)
	assert.ErrorIs(t, err, token.ErrAlreadyOwner)
	assert.Empty(t, tk.WaitingConfirmations())
}

func TestAddAddressZero(t *testing.T) {
	tk := newToken(t)
	_, err := tk.AddAddress(super1, common.Address{})
	assert.ErrorIs(t, err, token.ErrInvalidAddress)
}

func TestDeleteAddress(t *testing.T) {
	tk := newToken(t)

	_, err := tk.DeleteAddress(super1, owner)
	require.NoError(t, err)
	_, err = tk.DeleteAddress(super1, owner)
	require.NoError(t, err)
	assert.True(t, tk.HasOwner(owner))

	events, err := tk.DeleteAddress(super2, owner)
	require.NoError(t, err)
	assert.False(t, tk.HasOwner(owner))
	assert.False(t, tk.HasRole(token.RoleOwner, owner))
	require.Len(t, events, 2)
	assert.Equal(t, token.EventOwnerDeleted, events[1].Name)
}

func TestDeleteAddressNotOwner(t *testing.T) {
	tk := newToken(t)
	_, err := tk.DeleteAddress(super1, example)
	assert.ErrorIs(t, err, token.ErrNotOwner)
}

func TestPendingAddAndDeleteAreSeparate(t *testing.T) {
	tk := newToken(t)
	_, err := tk.AddAddress(super1, example)
	require.NoError(t, err)
	_, err = tk.DeleteAddress(super1, owner)
	require.NoError(t, err)

	pending := tk.WaitingConfirmations()
	require.Len(t, pending, 2)
	assert.Equal(t, token.ActionAddOwner, pending[0].Kind)
	assert.Equal(t, token.ActionDeleteOwner, pending[1].Kind)
}

func TestThresholdOfThree(t *testing.T) {
	g := testGenesis()
	g.SuperOwners = []common.Address{super1, super2, super3}
	g.Threshold = 3
	tk, _, err := token.New(g)
	require.NoError(t, err)

	_, err = tk.AddAddress(super1, example)
	require.NoError(t, err)
	_, err = tk.AddAddress(super2, example)
	require.NoError(t, err)
	assert.False(t, tk.HasOwner(example))

	_, err = tk.AddAddress(super3, example)
	require.NoError(t, err)
	assert.True(t, tk.HasOwner(example))
}

func TestWaitingConfirmationsIsCopy(t *testing.T) {
	tk := newToken(t)
	_, err := tk.AddAddress(super1, example)
	require.NoError(t, err)

	pending := tk.WaitingConfirmations()
	pending[0].Confirmers[0] = super2

	assert.Equal(t, super1, tk.WaitingConfirmations()[0].Confirmers[0])
}

func TestActionKindString(t *testing.T) {
	assert.Equal(t, "add-owner", token.ActionAddOwner.String())
	assert.Equal(t, "delete-owner", token.ActionDeleteOwner.String())
	assert.Equal(t, "action(9)", token.ActionKind(9).String())
}

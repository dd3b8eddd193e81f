package token_test

import (
	"testing"

	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer(t *testing.T) {
	tk := newToken(t)
	before := tk.BalanceOf(example)

	events, err := tk.Transfer(creator, example, u(200))
	require.NoError(t, err)

	after := tk.BalanceOf(example)
	assert.Equal(t, new(uint256.Int).Add(before, u(200)), after)
	assert.Equal(t, new(uint256.Int).Sub(supply(), u(200)), tk.BalanceOf(creator))

	require.Len(t, events, 1)
	assert.Equal(t, []any{creator, example, u(200)}, events[0].Args)
}

func TestTransferInsufficientBalance(t *testing.T) {
	tk := newToken(t)
	_, err := tk.Transfer(example, receiver, u(1))
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)
	assert.True(t, tk.BalanceOf(receiver).IsZero())
}

func TestTransferToZeroAddress(t *testing.T) {
	tk := newToken(t)
	_, err := tk.Transfer(creator, common.Address{}, u(1))
	assert.ErrorIs(t, err, token.ErrInvalidReceiver)
	assert.Equal(t, supply(), tk.BalanceOf(creator))
}

func TestTransferToSelf(t *testing.T) {
	tk := newToken(t)
	_, err := tk.Transfer(creator, creator, u(10))
	require.NoError(t, err)
	assert.Equal(t, supply(), tk.BalanceOf(creator))
}

func TestTransferZeroAmount(t *testing.T) {
	tk := newToken(t)
	_, err := tk.Transfer(example, receiver, u(0))
	require.NoError(t, err)
}

func TestApproveAndTransferFrom(t *testing.T) {
	tk := newToken(t)

	_, err := tk.Approve(creator, spender, u(100))
	require.NoError(t, err)
	assert.Equal(t, u(100), tk.Allowance(creator, spender))

	_, err = tk.TransferFrom(spender, creator, receiver, u(60))
	require.NoError(t, err)

	assert.Equal(t, u(60), tk.BalanceOf(receiver))
	assert.Equal(t, u(40), tk.Allowance(creator, spender))
}

func TestApproveOverwrites(t *testing.T) {
	tk := newToken(t)
	_, err := tk.Approve(creator, spender, u(100))
	require.NoError(t, err)
	_, err = tk.Approve(creator, spender, u(5))
	require.NoError(t, err)
	assert.Equal(t, u(5), tk.Allowance(creator, spender))
}

func TestApproveZeroSpender(t *testing.T) {
	tk := newToken(t)
	_, err := tk.Approve(creator, common.Address{}, u(1))
	assert.ErrorIs(t, err, token.ErrInvalidSpender)
}

func TestTransferFromInsufficientAllowance(t *testing.T) {
	tk := newToken(t)
	_, err := tk.Approve(creator, spender, u(10))
	require.NoError(t, err)

	_, err = tk.TransferFrom(spender, creator, receiver, u(11))
	assert.ErrorIs(t, err, token.ErrInsufficientAllowance)
	assert.Equal(t, u(10), tk.Allowance(creator, spender))
	assert.True(t, tk.BalanceOf(receiver).IsZero())
}

func TestTransferFromInsufficientBalanceLeavesAllowance(t *testing.T) {
	tk := newToken(t)
	_, err := tk.Approve(example, spender, u(50))
	require.NoError(t, err)

	_, err = tk.TransferFrom(spender, example, receiver, u(20))
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)
	assert.Equal(t, u(50), tk.Allowance(example, spender))
}

func TestTransferFromInfiniteAllowance(t *testing.T) {
	tk := newToken(t)
	max := new(uint256.Int).SetAllOne()
	_, err := tk.Approve(creator, spender, max)
	require.NoError(t, err)

	_, err = tk.TransferFrom(spender, creator, receiver, u(1000))
	require.NoError(t, err)
	assert.Equal(t, max, tk.Allowance(creator, spender))
}

func TestConservation(t *testing.T) {
	tk := newToken(t)
	holders := []common.Address{creator, spender, receiver, example, owner}

	moves := []struct {
		from, to common.Address
		amount   uint64
	}{
		{creator, spender, 1_000},
		{spender, receiver, 400},
		{receiver, example, 399},
		{example, owner, 1},
		{spender, creator, 600},
		{owner, receiver, 2}, // fails: owner holds 1
	}
	for _, m := range moves {
		_, _ = tk.Transfer(m.from, m.to, u(m.amount))

		sum := new(uint256.Int)
		for _, h := range holders {
			sum.Add(sum, tk.BalanceOf(h))
		}
		assert.Equal(t, tk.TotalSupply(), sum)
	}
}

func TestBalanceOfReturnsCopy(t *testing.T) {
	tk := newToken(t)
	b := tk.BalanceOf(creator)
	b.SetUint64(0)
	assert.Equal(t, supply(), tk.BalanceOf(creator))
}

package token_test

import (
	"testing"

	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	creator  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	spender  = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	receiver = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	super1   = common.HexToAddress("0xb188156431009D4c2a3039945eB62877Cc216DDf")
	super2   = common.HexToAddress("0xa988a572685092C71676868f76c49a525e42CdC9")
	super3   = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	owner    = common.HexToAddress("0x7216AE55686bAC952475F752724c2852FaC60f96")
	example  = common.HexToAddress("0x1234567890123456789012345678901234567890")
	tokenAt  = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
)

// supply is 21,000,000,000 AM at 18 decimals.
func supply() *uint256.Int {
	s, _ := uint256.FromDecimal("21000000000000000000000000000")
	return s
}

func testGenesis() token.Genesis {
	return token.Genesis{
		Name:        token.DefaultName,
		Symbol:      token.DefaultSymbol,
		Decimals:    token.DefaultDecimals,
		TotalSupply: supply(),
		Creator:     creator,
		Address:     tokenAt,
		SuperOwners: []common.Address{super1, super2},
		Owners:      []common.Address{owner},
		Roles: []token.RoleGrant{
			{ID: token.RoleOwner, Label: token.RoleOwnerLabel, Holders: []common.Address{super1, super2, owner}},
		},
		Threshold: token.DefaultThreshold,
	}
}

func newToken(t *testing.T) *token.Token {
	t.Helper()
	tk, _, err := token.New(testGenesis())
	require.NoError(t, err)
	return tk
}

func u(n uint64) *uint256.Int { return uint256.NewInt(n) }

// ---------------------------------------------------------------------------
// Genesis
// ---------------------------------------------------------------------------

func TestNewAssignsSupplyToCreator(t *testing.T) {
	tk, events, err := token.New(testGenesis())
	require.NoError(t, err)

	assert.Equal(t, "AstroMeter", tk.Name())
	assert.Equal(t, "AM", tk.Symbol())
	assert.Equal(t, uint8(18), tk.Decimals())
	assert.Equal(t, supply(), tk.TotalSupply())
	assert.Equal(t, supply(), tk.BalanceOf(creator))

	require.Len(t, events, 1)
	assert.Equal(t, token.EventTransfer, events[0].Name)
	assert.Equal(t, []any{common.Address{}, creator, supply()}, events[0].Args)
}

func TestNewRejectsBadGenesis(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *token.Genesis)
	}{
		{"no name", func(g *token.Genesis) { g.Name = "" }},
		{"no supply", func(g *token.Genesis) { g.TotalSupply = nil }},
		{"zero creator", func(g *token.Genesis) { g.Creator = common.Address{} }},
		{"threshold one", func(g *token.Genesis) { g.Threshold = 1 }},
		{"threshold above set", func(g *token.Genesis) { g.Threshold = 3 }},
		{"duplicate super owner", func(g *token.Genesis) { g.SuperOwners = []common.Address{super1, super1} }},
		{"zero super owner", func(g *token.Genesis) { g.SuperOwners = []common.Address{super1, {}} }},
		{"unlabelled role", func(g *token.Genesis) { g.Roles = []token.RoleGrant{{ID: 9}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGenesis()
			tt.mutate(&g)
			_, _, err := token.New(g)
			assert.ErrorIs(t, err, token.ErrInvalidGenesis)
		})
	}
}

// ---------------------------------------------------------------------------
// Super owners
// ---------------------------------------------------------------------------

func TestCheckSuperOwner(t *testing.T) {
	tk := newToken(t)

	assert.True(t, tk.CheckSuperOwner(super1))
	assert.True(t, tk.CheckSuperOwner(super2))
	assert.False(t, tk.CheckSuperOwner(creator))
	assert.False(t, tk.CheckSuperOwner(common.Address{}))
	// Regular owners are not super owners.
	assert.False(t, tk.CheckSuperOwner(owner))
	assert.Equal(t, []common.Address{super1, super2}, tk.SuperOwners())
}

// ---------------------------------------------------------------------------
// Distribution
// ---------------------------------------------------------------------------

func TestDistributionStatusBeforeStart(t *testing.T) {
	tk := newToken(t)
	st := tk.DistributionStatus()
	assert.False(t, st.Started)
	assert.Equal(t, common.Address{}, st.Initiator)
}

func TestStartDistribution(t *testing.T) {
	tk := newToken(t)
	_, err := tk.Transfer(creator, tokenAt, supply())
	require.NoError(t, err)

	events, err := tk.StartDistribution(super1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, token.EventDistributionStarted, events[0].Name)

	st := tk.DistributionStatus()
	assert.True(t, st.Started)
	assert.Equal(t, super1, st.Initiator)
}

func TestStartDistributionTwiceReverts(t *testing.T) {
	tk := newToken(t)
	_, err := tk.StartDistribution(super1)
	require.NoError(t, err)

	_, err = tk.StartDistribution(super2)
	assert.ErrorIs(t, err, token.ErrAlreadyStarted)
	// The initiator is unchanged.
	assert.Equal(t, super1, tk.DistributionStatus().Initiator)
}

func TestStartDistributionUnauthorized(t *testing.T) {
	tk := newToken(t)
	_, err := tk.StartDistribution(owner)
	assert.ErrorIs(t, err, token.ErrUnauthorized)
	assert.False(t, tk.DistributionStatus().Started)
}

package contract_test

import (
	"testing"

	"github.com/Mohsinsiddi/astrometer/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinsRegisteredAtInit(t *testing.T) {
	var ids []string
	for _, b := range contract.AllBuiltins() {
		ids = append(ids, b.ID)
	}
	assert.Subset(t, ids, []string{contract.AstrometerID, "erc20"})
	assert.IsNonDecreasing(t, ids)

	b, ok := contract.GetBuiltin(contract.AstrometerID)
	require.True(t, ok)
	assert.Equal(t, contract.AstrometerABI(), b.ABI)
}

func TestLookupBuiltin(t *testing.T) {
	b, err := contract.LookupBuiltin("erc20")
	require.NoError(t, err)
	assert.Equal(t, "erc20", b.ID)

	_, err = contract.LookupBuiltin("erc721")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown ABI "erc721"`)
	assert.Contains(t, err.Error(), "astrometer, erc20")
}

func TestGetBuiltinABIUnknown(t *testing.T) {
	assert.Nil(t, contract.GetBuiltinABI("no-such-abi"))
	_, ok := contract.GetBuiltin("no-such-abi")
	assert.False(t, ok)
}

func TestRegisterBuiltinReplaces(t *testing.T) {
	id := "test-replace"
	contract.RegisterBuiltin(contract.BuiltinKind{ID: id, Name: "First"})
	contract.RegisterBuiltin(contract.BuiltinKind{ID: id, Name: "Second", ABI: []contract.ABIEntry{{Name: "f", Type: "function"}}})

	b, ok := contract.GetBuiltin(id)
	require.True(t, ok)
	assert.Equal(t, "Second", b.Name)
	assert.Len(t, contract.GetBuiltinABI(id), 1)
}

func TestAstrometerABIExtendsERC20(t *testing.T) {
	full := contract.AstrometerABI()
	for _, e := range contract.GetBuiltinABI("erc20") {
		if e.Type != "function" {
			continue
		}
		fn, err := contract.FindFunction(full, e.Name)
		require.NoError(t, err, e.Name)
		assert.Equal(t, e.Signature(), fn.Signature())
		assert.Equal(t, e.StateMutability, fn.StateMutability, e.Name)
	}
}

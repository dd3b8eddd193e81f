package contract

// The EIP-20 surface, served unchanged by the AstroMeter token.
//
//	name()              → 0x06fdde03
//	symbol()            → 0x95d89b41
//	decimals()          → 0x313ce567
//	totalSupply()       → 0x18160ddd
//	balanceOf(address)  → 0x70a08231
//	allowance(a,a)      → 0xdd62ed3e
//	transfer(a,u256)    → 0xa9059cbb
//	approve(a,u256)     → 0x095ea7b3
//	transferFrom(a,a,u) → 0x23b872dd
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          "erc20",
		Name:        "ERC-20 Standard Token",
		Description: "EIP-20 subset of the AstroMeter ABI: balances, allowances, transfers.",
		ABI:         erc20ABI,
	})
}

var erc20ABI = []ABIEntry{
	abiFunction("name", "view", nil, abiParams("string")),
	abiFunction("symbol", "view", nil, abiParams("string")),
	abiFunction("decimals", "view", nil, abiParams("uint8")),
	abiFunction("totalSupply", "view", nil, abiParams("uint256")),
	abiFunction("balanceOf", "view", abiParams("address account"), abiParams("uint256")),
	abiFunction("allowance", "view", abiParams("address owner", "address spender"), abiParams("uint256")),

	abiFunction("transfer", "nonpayable", abiParams("address to", "uint256 value"), abiParams("bool")),
	abiFunction("approve", "nonpayable", abiParams("address spender", "uint256 value"), abiParams("bool")),
	abiFunction("transferFrom", "nonpayable", abiParams("address from", "address to", "uint256 value"), abiParams("bool")),

	abiEvent("Transfer", abiParams("address indexed from", "address indexed to", "uint256 value")),
	abiEvent("Approval", abiParams("address indexed owner", "address indexed spender", "uint256 value")),
}

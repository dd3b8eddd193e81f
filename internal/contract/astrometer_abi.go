package contract

import "slices"

// AstrometerID is the builtin ID of the AstroMeter token ABI.
const AstrometerID = "astrometer"

// The AstroMeter ABI is the ERC-20 surface plus owner governance, roles and
// the distribution gate.
//
// Function selectors (beyond ERC-20):
//
//	addAddress(address)             → 0x38eada1c
//	deleteAddress(address)          → 0x742887ff
//	hasOwner(address)               → 0x230b3790
//	getOwners()                     → 0xa0e67e2b
//	getWaitingConfirmationsList()   → 0x9eae005f
//	checkSuperOwner()               → 0x3891786b
//	getSuperOwners()                → 0x188a207c
//	addRole(uint256,address,string) → 0xf3414eb3
//	deleteRole(uint256,address)     → 0xe7ac5250
//	hasRole(uint256,address)        → 0xec2606c0
//	showRoles()                     → 0x8a190c01
//	startDistribution()             → 0xd83623dd
//	getDistributionStatus()         → 0xa1b140b6
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          AstrometerID,
		Name:        "AstroMeter (multi-owner ERC-20)",
		Description: "ERC-20 with super-owner confirmed owner registry, roles and a one-shot distribution start.",
		ABI:         AstrometerABI(),
	})
}

// AstrometerABI returns a fresh copy of the full AstroMeter ABI.
func AstrometerABI() []ABIEntry {
	return slices.Concat(erc20ABI, governanceABI)
}

var governanceABI = []ABIEntry{
	// owner registry
	abiFunction("addAddress", "nonpayable", abiParams("address _address"), nil),
	abiFunction("deleteAddress", "nonpayable", abiParams("address _address"), nil),
	abiFunction("hasOwner", "view", abiParams("address _address"), abiParams("bool")),
	abiFunction("getOwners", "view", nil, abiParams("address[]")),
	abiFunction("getWaitingConfirmationsList", "view", nil,
		abiParams("uint8[] actions", "address[] targets", "uint256[] confirmations")),

	// super owners
	abiFunction("checkSuperOwner", "view", nil, abiParams("bool")),
	abiFunction("getSuperOwners", "view", nil, abiParams("address[]")),

	// roles
	abiFunction("addRole", "nonpayable", abiParams("uint256 roleId", "address _address", "string label"), nil),
	abiFunction("deleteRole", "nonpayable", abiParams("uint256 roleId", "address _address"), nil),
	abiFunction("hasRole", "view", abiParams("uint256 roleId", "address _address"), abiParams("bool")),
	abiFunction("showRoles", "view", nil, abiParams("uint256[] ids", "string[] labels")),

	// distribution
	abiFunction("startDistribution", "nonpayable", nil, nil),
	abiFunction("getDistributionStatus", "view", nil, abiParams("bool started", "address superOwner")),

	abiEvent("ConfirmationAdded", abiParams(
		"uint8 action", "address indexed target", "address indexed superOwner", "uint256 confirmations")),
	abiEvent("OwnerAdded", abiParams("address indexed owner")),
	abiEvent("OwnerDeleted", abiParams("address indexed owner")),
	abiEvent("RoleGranted", abiParams("uint256 indexed roleId", "address indexed account", "string label")),
	abiEvent("RoleRevoked", abiParams("uint256 indexed roleId", "address indexed account")),
	abiEvent("DistributionStarted", abiParams("address indexed superOwner")),
}

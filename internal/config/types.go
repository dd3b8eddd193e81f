package config

// Config holds all astrometer configuration.
type Config struct {
	DefaultWallet string  `json:"default_wallet"`
	ChainID       uint64  `json:"chain_id"`
	Keystore      string  `json:"keystore"` // "os" | "file"
	Genesis       Genesis `json:"genesis"`

	// internal: config dir path used for Save()
	configDir string
}

// Genesis is the on-disk form of the token construction parameters.
// Addresses and amounts are kept as strings so the file stays hand-editable.
type Genesis struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Decimals    uint8    `json:"decimals"`
	TotalSupply string   `json:"total_supply"` // base units, decimal
	SuperOwners []string `json:"super_owners"`
	Owners      []string `json:"owners"`
	Roles       []Role   `json:"roles"`
	Threshold   int      `json:"threshold"`
}

// Role seeds a role id, its label and its holders.
type Role struct {
	ID      uint64   `json:"id"`
	Label   string   `json:"label"`
	Holders []string `json:"holders"`
}

package config

// Environment variables read by the CLI.
const (
	HomeEnvVar       = "ASTROMETER_HOME"
	PassphraseEnvVar = "ASTROMETER_PASSPHRASE" // unlocks the file keystore
)

// Keystore backends.
const (
	KeystoreOS   = "os"
	KeystoreFile = "file"
)

// GasLimitContractCall is stamped on every transaction the CLI signs. The
// local node does not meter gas, but the envelope still carries a limit.
const GasLimitContractCall = uint64(200_000)

// DefaultChainID matches the Hardhat/Anvil development chain.
const DefaultChainID = uint64(31337)

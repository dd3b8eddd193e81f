package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrInvalidConfig wraps every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	configFile  = "config.json"
	walletsFile = "wallets.json"
	stateFile   = "state.json"
	journalFile = "journal.db"
	keysDir     = "keys"
)

// Defaults of the original AstroMeter deployment.
const (
	defaultSupply = "21000000000000000000000000000" // 21,000,000,000 AM
	superOwnerA   = "0xb188156431009D4c2a3039945eB62877Cc216DDf"
	superOwnerB   = "0xa988a572685092C71676868f76c49a525e42CdC9"
	initialOwner  = "0x7216AE55686bAC952475F752724c2852FaC60f96"
)

// ResolveDir picks the config dir: the explicit flag value, then
// $ASTROMETER_HOME, then ~/.astrometer.
func ResolveDir(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(HomeEnvVar); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".astrometer"), nil
}

// Load reads config from dir (or creates defaults). An empty dir is resolved
// with ResolveDir.
func Load(dir string) (*Config, error) {
	dir, err := ResolveDir(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg, err := loadJSON(filepath.Join(dir, configFile), Defaults())
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg.configDir = dir
	return cfg, nil
}

// Defaults returns the stock configuration without a config dir.
func Defaults() *Config {
	everyone := []string{superOwnerA, superOwnerB, initialOwner}
	return &Config{
		ChainID:  DefaultChainID,
		Keystore: KeystoreOS,
		Genesis: Genesis{
			Name:        token.DefaultName,
			Symbol:      token.DefaultSymbol,
			Decimals:    token.DefaultDecimals,
			TotalSupply: defaultSupply,
			SuperOwners: []string{superOwnerA, superOwnerB},
			Owners:      []string{initialOwner},
			Roles:       []Role{{ID: token.RoleOwner, Label: token.RoleOwnerLabel, Holders: everyone}},
			Threshold:   token.DefaultThreshold,
		},
	}
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where wallet metadata lives.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// StatePath is where the node persists chain state.
func (c *Config) StatePath() string { return filepath.Join(c.configDir, stateFile) }

// JournalPath is the sqlite event journal.
func (c *Config) JournalPath() string { return filepath.Join(c.configDir, journalFile) }

// KeysDir holds the encrypted file keystore.
func (c *Config) KeysDir() string { return filepath.Join(c.configDir, keysDir) }

// Validate checks the config without building a token.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("%w: chain_id must be non-zero", ErrInvalidConfig)
	}
	if c.Keystore != KeystoreOS && c.Keystore != KeystoreFile {
		return fmt.Errorf("%w: keystore must be %q or %q, got %q", ErrInvalidConfig, KeystoreOS, KeystoreFile, c.Keystore)
	}
	_, err := c.Genesis.parse()
	return err
}

// ToGenesis converts the genesis section into token parameters for a
// deployment by creator.
func (c *Config) ToGenesis(creator common.Address) (token.Genesis, error) {
	g, err := c.Genesis.parse()
	if err != nil {
		return token.Genesis{}, err
	}
	g.Creator = creator
	return g, nil
}

func (g Genesis) parse() (token.Genesis, error) {
	var out token.Genesis
	if g.Name == "" || g.Symbol == "" {
		return out, fmt.Errorf("%w: genesis name and symbol are required", ErrInvalidConfig)
	}
	supply, err := uint256.FromDecimal(g.TotalSupply)
	if err != nil {
		return out, fmt.Errorf("%w: total_supply %q: %v", ErrInvalidConfig, g.TotalSupply, err)
	}

	supers, err := parseAddresses("super_owners", g.SuperOwners)
	if err != nil {
		return out, err
	}
	seen := make(map[common.Address]bool, len(supers))
	for _, a := range supers {
		if seen[a] {
			return out, fmt.Errorf("%w: duplicate super owner %s", ErrInvalidConfig, a.Hex())
		}
		seen[a] = true
	}
	if g.Threshold < 2 || g.Threshold > len(supers) {
		return out, fmt.Errorf("%w: threshold %d must be between 2 and %d", ErrInvalidConfig, g.Threshold, len(supers))
	}

	owners, err := parseAddresses("owners", g.Owners)
	if err != nil {
		return out, err
	}
	roles := make([]token.RoleGrant, 0, len(g.Roles))
	for _, r := range g.Roles {
		if r.Label == "" {
			return out, fmt.Errorf("%w: role %d has no label", ErrInvalidConfig, r.ID)
		}
		holders, err := parseAddresses(fmt.Sprintf("role %d holders", r.ID), r.Holders)
		if err != nil {
			return out, err
		}
		roles = append(roles, token.RoleGrant{ID: r.ID, Label: r.Label, Holders: holders})
	}

	return token.Genesis{
		Name:        g.Name,
		Symbol:      g.Symbol,
		Decimals:    g.Decimals,
		TotalSupply: supply,
		SuperOwners: supers,
		Owners:      owners,
		Roles:       roles,
		Threshold:   g.Threshold,
	}, nil
}

func parseAddresses(field string, in []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(in))
	for _, s := range in {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%w: %s: malformed address %q", ErrInvalidConfig, field, s)
		}
		a := common.HexToAddress(s)
		if a == (common.Address{}) {
			return nil, fmt.Errorf("%w: %s: zero address", ErrInvalidConfig, field)
		}
		out = append(out, a)
	}
	return out, nil
}

// --- helpers ---

// loadJSON decodes path over fallback. A missing file yields fallback.
func loadJSON[T any](path string, fallback *T) (*T, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fallback, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, fallback); err != nil {
		return nil, err
	}
	return fallback, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

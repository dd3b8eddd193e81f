package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/astrometer/internal/config"
	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const creator = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestLoadDefaultConfig(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, uint64(31337), cfg.ChainID)
	assert.Equal(t, config.KeystoreOS, cfg.Keystore)
	assert.Equal(t, "AstroMeter", cfg.Genesis.Name)
	assert.Equal(t, "AM", cfg.Genesis.Symbol)
	assert.Equal(t, uint8(18), cfg.Genesis.Decimals)
	assert.Equal(t, 2, cfg.Genesis.Threshold)
	assert.Len(t, cfg.Genesis.SuperOwners, 2)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultGenesisMatchesDeployment(t *testing.T) {
	g, err := config.Defaults().ToGenesis(common.HexToAddress(creator))
	require.NoError(t, err)

	supply := new(uint256.Int).Mul(uint256.NewInt(21_000_000_000), new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18)))
	assert.Equal(t, supply, g.TotalSupply)
	assert.Equal(t, common.HexToAddress(creator), g.Creator)
	assert.Equal(t, []common.Address{
		common.HexToAddress("0xb188156431009D4c2a3039945eB62877Cc216DDf"),
		common.HexToAddress("0xa988a572685092C71676868f76c49a525e42CdC9"),
	}, g.SuperOwners)
	assert.Equal(t, []common.Address{common.HexToAddress("0x7216AE55686bAC952475F752724c2852FaC60f96")}, g.Owners)
	require.Len(t, g.Roles, 1)
	assert.Equal(t, token.RoleOwner, g.Roles[0].ID)
	assert.Equal(t, "OWNER", g.Roles[0].Label)
	assert.Len(t, g.Roles[0].Holders, 3)

	_, _, err = token.New(g)
	assert.NoError(t, err, "default genesis must construct a token")
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.DefaultWallet = "creator"
	cfg.ChainID = 1337
	cfg.Genesis.Symbol = "AMT"
	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "creator", reloaded.DefaultWallet)
	assert.Equal(t, uint64(1337), reloaded.ChainID)
	assert.Equal(t, "AMT", reloaded.Genesis.Symbol)
	assert.Equal(t, "AstroMeter", reloaded.Genesis.Name)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"default_wallet":"w"}`), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "w", cfg.DefaultWallet)
	assert.Equal(t, uint64(31337), cfg.ChainID)
	assert.Equal(t, "AM", cfg.Genesis.Symbol)
}

func TestLoadCorruptConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{"), 0o600))
	_, err := config.Load(dir)
	assert.Error(t, err)
}

func TestConfigFileCreatedOnSave(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	require.NoError(t, cfg.Save())

	info, err := os.Stat(filepath.Join(dir, "config.json"))
	require.NoError(t, err, "config.json should be created on save")
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigPaths(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Join(dir, "state.json"), cfg.StatePath())
	assert.Equal(t, filepath.Join(dir, "wallets.json"), cfg.WalletsPath())
	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.JournalPath())
	assert.Equal(t, filepath.Join(dir, "keys"), cfg.KeysDir())
}

func TestLoadFromNonExistentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir")
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, "AstroMeter", cfg.Genesis.Name)
}

func TestResolveDir(t *testing.T) {
	t.Setenv(config.HomeEnvVar, "/from/env")
	dir, err := config.ResolveDir("/from/flag")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", dir)

	dir, err = config.ResolveDir("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", dir)

	home := t.TempDir()
	t.Setenv(config.HomeEnvVar, "")
	t.Setenv("HOME", home)
	dir, err = config.ResolveDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".astrometer"), dir)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"threshold below two", func(c *config.Config) { c.Genesis.Threshold = 1 }},
		{"threshold above super owners", func(c *config.Config) { c.Genesis.Threshold = 3 }},
		{"duplicate super owner", func(c *config.Config) {
			c.Genesis.SuperOwners = []string{c.Genesis.SuperOwners[0], c.Genesis.SuperOwners[0]}
		}},
		{"malformed super owner", func(c *config.Config) { c.Genesis.SuperOwners[1] = "0x1234" }},
		{"zero super owner", func(c *config.Config) {
			c.Genesis.SuperOwners[1] = "0x0000000000000000000000000000000000000000"
		}},
		{"malformed owner", func(c *config.Config) { c.Genesis.Owners = []string{"nope"} }},
		{"malformed role holder", func(c *config.Config) { c.Genesis.Roles[0].Holders = []string{"0xzz"} }},
		{"role without label", func(c *config.Config) { c.Genesis.Roles[0].Label = "" }},
		{"bad supply", func(c *config.Config) { c.Genesis.TotalSupply = "lots" }},
		{"supply overflows", func(c *config.Config) {
			c.Genesis.TotalSupply = "115792089237316195423570985008687907853269984665640564039457584007913129639936"
		}},
		{"missing symbol", func(c *config.Config) { c.Genesis.Symbol = "" }},
		{"zero chain id", func(c *config.Config) { c.ChainID = 0 }},
		{"unknown keystore", func(c *config.Config) { c.Keystore = "vault" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
		})
	}
}

func TestToGenesisPropagatesValidation(t *testing.T) {
	cfg := config.Defaults()
	cfg.Genesis.Threshold = 5
	_, err := cfg.ToGenesis(common.HexToAddress(creator))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestFileKeystoreAccepted(t *testing.T) {
	cfg := config.Defaults()
	cfg.Keystore = config.KeystoreFile
	assert.NoError(t, cfg.Validate())
}

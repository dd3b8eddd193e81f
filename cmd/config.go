package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/astrometer/internal/config"
	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out, ui.Meta("Config directory: "+cfg.Dir()))
		return nil
	},
}

var configSetChainIDCmd = &cobra.Command{
	Use:   "set-chain-id <id>",
	Short: "Set the chain id used by the next `init`",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chain id %q", args[0])
		}
		cfg.ChainID = id
		return saveValidated(cmd, fmt.Sprintf("Chain id set to %d", id))
	},
}

var configSetThresholdCmd = &cobra.Command{
	Use:   "set-threshold <n>",
	Short: "Set the super-owner confirmations needed per owner change (next `init`)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid threshold %q", args[0])
		}
		cfg.Genesis.Threshold = n
		return saveValidated(cmd, fmt.Sprintf("Threshold set to %d", n))
	},
}

var configSetKeystoreCmd = &cobra.Command{
	Use:   "set-keystore <os|file>",
	Short: "Choose where private keys are stored",
	Long: `Choose the keystore backend. "os" uses the platform keychain; "file"
keeps keys encrypted under <config>/keys, unlocked with $` + config.PassphraseEnvVar + `.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{config.KeystoreOS, config.KeystoreFile},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Keystore = args[0]
		return saveValidated(cmd, fmt.Sprintf("Keystore set to %q", args[0]))
	},
}

func saveValidated(cmd *cobra.Command, msg string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.Success(msg))
	return nil
}

func init() {
	configCmd.AddCommand(configListCmd, configSetChainIDCmd, configSetThresholdCmd, configSetKeystoreCmd)
}

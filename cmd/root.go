package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/astrometer/internal/config"
	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/spf13/cobra"
)

var (
	cfgDir   string
	cfg      *config.Config
	verbose  bool
	fromFlag string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "astrometer",
	Short: "Run and operate an AstroMeter token",
	Long: `astrometer runs the AstroMeter (AM) token on a local, persistent node.

  Balances, allowances, the super-owner confirmed owner registry, roles and
  the distribution gate live in the config directory. Every write is a
  signed transaction from one of your wallets; every event lands in a
  sqlite journal you can query with 'astrometer events'.

The config directory defaults to ~/.astrometer and can be moved with
$ASTROMETER_HOME or --config.`,
	Version:       ui.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return cfg.Validate()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $ASTROMETER_HOME or ~/.astrometer)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log node activity to stderr")
	rootCmd.PersistentFlags().StringVar(&fromFlag, "from", "", "wallet name or address acting as caller (default: default wallet)")

	rootCmd.AddCommand(
		initCmd,
		walletCmd,
		tokenCmd,
		ownerCmd,
		superOwnerCmd,
		roleCmd,
		distributionCmd,
		callCmd,
		sendCmd,
		abiCmd,
		eventsCmd,
		txCmd,
		configCmd,
	)
}

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/Mohsinsiddi/astrometer/internal/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	walletKeyFlag   string
	walletYes       bool
	walletUnlockAll bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the identities that sign and read",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a wallet",
	Long: `Add a signing wallet from a private key, or a watch-only wallet from an
address. Watch-only wallets can be used with --from for reads only.

  astrometer wallet add creator --key 0xac09...ff80
  astrometer wallet add super1 0xb188156431009D4c2a3039945eB62877Cc216DDf`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		name := args[0]
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}

		if walletKeyFlag != "" {
			if err := mgr.AddWithKey(name, walletKeyFlag); err != nil {
				return err
			}
			w, _ := mgr.Get(name)
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
		} else {
			if len(args) < 2 {
				return fmt.Errorf("address required for watch-only wallet\n  Usage: astrometer wallet add <name> <address>\n  Or for signing: astrometer wallet add <name> --key <private-key>")
			}
			w, err := mgr.AddWatchOnly(name, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(w.Address))))
		}
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("Set as default with: astrometer wallet use %s", name)))
		return nil
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new signing wallet",
	Long: `Generate a fresh keypair and store the private key in the keystore.

The private key is displayed once. Re-export it later with
'astrometer wallet export <name>'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		w, hexKey, err := mgr.Generate(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.KeyValueBlock("New wallet", [][2]string{
			{"Name", w.Name},
			{"Address", ui.Addr(w.Address)},
			{"Private key", hexKey},
		}))
		fmt.Fprintln(out, ui.Warn("Save the private key now. It is not shown again."))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		wallets := mgr.List()
		if len(wallets) == 0 {
			fmt.Fprintln(out, ui.Meta("No wallets configured yet."))
			fmt.Fprintln(out, ui.Meta("Add one with: astrometer wallet add <name> --key <private-key>"))
			return nil
		}

		def, _ := defaultWallet(mgr)
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 42},
			{Title: "Type", Width: 10},
			{Title: "Session", Width: 8},
			{Title: "Default", Width: 7},
		})
		for _, w := range wallets {
			mark := ""
			if def != nil && def.Name == w.Name {
				mark = "✓"
			}
			session := ""
			if w.CanSign() && wallet.SessionUnlocked(w.Name) {
				session = "unlocked"
			}
			t.AddRow(ui.Row{w.Name, w.Address, walletTypeLabel(w.Type), session, mark})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		name := args[0]
		if !walletYes && !ui.ConfirmDanger(cmd.InOrStdin(), out, fmt.Sprintf("Remove wallet %q?", name)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default wallet (pick interactively without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}

		var name string
		if len(args) == 1 {
			name = args[0]
		} else {
			items := make([]ui.PickerItem, 0)
			for _, w := range mgr.List() {
				items = append(items, ui.PickerItem{
					Label:  w.Name,
					Detail: ui.TruncateAddr(w.Address) + "  " + walletTypeLabel(w.Type),
					Value:  w.Name,
				})
			}
			name, err = ui.PickItem("Default wallet", items, cfg.DefaultWallet)
			if err != nil {
				return err
			}
			if name == "" {
				fmt.Fprintln(out, ui.Meta("Cancelled."))
				return nil
			}
		}

		if err := mgr.SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

var walletExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Print the stored private key of a signing wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		name := args[0]
		if !walletYes && !ui.ConfirmDanger(cmd.InOrStdin(), out, fmt.Sprintf("Reveal the private key of %q?", name)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		hexKey, err := mgr.ExportKey(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, hexKey)
		return nil
	},
}

var walletUnlockCmd = &cobra.Command{
	Use:   "unlock [name]",
	Short: "Cache wallet key(s) for the session (skips future keychain prompts)",
	Long: `Retrieve private keys from the keystore once and cache them in a
restricted session file, so a run of confirmations from several super-owner
wallets does not prompt the keychain for every transaction.

  astrometer wallet unlock super1
  astrometer wallet unlock --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}

		var names []string
		switch {
		case walletUnlockAll:
			for _, w := range mgr.List() {
				if w.CanSign() {
					names = append(names, w.Name)
				}
			}
		case len(args) == 1:
			names = args
		default:
			return fmt.Errorf("name a wallet or pass --all")
		}

		var unlocked int
		for _, name := range names {
			if err := mgr.Unlock(name); err != nil {
				fmt.Fprintln(out, ui.Err(fmt.Sprintf("%-20s %v", name, err)))
				continue
			}
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("%-20s unlocked", name)))
			unlocked++
		}
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d wallet(s) cached until 'astrometer wallet lock'.", unlocked)))
		return nil
	},
}

var walletLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Clear the session cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wallet.ClearSession(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Session cleared."))
		return nil
	},
}

var walletSignCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message (EIP-191) with the --from wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		w, err := loadSigningWallet(mgr, fromFlag)
		if err != nil {
			return err
		}
		sig, err := wallet.SignMessage(w, mgr.Keystore(), []byte(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(sig))
		return nil
	},
}

var walletVerifyCmd = &cobra.Command{
	Use:   "verify <message> <signature>",
	Short: "Recover the address that signed a message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := hex.DecodeString(strings.TrimPrefix(args[1], "0x"))
		if err != nil {
			return fmt.Errorf("invalid signature hex: %w", err)
		}
		addr, err := wallet.VerifyMessage([]byte(args[0]), sig)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key for a signing wallet (stored in the keystore)")
	walletRemoveCmd.Flags().BoolVarP(&walletYes, "yes", "y", false, "skip the confirmation prompt")
	walletExportCmd.Flags().BoolVarP(&walletYes, "yes", "y", false, "skip the confirmation prompt")
	walletUnlockCmd.Flags().BoolVar(&walletUnlockAll, "all", false, "unlock all signing wallets")
	walletCmd.AddCommand(walletAddCmd, walletGenerateCmd, walletListCmd, walletRemoveCmd, walletUseCmd,
		walletExportCmd, walletUnlockCmd, walletLockCmd, walletSignCmd, walletVerifyCmd)
}

// walletTypeLabel converts an internal wallet type to a user-friendly label.
func walletTypeLabel(t string) string {
	if t == wallet.TypeSigning {
		return "signing"
	}
	return "read-only"
}

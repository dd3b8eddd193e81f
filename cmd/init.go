package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Mohsinsiddi/astrometer/internal/chain"
	"github.com/Mohsinsiddi/astrometer/internal/journal"
	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/Mohsinsiddi/astrometer/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	initForce bool
	initYes   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Deploy the token from the genesis section of config.json",
	Long: `Deploy the AstroMeter token on the local node.

The creator (--from, or the default wallet) receives the entire supply and
the token is placed at the address a contract created by the creator with
nonce 0 would get. Super-owners, initial owners, roles and the confirmation
threshold come from the genesis section of config.json, which is written
with defaults on first run.

--force wipes the existing state and journal first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Banner())

		mgr, err := newWalletManager()
		if err != nil {
			return err
		}
		creator, err := resolveCreator(mgr)
		if err != nil {
			return err
		}

		if initForce {
			if !initYes && !ui.ConfirmDanger(cmd.InOrStdin(), out, "Wipe the deployed token and its journal?") {
				fmt.Fprintln(out, ui.Meta("Cancelled."))
				return nil
			}
			if err := wipeState(); err != nil {
				return err
			}
		}

		g, err := cfg.ToGenesis(creator)
		if err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		db, err := journal.New(cfg.JournalPath())
		if err != nil {
			return err
		}
		defer db.Close()

		n, r, err := chain.Deploy(g, cfg.ChainID, chain.Options{
			Store:   chain.NewFileStore(cfg.StatePath()),
			Journal: db,
			Logger:  newLogger(),
		})
		if errors.Is(err, chain.ErrAlreadyDeployed) {
			return fmt.Errorf("%w in %s: pass --force to redeploy", err, cfg.Dir())
		}
		if err != nil {
			return err
		}

		s := &session{node: n, db: db, mgr: mgr, out: out}
		s.printReceipt(r)
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%s (%s) deployed at %s on chain %d",
			g.Name, g.Symbol, ui.Addr(n.TokenAddress().Hex()), cfg.ChainID)))
		return nil
	},
}

// resolveCreator uses --from, else the default wallet.
func resolveCreator(mgr *wallet.Manager) (common.Address, error) {
	if fromFlag != "" {
		return mgr.Resolve(fromFlag)
	}
	w, err := defaultWallet(mgr)
	if err != nil {
		return common.Address{}, err
	}
	return w.Addr(), nil
}

func wipeState() error {
	for _, path := range []string{cfg.StatePath(), cfg.JournalPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "wipe existing state and journal before deploying")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "skip the confirmation prompt")
}

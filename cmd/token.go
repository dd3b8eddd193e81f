package cmd

import (
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var tokenRaw bool

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "ERC-20 ledger: balances, transfers and allowances",
	Long: `ERC-20 ledger commands. Amounts are in whole tokens (e.g. 1.5) unless
--raw is given, in which case they are base units.`,
}

var tokenInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show token metadata and node status",
	Args:  cobra.NoArgs,
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		name, err := s.viewString("name")
		if err != nil {
			return err
		}
		symbol, err := s.viewString("symbol")
		if err != nil {
			return err
		}
		dec, err := s.decimals()
		if err != nil {
			return err
		}
		supply, err := s.viewBig("totalSupply")
		if err != nil {
			return err
		}
		dist, err := s.view("getDistributionStatus")
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, ui.KeyValueBlock(name, [][2]string{
			{"Symbol", ui.Symbol(symbol)},
			{"Decimals", fmt.Sprintf("%d", dec)},
			{"Total supply", s.formatAmount(supply, dec, symbol)},
			{"Address", ui.Addr(s.node.TokenAddress().Hex())},
			{"Chain id", s.node.ChainID().String()},
			{"Block", fmt.Sprintf("%d", s.node.BlockNumber())},
			{"Distribution", distributionLabel(dist)},
		}))
		return nil
	}),
}

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance [address|wallet]",
	Short: "Show the balance of an account (default: --from)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		var who common.Address
		var err error
		if len(args) == 1 {
			who, err = s.parseAddress(args[0])
		} else {
			who, err = s.caller()
		}
		if err != nil {
			return err
		}
		bal, err := s.viewBig("balanceOf", who)
		if err != nil {
			return err
		}
		dec, symbol, err := s.units()
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, ui.KeyValueBlock("Balance", [][2]string{
			{"Account", ui.Addr(who.Hex())},
			{"Balance", s.formatAmount(bal, dec, symbol)},
		}))
		return nil
	}),
}

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer <to> <amount>",
	Short: "Transfer tokens from the --from wallet",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		to, err := s.parseAddress(args[0])
		if err != nil {
			return err
		}
		amount, err := s.parseAmount(args[1])
		if err != nil {
			return err
		}
		_, err = s.send("transfer", to, amount)
		return err
	}),
}

var tokenApproveCmd = &cobra.Command{
	Use:   "approve <spender> <amount>",
	Short: "Set the allowance of spender over the --from wallet's tokens",
	Long: `Set the allowance of spender. The new value replaces the old one.
Use "max" for an unlimited allowance that transfer-from never decrements.`,
	Args: cobra.ExactArgs(2),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		spender, err := s.parseAddress(args[0])
		if err != nil {
			return err
		}
		amount, err := s.parseAmount(args[1])
		if err != nil {
			return err
		}
		_, err = s.send("approve", spender, amount)
		return err
	}),
}

var tokenAllowanceCmd = &cobra.Command{
	Use:   "allowance <owner> <spender>",
	Short: "Show how much spender may move on behalf of owner",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		owner, err := s.parseAddress(args[0])
		if err != nil {
			return err
		}
		spender, err := s.parseAddress(args[1])
		if err != nil {
			return err
		}
		v, err := s.viewBig("allowance", owner, spender)
		if err != nil {
			return err
		}
		dec, symbol, err := s.units()
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, ui.KeyValueBlock("Allowance", [][2]string{
			{"Owner", ui.Addr(owner.Hex())},
			{"Spender", ui.Addr(spender.Hex())},
			{"Allowance", s.formatAmount(v, dec, symbol)},
		}))
		return nil
	}),
}

var tokenTransferFromCmd = &cobra.Command{
	Use:   "transfer-from <from> <to> <amount>",
	Short: "Move tokens from an account that approved the --from wallet",
	Args:  cobra.ExactArgs(3),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		from, err := s.parseAddress(args[0])
		if err != nil {
			return err
		}
		to, err := s.parseAddress(args[1])
		if err != nil {
			return err
		}
		amount, err := s.parseAmount(args[2])
		if err != nil {
			return err
		}
		_, err = s.send("transferFrom", from, to, amount)
		return err
	}),
}

func init() {
	tokenCmd.PersistentFlags().BoolVar(&tokenRaw, "raw", false, "amounts are base units")
	tokenCmd.AddCommand(tokenInfoCmd, tokenBalanceCmd, tokenTransferCmd, tokenApproveCmd,
		tokenAllowanceCmd, tokenTransferFromCmd)
}

// withSession opens a session around a command body.
func withSession(run func(s *session, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer s.Close()
		return run(s, cmd, args)
	}
}

// --- typed views ---

func (s *session) viewBig(method string, values ...any) (*big.Int, error) {
	out, err := s.view(method, values...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s returned %T", method, out[0])
	}
	return v, nil
}

func (s *session) viewString(method string) (string, error) {
	out, err := s.view(method)
	if err != nil {
		return "", err
	}
	v, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("%s returned %T", method, out[0])
	}
	return v, nil
}

func (s *session) viewBool(method string, values ...any) (bool, error) {
	out, err := s.view(method, values...)
	if err != nil {
		return false, err
	}
	v, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s returned %T", method, out[0])
	}
	return v, nil
}

func (s *session) viewAddresses(method string) ([]common.Address, error) {
	out, err := s.view(method)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("%s returned %T", method, out[0])
	}
	return v, nil
}

// --- amounts ---

func (s *session) decimals() (uint8, error) {
	d, err := s.viewBig("decimals")
	if err != nil {
		return 0, err
	}
	return uint8(d.Uint64()), nil
}

func (s *session) units() (uint8, string, error) {
	dec, err := s.decimals()
	if err != nil {
		return 0, "", err
	}
	symbol, err := s.viewString("symbol")
	return dec, symbol, err
}

var maxUint256 = new(uint256.Int).SetAllOne()

// parseAmount reads a whole-token amount, a base-unit amount under --raw,
// or "max".
func (s *session) parseAmount(v string) (*big.Int, error) {
	if v == "max" {
		return maxUint256.ToBig(), nil
	}
	dec := uint8(0)
	if !tokenRaw {
		var err error
		if dec, err = s.decimals(); err != nil {
			return nil, err
		}
	}
	u, err := ui.ParseUnits(v, dec)
	if err != nil {
		return nil, err
	}
	return u.ToBig(), nil
}

func (s *session) formatAmount(v *big.Int, dec uint8, symbol string) string {
	u, overflow := uint256.FromBig(v)
	if overflow {
		return v.String()
	}
	if u.Eq(maxUint256) {
		return "unlimited"
	}
	if tokenRaw {
		return u.Dec()
	}
	return ui.FormatUnits(u, dec) + " " + symbol
}

func distributionLabel(status []any) string {
	started, _ := status[0].(bool)
	if !started {
		return "not started"
	}
	by, _ := status[1].(common.Address)
	return "started by " + by.Hex()
}

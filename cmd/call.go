package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/astrometer/internal/contract"
	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <function> [args...]",
	Short: "Call a read-only function of the token ABI",
	Long: `Call any view function of the AstroMeter ABI by name. Arguments are
parsed according to the ABI: addresses as hex, integers in decimal or 0x hex,
arrays comma-separated. The caller is --from (relevant for checkSuperOwner).

Examples:
  astrometer call balanceOf 0xb188156431009D4c2a3039945eB62877Cc216DDf
  astrometer call getWaitingConfirmationsList
  astrometer call checkSuperOwner --from super1`,
	Args: cobra.MinimumNArgs(1),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		fn, values, err := parseCall(s.node.ABI(), args)
		if err != nil {
			return err
		}
		if !fn.IsReadFunction() {
			return fmt.Errorf("%s changes state: use `astrometer send %s`", fn.Name, fn.Name)
		}
		out, err := s.view(fn.Name, values...)
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Token", ui.Addr(s.node.TokenAddress().Hex())},
			{"Function", ui.Val(fn.Signature())},
		}
		for i, v := range out {
			label := fmt.Sprintf("Result[%d]", i)
			if i < len(fn.Outputs) && fn.Outputs[i].Name != "" {
				label = fn.Outputs[i].Name
			}
			pairs = append(pairs, [2]string{label, contract.FormatValue(v)})
		}
		fmt.Fprintln(s.out, ui.KeyValueBlock("Call", pairs))
		return nil
	}),
}

var sendCmd = &cobra.Command{
	Use:   "send <function|0xcalldata> [args...]",
	Short: "Sign and send a transaction calling any function of the token ABI",
	Long: `Sign a transaction with the --from wallet and apply it on the node.
The first argument is a function name from the ABI, or raw 0x-prefixed
calldata to send as is.

Examples:
  astrometer send transfer 0x7216AE55686bAC952475F752724c2852FaC60f96 1000 --from creator
  astrometer send addRole 7 0x7216AE55686bAC952475F752724c2852FaC60f96 AUDITOR --from super1
  astrometer send 0xd83623dd --from super1`,
	Args: cobra.MinimumNArgs(1),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		if strings.HasPrefix(args[0], "0x") {
			if len(args) > 1 {
				return fmt.Errorf("raw calldata takes no further arguments")
			}
			data, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
			if err != nil {
				return fmt.Errorf("invalid calldata: %w", err)
			}
			_, err = s.sendData(data)
			return err
		}

		fn, values, err := parseCall(s.node.ABI(), args)
		if err != nil {
			return err
		}
		_, err = s.send(fn.Name, values...)
		return err
	}),
}

var abiCmd = &cobra.Command{
	Use:   "abi [id]",
	Short: "List the functions and events of a builtin ABI with selectors",
	Long: `List a builtin ABI (default: astrometer). "erc20" shows the EIP-20
subset the token also serves.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		id := contract.AstrometerID
		if len(args) == 1 {
			id = args[0]
		}
		b, err := contract.LookupBuiltin(id)
		if err != nil {
			return err
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Kind", Width: 8},
			{Title: "Signature", Width: 40},
			{Title: "Selector", Width: 10},
			{Title: "Mutability", Width: 10},
		})
		for _, e := range b.ABI {
			sel := e.SelectorHex()
			if e.Type == "event" {
				sel = ui.TruncateAddr(e.Topic().Hex())
			}
			t.AddRow(ui.Row{e.Type, e.Signature(), sel, e.StateMutability})
		}
		fmt.Fprintf(out, "%s\n%s\n\n", ui.StyleTitle.Render(b.Name), ui.Meta(b.Description))
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

// parseCall resolves args[0] in abi and parses the rest as its inputs.
func parseCall(abi []contract.ABIEntry, args []string) (*contract.ABIEntry, []any, error) {
	fn, err := contract.FindFunction(abi, args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s (see `astrometer abi`)", err, args[0])
	}
	values, err := contract.ParseArgs(fn, args[1:])
	if err != nil {
		return nil, nil, err
	}
	return fn, values, nil
}

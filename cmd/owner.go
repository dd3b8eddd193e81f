package cmd

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/Mohsinsiddi/astrometer/internal/token"
	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Owner registry: changes need confirmations from distinct super-owners",
	Long: `The owner registry changes only when enough distinct super-owners confirm
the same change. Each 'owner add' or 'owner delete' from a super-owner wallet
records one confirmation; the change is applied when the threshold is met.

  astrometer owner add 0xNewOwner --from super1
  astrometer owner add 0xNewOwner --from super2   # applied here
  astrometer owner pending
  astrometer owner confirm --from super2          # pick from the pending list`,
}

var ownerAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Confirm adding an owner (as the --from super-owner)",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		return s.confirmOwnerChange("addAddress", "OwnerAdded", args[0])
	}),
}

var ownerDeleteCmd = &cobra.Command{
	Use:   "delete <address>",
	Short: "Confirm removing an owner (as the --from super-owner)",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		return s.confirmOwnerChange("deleteAddress", "OwnerDeleted", args[0])
	}),
}

var ownerHasCmd = &cobra.Command{
	Use:   "has <address>",
	Short: "Check whether an address is an owner",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		addr, err := s.parseAddress(args[0])
		if err != nil {
			return err
		}
		ok, err := s.viewBool("hasOwner", addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s  %s\n", ui.Addr(addr.Hex()), ui.Bool(ok))
		return nil
	}),
}

var ownerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List owners",
	Args:  cobra.NoArgs,
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		owners, err := s.viewAddresses("getOwners")
		if err != nil {
			return err
		}
		printAddressList(s, "Owner", owners)
		return nil
	}),
}

var ownerPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List owner changes waiting for confirmations",
	Args:  cobra.NoArgs,
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		pending, err := s.pendingChanges()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(s.out, ui.Meta("No owner changes are waiting for confirmation."))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Action", Width: 14},
			{Title: "Target", Width: 42},
			{Title: "Confirmations", Width: 13, Right: true},
		})
		for _, p := range pending {
			t.AddRow(ui.Row{p.kind.String(), p.target.Hex(), p.confirmations.String()})
		}
		fmt.Fprintln(s.out, t.Render())
		return nil
	}),
}

var ownerConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Pick a pending owner change and confirm it (as the --from super-owner)",
	Args:  cobra.NoArgs,
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		pending, err := s.pendingChanges()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(s.out, ui.Meta("No owner changes are waiting for confirmation."))
			return nil
		}

		picked, err := ui.PickItem("Confirm owner change", pendingItems(pending), "")
		if err != nil {
			return err
		}
		if picked == "" {
			fmt.Fprintln(s.out, ui.Meta("Cancelled."))
			return nil
		}
		i, err := strconv.Atoi(picked)
		if err != nil || i < 0 || i >= len(pending) {
			return fmt.Errorf("invalid selection %q", picked)
		}
		p := pending[i]
		if p.kind == token.ActionDeleteOwner {
			return s.confirmOwnerChange("deleteAddress", "OwnerDeleted", p.target.Hex())
		}
		return s.confirmOwnerChange("addAddress", "OwnerAdded", p.target.Hex())
	}),
}

var superOwnerCmd = &cobra.Command{
	Use:     "superowner",
	Aliases: []string{"super"},
	Short:   "Inspect the fixed super-owner set",
}

var superOwnerCheckCmd = &cobra.Command{
	Use:   "check [address|wallet]",
	Short: "Check whether the caller (or the given account) is a super-owner",
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
		out, err := s.viewAs(who, "checkSuperOwner")
		if err != nil {
			return err
		}
		ok, _ := out[0].(bool)
		fmt.Fprintf(s.out, "%s  %s\n", ui.Addr(who.Hex()), ui.Bool(ok))
		return nil
	}),
}

var superOwnerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List super-owners",
	Args:  cobra.NoArgs,
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		supers, err := s.viewAddresses("getSuperOwners")
		if err != nil {
			return err
		}
		printAddressList(s, "Super-owner", supers)
		return nil
	}),
}

func init() {
	ownerCmd.AddCommand(ownerAddCmd, ownerDeleteCmd, ownerHasCmd, ownerListCmd, ownerPendingCmd, ownerConfirmCmd)
	superOwnerCmd.AddCommand(superOwnerCheckCmd, superOwnerListCmd)
}

type pendingChange struct {
	kind          token.ActionKind
	target        common.Address
	confirmations *big.Int
}

func (s *session) pendingChanges() ([]pendingChange, error) {
	out, err := s.view("getWaitingConfirmationsList")
	if err != nil {
		return nil, err
	}
	kinds, _ := out[0].([]*big.Int)
	targets, _ := out[1].([]common.Address)
	counts, _ := out[2].([]*big.Int)
	if len(kinds) != len(targets) || len(counts) != len(targets) {
		return nil, fmt.Errorf("getWaitingConfirmationsList returned uneven lists")
	}

	pending := make([]pendingChange, len(targets))
	for i := range targets {
		pending[i] = pendingChange{
			kind:          token.ActionKind(kinds[i].Uint64()),
			target:        targets[i],
			confirmations: counts[i],
		}
	}
	return pending, nil
}

// pendingItems builds picker rows whose Value is the index into pending.
func pendingItems(pending []pendingChange) []ui.PickerItem {
	items := make([]ui.PickerItem, len(pending))
	for i, p := range pending {
		items[i] = ui.PickerItem{
			Label:  p.kind.String(),
			Detail: fmt.Sprintf("%s  %s confirmation(s)", p.target.Hex(), p.confirmations),
			Value:  strconv.Itoa(i),
		}
	}
	return items
}

// confirmOwnerChange sends one confirmation and reports whether it was the
// one that applied the change.
func (s *session) confirmOwnerChange(method, appliedEvent, target string) error {
	addr, err := s.parseAddress(target)
	if err != nil {
		return err
	}
	r, err := s.send(method, addr)
	if err != nil {
		return err
	}
	if hasEvent(s.node.ABI(), r, appliedEvent) {
		fmt.Fprintln(s.out, ui.Success(fmt.Sprintf("%s applied for %s", appliedEvent, addr.Hex())))
		return nil
	}
	fmt.Fprintln(s.out, ui.Pending(fmt.Sprintf("confirmation recorded for %s; waiting for more super-owners", addr.Hex())))
	return nil
}

func printAddressList(s *session, title string, addrs []common.Address) {
	t := ui.NewTable([]ui.Column{
		{Title: "#", Width: 3, Right: true},
		{Title: title, Width: 42},
		{Title: "Wallet"},
	})
	names := s.mgr.Names()
	for i, a := range addrs {
		t.AddRow(ui.Row{fmt.Sprintf("%d", i+1), a.Hex(), names[a]})
	}
	fmt.Fprintln(s.out, t.Render())
	fmt.Fprintln(s.out, ui.Meta(fmt.Sprintf("%d %s(s)", len(addrs), title)))
}

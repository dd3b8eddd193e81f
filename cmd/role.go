package cmd

import (
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Role registry: numeric roles with labels, granted by super-owners",
}

var roleAddCmd = &cobra.Command{
	Use:   "add <id> <address> <label>",
	Short: "Grant a role (as the --from super-owner)",
	Args:  cobra.ExactArgs(3),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		id, err := parseRoleID(args[0])
		if err != nil {
			return err
		}
		addr, err := s.parseAddress(args[1])
		if err != nil {
			return err
		}
		_, err = s.send("addRole", id, addr, args[2])
		return err
	}),
}

var roleDeleteCmd = &cobra.Command{
	Use:   "delete <id> <address>",
	Short: "Revoke a role (as the --from super-owner)",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		id, err := parseRoleID(args[0])
		if err != nil {
			return err
		}
		addr, err := s.parseAddress(args[1])
		if err != nil {
			return err
		}
		_, err = s.send("deleteRole", id, addr)
		return err
	}),
}

var roleHasCmd = &cobra.Command{
	Use:   "has <id> <address>",
	Short: "Check whether an address holds a role",
	Args:  cobra.ExactArgs(2),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		id, err := parseRoleID(args[0])
		if err != nil {
			return err
		}
		addr, err := s.parseAddress(args[1])
		if err != nil {
			return err
		}
		ok, err := s.viewBool("hasRole", id, addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "role %s  %s  %s\n", id, ui.Addr(addr.Hex()), ui.Bool(ok))
		return nil
	}),
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered roles",
	Args:  cobra.NoArgs,
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		out, err := s.view("showRoles")
		if err != nil {
			return err
		}
		ids, _ := out[0].([]*big.Int)
		labels, _ := out[1].([]string)

		t := ui.NewTable([]ui.Column{
			{Title: "Id", Width: 6, Right: true},
			{Title: "Label", Width: 24},
		})
		for i := range ids {
			t.AddRow(ui.Row{ids[i].String(), labels[i]})
		}
		fmt.Fprintln(s.out, t.Render())
		return nil
	}),
}

func init() {
	roleCmd.AddCommand(roleAddCmd, roleDeleteCmd, roleHasCmd, roleListCmd)
}

func parseRoleID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(s, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid role id %q", s)
	}
	return id, nil
}

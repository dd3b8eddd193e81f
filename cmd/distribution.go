package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/spf13/cobra"
)

var distributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "The one-way distribution gate",
}

var distributionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the distribution (as the --from super-owner); cannot be undone",
	Args:  cobra.NoArgs,
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		if _, err := s.send("startDistribution"); err != nil {
			return err
		}
		fmt.Fprintln(s.out, ui.Success("Distribution started."))
		return nil
	}),
}

var distributionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the distribution has started and who started it",
	Args:  cobra.NoArgs,
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		out, err := s.view("getDistributionStatus")
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, ui.KeyValueBlock("Distribution", [][2]string{
			{"Status", distributionLabel(out)},
		}))
		return nil
	}),
}

func init() {
	distributionCmd.AddCommand(distributionStartCmd, distributionStatusCmd)
}

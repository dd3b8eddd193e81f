package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Mohsinsiddi/astrometer/internal/chain"
	"github.com/Mohsinsiddi/astrometer/internal/journal"
	"github.com/Mohsinsiddi/astrometer/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var (
	eventsName      string
	eventsAccount   string
	eventsFromBlock uint64
	eventsLimit     int
	eventsFollow    bool
	txsLast         int
)

const followInterval = 500 * time.Millisecond

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Query the event journal",
	Long: `List journaled events in chain order.

Examples:
  astrometer events
  astrometer events --event Transfer --account creator
  astrometer events --event ConfirmationAdded --from-block 3
  astrometer events --limit 10                    # the ten most recent
  astrometer events --follow`,
	Args: cobra.NoArgs,
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		f := journal.Filter{Event: eventsName, FromBlock: eventsFromBlock, Limit: eventsLimit}
		if eventsAccount != "" {
			addr, err := s.parseAddress(eventsAccount)
			if err != nil {
				return err
			}
			f.Account = addr
		}
		if eventsFollow {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return s.db.Follow(ctx, f, followInterval, func(e journal.Entry) { printEntry(s, e) })
		}
		entries, err := s.db.Logs(f)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(s.out, ui.Meta("No matching events."))
			return nil
		}
		for _, e := range entries {
			printEntry(s, e)
		}
		fmt.Fprintln(s.out, ui.Meta(fmt.Sprintf("%d event(s)", len(entries))))
		return nil
	}),
}

var txCmd = &cobra.Command{
	Use:   "tx [hash]",
	Short: "Show a journaled transaction, or list recent ones",
	Args:  cobra.MaximumNArgs(1),
	RunE: withSession(func(s *session, cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			r, err := s.db.Receipt(common.HexToHash(args[0]))
			if err != nil {
				return err
			}
			s.printReceipt(r)
			return nil
		}

		receipts, err := s.db.Receipts(txsLast)
		if err != nil {
			return err
		}
		printReceiptTable(s, receipts)
		return nil
	}),
}

func printEntry(s *session, e journal.Entry) {
	fmt.Fprintf(s.out, "%s  %s  %s\n",
		ui.Meta(fmt.Sprintf("#%-5d", e.BlockNumber)),
		ui.Meta(ui.TruncateAddr(e.TxHash.Hex())),
		formatLog(s.node.ABI(), e.Log))
}

func printReceiptTable(s *session, receipts []*chain.Receipt) {
	if len(receipts) == 0 {
		fmt.Fprintln(s.out, ui.Meta("No transactions journaled yet."))
		return
	}
	t := ui.NewTable([]ui.Column{
		{Title: "Block", Width: 6, Right: true},
		{Title: "Hash", Width: 12},
		{Title: "From", Width: 12},
		{Title: "Method", Width: 28},
		{Title: "Status", Width: 8},
		{Title: "Logs", Width: 4, Right: true},
	})
	for _, r := range receipts {
		status := "ok"
		if !r.Succeeded() {
			status = "reverted"
		}
		t.AddRow(ui.Row{
			fmt.Sprintf("%d", r.BlockNumber),
			ui.TruncateAddr(r.TxHash.Hex()),
			ui.TruncateAddr(r.From.Hex()),
			r.Method,
			status,
			fmt.Sprintf("%d", len(r.Logs)),
		})
	}
	fmt.Fprintln(s.out, t.Render())
}

func init() {
	eventsCmd.Flags().StringVar(&eventsName, "event", "", "event name, e.g. Transfer")
	eventsCmd.Flags().StringVar(&eventsAccount, "account", "", "address or wallet appearing in an indexed topic")
	eventsCmd.Flags().Uint64Var(&eventsFromBlock, "from-block", 0, "first block to include")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "show only the newest n events (0 = all)")
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "keep printing new events until interrupted")
	txCmd.Flags().IntVar(&txsLast, "last", 20, "number of recent transactions to list")
}

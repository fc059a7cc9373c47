package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tradejournal/internal/domain"
	"tradejournal/internal/format"
	"tradejournal/internal/journal"
)

var tradeFields = []struct {
	flag  string
	usage string
	field func(*journal.TradeInput) *string
}{
	{"symbol", "market symbol (default SOL-PERP)", func(in *journal.TradeInput) *string { return &in.Symbol }},
	{"side", "LONG or SHORT (default LONG)", func(in *journal.TradeInput) *string { return &in.Side }},
	{"type", "order type (default MARKET)", func(in *journal.TradeInput) *string { return &in.OrderType }},
	{"size", "notional size in USD", func(in *journal.TradeInput) *string { return &in.Size }},
	{"entry", "entry price", func(in *journal.TradeInput) *string { return &in.EntryPrice }},
	{"exit", "exit price", func(in *journal.TradeInput) *string { return &in.ExitPrice }},
	{"leverage", "leverage multiplier (default 1)", func(in *journal.TradeInput) *string { return &in.Leverage }},
	{"fee", "fees paid", func(in *journal.TradeInput) *string { return &in.Fee }},
	{"strategy", "strategy label", func(in *journal.TradeInput) *string { return &in.Strategy }},
	{"emotion", "emotional state", func(in *journal.TradeInput) *string { return &in.Emotion }},
	{"note", "free-form note", func(in *journal.TradeInput) *string { return &in.Note }},
	{"tags", "comma separated tags", func(in *journal.TradeInput) *string { return &in.Tags }},
	{"entry-ts", "entry time, RFC 3339 (default now)", func(in *journal.TradeInput) *string { return &in.EntryTs }},
	{"exit-ts", "exit time, RFC 3339", func(in *journal.TradeInput) *string { return &in.ExitTs }},
}

func bindTradeFlags(cmd *cobra.Command, in *journal.TradeInput) {
	for _, f := range tradeFields {
		cmd.Flags().StringVar(f.field(in), f.flag, "", f.usage)
	}
}

// mergeTradeFlags copies the flags the user actually set from src onto dst.
func mergeTradeFlags(cmd *cobra.Command, dst, src *journal.TradeInput) {
	for _, f := range tradeFields {
		if cmd.Flags().Changed(f.flag) {
			*f.field(dst) = *f.field(src)
		}
	}
}

func describe(t domain.Trade) string {
	return fmt.Sprintf("%s %s %s net %s", t.ID, t.Symbol, t.Side, format.SignedPnl(t.NetPnl))
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var in journal.TradeInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a new trade",
		Example: `  tradejournal add --symbol BTC-PERP --side short --size 2500 \
    --entry 97000 --exit 95500 --fee 3.1 --leverage 5 --strategy Breakout`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			t, err := s.svc.Save(cmd.Context(), in, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", describe(t))
			return nil
		}),
	}
	bindTradeFlags(cmd, &in)
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var in journal.TradeInput
	cmd := &cobra.Command{
		Use:   "edit <trade-id>",
		Short: "Edit a trade; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			existing, err := s.svc.Trade(args[0])
			if err != nil {
				return err
			}
			merged := journal.InputFromTrade(existing)
			mergeTradeFlags(cmd, &merged, &in)

			t, err := s.svc.Save(cmd.Context(), merged, existing.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", describe(t))
			return nil
		}),
	}
	bindTradeFlags(cmd, &in)
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <trade-id>...",
		Aliases: []string{"delete"},
		Short:   "Delete trades",
		Args:    cobra.MinimumNArgs(1),
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			for _, tradeID := range args {
				if err := s.svc.Delete(cmd.Context(), tradeID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", tradeID)
			}
			return nil
		}),
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Print one trade as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			t, err := s.svc.Trade(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(t)
		}),
	}
}

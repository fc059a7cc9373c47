package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tradejournal/internal/journal"
	"tradejournal/internal/report"
)

// Output formats for stats.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		q       journal.Query
		sortKey string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades with filters, search and paging",
		Example: `  tradejournal list --side LONG --strategy Breakout
  tradejournal list --search btc --sort netPnl --asc --page 2`,
		Args: cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			key, err := journal.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			q.SortKey = key

			res, err := s.svc.List(q)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := report.WriteTradeTable(out, res.Trades); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nPage %d of %d, %d trades\n", res.Page, max(res.TotalPages, 1), res.Total)
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&q.Side, "side", "", "LONG, SHORT or ALL")
	f.StringVar(&q.Emotion, "emotion", "", "only trades with this emotion")
	f.StringVar(&q.Strategy, "strategy", "", "only trades with this strategy")
	f.StringVarP(&q.Search, "search", "s", "", "case-insensitive match on symbol, strategy, emotion or note")
	f.StringVar(&sortKey, "sort", string(journal.SortEntryTs), "sort column: entryTs, exitTs, symbol, size, netPnl or fee")
	f.BoolVar(&q.Asc, "asc", false, "sort ascending")
	f.IntVar(&q.Page, "page", 1, "page number, starting at 1")
	f.IntVar(&q.PerPage, "per-page", 0, "trades per page (default from config)")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show performance analytics",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			d := s.svc.Dashboard()
			out := cmd.OutOrStdout()
			switch output {
			case outputText:
				return report.WriteSummary(out, d)
			case outputJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			case outputYAML:
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(d); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown output %q: use text, json or yaml", output)
			}
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "text, json or yaml")
	return cmd
}

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tradejournal/internal/ports"
	"tradejournal/internal/report"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trades as CSV",
		Args:  cobra.NoArgs,
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			trades := s.svc.Trades()
			if output == "" || output == "-" {
				return report.WriteTradesCSV(cmd.OutOrStdout(), trades)
			}
			if err := report.WriteTradesCSVFile(trades, output); err != nil {
				return fmt.Errorf("export to %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d trades to %s\n", len(trades), output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import trades from CSV; ids already in the journal are skipped",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(opts, func(cmd *cobra.Command, args []string, s *session) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			trades, err := report.ReadTradesCSV(file)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			var added, skipped int
			for _, t := range trades {
				err := s.svc.Add(cmd.Context(), t)
				switch {
				case errors.Is(err, ports.ErrDuplicateEntry):
					skipped++
				case err != nil:
					return fmt.Errorf("import stopped after %d trades: %w", added, err)
				default:
					added++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d trades (%d skipped)\n", added, skipped)
			return nil
		}),
	}
}

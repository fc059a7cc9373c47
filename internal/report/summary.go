// Package report renders the journal for terminals and spreadsheets.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"text/template"

	"tradejournal/internal/analytics"
	"tradejournal/internal/app"
	"tradejournal/internal/domain"
	"tradejournal/internal/format"
)

var summaryFuncs = template.FuncMap{
	"pnl":      format.SignedPnl,
	"pct":      format.Percent,
	"duration": format.Duration,
	"ratio":    func(r analytics.Ratio) string { return format.Ratio(float64(r)) },
	"num":      func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"groups":   analytics.Groups,
}

// SummaryTemplate is the plain-text dashboard.
const SummaryTemplate = `Trade Journal{{with .Profile}} [{{.}}]{{end}}
{{with .Warning}}WARNING: {{.}}
{{end}}{{with .Metrics}}
Trades          {{.Total}} ({{.Wins}}W / {{.Losses}}L)
Net PnL         {{pnl .TotalNet}}
Gross PnL       {{pnl .TotalGross}}
Fees            {{pnl .TotalFees}} ({{pct .FeeDrag}} of gross)
Volume          {{num .TotalVolume}}
Win rate        {{pct .WinRate}}
Profit factor   {{ratio .ProfitFactor}}
Sharpe          {{num .Sharpe}}
Max drawdown    ${{num .MaxDrawdown}}
Avg win/loss    {{pnl .AvgWin}} / {{pnl .AvgLoss}}
Expectancy      {{pnl .Expectancy}}
Avg hold        {{duration .AvgDuration}}
Streaks         {{.MaxConsecutiveWins}}W / {{.MaxConsecutiveLosses}}L
Long / Short    {{pnl .LongPnl}} ({{.LongCount}}) / {{pnl .ShortPnl}} ({{.ShortCount}})
Consistency     {{pct .Consistency}} of days green

Risk
  Fee efficiency  {{.RiskAlerts.FeeEfficiency}}
  Drawdown        {{.RiskAlerts.Drawdown}}
  Overtrading     {{.RiskAlerts.Overtrading}} ({{.OvertradingDays}} days)
  Edge strength   {{.RiskAlerts.EdgeStrength}}
{{if .SymbolMap}}
By symbol
{{range groups .SymbolMap}}  {{printf "%-14s" .Key}} {{printf "%12s" (pnl .Pnl)}}  {{.Count}} trades  {{pct .WinRate}}
{{end}}{{end}}{{if .StrategyMap}}
By strategy
{{range groups .StrategyMap}}  {{printf "%-14s" .Key}} {{printf "%12s" (pnl .Pnl)}}  {{.Count}} trades  {{pct .WinRate}}
{{end}}{{end}}{{if .LeverageBuckets}}
By leverage
{{range .Leverage}}  {{printf "%-14s" .Key}} {{printf "%12s" (pnl .Pnl)}}  {{.Count}} trades
{{end}}{{end}}{{end}}`

var summary = template.Must(template.New("summary").Funcs(summaryFuncs).Parse(SummaryTemplate))

// WriteSummary renders d as plain text.
func WriteSummary(w io.Writer, d app.Dashboard) error {
	if d.Metrics == nil {
		d.Metrics = analytics.EmptySnapshot()
	}
	return summary.Execute(w, d)
}

// WriteTradeTable renders trades as an aligned table.
func WriteTradeTable(w io.Writer, trades []domain.Trade) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENTRY\tSYMBOL\tSIDE\tSIZE\tENTRY PX\tEXIT PX\tNET\tHOLD\tSTRATEGY")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.EntryTs, t.Symbol, t.Side, t.Size,
			price(t.EntryPrice), price(t.ExitPrice),
			format.SignedPnl(t.NetPnl), hold(t), t.Strategy)
	}
	return tw.Flush()
}

func price(v float64) string {
	if v == 0 {
		return format.Placeholder
	}
	return fmt.Sprintf("%.4g", v)
}

func hold(t domain.Trade) string {
	entry, ok1 := domain.ParseTimestamp(t.EntryTs)
	exit, ok2 := domain.ParseTimestamp(t.ExitTs)
	if !ok1 || !ok2 {
		return format.Placeholder
	}
	return format.Duration(float64(exit.Sub(entry).Milliseconds()))
}

package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tradejournal/internal/domain"
	"tradejournal/internal/journal"
	"tradejournal/internal/ports"
)

// Columns is the CSV header, in persisted field order.
var Columns = []string{
	"id", "symbol", "side", "orderType", "size", "entryPrice", "exitPrice",
	"leverage", "fee", "grossPnl", "netPnl", "strategy", "emotion", "note",
	"tags", "entryTs", "exitTs", "createdAt",
}

// WriteTradesCSV writes trades with a header row.
func WriteTradesCSV(w io.Writer, trades []domain.Trade) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, t := range trades {
		writer.Write([]string{
			t.ID,
			t.Symbol,
			string(t.Side),
			string(t.OrderType),
			formatFloat(t.Size),
			formatFloat(t.EntryPrice),
			formatFloat(t.ExitPrice),
			formatFloat(t.Leverage),
			formatFloat(t.Fee),
			formatFloat(t.GrossPnl),
			formatFloat(t.NetPnl),
			t.Strategy,
			t.Emotion,
			t.Note,
			strings.Join(t.Tags, ", "),
			t.EntryTs,
			t.ExitTs,
			t.CreatedAt,
		})
	}
	writer.Flush()
	return writer.Error()
}

// WriteTradesCSVFile creates filename and writes trades to it.
func WriteTradesCSVFile(trades []domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteTradesCSV(file, trades)
}

// ReadTradesCSV parses rows written by WriteTradesCSV. Columns are matched by
// header name, so missing or reordered columns are fine; gross and net PnL are
// ignored and re-derived when the trades are stored. Unparseable numbers are
// reported with their row.
func ReadTradesCSV(r io.Reader) ([]domain.Trade, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Trade{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["side"]; !ok {
		return nil, fmt.Errorf("csv header has no side column: %w", ports.ErrInvalidRequest)
	}

	trades := []domain.Trade{}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		field := func(name string) string {
			if i, ok := col[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		var errs []error
		number := func(name string) float64 {
			s := field(name)
			if s == "" {
				return 0
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || !domain.IsFinite(v) {
				errs = append(errs, fmt.Errorf("%s: %q is not a finite number", name, s))
				return 0
			}
			return v
		}

		t := domain.Trade{
			ID:         field("id"),
			Symbol:     field("symbol"),
			Side:       domain.Side(strings.ToUpper(field("side"))),
			OrderType:  domain.OrderType(field("orderType")),
			Size:       number("size"),
			EntryPrice: number("entryPrice"),
			ExitPrice:  number("exitPrice"),
			Leverage:   number("leverage"),
			Fee:        number("fee"),
			Strategy:   field("strategy"),
			Emotion:    field("emotion"),
			Note:       field("note"),
			Tags:       journal.SplitTags(field("tags")),
			EntryTs:    field("entryTs"),
			ExitTs:     field("exitTs"),
			CreatedAt:  field("createdAt"),
		}
		if len(errs) > 0 {
			return nil, fmt.Errorf("row %d: %w: %w", row, ports.ErrInvalidRequest, errors.Join(errs...))
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package portfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiemoko/brvmwatch/internal/models"
)

// transactionTextRe matches the short trade grammar used by the bot
// front-end: "BUY SNTS 100 @ 5000", "SELL ETIT 50 12000 XOF".
var transactionTextRe = regexp.MustCompile(`^(BUY|SELL)\s+([A-Z0-9]+)\s+([\d.]+)\s+(?:@\s*)?([\d.]+)(?:\s+([A-Z]+))?$`)

// ParseTransactionText parses a single-line trade instruction. The returned
// transaction has no user or timestamp; the caller fills those in.
func ParseTransactionText(text string) (*models.Transaction, error) {
	text = strings.ToUpper(strings.TrimSpace(text))
	m := transactionTextRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("unrecognized transaction text: %q", text)
	}

	qty, err := decimal.NewFromString(m[3])
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", m[3], err)
	}
	price, err := decimal.NewFromString(m[4])
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", m[4], err)
	}

	currency := m[5]
	if currency == "" {
		currency = "XOF"
	}

	return &models.Transaction{
		Ticker:    m[2],
		Side:      models.TradeSide(m[1]),
		Quantity:  qty,
		UnitPrice: price,
		Fees:      decimal.Zero,
		Currency:  currency,
	}, nil
}

// SkippedRow records a CSV row that could not be parsed
type SkippedRow struct {
	Row string
	Err error
}

// ParseTransactionCSV parses CSV lines with the columns
// type,ticker,quantity,price,date[,fees,notes,stock_name]. Column order is
// taken from the header row; unparseable rows are collected, not fatal.
func ParseTransactionCSV(lines []string) ([]models.Transaction, []SkippedRow) {
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, []SkippedRow{{Row: "", Err: fmt.Errorf("missing header: %w", err)}}
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(record []string, names ...string) string {
		for _, name := range names {
			if i, ok := col[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
		}
		return ""
	}

	var out []models.Transaction
	var skipped []SkippedRow

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped = append(skipped, SkippedRow{Row: strings.Join(record, ","), Err: err})
			continue
		}

		side, err := models.ParseTradeSide(field(record, "type", "transaction_type", "side"))
		if err != nil {
			skipped = append(skipped, SkippedRow{Row: strings.Join(record, ","), Err: err})
			continue
		}

		qty, err := decimal.NewFromString(field(record, "quantity"))
		if err != nil {
			skipped = append(skipped, SkippedRow{Row: strings.Join(record, ","), Err: fmt.Errorf("invalid quantity: %w", err)})
			continue
		}
		price, err := decimal.NewFromString(field(record, "price", "unit_price"))
		if err != nil {
			skipped = append(skipped, SkippedRow{Row: strings.Join(record, ","), Err: fmt.Errorf("invalid price: %w", err)})
			continue
		}

		fees := decimal.Zero
		if f := field(record, "fees"); f != "" {
			if parsed, err := decimal.NewFromString(f); err == nil {
				fees = parsed
			}
		}

		var ts time.Time
		if d := field(record, "date", "transaction_date"); d != "" {
			if len(d) >= 10 {
				d = d[:10]
			}
			parsed, err := time.Parse("2006-01-02", d)
			if err != nil {
				skipped = append(skipped, SkippedRow{Row: strings.Join(record, ","), Err: fmt.Errorf("invalid date: %w", err)})
				continue
			}
			ts = parsed.UTC()
		}

		ticker := models.NormalizeTicker(field(record, "ticker"))
		name := field(record, "stock_name", "name")
		if name == "" {
			name = ticker
		}

		out = append(out, models.Transaction{
			Ticker:    ticker,
			StockName: name,
			Side:      side,
			Quantity:  qty,
			UnitPrice: price,
			Fees:      fees,
			Timestamp: ts,
			Notes:     field(record, "notes"),
		})
	}

	return out, skipped
}

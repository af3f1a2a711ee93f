package brvm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var cfaPrefixRe = regexp.MustCompile(`(?i)CFA\s*`)

// parseAmount normalizes BRVM price strings to a decimal. The sources format
// amounts with spaces or commas as thousand separators and an optional
// currency prefix: "1 650", "20,100", "CFA 27,995".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	s = cfaPrefixRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", "")

	if !strings.ContainsAny(s, "0123456789") {
		return decimal.Zero, fmt.Errorf("no digits in amount %q", s)
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, fmt.Errorf("ambiguous amount %q", s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

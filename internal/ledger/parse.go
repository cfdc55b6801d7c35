package ledger

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"2 Jan 2006",
	time.RFC3339,
}

var (
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)
	amountToken   = regexp.MustCompile(`-?(\d[\d,]*(\.\d+)?|\.\d+)`)
	currencyMark  = regexp.MustCompile(`(?i)^(rs\.?|inr|₹)\s*`)
)

// ParseAmount reads a money cell. Currency markers, thousands separators and
// surrounding text are ignored; anything unparseable is zero.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	trimmed := currencyMark.ReplaceAllString(strings.TrimSpace(raw), "")
	match := amountToken.FindString(trimmed)
	if match == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseQuantity returns the leading numeric token of a quantity such as
// "2 kg" or "1.5kg". A missing or malformed number is zero.
func ParseQuantity(raw string) (decimal.Decimal, bool) {
	match := leadingNumber.FindString(strings.TrimSpace(raw))
	if match == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSuffix(match, "."), "+"))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePoints coerces a points cell to an integer. Spreadsheet values such
// as "12.0" are truncated; non-numeric cells count as zero.
func ParsePoints(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n, true
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, false
	}
	return d.Truncate(0).IntPart(), true
}

// ParseDate reads a date cell in loc. The zero time is returned when no
// known layout matches.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			t = t.In(loc)
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

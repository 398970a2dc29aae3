package deribit

import (
	"strconv"
	"strings"
	"time"

	"github.com/suwandre/odette/internal/models"
)

// ParsedInstrument holds the components encoded in an option instrument name.
type ParsedInstrument struct {
	Currency   string
	Expiry     time.Time // UTC midnight of the expiry day
	Strike     float64
	OptionType models.OptionType
}

var months = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// ParseInstrumentName decodes names like "BTC-11JUL25-60000-C" into their
// currency, expiry, strike and option type. The second return is false for
// anything that does not match the four-field shape; callers skip those
// instruments rather than treating them as errors.
func ParseInstrumentName(name string) (ParsedInstrument, bool) {
	parts := strings.Split(name, "-")
	if len(parts) != 4 {
		return ParsedInstrument{}, false
	}

	expiry, ok := parseExpiryCode(parts[1])
	if !ok {
		return ParsedInstrument{}, false
	}

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || strike <= 0 {
		return ParsedInstrument{}, false
	}

	var optionType models.OptionType
	switch parts[3] {
	case "C":
		optionType = models.Call
	case "P":
		optionType = models.Put
	default:
		return ParsedInstrument{}, false
	}

	return ParsedInstrument{
		Currency:   parts[0],
		Expiry:     expiry,
		Strike:     strike,
		OptionType: optionType,
	}, true
}

// parseExpiryCode decodes the compact expiry forms "2JUL25" (single-digit
// day) and "11JUL25" (double-digit day). Month abbreviations are uppercase
// JAN..DEC and the year resolves to 2000+YY.
func parseExpiryCode(code string) (time.Time, bool) {
	var dayStr, monthStr, yearStr string
	switch len(code) {
	case 6:
		dayStr, monthStr, yearStr = code[:1], code[1:4], code[4:]
	case 7:
		dayStr, monthStr, yearStr = code[:2], code[2:5], code[5:]
	default:
		return time.Time{}, false
	}

	if !allDigits(dayStr) || !allDigits(yearStr) {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(dayStr)
	year, _ := strconv.Atoi(yearStr)

	month, ok := months[monthStr]
	if !ok {
		return time.Time{}, false
	}

	date := time.Date(2000+year, month, day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day {
		// time.Date normalizes overflow days (e.g. 30FEB) into the next month
		return time.Time{}, false
	}
	return date, true
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

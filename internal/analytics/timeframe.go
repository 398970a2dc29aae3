package analytics

import (
	"math"
	"time"
)

// Timeframe buckets an option expiry relative to now. Every instrument
// belongs to exactly one bucket.
type Timeframe int

const (
	Current Timeframe = iota
	ZeroDTE
	OneWeek
	OneMonth
)

// timeframes lists all buckets in a stable order for iteration.
var timeframes = [...]Timeframe{Current, ZeroDTE, OneWeek, OneMonth}

func (t Timeframe) String() string {
	switch t {
	case ZeroDTE:
		return "0DTE"
	case OneWeek:
		return "1W"
	case OneMonth:
		return "1M"
	default:
		return "Current"
	}
}

// suffix is appended to level names. The current timeframe stays unsuffixed
// ("Call Resistance"), the rest carry their bucket ("Call Resistance 0DTE").
func (t Timeframe) suffix() string {
	if t == Current {
		return ""
	}
	return " " + t.String()
}

// bandDays is the canonical days-to-expiry proxy used for the band time
// factor. One figure per bucket, not the instrument's actual expiry.
func (t Timeframe) bandDays() float64 {
	switch t {
	case ZeroDTE:
		return 0.1
	case OneMonth:
		return 30
	default:
		return 7
	}
}

// settlementHourUTC is when Deribit options expire.
const settlementHourUTC = 8

// ClassifyExpiry assigns an expiry date to a timeframe bucket. Rules run in
// strict order, first match wins:
//
//  1. 0DTE when settlement (08:00 UTC on the expiry day) is strictly in the
//     future and at most 24h away;
//  2. Current when the expiry lands on the next Friday (a Friday "today"
//     never counts, the Friday a week out does);
//  3. 1W when the whole-day difference is 5..12;
//  4. 1M when it is 20..40;
//  5. Current otherwise.
func ClassifyExpiry(expiry, now time.Time) Timeframe {
	settlement := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), settlementHourUTC, 0, 0, 0, time.UTC)
	untilSettlement := settlement.Sub(now)
	if untilSettlement > 0 && untilSettlement <= 24*time.Hour {
		return ZeroDTE
	}

	if sameDay(expiry, nextFriday(now)) {
		return Current
	}

	days := math.Floor(expiry.Sub(now).Hours() / 24)
	switch {
	case days >= 5 && days <= 12:
		return OneWeek
	case days >= 20 && days <= 40:
		return OneMonth
	default:
		return Current
	}
}

// nextFriday returns the upcoming Friday relative to now; when now already
// is a Friday the Friday seven days out is used.
func nextFriday(now time.Time) time.Time {
	days := (int(time.Friday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

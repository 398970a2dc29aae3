package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Wednesday noon UTC.
var wednesdayNoon = time.Date(2025, time.July, 2, 12, 0, 0, 0, time.UTC)

func expiry(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassifyExpiry_ZeroDTE(t *testing.T) {
	// Settlement tomorrow 08:00 UTC is 20h away.
	assert.Equal(t, ZeroDTE, ClassifyExpiry(expiry(2025, time.July, 3), wednesdayNoon))
}

func TestClassifyExpiry_TodayAfterSettlementIsNotZeroDTE(t *testing.T) {
	// 08:00 UTC already passed at noon; falls through to the Current default.
	assert.Equal(t, Current, ClassifyExpiry(expiry(2025, time.July, 2), wednesdayNoon))
}

func TestClassifyExpiry_NextFridayIsCurrent(t *testing.T) {
	assert.Equal(t, Current, ClassifyExpiry(expiry(2025, time.July, 4), wednesdayNoon))
}

func TestClassifyExpiry_ZeroDTEWinsOverFridayRule(t *testing.T) {
	// Thursday noon: Friday's settlement is 20h away AND Friday is the next
	// Friday. Rule order keeps it 0DTE.
	thursdayNoon := time.Date(2025, time.July, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, ZeroDTE, ClassifyExpiry(expiry(2025, time.July, 4), thursdayNoon))
}

func TestClassifyExpiry_FridayRuleWinsOverOneWeek(t *testing.T) {
	// Friday morning after settlement: July 11 is the next Friday and also
	// 6 whole days out, which would match 1W. Rule order keeps it Current.
	fridayMorning := time.Date(2025, time.July, 4, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, Current, ClassifyExpiry(expiry(2025, time.July, 11), fridayMorning))
}

func TestClassifyExpiry_OneWeek(t *testing.T) {
	// 8 whole days out.
	assert.Equal(t, OneWeek, ClassifyExpiry(expiry(2025, time.July, 11), wednesdayNoon))
	// Boundaries: 5 and 12 whole days.
	assert.Equal(t, OneWeek, ClassifyExpiry(expiry(2025, time.July, 8), wednesdayNoon))
	assert.Equal(t, OneWeek, ClassifyExpiry(expiry(2025, time.July, 15), wednesdayNoon))
}

func TestClassifyExpiry_OneMonth(t *testing.T) {
	assert.Equal(t, OneMonth, ClassifyExpiry(expiry(2025, time.July, 30), wednesdayNoon))
	assert.Equal(t, OneMonth, ClassifyExpiry(expiry(2025, time.August, 11), wednesdayNoon))
}

func TestClassifyExpiry_FarExpiryDefaultsToCurrent(t *testing.T) {
	assert.Equal(t, Current, ClassifyExpiry(expiry(2025, time.September, 30), wednesdayNoon))
}

func TestClassifyExpiry_Deterministic(t *testing.T) {
	first := ClassifyExpiry(expiry(2025, time.July, 11), wednesdayNoon)
	second := ClassifyExpiry(expiry(2025, time.July, 11), wednesdayNoon)
	assert.Equal(t, first, second)
}

func TestNextFriday(t *testing.T) {
	// Wednesday -> this Friday.
	assert.Equal(t, expiry(2025, time.July, 4), nextFriday(expiry(2025, time.July, 2)))
	// Friday -> the Friday a week out, never today.
	assert.Equal(t, expiry(2025, time.July, 11), nextFriday(expiry(2025, time.July, 4)))
	// Saturday -> next week's Friday.
	assert.Equal(t, expiry(2025, time.July, 11), nextFriday(expiry(2025, time.July, 5)))
}

func TestTimeframeLabels(t *testing.T) {
	assert.Equal(t, "Current", Current.String())
	assert.Equal(t, "0DTE", ZeroDTE.String())
	assert.Equal(t, "1W", OneWeek.String())
	assert.Equal(t, "1M", OneMonth.String())

	assert.Equal(t, "", Current.suffix())
	assert.Equal(t, " 0DTE", ZeroDTE.suffix())
}

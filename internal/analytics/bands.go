package analytics

import (
	"math"

	"github.com/suwandre/odette/internal/models"
)

// defaultATMIV kicks in when no instrument near the money reports a usable
// implied volatility.
const defaultATMIV = 50.0

// atmWindow is the moneyness range treated as at-the-money.
const atmWindow = 0.05

// ATMIV averages mark IV (percentage units) across instruments whose strike
// sits within 5% of spot. Non-positive IVs are skipped; with no qualifying
// instrument the 50% default applies.
func ATMIV(instruments []models.Instrument, spot float64) float64 {
	var sum float64
	var count int
	for _, inst := range instruments {
		if math.Abs(inst.Strike-spot)/spot >= atmWindow {
			continue
		}
		if inst.MarkIV <= 0 {
			continue
		}
		sum += inst.MarkIV
		count++
	}
	if count == 0 {
		return defaultATMIV
	}
	return sum / float64(count)
}

// DynamicBand converts an IV level into the percentage band around spot used
// for strike filtering. Higher IV and longer expiries widen the band; the
// base is clamped to 10..50 before the time factor applies.
func DynamicBand(ivPct, daysToExpiry float64) float64 {
	baseBand := math.Max(10, math.Min(50, ivPct*0.3))

	var timeFactor float64
	switch {
	case daysToExpiry <= 1:
		timeFactor = 1.0
	case daysToExpiry <= 7:
		timeFactor = 1.2
	default:
		timeFactor = math.Min(2.0, 1.0+(daysToExpiry-7)/20)
	}

	return baseBand * timeFactor
}

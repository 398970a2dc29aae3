package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suwandre/odette/internal/models"
)

func optionAt(strike, oi, iv float64, typ models.OptionType) models.Instrument {
	return models.Instrument{
		Strike:       strike,
		OptionType:   typ,
		OpenInterest: oi,
		MarkIV:       iv,
	}
}

func TestATMIV_AveragesNearTheMoney(t *testing.T) {
	instruments := []models.Instrument{
		optionAt(2950, 10, 60, models.Call), // within 5% of 3000
		optionAt(3050, 10, 70, models.Put),  // within 5%
		optionAt(3200, 10, 90, models.Call), // 6.7% away, excluded
	}
	assert.InDelta(t, 65.0, ATMIV(instruments, 3000), 1e-9)
}

func TestATMIV_SkipsNonPositiveIV(t *testing.T) {
	instruments := []models.Instrument{
		optionAt(3000, 10, 0, models.Call),
		optionAt(3010, 10, -5, models.Put),
		optionAt(2990, 10, 55, models.Call),
	}
	assert.InDelta(t, 55.0, ATMIV(instruments, 3000), 1e-9)
}

func TestATMIV_FallbackWhenNothingQualifies(t *testing.T) {
	assert.Equal(t, 50.0, ATMIV(nil, 3000))
	assert.Equal(t, 50.0, ATMIV([]models.Instrument{optionAt(5000, 10, 80, models.Call)}, 3000))
}

func TestDynamicBand_BaseClamp(t *testing.T) {
	// 60 * 0.3 = 18, inside the 10..50 clamp, 0DTE time factor 1.0.
	assert.InDelta(t, 18.0, DynamicBand(60, 0.1), 1e-9)
	// Low IV floors at 10.
	assert.InDelta(t, 10.0, DynamicBand(5, 0.1), 1e-9)
	// Extreme IV caps at 50.
	assert.InDelta(t, 50.0, DynamicBand(500, 0.1), 1e-9)
}

func TestDynamicBand_TimeFactor(t *testing.T) {
	assert.InDelta(t, 18.0*1.2, DynamicBand(60, 7), 1e-9)
	// 30 days: factor min(2, 1+(30-7)/20) = 2.0.
	assert.InDelta(t, 18.0*2.0, DynamicBand(60, 30), 1e-9)
	// 15 days: factor 1+(15-7)/20 = 1.4.
	assert.InDelta(t, 18.0*1.4, DynamicBand(60, 15), 1e-9)
}

func TestDynamicBand_MonotonicInIV(t *testing.T) {
	previous := 0.0
	for iv := 0.0; iv <= 200; iv += 5 {
		band := DynamicBand(iv, 7)
		assert.GreaterOrEqual(t, band, previous, "band must not shrink as IV grows")
		previous = band
	}
}

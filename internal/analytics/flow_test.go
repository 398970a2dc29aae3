package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suwandre/odette/internal/models"
)

var flowNow = time.Date(2025, time.July, 2, 12, 0, 0, 0, time.UTC)

func optionTrade(id, instrument string, price, amount float64, direction string, age time.Duration) models.Trade {
	return models.Trade{
		TradeID:        id,
		InstrumentName: instrument,
		Price:          price,
		Amount:         amount,
		Direction:      direction,
		Timestamp:      flowNow.Add(-age).UnixMilli(),
	}
}

func TestDeltaSimple_AtExpiry(t *testing.T) {
	assert.Equal(t, 1.0, DeltaSimple(3000, 2900, 0, true))  // ITM call
	assert.Equal(t, 0.0, DeltaSimple(3000, 3100, 0, true))  // OTM call
	assert.Equal(t, 1.0, DeltaSimple(3000, 3100, 0, false)) // ITM put
	assert.Equal(t, 0.0, DeltaSimple(3000, 2900, 0, false)) // OTM put
}

func TestDeltaSimple_LinearRampAndClamp(t *testing.T) {
	// ATM is 0.5 either side.
	assert.InDelta(t, 0.5, DeltaSimple(3000, 3000, 1.0/365, true), 1e-9)
	assert.InDelta(t, 0.5, DeltaSimple(3000, 3000, 1.0/365, false), 1e-9)
	// 10% ITM call: 0.5 + 0.4*0.1 = 0.54.
	assert.InDelta(t, 0.54, DeltaSimple(3300, 3000, 1.0/365, true), 1e-9)
	// Deep OTM call stays on the ramp: 0.5 + 0.4*(1/3 - 1) = 0.2333; the put
	// side mirrors at 0.7667. The low clamp never binds for calls since the
	// ramp bottoms out at 0.1 as moneyness approaches zero.
	assert.InDelta(t, 0.5+0.4*(1.0/3-1), DeltaSimple(1000, 3000, 1.0/365, true), 1e-9)
	assert.InDelta(t, 0.5-0.4*(1.0/3-1), DeltaSimple(1000, 3000, 1.0/365, false), 1e-9)
	// Deep ITM call clamps at 0.95, the mirrored put at 0.05.
	assert.Equal(t, 0.95, DeltaSimple(9000, 3000, 1.0/365, true))
	assert.Equal(t, 0.05, DeltaSimple(9000, 3000, 1.0/365, false))
}

func TestFlowLevels_EmptyAndUnparsable(t *testing.T) {
	assert.Nil(t, FlowLevels(nil, 3000, flowNow))

	trades := []models.Trade{
		optionTrade("t1", "BTC-PERPETUAL", 0.05, 10, "buy", time.Hour),
		optionTrade("t2", "garbage", 0.05, 10, "buy", time.Hour),
		optionTrade("t3", "BTC-32JAN25-3100-C", 0.05, 10, "buy", time.Hour), // bad expiry day
		optionTrade("t4", "BTC-4JUL25-3100-C", 0, 10, "buy", time.Hour),     // zero price
		optionTrade("t5", "BTC-4JUL25-3100-C", 0.05, 0, "buy", time.Hour),   // zero amount
	}
	assert.Nil(t, FlowLevels(trades, 3000, flowNow))
}

func TestFlowLevels_DerivesAllLevels(t *testing.T) {
	trades := []models.Trade{
		// 3100 calls: notional 10*0.05*3000 = 1500 bought.
		optionTrade("t1", "BTC-4JUL25-3100-C", 0.05, 10, "buy", time.Hour),
		// 2900 puts: notional 8*0.05*3000 = 1200 sold.
		optionTrade("t2", "BTC-4JUL25-2900-P", 0.05, 8, "sell", time.Hour),
	}

	levels := FlowLevels(trades, 3000, flowNow)
	require.NotNil(t, levels)

	assert.Equal(t, 3100.0, levels["HVS"])
	assert.Equal(t, 3100.0, levels["Call Flow Resistance"])
	assert.Equal(t, 2900.0, levels["Put Flow Support"])
	// No strike has both call and put volume.
	assert.NotContains(t, levels, "Max Pain Flow")
	// VWAS = (3100*1500 + 2900*1200) / 2700.
	assert.InDelta(t, 8130000.0/2700.0, levels["VWAS"], 1e-6)
}

func TestFlowLevels_MaxPainPrefersBalancedStrikes(t *testing.T) {
	trades := []models.Trade{
		// 3000: perfectly balanced call/put volume.
		optionTrade("t1", "BTC-4JUL25-3000-C", 0.05, 10, "buy", time.Hour),
		optionTrade("t2", "BTC-4JUL25-3000-P", 0.05, 10, "buy", time.Hour),
		// 3100: lopsided 4:1.
		optionTrade("t3", "BTC-4JUL25-3100-C", 0.05, 20, "buy", time.Hour),
		optionTrade("t4", "BTC-4JUL25-3100-P", 0.05, 5, "buy", time.Hour),
	}

	levels := FlowLevels(trades, 3000, flowNow)
	require.NotNil(t, levels)
	assert.Equal(t, 3000.0, levels["Max Pain Flow"])
}

func TestFlowLevels_TimeDecayFavorsRecentFlow(t *testing.T) {
	// Same notional at both strikes, but the 3200 buy is two days stale and
	// its weighted flow decays well below the fresh 3100 print.
	trades := []models.Trade{
		optionTrade("t1", "BTC-4JUL25-3200-C", 0.05, 10, "buy", 48*time.Hour),
		optionTrade("t2", "BTC-4JUL25-3100-C", 0.05, 10, "buy", time.Minute),
	}

	levels := FlowLevels(trades, 3000, flowNow)
	require.NotNil(t, levels)
	assert.Equal(t, 3100.0, levels["Call Flow Resistance"])
}

func TestFlowLevels_SellsCountNegative(t *testing.T) {
	// Heavy selling above spot leaves a negative weighted flow; a small
	// fresh buy at 3050 still wins the resistance pick.
	trades := []models.Trade{
		optionTrade("t1", "BTC-4JUL25-3200-C", 0.05, 50, "sell", time.Hour),
		optionTrade("t2", "BTC-4JUL25-3050-C", 0.05, 2, "buy", time.Hour),
	}

	levels := FlowLevels(trades, 3000, flowNow)
	require.NotNil(t, levels)
	assert.Equal(t, 3050.0, levels["Call Flow Resistance"])
}

package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/suwandre/odette/internal/deribit"
	"github.com/suwandre/odette/internal/models"
)

// flowDecayHours controls the exponential time weighting of trade prints;
// a print this many hours old weighs 1/e of a fresh one.
const flowDecayHours = 12.0

// flowDeltaExpiry is the fixed time-to-expiry fed to the delta proxy during
// flow analysis, one day regardless of the option's actual expiry. Flow
// weighting cares about direction more than precise greeks.
const flowDeltaExpiry = 1.0 / 365

// strikeFlow accumulates per-strike trade pressure during one analysis pass.
type strikeFlow struct {
	totalVolume  float64
	netFlow      float64
	callVolume   float64
	putVolume    float64
	weightedFlow float64
}

// FlowLevels replays raw option trades and derives flow-based levels:
// highest-volume strike, the most balanced call/put strike, weighted call
// resistance and put support, and the volume-weighted average strike.
// Unparsable instruments and non-positive prices or amounts are skipped.
func FlowLevels(trades []models.Trade, spot float64, now time.Time) map[string]float64 {
	flows := make(map[float64]*strikeFlow)
	var totalVolume float64

	for _, trade := range trades {
		// Requires the full name to parse, expiry code included, even though
		// only strike and option type feed the flow math. A name with a bad
		// expiry is malformed data, not flow.
		parsed, ok := deribit.ParseInstrumentName(trade.InstrumentName)
		if !ok {
			continue
		}
		if trade.Amount <= 0 || trade.Price <= 0 {
			continue
		}

		notional := trade.Amount * trade.Price * spot
		totalVolume += notional

		hoursAgo := now.Sub(trade.Time()).Hours()
		timeWeight := math.Exp(-hoursAgo / flowDecayHours)

		isCall := parsed.OptionType == models.Call
		delta := DeltaSimple(spot, parsed.Strike, flowDeltaExpiry, isCall)
		exposure := notional * delta

		direction := -1.0
		if trade.Direction == "buy" {
			direction = 1.0
		}

		flow := flows[parsed.Strike]
		if flow == nil {
			flow = &strikeFlow{}
			flows[parsed.Strike] = flow
		}
		flow.totalVolume += notional
		flow.netFlow += exposure * direction
		flow.weightedFlow += exposure * direction * timeWeight
		if isCall {
			flow.callVolume += notional
		} else {
			flow.putVolume += notional
		}
	}

	if len(flows) == 0 {
		return nil
	}

	strikes := make([]float64, 0, len(flows))
	for strike := range flows {
		strikes = append(strikes, strike)
	}
	sort.Float64s(strikes)

	levels := make(map[string]float64)

	hvs := strikes[0]
	for _, strike := range strikes[1:] {
		if flows[strike].totalVolume > flows[hvs].totalVolume {
			hvs = strike
		}
	}
	levels["HVS"] = hvs

	// Max pain: the strike with the most balanced call/put volume, ties
	// broken by higher total volume.
	var havePain bool
	var painStrike, painRatio, painVolume float64
	for _, strike := range strikes {
		flow := flows[strike]
		if flow.callVolume <= 0 || flow.putVolume <= 0 {
			continue
		}
		ratio := math.Min(flow.callVolume, flow.putVolume) / math.Max(flow.callVolume, flow.putVolume)
		if !havePain || ratio > painRatio || (ratio == painRatio && flow.totalVolume > painVolume) {
			havePain = true
			painStrike, painRatio, painVolume = strike, ratio, flow.totalVolume
		}
	}
	if havePain {
		levels["Max Pain Flow"] = painStrike
	}

	var haveResistance bool
	var resistanceStrike, resistanceFlow float64
	for _, strike := range strikes {
		flow := flows[strike]
		if strike <= spot || flow.callVolume <= flow.putVolume {
			continue
		}
		if !haveResistance || flow.weightedFlow > resistanceFlow {
			haveResistance = true
			resistanceStrike, resistanceFlow = strike, flow.weightedFlow
		}
	}
	if haveResistance {
		levels["Call Flow Resistance"] = resistanceStrike
	}

	var haveSupport bool
	var supportStrike, supportFlow float64
	for _, strike := range strikes {
		flow := flows[strike]
		if strike >= spot || flow.putVolume <= flow.callVolume {
			continue
		}
		if !haveSupport || math.Abs(flow.weightedFlow) > supportFlow {
			haveSupport = true
			supportStrike, supportFlow = strike, math.Abs(flow.weightedFlow)
		}
	}
	if haveSupport {
		levels["Put Flow Support"] = supportStrike
	}

	if totalVolume > 0 {
		var weighted float64
		for _, strike := range strikes {
			weighted += strike * flows[strike].totalVolume
		}
		levels["VWAS"] = weighted / totalVolume
	}

	return levels
}

// DeltaSimple approximates option delta with a linear moneyness ramp clamped
// to 0.05..0.95. At or past expiry it collapses to 1 in the money and 0
// otherwise. Deliberately not Black-Scholes.
func DeltaSimple(spot, strike, timeToExpiry float64, isCall bool) float64 {
	if timeToExpiry <= 0 {
		if (isCall && spot > strike) || (!isCall && spot < strike) {
			return 1
		}
		return 0
	}

	moneyness := spot / strike
	if isCall {
		return clamp(0.5+0.4*(moneyness-1), 0.05, 0.95)
	}
	return clamp(0.5-0.4*(moneyness-1), 0.05, 0.95)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

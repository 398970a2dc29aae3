package analytics

import (
	"math"
	"sort"

	"github.com/suwandre/odette/internal/models"
)

// maxStrikesPerSide caps how many banded strikes feed the level pick.
const maxStrikesPerSide = 10

type strikeOI struct {
	strike float64
	oi     float64
}

// TimeframeLevels is what one timeframe contributes to the merged level set.
type TimeframeLevels struct {
	Levels       map[string]float64
	PutCallRatio float64
}

// StrikeLevels aggregates open interest per strike and side, filters strikes
// to the dynamic band around spot and picks the max-OI strike on each side
// as that timeframe's call resistance and put support. Levels with no
// qualifying strikes are omitted. The put/call ratio is computed over the
// banded sets only, and reported as 0 when either side sums to nothing.
func StrikeLevels(instruments []models.Instrument, tf Timeframe, spot, band float64) TimeframeLevels {
	callOI := make(map[float64]float64)
	putOI := make(map[float64]float64)
	for _, inst := range instruments {
		if inst.OpenInterest <= 0 {
			continue
		}
		if inst.IsCall() {
			callOI[inst.Strike] += inst.OpenInterest
		} else {
			putOI[inst.Strike] += inst.OpenInterest
		}
	}

	calls := filterCallStrikes(callOI, spot, band)
	puts := filterPutStrikes(putOI, spot, band)

	levels := make(map[string]float64)
	if strike, ok := maxOIStrike(calls); ok {
		levels["Call Resistance"+tf.suffix()] = strike
	}
	if strike, ok := maxOIStrike(puts); ok {
		levels["Put Support"+tf.suffix()] = strike
	}

	var callSum, putSum float64
	for _, entry := range calls {
		callSum += entry.oi
	}
	for _, entry := range puts {
		putSum += entry.oi
	}
	ratio := 0.0
	if callSum > 0 && putSum > 0 {
		ratio = putSum / callSum
	}

	return TimeframeLevels{Levels: levels, PutCallRatio: ratio}
}

// filterCallStrikes keeps strikes strictly above spot within the band, the
// ten nearest to spot.
func filterCallStrikes(oiByStrike map[float64]float64, spot, band float64) []strikeOI {
	upper := spot * (1 + band/100)
	var out []strikeOI
	for strike, oi := range oiByStrike {
		if strike > spot && strike <= upper {
			out = append(out, strikeOI{strike, oi})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].strike < out[j].strike })
	if len(out) > maxStrikesPerSide {
		out = out[:maxStrikesPerSide]
	}
	return out
}

// filterPutStrikes mirrors filterCallStrikes below spot.
func filterPutStrikes(oiByStrike map[float64]float64, spot, band float64) []strikeOI {
	lower := spot * (1 - band/100)
	var out []strikeOI
	for strike, oi := range oiByStrike {
		if strike < spot && strike >= lower {
			out = append(out, strikeOI{strike, oi})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].strike > out[j].strike })
	if len(out) > maxStrikesPerSide {
		out = out[:maxStrikesPerSide]
	}
	return out
}

// maxOIStrike returns the strike with the largest open interest; ties go to
// the entry nearest spot given the callers' sort order.
func maxOIStrike(entries []strikeOI) (float64, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	best := entries[0]
	for _, entry := range entries[1:] {
		if entry.oi > best.oi {
			best = entry
		}
	}
	return best.strike, true
}

// GammaWall estimates the strike where dealer gamma exposure concentrates,
// from 0DTE instruments only. The gamma weight decays linearly with
// moneyness, floored at 0.1; put open interest contributes negatively
// (dealer short-gamma convention). The strike with the largest-magnitude
// net contribution wins and is labeled by the sign of that net value.
func GammaWall(instruments []models.Instrument, spot float64) (name string, strike float64, ok bool) {
	net := make(map[float64]float64)
	for _, inst := range instruments {
		if inst.OpenInterest <= 0 {
			continue
		}
		moneyness := math.Abs(spot-inst.Strike) / spot
		weight := math.Max(0.1, 1-5*moneyness)
		contribution := weight * inst.OpenInterest
		if inst.IsPut() {
			contribution = -contribution
		}
		net[inst.Strike] += contribution
	}
	if len(net) == 0 {
		return "", 0, false
	}

	strikes := make([]float64, 0, len(net))
	for s := range net {
		strikes = append(strikes, s)
	}
	sort.Float64s(strikes)

	best := strikes[0]
	for _, s := range strikes[1:] {
		if math.Abs(net[s]) > math.Abs(net[best]) {
			best = s
		}
	}

	label := "Gamma Wall (Long Gamma)"
	if net[best] < 0 {
		label = "Gamma Wall (Short Gamma)"
	}
	return label, best, true
}

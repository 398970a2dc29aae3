package analytics

import (
	"math"
	"sort"

	"github.com/suwandre/odette/internal/models"
)

// HVL finds the discrete price bucket carrying the most traded futures
// volume. Zero or negative prices and amounts are skipped. Ties go to the
// lowest bucket.
func HVL(trades []models.Trade) (float64, bool) {
	buckets := make(map[float64]float64)
	for _, trade := range trades {
		if trade.Price <= 0 || trade.Amount <= 0 {
			continue
		}
		buckets[priceBucket(trade.Price)] += trade.Amount
	}
	if len(buckets) == 0 {
		return 0, false
	}

	levels := make([]float64, 0, len(buckets))
	for level := range buckets {
		levels = append(levels, level)
	}
	sort.Float64s(levels)

	best := levels[0]
	for _, level := range levels[1:] {
		if buckets[level] > buckets[best] {
			best = level
		}
	}
	return best, true
}

// priceBucket rounds sub-$1000 prices to the nearest ten cents and anything
// above to the nearest ten dollars.
func priceBucket(price float64) float64 {
	if price > 1000 {
		return math.Round(price/10) * 10
	}
	return math.Round(price*10) / 10
}

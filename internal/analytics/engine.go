package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/suwandre/odette/internal/deribit"
	"github.com/suwandre/odette/internal/models"
)

// Engine runs the full key-level pipeline for one currency per call. It
// holds no state between runs; every invocation fetches and derives fresh.
type Engine struct {
	client        *deribit.Client
	lookbackHours int
	chunkHours    int
}

// Options tunes the trade collection window; zero values fall back to the
// 24h/4h defaults.
type Options struct {
	LookbackHours int
	ChunkHours    int
}

func NewEngine(client *deribit.Client, opts Options) *Engine {
	if opts.LookbackHours <= 0 {
		opts.LookbackHours = deribit.DefaultLookbackHours
	}
	if opts.ChunkHours <= 0 {
		opts.ChunkHours = deribit.DefaultChunkHours
	}
	return &Engine{
		client:        client,
		lookbackHours: opts.LookbackHours,
		chunkHours:    opts.ChunkHours,
	}
}

// baseConfidence weights each level name before distance discounting.
// Unknown names fall back to defaultBaseConfidence.
var baseConfidence = map[string]float64{
	"1D Max": 0.8, "1D Min": 0.7, "HVL": 0.6,
	"Call Resistance": 0.5, "Put Support": 0.4,
	"Call Resistance 0DTE": 0.7, "Put Support 0DTE": 0.8,
	"Call Resistance 1W": 0.5, "Put Support 1W": 0.4,
	"Call Resistance 1M": 0.4, "Put Support 1M": 0.1,
	"Gamma Wall (Short Gamma)": 0.6, "Gamma Wall (Long Gamma)": 0.6,
	"HVS": 0.5, "Max Pain Flow": 0.4,
	"Call Flow Resistance": 0.4, "Put Flow Support": 0.4,
	"VWAS": 0.3,
}

const defaultBaseConfidence = 0.3

// GenerateKeyLevels fetches market data for a currency and derives its key
// price levels. A missing or non-positive spot price fails the run before
// any further fetching; after that the four top-level fetches run
// concurrently and any single failure fails the whole run.
func (e *Engine) GenerateKeyLevels(ctx context.Context, currency string) (*models.Result, error) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Str("currency", currency).Logger()

	spot, err := e.client.IndexPrice(ctx, currency)
	if err != nil {
		return nil, fmt.Errorf("fetch index price for %s: %w", currency, err)
	}
	if spot <= 0 {
		return nil, fmt.Errorf("no spot price available for %s", currency)
	}
	logger.Info().Float64("spot", spot).Msg("key level run started")

	var (
		stats         models.Stats24h
		instruments   []models.Instrument
		futuresTrades []models.Trade
		optionsTrades []models.Trade
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = e.client.Stats24h(gctx, currency)
		return err
	})
	g.Go(func() error {
		var err error
		instruments, err = e.client.OptionInstruments(gctx, currency)
		return err
	})
	g.Go(func() error {
		var err error
		futuresTrades, err = e.client.CollectTrades(gctx, currency, "future", e.lookbackHours, e.chunkHours)
		return err
	})
	g.Go(func() error {
		var err error
		optionsTrades, err = e.client.CollectTrades(gctx, currency, "option", e.lookbackHours, e.chunkHours)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch market data for %s: %w", currency, err)
	}

	now := time.Now().UTC()
	buckets := bucketByTimeframe(instruments, now)

	levels := make(map[string]float64)
	if stats.High24h > 0 {
		levels["1D Max"] = stats.High24h
	}
	if stats.Low24h > 0 {
		levels["1D Min"] = stats.Low24h
	}
	if hvl, ok := HVL(futuresTrades); ok {
		levels["HVL"] = hvl
	}

	putCallRatios := make(map[string]float64, len(timeframes))
	ivData := make(map[string]float64, len(timeframes))
	for _, tf := range timeframes {
		iv := ATMIV(buckets[tf], spot)
		ivData[tf.String()] = iv

		band := DynamicBand(iv, tf.bandDays())
		result := StrikeLevels(buckets[tf], tf, spot, band)
		for name, value := range result.Levels {
			levels[name] = value
		}
		putCallRatios[tf.String()] = result.PutCallRatio

		logger.Debug().
			Str("timeframe", tf.String()).
			Int("instruments", len(buckets[tf])).
			Float64("atm_iv", iv).
			Float64("band_pct", band).
			Msg("timeframe processed")
	}

	if name, strike, ok := GammaWall(buckets[ZeroDTE], spot); ok {
		levels[name] = strike
	}
	for name, value := range FlowLevels(optionsTrades, spot, now) {
		levels[name] = value
	}

	keyLevels := scoreLevels(levels, spot)
	logger.Info().
		Int("levels", len(keyLevels)).
		Int("instruments", len(instruments)).
		Int("futures_trades", len(futuresTrades)).
		Int("options_trades", len(optionsTrades)).
		Msg("key level run finished")

	return &models.Result{
		KeyLevels: keyLevels,
		Metadata: models.Metadata{
			RunID:               runID,
			Currency:            currency,
			SpotPrice:           spot,
			PutCallRatios:       putCallRatios,
			IVData:              ivData,
			InstrumentsAnalyzed: len(instruments),
			FuturesTrades:       len(futuresTrades),
			OptionsTrades:       len(optionsTrades),
			GeneratedAt:         now,
		},
	}, nil
}

// bucketByTimeframe assigns each instrument to exactly one timeframe.
func bucketByTimeframe(instruments []models.Instrument, now time.Time) map[Timeframe][]models.Instrument {
	buckets := make(map[Timeframe][]models.Instrument, len(timeframes))
	for _, inst := range instruments {
		tf := ClassifyExpiry(inst.Expiry, now)
		buckets[tf] = append(buckets[tf], inst)
	}
	return buckets
}

// scoreLevels turns the merged name->price map into confidence-scored key
// levels sorted ascending by absolute distance to spot. Non-positive prices
// never make it into the result.
func scoreLevels(levels map[string]float64, spot float64) []models.KeyLevel {
	out := make([]models.KeyLevel, 0, len(levels))
	for name, value := range levels {
		if value <= 0 {
			continue
		}
		distance := (value - spot) / spot * 100

		base, ok := baseConfidence[name]
		if !ok {
			base = defaultBaseConfidence
		}
		confidence := math.Min(1, base*math.Max(0.1, 1-math.Abs(distance)/100))

		out = append(out, models.KeyLevel{
			Name:           name,
			Value:          value,
			DistanceToSpot: distance,
			Confidence:     confidence,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return math.Abs(out[i].DistanceToSpot) < math.Abs(out[j].DistanceToSpot)
	})
	return out
}

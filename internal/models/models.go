package models

import "time"

// OptionType distinguishes calls from puts.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Instrument is a single Deribit option contract enriched with its parsed
// name components and book summary figures. Parsed once per fetch, immutable.
type Instrument struct {
	Name         string     `json:"instrument_name"`
	Currency     string     `json:"currency"`
	Expiry       time.Time  `json:"expiry_date"` // UTC midnight of the expiry day
	Strike       float64    `json:"strike"`
	OptionType   OptionType `json:"option_type"`
	OpenInterest float64    `json:"open_interest"`
	MarkIV       float64    `json:"mark_iv"` // percentage, e.g. 62.5
	Volume       float64    `json:"volume"`
}

func (i Instrument) IsCall() bool { return i.OptionType == Call }
func (i Instrument) IsPut() bool  { return i.OptionType == Put }

// Trade is a single print from the public trade history endpoints.
type Trade struct {
	TradeID        string  `json:"trade_id"`
	InstrumentName string  `json:"instrument_name"`
	Price          float64 `json:"price"`
	Amount         float64 `json:"amount"`
	Direction      string  `json:"direction"` // "buy" or "sell"
	Timestamp      int64   `json:"timestamp"` // ms since epoch
}

// Time returns the trade timestamp as a UTC instant.
func (t Trade) Time() time.Time {
	return time.UnixMilli(t.Timestamp).UTC()
}

// Stats24h holds the rolling 24h figures taken from the perpetual's book summary.
type Stats24h struct {
	High24h   float64 `json:"high_24h"`
	Low24h    float64 `json:"low_24h"`
	LastPrice float64 `json:"last_price"`
}

// KeyLevel is one derived price level. The final set is sorted ascending by
// absolute distance to spot.
type KeyLevel struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	DistanceToSpot float64 `json:"distance_to_spot"` // signed percentage
	Confidence     float64 `json:"confidence"`       // 0..1
}

// Metadata describes one analytics run.
type Metadata struct {
	RunID               string             `json:"run_id"`
	Currency            string             `json:"currency"`
	SpotPrice           float64            `json:"spot_price"`
	PutCallRatios       map[string]float64 `json:"put_call_ratios"`
	IVData              map[string]float64 `json:"iv_data"`
	InstrumentsAnalyzed int                `json:"instruments_analyzed"`
	FuturesTrades       int                `json:"futures_trades"`
	OptionsTrades       int                `json:"options_trades"`
	GeneratedAt         time.Time          `json:"generated_at"`
}

// Result is what the engine hands to presentation code.
type Result struct {
	KeyLevels []KeyLevel `json:"key_levels"`
	Metadata  Metadata   `json:"metadata"`
}

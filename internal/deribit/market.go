package deribit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/suwandre/odette/internal/models"
)

const (
	// DefaultLookbackHours is how far back trade collection reaches.
	DefaultLookbackHours = 24
	// DefaultChunkHours bounds each trade history request window.
	DefaultChunkHours = 4

	tradesPerChunk = 1000
)

// bookSummaryRow matches one entry of get_book_summary_by_currency. Price
// fields are pointers because Deribit reports null when nothing traded.
type bookSummaryRow struct {
	InstrumentName string   `json:"instrument_name"`
	High           *float64 `json:"high"`
	Low            *float64 `json:"low"`
	Last           *float64 `json:"last"`
	OpenInterest   float64  `json:"open_interest"`
	MarkIV         float64  `json:"mark_iv"`
	Volume         float64  `json:"volume"`
}

// IndexPrice fetches the current index price for a currency.
func (c *Client) IndexPrice(ctx context.Context, currency string) (float64, error) {
	params := url.Values{}
	params.Set("index_name", strings.ToLower(currency)+"_usd")

	raw, err := c.get(ctx, "/public/get_index_price", params)
	if err != nil {
		return 0, err
	}

	var out struct {
		IndexPrice float64 `json:"index_price"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, fmt.Errorf("deribit: failed to parse index price: %w", err)
	}
	return out.IndexPrice, nil
}

// Stats24h pulls 24h high/low/last from the perpetual's book summary.
func (c *Client) Stats24h(ctx context.Context, currency string) (models.Stats24h, error) {
	rows, err := c.bookSummary(ctx, currency, "future")
	if err != nil {
		return models.Stats24h{}, err
	}

	for _, row := range rows {
		if strings.HasSuffix(row.InstrumentName, "-PERPETUAL") {
			return models.Stats24h{
				High24h:   floatOrZero(row.High),
				Low24h:    floatOrZero(row.Low),
				LastPrice: floatOrZero(row.Last),
			}, nil
		}
	}
	return models.Stats24h{}, nil
}

// OptionInstruments fetches the option book summary and keeps every
// instrument whose name parses; the rest are silently skipped.
func (c *Client) OptionInstruments(ctx context.Context, currency string) ([]models.Instrument, error) {
	rows, err := c.bookSummary(ctx, currency, "option")
	if err != nil {
		return nil, err
	}

	instruments := make([]models.Instrument, 0, len(rows))
	for _, row := range rows {
		parsed, ok := ParseInstrumentName(row.InstrumentName)
		if !ok {
			continue
		}
		instruments = append(instruments, models.Instrument{
			Name:         row.InstrumentName,
			Currency:     parsed.Currency,
			Expiry:       parsed.Expiry,
			Strike:       parsed.Strike,
			OptionType:   parsed.OptionType,
			OpenInterest: row.OpenInterest,
			MarkIV:       row.MarkIV,
			Volume:       row.Volume,
		})
	}

	log.Debug().
		Str("currency", currency).
		Int("listed", len(rows)).
		Int("parsed", len(instruments)).
		Msg("option instruments fetched")
	return instruments, nil
}

func (c *Client) bookSummary(ctx context.Context, currency, kind string) ([]bookSummaryRow, error) {
	params := url.Values{}
	params.Set("currency", currency)
	params.Set("kind", kind)

	raw, err := c.get(ctx, "/public/get_book_summary_by_currency", params)
	if err != nil {
		return nil, err
	}

	var rows []bookSummaryRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("deribit: failed to parse %s book summary: %w", kind, err)
	}
	return rows, nil
}

// tradesPage is the normalized shape of one trade history response.
type tradesPage struct {
	Trades  []models.Trade `json:"trades"`
	HasMore bool           `json:"has_more"`
}

// decodeTradesPage resolves the two payload shapes the trades endpoint can
// produce, an object carrying a trades array plus paging flag or a bare
// array, into one uniform page.
func decodeTradesPage(raw json.RawMessage) (tradesPage, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var trades []models.Trade
		if err := json.Unmarshal(trimmed, &trades); err != nil {
			return tradesPage{}, fmt.Errorf("deribit: failed to parse trades array: %w", err)
		}
		return tradesPage{Trades: trades}, nil
	}

	var page tradesPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return tradesPage{}, fmt.Errorf("deribit: failed to parse trades page: %w", err)
	}
	return page, nil
}

// CollectTrades fetches trade history for one kind ("option" or "future")
// over the lookback window, split into contiguous most-recent-first chunks.
// Trades are deduplicated globally by trade id; the first occurrence wins.
// Chunk requests run strictly sequentially with a fixed pause between them
// to bound request rate against the exchange.
func (c *Client) CollectTrades(ctx context.Context, currency, kind string, hoursBack, chunkHours int) ([]models.Trade, error) {
	if hoursBack <= 0 {
		hoursBack = DefaultLookbackHours
	}
	if chunkHours <= 0 {
		chunkHours = DefaultChunkHours
	}

	end := time.Now().UTC()
	totalChunks := (hoursBack + chunkHours - 1) / chunkHours

	seen := make(map[string]struct{})
	var trades []models.Trade

	for idx := 0; idx < totalChunks; idx++ {
		if idx > 0 {
			if err := sleep(ctx, c.chunkPause); err != nil {
				return nil, err
			}
		}

		startHours := idx * chunkHours
		endHours := (idx + 1) * chunkHours
		if endHours > hoursBack {
			endHours = hoursBack
		}
		chunkEnd := end.Add(-time.Duration(startHours) * time.Hour)
		chunkStart := end.Add(-time.Duration(endHours) * time.Hour)

		params := url.Values{}
		params.Set("currency", currency)
		params.Set("kind", kind)
		params.Set("start_timestamp", strconv.FormatInt(chunkStart.UnixMilli(), 10))
		params.Set("end_timestamp", strconv.FormatInt(chunkEnd.UnixMilli(), 10))
		params.Set("count", strconv.Itoa(tradesPerChunk))
		params.Set("sorting", "desc")

		raw, err := c.get(ctx, "/public/get_last_trades_by_currency_and_time", params)
		if err != nil {
			return nil, err
		}
		page, err := decodeTradesPage(raw)
		if err != nil {
			return nil, err
		}
		if page.HasMore {
			log.Warn().
				Str("kind", kind).
				Int("chunk", idx+1).
				Msg("chunk reports more trades than returned, coverage may be incomplete")
		}

		added := 0
		for _, trade := range page.Trades {
			if trade.TradeID == "" {
				continue
			}
			if _, dup := seen[trade.TradeID]; dup {
				continue
			}
			seen[trade.TradeID] = struct{}{}
			trades = append(trades, trade)
			added++
		}

		log.Debug().
			Str("kind", kind).
			Int("chunk", idx+1).
			Int("chunks", totalChunks).
			Int("fetched", len(page.Trades)).
			Int("unique", added).
			Msg("trade chunk collected")
	}

	logCoverage(kind, trades, hoursBack)
	return trades, nil
}

// logCoverage compares the observed trade span against the requested window.
// Informational only; the returned dataset is unaffected.
func logCoverage(kind string, trades []models.Trade, hoursBack int) {
	var earliest, latest int64
	for _, trade := range trades {
		if trade.Timestamp <= 0 {
			continue
		}
		if earliest == 0 || trade.Timestamp < earliest {
			earliest = trade.Timestamp
		}
		if trade.Timestamp > latest {
			latest = trade.Timestamp
		}
	}
	if earliest == 0 {
		return
	}

	coveredHours := float64(latest-earliest) / float64(time.Hour.Milliseconds())
	log.Info().
		Str("kind", kind).
		Int("trades", len(trades)).
		Float64("covered_hours", coveredHours).
		Float64("coverage_pct", coveredHours/float64(hoursBack)*100).
		Msg("trade history coverage")
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

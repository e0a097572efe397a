package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taichungmao-blip/soybean-monitor/internal/metrics"
	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// Cache serves previously acquired columns when the upstream feed is down.
type Cache interface {
	DailyCloses(ticker string, maxStaleDays int) ([]model.Candle, error)
	PutDailyCloses(ticker string, candles []model.Candle) error
}

// Collector fetches the commodity and every configured equity and assembles
// the aligned price table the calculators consume.
type Collector struct {
	Fetcher         Fetcher
	Cache           Cache // optional
	CommodityTicker string
	EquityTickers   []string
	LookbackDays    int
	MaxStaleDays    int
	Metrics         *metrics.Metrics // optional
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, commodity string, equities []string, lookbackDays int) *Collector {
	return &Collector{
		Fetcher:         fetcher,
		CommodityTicker: commodity,
		EquityTickers:   equities,
		LookbackDays:    lookbackDays,
	}
}

// Collect fetches every ticker and builds the aligned PriceTable: dates are
// the union of trading days, gaps are forward-filled from each column's own
// history, and leading rows are trimmed until every column has a value. Any
// unreachable or empty column fails the whole collection; a partial table is
// never returned.
func (c *Collector) Collect(ctx context.Context) (*model.PriceTable, error) {
	tickers := append([]string{c.CommodityTicker}, c.EquityTickers...)

	raw := make(map[string][]model.Candle, len(tickers))
	for _, tk := range tickers {
		candles, err := c.fetchColumn(ctx, tk)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %v: %w", tk, err, ErrAcquisition)
		}
		if len(candles) == 0 {
			return nil, fmt.Errorf("collect %s: empty column: %w", tk, ErrAcquisition)
		}
		raw[tk] = candles
	}

	table, err := alignColumns(tickers, raw)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// fetchColumn fetches one ticker, falling back to the snapshot cache when the
// upstream fails and a fresh-enough column exists.
func (c *Collector) fetchColumn(ctx context.Context, ticker string) ([]model.Candle, error) {
	start := time.Now()
	candles, err := c.Fetcher.FetchDailyCloses(ctx, ticker, c.LookbackDays)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(start), err)
	if err == nil {
		if c.Cache != nil {
			if putErr := c.Cache.PutDailyCloses(ticker, candles); putErr != nil {
				log.Warn().Err(putErr).Str("ticker", ticker).Msg("snapshot cache write failed")
			}
		}
		return candles, nil
	}

	if c.Cache == nil {
		return nil, err
	}
	cached, cacheErr := c.Cache.DailyCloses(ticker, c.MaxStaleDays)
	if cacheErr != nil || len(cached) == 0 {
		c.Metrics.CacheMiss("daily_closes")
		return nil, err
	}
	c.Metrics.CacheHit("daily_closes")
	log.Warn().Err(err).Str("ticker", ticker).Int("rows", len(cached)).
		Msg("upstream fetch failed, using cached column")
	return cached, nil
}

const dateKey = "2006-01-02"

// alignColumns merges per-ticker candles onto the union of trading dates,
// carries each column's most recent close forward over gaps, and trims
// leading dates where some column has no prior observation to carry.
func alignColumns(tickers []string, raw map[string][]model.Candle) (*model.PriceTable, error) {
	dates := make(map[string]time.Time)
	byTicker := make(map[string]map[string]float64, len(tickers))
	for _, tk := range tickers {
		col := make(map[string]float64, len(raw[tk]))
		for _, cd := range raw[tk] {
			k := cd.Date.Format(dateKey)
			col[k] = cd.Close
			if _, ok := dates[k]; !ok {
				dates[k] = time.Date(cd.Date.Year(), cd.Date.Month(), cd.Date.Day(), 0, 0, 0, 0, time.UTC)
			}
		}
		byTicker[tk] = col
	}

	keys := make([]string, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Forward-fill each column over the full union first, so a column whose
	// own calendar skips the eventual start date still carries its most
	// recent prior close into row 0. Rows before a column's first observation
	// have no value to carry; the trim below removes them.
	start := 0
	filled := make(map[string][]float64, len(tickers))
	for _, tk := range tickers {
		col := make([]float64, len(keys))
		first := -1
		last := 0.0
		for i, k := range keys {
			if v, ok := byTicker[tk][k]; ok {
				last = v
				if first < 0 {
					first = i
				}
			}
			col[i] = last
		}
		if first < 0 {
			return nil, fmt.Errorf("align %s: no observations: %w", tk, ErrAcquisition)
		}
		if first > start {
			start = first
		}
		filled[tk] = col
	}
	keys = keys[start:]
	if len(keys) == 0 {
		return nil, fmt.Errorf("align: no overlapping trading dates: %w", ErrAcquisition)
	}

	table := &model.PriceTable{
		Dates:   make([]time.Time, len(keys)),
		Tickers: tickers,
		Columns: make(map[string][]float64, len(tickers)),
	}
	for i, k := range keys {
		table.Dates[i] = dates[k]
	}
	for _, tk := range tickers {
		table.Columns[tk] = filled[tk][start:]
	}
	return table, nil
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Closes map[string][]model.Candle // per-ticker canned data
	Errs   map[string]error          // per-ticker forced failures
	Base   float64                   // synthetic base price when no canned data
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCloses(_ context.Context, ticker string, lookbackDays int) ([]model.Candle, error) {
	if err, ok := m.Errs[ticker]; ok {
		return nil, err
	}
	if c, ok := m.Closes[ticker]; ok {
		return c, nil
	}
	base := m.Base
	if base == 0 {
		base = 100
	}
	candles := make([]model.Candle, lookbackDays)
	day := time.Now().UTC().AddDate(0, 0, -lookbackDays)
	for i := range candles {
		candles[i] = model.Candle{
			Date:  time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close: base * (1 + float64(i-lookbackDays/2)*0.001),
		}
	}
	return candles, nil
}

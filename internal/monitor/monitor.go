package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taichungmao-blip/soybean-monitor/internal/calculator"
	"github.com/taichungmao-blip/soybean-monitor/internal/collector"
	"github.com/taichungmao-blip/soybean-monitor/internal/metrics"
	"github.com/taichungmao-blip/soybean-monitor/internal/model"
	"github.com/taichungmao-blip/soybean-monitor/internal/notifier"
	"github.com/taichungmao-blip/soybean-monitor/internal/report"
	"github.com/taichungmao-blip/soybean-monitor/internal/revenue"
)

// ErrRunInFlight is returned when a run is requested while one is executing.
var ErrRunInFlight = errors.New("a run is already in flight")

// Notifier delivers the formatted report. Satisfied by notifier.DiscordNotifier.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, image []byte, maxRetries int) error
}

// ChartFunc renders the normalized comparison chart as a PNG.
type ChartFunc func(norm *model.NormalizedTable, commodityTicker string) ([]byte, error)

// Monitor orchestrates one batch: acquire prices and revenues, build the
// report, render the chart, notify. Chart and notification failures degrade
// the run; acquisition failures abort it.
type Monitor struct {
	Collector   *collector.Collector
	Revenue     revenue.Source
	Notifier    Notifier  // nil: skip notification (dry run)
	RenderChart ChartFunc // nil: text-only notifications
	Params      report.Params
	Metrics     *metrics.Metrics
	MaxRetries  int

	running atomic.Bool
	mu      sync.Mutex
	latest  *model.Report
}

// RunOnce executes one monitoring batch. Only one run may be in flight.
func (m *Monitor) RunOnce(ctx context.Context) (*model.Report, error) {
	if !m.running.CompareAndSwap(false, true) {
		return nil, ErrRunInFlight
	}
	defer m.running.Store(false)

	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID[:8]).Logger()
	start := time.Now()

	rep, err := m.run(ctx, runID, logger)
	m.Metrics.ObserveRun(time.Since(start), err)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		return nil, err
	}

	m.mu.Lock()
	m.latest = rep
	m.mu.Unlock()

	logger.Info().Int("equities", len(rep.Equities)).Int("skipped", len(rep.Skipped)).
		Dur("took", time.Since(start)).Msg("run complete")
	return rep, nil
}

func (m *Monitor) run(ctx context.Context, runID string, logger zerolog.Logger) (*model.Report, error) {
	table, err := m.Collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	logger.Info().Int("rows", table.Rows()).Int("tickers", len(table.Tickers)).Msg("price table collected")

	revenues := m.collectRevenues(ctx, logger)

	rep, err := report.Build(table, revenues, m.Params)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	rep.RunID = runID
	for _, eq := range rep.Equities {
		m.Metrics.CountRecommendation(eq.Recommendation)
	}

	image := m.renderChart(table, logger)
	m.notify(ctx, rep, image, logger)
	return rep, nil
}

// collectRevenues gathers one YoY value per equity. A failing source only
// degrades that equity to the absent default, never the run.
func (m *Monitor) collectRevenues(ctx context.Context, logger zerolog.Logger) map[string]model.Revenue {
	revenues := make(map[string]model.Revenue, len(m.Params.EquityTickers))
	if m.Revenue == nil {
		return revenues
	}
	for _, eq := range m.Params.EquityTickers {
		code := revenue.CodeFromTicker(eq)
		yoy, known, err := m.Revenue.RevenueYoY(ctx, code)
		if err != nil && !known {
			logger.Warn().Err(err).Str("code", code).Msg("revenue unavailable, using neutral default")
		}
		if !known {
			yoy = 0.0
		}
		revenues[eq] = model.Revenue{YoYPct: yoy, Known: known}
	}
	return revenues
}

// renderChart is best-effort: a chart failure yields a text-only notification.
func (m *Monitor) renderChart(table *model.PriceTable, logger zerolog.Logger) []byte {
	if m.RenderChart == nil {
		return nil
	}
	norm, err := calculator.Normalize(table)
	if err != nil {
		logger.Warn().Err(err).Msg("chart normalization failed, continuing without image")
		return nil
	}
	image, err := m.RenderChart(norm, m.Params.CommodityTicker)
	if err != nil {
		logger.Warn().Err(err).Msg("chart render failed, continuing without image")
		return nil
	}
	return image
}

// notify is best-effort: delivery failure is logged and counted, not returned.
func (m *Monitor) notify(ctx context.Context, rep *model.Report, image []byte, logger zerolog.Logger) {
	if m.Notifier == nil {
		return
	}
	text := notifier.FormatReport(rep)
	if err := m.Notifier.SendWithRetry(ctx, text, image, m.MaxRetries); err != nil {
		m.Metrics.NotifyFailed()
		logger.Error().Err(err).Msg("notification failed after all retries")
	}
}

// Latest returns the most recent successful report, nil before the first run.
func (m *Monitor) Latest() *model.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest
}

// Running reports whether a run is currently in flight.
func (m *Monitor) Running() bool { return m.running.Load() }

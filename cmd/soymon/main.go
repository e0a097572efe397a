package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/taichungmao-blip/soybean-monitor/internal/chart"
	"github.com/taichungmao-blip/soybean-monitor/internal/collector"
	"github.com/taichungmao-blip/soybean-monitor/internal/config"
	"github.com/taichungmao-blip/soybean-monitor/internal/metrics"
	"github.com/taichungmao-blip/soybean-monitor/internal/monitor"
	"github.com/taichungmao-blip/soybean-monitor/internal/notifier"
	"github.com/taichungmao-blip/soybean-monitor/internal/report"
	"github.com/taichungmao-blip/soybean-monitor/internal/revenue"
	"github.com/taichungmao-blip/soybean-monitor/internal/scheduler"
	"github.com/taichungmao-blip/soybean-monitor/internal/server"
	"github.com/taichungmao-blip/soybean-monitor/internal/store"
	"github.com/taichungmao-blip/soybean-monitor/internal/strategy"
)

const version = "v1.2.0"

var cfgPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "soymon",
		Short:   "Soybean cost monitor for Taiwan food equities",
		Version: version,
		Long: "soymon compares the CBOT soybean price against a basket of soybean-dependent\n" +
			"Taiwan equities, classifies each into a trading signal, and posts the daily\n" +
			"report to a Discord webhook.",
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "configs/config.yaml", "path to config file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one monitoring batch and exit",
		RunE:  runOnce,
	}
	runCmd.Flags().String("format", "text", "output format: text, table, or json")
	runCmd.Flags().Bool("dry-run", false, "print the report instead of posting to Discord")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a cron daemon with the admin/metrics endpoint",
		RunE:  serve,
	}

	classifyCmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single 4-tuple of inputs",
		Long:  "Probe the decision table directly: supply the four inputs and print the resulting recommendation.",
		RunE:  classify,
	}
	classifyCmd.Flags().Float64("equity-trend", 0, "equity short-window trend %")
	classifyCmd.Flags().Float64("commodity-trend", 0, "commodity short-window trend %")
	classifyCmd.Flags().Float64("spread", 0, "normalized performance spread")
	classifyCmd.Flags().Float64("revenue-yoy", 0, "revenue year-over-year %")

	rootCmd.AddCommand(runCmd, serveCmd, classifyCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	return cfg, nil
}

// buildMonitor wires the full pipeline from config. The snapshot store is
// returned separately so callers can close it.
func buildMonitor(cfg *config.Config, dryRun bool) (*monitor.Monitor, store.Store, error) {
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source selected")

	var st store.Store
	if cfg.Cache.SQLitePath != "" {
		sq, err := store.NewSQLiteStore(cfg.Cache.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite store unavailable, snapshot cache disabled")
			st = store.NewNoopStore()
		} else {
			st = sq
		}
	} else {
		st = store.NewNoopStore()
	}

	m := metrics.New()

	col := collector.NewCollector(fetcher, cfg.Strategy.CommodityTicker, cfg.Strategy.EquityTickers, cfg.Strategy.LookbackDays)
	col.Cache = st
	col.MaxStaleDays = cfg.Cache.MaxStaleDays
	col.Metrics = m

	revSrc := revenue.NewFinMindSource(cfg.Revenue.BaseURL, cfg.Revenue.Token, cfg.Proxy)
	revSrc.Memo = st

	var notif monitor.Notifier
	if dryRun {
		log.Info().Msg("dry run, notifications disabled")
	} else if cfg.Discord.WebhookURL == "" {
		log.Warn().Msg("no Discord webhook configured, notifications disabled")
	} else {
		dn, err := notifier.NewDiscordNotifier(cfg.Discord.WebhookURL, cfg.Proxy)
		if err != nil {
			st.Close()
			return nil, nil, err
		}
		notif = dn
	}

	mon := &monitor.Monitor{
		Collector:   col,
		Revenue:     revSrc,
		Notifier:    notif,
		RenderChart: chart.Render,
		Params: report.Params{
			CommodityTicker: cfg.Strategy.CommodityTicker,
			EquityTickers:   cfg.Strategy.EquityTickers,
			TickerNames:     cfg.Strategy.TickerNames,
			LookbackDays:    cfg.Strategy.LookbackDays,
			WindowDays:      cfg.Strategy.WindowDays,
		},
		Metrics:    m,
		MaxRetries: 3,
	}
	return mon, st, nil
}

func runOnce(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mon, st, err := buildMonitor(cfg, dryRun)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rep, err := mon.RunOnce(ctx)
	if err != nil {
		return err
	}

	switch format {
	case "table":
		report.RenderTable(os.Stdout, rep)
	case "json":
		return report.RenderJSON(os.Stdout, rep)
	default:
		fmt.Print(notifier.FormatReport(rep))
	}
	return nil
}

func serve(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mon, st, err := buildMonitor(cfg, false)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, mon)
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(cfg.Server.Addr, mon, mon.Metrics.Handler())
	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("admin server failed")
		}
	}()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing a run now")
		go func() {
			if _, err := mon.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("startup run failed")
			}
		}()
	}

	log.Info().Str("cron", cfg.Schedule.DailyCron).Msg("soymon is running, Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func classify(cmd *cobra.Command, _ []string) error {
	equityTrend, _ := cmd.Flags().GetFloat64("equity-trend")
	commodityTrend, _ := cmd.Flags().GetFloat64("commodity-trend")
	spread, _ := cmd.Flags().GetFloat64("spread")
	revenueYoY, _ := cmd.Flags().GetFloat64("revenue-yoy")

	rec := strategy.Classify(strategy.Inputs{
		EquityTrendPct:    equityTrend,
		CommodityTrendPct: commodityTrend,
		Spread:            spread,
		RevenueYoYPct:     revenueYoY,
	})

	fmt.Printf("%s %s  [%s]\n", rec.HeadlineIcon, rec.HeadlineText, rec.Category)
	fmt.Printf("%s | %s\n", rec.CostStatus, rec.MetricsSummary)
	if rec.Qualifier != "" {
		fmt.Println(rec.QualifierNote)
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"scanbot/internal/broker"
	"scanbot/internal/config"
	"scanbot/internal/engine"
	"scanbot/internal/ledger"
	"scanbot/internal/market"
	"scanbot/internal/metrics"
	"scanbot/internal/notify"
	"scanbot/internal/paper"
	"scanbot/internal/risk"
	"scanbot/internal/strategy"
	"scanbot/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := util.NewLogger("info")
		l.Fatal().Err(err).Msg("load config")
	}
	cfg.ApplyEnv()
	log := util.NewLogger(cfg.App.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	symbols, err := cfg.Trading.ResolveSymbols()
	if err != nil {
		log.Fatal().Err(err).Msg("resolve symbols")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	data := buildMarket(ctx, cfg, symbols, log)
	port := buildBroker(cfg, log)

	trades, err := ledger.Open(cfg.Trading.LedgerPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open ledger")
	}
	defer trades.Close()

	strat := strategy.Build(cfg.Trading.Strategy.Mode, strategyParams(cfg.Trading.Strategy.Params))
	eng := engine.New(engine.Settings{
		Symbols:         symbols,
		Live:            cfg.Broker.Live,
		CapitalPerTrade: cfg.Trading.CapitalPerTrade,
		TakeProfitPct:   cfg.Trading.TakeProfitPct,
		StopLossPct:     cfg.Trading.StopLossPct,
		LookbackBars:    cfg.Market.LookbackBars,
		Interval:        cfg.Market.Interval,
		Limits:          risk.Limits{MaxNotionalPerTrade: cfg.Trading.MaxNotionalPerTrade},
	}, data, strat, port, trades, buildNotifier(cfg, log), log)

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("tz", cfg.Schedule.Timezone).Msg("unknown timezone, using UTC")
		loc = time.UTC
	}

	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(cfg.Schedule.TradeCron, func() { _ = eng.RunOnce(ctx) }); err != nil {
		log.Fatal().Err(err).Msg("bad trade cron spec")
	}
	if _, err := scheduler.AddFunc(cfg.Schedule.SummaryCron, func() { _ = eng.EmitSummary(ctx) }); err != nil {
		log.Fatal().Err(err).Msg("bad summary cron spec")
	}
	scheduler.Start()
	log.Info().Str("trade", cfg.Schedule.TradeCron).Str("summary", cfg.Schedule.SummaryCron).Str("tz", loc.String()).Msg("scheduler started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
	<-scheduler.Stop().Done()
}

func buildMarket(ctx context.Context, cfg *config.Config, symbols []string, log zerolog.Logger) market.MarketData {
	ttl := time.Duration(cfg.Market.QuoteTTLSecs) * time.Second

	var data market.MarketData
	switch cfg.Market.Provider {
	case "stream":
		inner := market.NewYahoo(cfg.Market.BaseURL, log)
		stream := market.NewStream(cfg.Market.StreamURL, symbols, inner, ttl, log)
		go func() {
			if err := stream.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("price stream stopped")
			}
		}()
		data = stream
	case "stub":
		data = &market.Stub{}
	default:
		data = market.NewYahoo(cfg.Market.BaseURL, log)
	}
	return market.NewCache(data, ttl)
}

func buildBroker(cfg *config.Config, log zerolog.Logger) broker.OrderPort {
	switch cfg.Broker.Name {
	case "fyers":
		return broker.NewFyers(cfg.Broker.BaseURL, cfg.Broker.AppID, cfg.Broker.AccessToken, log)
	case "angel":
		return broker.NewAngel(cfg.Broker.BaseURL, cfg.Broker.APIKey, cfg.Broker.JWT, log)
	default:
		cash := cfg.Broker.StartingCash
		if cash <= 0 {
			cash = 100000
		}
		return paper.NewPort(paper.NewAccount(cash), log)
	}
}

func buildNotifier(cfg *config.Config, log zerolog.Logger) notify.Notifier {
	channels := notify.Multi{notify.NewLogNotifier(log)}
	if cfg.Alerts.TelegramToken != "" && cfg.Alerts.TelegramChatID != "" {
		channels = append(channels, notify.NewTelegram("", cfg.Alerts.TelegramToken, cfg.Alerts.TelegramChatID))
	}
	if cfg.Alerts.EmailHost != "" && cfg.Alerts.EmailAddress != "" {
		channels = append(channels, notify.NewEmail(cfg.Alerts.EmailHost, cfg.Alerts.EmailPort, cfg.Alerts.EmailAddress, cfg.Alerts.EmailPassword, ""))
	}
	return channels
}

func strategyParams(p config.StrategyParams) strategy.Params {
	return strategy.Params{
		FastSpan:     p.FastSpan,
		SlowSpan:     p.SlowSpan,
		VolumeWindow: p.VolumeWindow,
		VolumeSurge:  p.VolumeSurge,
		MACDFast:     p.MACDFast,
		MACDSlow:     p.MACDSlow,
		MinBars:      p.MinBars,
	}
}

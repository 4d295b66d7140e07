// Command scan performs a single simulated run against the paper account and
// prints the day's ledger rows. Useful for checking signals outside the schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"scanbot/internal/config"
	"scanbot/internal/engine"
	"scanbot/internal/ledger"
	"scanbot/internal/market"
	"scanbot/internal/notify"
	"scanbot/internal/paper"
	"scanbot/internal/risk"
	"scanbot/internal/strategy"
	"scanbot/internal/util"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := util.NewLogger("info")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	symbols, err := cfg.Trading.ResolveSymbols()
	if err != nil {
		log.Fatal().Err(err).Msg("resolve symbols")
	}

	trades, err := ledger.Open(cfg.Trading.LedgerPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open ledger")
	}
	defer trades.Close()

	cash := cfg.Broker.StartingCash
	if cash <= 0 {
		cash = 100000
	}
	account := paper.NewAccount(cash)
	port := paper.NewPort(account, log)

	data := market.NewCache(
		market.NewYahoo(cfg.Market.BaseURL, log),
		time.Duration(cfg.Market.QuoteTTLSecs)*time.Second,
	)
	strat := strategy.Build(cfg.Trading.Strategy.Mode, strategy.Params{
		FastSpan:     cfg.Trading.Strategy.Params.FastSpan,
		SlowSpan:     cfg.Trading.Strategy.Params.SlowSpan,
		VolumeWindow: cfg.Trading.Strategy.Params.VolumeWindow,
		VolumeSurge:  cfg.Trading.Strategy.Params.VolumeSurge,
		MACDFast:     cfg.Trading.Strategy.Params.MACDFast,
		MACDSlow:     cfg.Trading.Strategy.Params.MACDSlow,
		MinBars:      cfg.Trading.Strategy.Params.MinBars,
	})

	eng := engine.New(engine.Settings{
		Symbols:         symbols,
		Live:            true, // fills land on the paper account
		CapitalPerTrade: cfg.Trading.CapitalPerTrade,
		TakeProfitPct:   cfg.Trading.TakeProfitPct,
		StopLossPct:     cfg.Trading.StopLossPct,
		LookbackBars:    cfg.Market.LookbackBars,
		Interval:        cfg.Market.Interval,
		Limits:          risk.Limits{MaxNotionalPerTrade: cfg.Trading.MaxNotionalPerTrade},
	}, data, strat, port, trades, notify.NewLogNotifier(log), log)

	if err := eng.RunOnce(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("scan failed")
	}

	records, err := trades.ReadAll()
	if err != nil {
		log.Fatal().Err(err).Msg("read ledger")
	}
	day := ledger.ForDay(records, time.Now())
	fmt.Printf("trades today: %d\n", len(day))
	for _, rec := range day {
		fmt.Printf("%s %s %s x%d @ %.2f tp=%.2f sl=%.2f\n",
			rec.Ts.Format(ledger.TimeLayout), rec.Side, rec.Symbol, rec.Qty,
			rec.Entry, rec.TakeProfit, rec.StopLoss)
	}
	snap := account.Snapshot(nil)
	fmt.Printf("paper cash remaining: %.2f\n", snap.Cash)
}

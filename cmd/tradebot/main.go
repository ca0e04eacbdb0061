package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tradebotv1/config"
	"tradebotv1/internal/engine"
	"tradebotv1/internal/execution"
	"tradebotv1/internal/marketdata"
	"tradebotv1/internal/metrics"
	"tradebotv1/internal/model"
	"tradebotv1/internal/notification"
	"tradebotv1/internal/portfolio"
	"tradebotv1/internal/risk"
	redisstore "tradebotv1/internal/store/redis"
	"tradebotv1/internal/strategy"
	"tradebotv1/pkg/coinbase"

	goredis "github.com/go-redis/redis/v8"
)

const priceMaxStale = 30 * time.Second

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[tradebot] starting...")

	cfg := config.Load()
	if cfg.Simulate {
		log.Println("[tradebot] *** SIMULATION MODE — no orders will reach the exchange ***")
	}

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus(cfg.Simulate)
	health.SetExchangeOK(true)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Notifications ----
	var backends []notification.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Println("[tradebot] telegram notifications enabled")
	}
	if cfg.NotifyWebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyWebhookTimeout))
		log.Println("[tradebot] webhook notifications enabled")
	}
	var notifier notification.Notifier
	switch len(backends) {
	case 0:
		notifier = notification.NewLogNotifier()
	case 1:
		notifier = backends[0]
	default:
		notifier = notification.NewMulti(backends...)
	}

	// ---- Trade journal (SQLite) ----
	os.MkdirAll(filepath.Dir(cfg.JournalPath), 0o755)
	journal, err := execution.NewJournal(cfg.JournalPath)
	if err != nil {
		log.Fatalf("[tradebot] journal init failed: %v", err)
	}
	defer journal.Close()

	// ---- Position store (Redis, optional) ----
	var store portfolio.Store
	var redisClient *redisstore.PositionStore
	if cfg.RedisAddr != "" {
		redisClient, err = redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[tradebot] WARNING: redis init failed: %v (positions will not survive restarts)", err)
		} else {
			store = redisClient
			defer redisClient.Close()
		}
	}

	book := portfolio.NewBook(store)
	if err := book.Restore(ctx); err != nil {
		log.Printf("[tradebot] WARNING: position restore failed: %v", err)
	}
	prom.OpenPositions.Set(float64(book.Len()))

	var rdb *goredis.Client
	if redisClient != nil {
		rdb = redisClient.Client()
	}
	health.StartLivenessChecker(ctx, rdb, journal.DB(), 10*time.Second)

	// ---- Exchange client & market data ----
	client := coinbase.New(coinbase.Config{
		APIKey:    cfg.CoinbaseAPIKey,
		APISecret: cfg.CoinbaseAPISecret,
	})
	source := marketdata.NewSource(client)

	// ---- Live price feed (websocket, optional) ----
	var feed *marketdata.TickerFeed
	if cfg.WSFeed {
		productIDs := watchedProducts(ctx, source, cfg)
		if len(productIDs) > 0 {
			feed = marketdata.NewTickerFeed(coinbase.WSURL, productIDs)
			feed.OnReconnect = func() {
				prom.WSReconnects.Inc()
				health.SetWSConnected(true)
			}
			feed.OnDisconnect = func() {
				health.SetWSConnected(false)
			}
			go feed.Run(ctx)
		}
	}
	priceSource := marketdata.NewPriceSource(feed, source, priceMaxStale)

	// ---- Execution & risk ----
	placer := &orderPlacer{client: client}
	exec := execution.NewExecutor(placer, notifier, journal, cfg.Simulate)

	monitor := risk.NewMonitor(book, priceSource, exec, journal, notifier, cfg.StopLossPct)
	monitor.OnStopLoss = func(_ string, pnl float64) {
		prom.StopLossTotal.Inc()
		prom.RealizedPnL.Add(pnl)
		prom.OpenPositions.Set(float64(book.Len()))
	}

	// ---- Engine ----
	eng := engine.New(engine.Config{
		NotionalUSD:   cfg.TradeNotionalUSD,
		MaxProducts:   cfg.MaxProducts,
		QuoteCurrency: cfg.QuoteCurrency,
		Granularity:   cfg.CandleGranularity,
		CandleLimit:   cfg.CandleLimit,
		ShortEntries:  cfg.ShortEntries,
	}, source, client, strategy.NewMomentum(), book, exec, monitor, journal, notifier)

	eng.OnSignal = func(sig strategy.Signal) {
		prom.SignalsTotal.WithLabelValues(string(sig)).Inc()
	}
	eng.OnTrade = func(status execution.Status) {
		prom.TradesTotal.WithLabelValues(string(status)).Inc()
		prom.OpenPositions.Set(float64(book.Len()))
	}
	eng.OnCycle = func(d time.Duration) {
		prom.CyclesTotal.Inc()
		prom.CycleDur.Observe(d.Seconds())
		prom.OpenPositions.Set(float64(book.Len()))
		health.SetLastCycleAt(time.Now())
	}
	eng.OnAPIError = func() {
		prom.APIErrors.Inc()
	}
	eng.OnExchangeStatus = health.SetExchangeOK

	mode := "LIVE"
	if cfg.Simulate {
		mode = "SIMULATION"
	}
	notification.TrySend(ctx, notifier, notification.Alert{
		Level: notification.AlertInfo,
		Title: "Trading bot started",
		Message: fmt.Sprintf("mode=%s notional=%.2f %s stop=%.1f%% interval=%s",
			mode, cfg.TradeNotionalUSD, cfg.QuoteCurrency, cfg.StopLossPct*100, cfg.CycleInterval),
	})

	go eng.Run(ctx, cfg.CycleInterval)

	// ---- Wait for shutdown signal ----
	sig := <-sigCh
	log.Printf("[tradebot] received %s, shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)

	notification.TrySend(shutdownCtx, notifier, notification.Alert{
		Level:   notification.AlertInfo,
		Title:   "Trading bot stopped",
		Message: fmt.Sprintf("%d position(s) still open", book.Len()),
	})
	log.Println("[tradebot] shutdown complete")
}

// watchedProducts resolves the product IDs the ticker feed should
// subscribe to: the same tradable set the engine will evaluate.
func watchedProducts(ctx context.Context, source *marketdata.Source, cfg *config.Config) []string {
	listCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	products, err := source.ListProducts(listCtx)
	if err != nil {
		log.Printf("[tradebot] WARNING: product listing for ticker feed failed: %v (REST prices only)", err)
		return nil
	}

	ids := make([]string, 0, cfg.MaxProducts)
	for _, p := range products {
		if !p.Tradable(cfg.QuoteCurrency) {
			continue
		}
		ids = append(ids, p.ID)
		if len(ids) == cfg.MaxProducts {
			break
		}
	}
	return ids
}

// orderPlacer adapts the Coinbase client to the executor's interface.
type orderPlacer struct {
	client *coinbase.Client
}

func (p *orderPlacer) CreateLimitOrder(ctx context.Context, productID string, side model.Side, size, limitPrice float64) (string, error) {
	return p.client.CreateLimitOrder(ctx, productID, string(side), size, limitPrice)
}

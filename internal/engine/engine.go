// Package engine runs the trading cycle: scan stops, list products,
// evaluate the strategy per product, and act on the signals.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tradebotv1/internal/execution"
	"tradebotv1/internal/model"
	"tradebotv1/internal/notification"
	"tradebotv1/internal/portfolio"
	"tradebotv1/internal/risk"
	"tradebotv1/internal/strategy"
)

// MarketData supplies products and candles for signal evaluation.
type MarketData interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetCandles(ctx context.Context, productID, granularity string, limit int) ([]model.Candle, error)
}

// AccountData reports exchange balances. Optional, used for cycle
// diagnostics only.
type AccountData interface {
	AvailableBalance(ctx context.Context, currency string) (float64, error)
}

// Config holds engine settings.
type Config struct {
	NotionalUSD   float64 // quote value of each new position
	MaxProducts   int     // cap on products evaluated per cycle
	QuoteCurrency string  // e.g. "USD"
	Granularity   string  // candle granularity, e.g. "ONE_HOUR"
	CandleLimit   int     // candles fetched per product
	ShortEntries  bool    // allow SELL signals to open short positions
}

// Engine orchestrates one trading cycle at a time.
type Engine struct {
	cfg      Config
	market   MarketData
	account  AccountData // may be nil
	strat    strategy.Strategy
	book     *portfolio.Book
	exec     *execution.Executor
	monitor  *risk.Monitor
	journal  *execution.Journal // may be nil
	notifier notification.Notifier

	// Metric hooks. All optional.
	OnSignal   func(sig strategy.Signal)
	OnTrade    func(status execution.Status)
	OnCycle    func(d time.Duration)
	OnAPIError func()

	// OnExchangeStatus reports whether the exchange answered the
	// cycle's product listing. Optional, drives the health endpoint.
	OnExchangeStatus func(ok bool)
}

// New creates an engine. account, journal and notifier may be nil.
func New(cfg Config, market MarketData, account AccountData, strat strategy.Strategy, book *portfolio.Book, exec *execution.Executor, monitor *risk.Monitor, journal *execution.Journal, notifier notification.Notifier) *Engine {
	return &Engine{
		cfg:      cfg,
		market:   market,
		account:  account,
		strat:    strat,
		book:     book,
		exec:     exec,
		monitor:  monitor,
		journal:  journal,
		notifier: notifier,
	}
}

// Run executes a cycle immediately and then on every interval tick
// until ctx is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	log.Printf("[engine] starting, cycle interval %s", interval)
	if err := e.RunCycle(ctx); err != nil {
		log.Printf("[engine] cycle failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[engine] stopped")
			return
		case <-ticker.C:
			if err := e.RunCycle(ctx); err != nil {
				log.Printf("[engine] cycle failed: %v", err)
			}
		}
	}
}

// RunCycle performs one full trading cycle. The stop-loss scan runs
// first so a position cannot ride through a cycle both breaching its
// stop and receiving a fresh signal.
func (e *Engine) RunCycle(ctx context.Context) error {
	started := time.Now()

	stopped := e.monitor.Scan(ctx)
	if stopped > 0 {
		log.Printf("[engine] stop-loss scan closed %d position(s)", stopped)
	}

	if e.account != nil {
		if bal, err := e.account.AvailableBalance(ctx, e.cfg.QuoteCurrency); err != nil {
			log.Printf("[engine] balance check failed: %v", err)
		} else {
			log.Printf("[engine] available %s balance: %.2f", e.cfg.QuoteCurrency, bal)
		}
	}

	products, err := e.market.ListProducts(ctx)
	if err != nil {
		if e.OnAPIError != nil {
			e.OnAPIError()
		}
		if e.OnExchangeStatus != nil {
			e.OnExchangeStatus(false)
		}
		return fmt.Errorf("list products: %w", err)
	}
	if e.OnExchangeStatus != nil {
		e.OnExchangeStatus(true)
	}

	selected := e.selectProducts(products)
	log.Printf("[engine] evaluating %d of %d product(s)", len(selected), len(products))

	for _, p := range selected {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.evaluateProduct(ctx, p.ID)
	}

	elapsed := time.Since(started)
	log.Printf("[engine] cycle done in %s, %d open position(s)", elapsed.Round(time.Millisecond), e.book.Len())
	if e.OnCycle != nil {
		e.OnCycle(elapsed)
	}
	return nil
}

// selectProducts filters to tradable products in the configured quote
// currency and caps the list.
func (e *Engine) selectProducts(products []model.Product) []model.Product {
	out := make([]model.Product, 0, e.cfg.MaxProducts)
	for _, p := range products {
		if !p.Tradable(e.cfg.QuoteCurrency) {
			continue
		}
		out = append(out, p)
		if len(out) == e.cfg.MaxProducts {
			break
		}
	}
	return out
}

// evaluateProduct fetches candles, runs the strategy and acts on the
// signal. Per-product failures are logged and skipped; one bad product
// never aborts the cycle.
func (e *Engine) evaluateProduct(ctx context.Context, productID string) {
	candles, err := e.market.GetCandles(ctx, productID, e.cfg.Granularity, e.cfg.CandleLimit)
	if err != nil {
		log.Printf("[engine] candle fetch failed for %s, skipping: %v", productID, err)
		if e.OnAPIError != nil {
			e.OnAPIError()
		}
		return
	}
	if len(candles) == 0 {
		log.Printf("[engine] no candles for %s, skipping", productID)
		return
	}

	price := candles[len(candles)-1].Close
	if price <= 0 {
		log.Printf("[engine] bad close price %v for %s, skipping", price, productID)
		return
	}

	sig := e.strat.Evaluate(candles)
	if e.OnSignal != nil {
		e.OnSignal(sig)
	}
	if sig == strategy.Hold {
		return
	}
	log.Printf("[engine] %s signal for %s at %.4f", sig, productID, price)

	switch sig {
	case strategy.Buy:
		e.actOnBuy(ctx, productID, price)
	case strategy.Sell:
		e.actOnSell(ctx, productID, price)
	}
}

func (e *Engine) actOnBuy(ctx context.Context, productID string, price float64) {
	if pos, ok := e.book.Get(productID); ok {
		if pos.Direction == model.Short {
			// Opposing signal closes the short.
			e.closePosition(ctx, pos, price, "buy signal")
			return
		}
		log.Printf("[engine] already long %s, holding", productID)
		return
	}

	size := e.cfg.NotionalUSD / price
	out := e.exec.Execute(ctx, productID, model.Buy, size, price)
	if e.OnTrade != nil {
		e.OnTrade(out.Status)
	}
	if out.Status == execution.StatusFailed {
		return
	}

	// Record the entry at the limit price the order was placed at.
	if _, err := e.book.Open(ctx, productID, size, out.Price, model.Long); err != nil {
		log.Printf("[engine] BUG: open after fill failed for %s: %v", productID, err)
	}
}

func (e *Engine) actOnSell(ctx context.Context, productID string, price float64) {
	pos, ok := e.book.Get(productID)
	if ok {
		if pos.Direction == model.Long {
			e.closePosition(ctx, pos, price, "sell signal")
			return
		}
		log.Printf("[engine] already short %s, holding", productID)
		return
	}

	if !e.cfg.ShortEntries {
		// Nothing to sell and shorting is disabled.
		return
	}

	size := e.cfg.NotionalUSD / price
	out := e.exec.Execute(ctx, productID, model.Sell, size, price)
	if e.OnTrade != nil {
		e.OnTrade(out.Status)
	}
	if out.Status == execution.StatusFailed {
		return
	}

	if _, err := e.book.Open(ctx, productID, size, out.Price, model.Short); err != nil {
		log.Printf("[engine] BUG: open after fill failed for %s: %v", productID, err)
	}
}

// closePosition executes the closing order and settles the book at the
// fill price. A failed order leaves the position untouched.
func (e *Engine) closePosition(ctx context.Context, pos model.Position, price float64, reason string) {
	out := e.exec.Execute(ctx, pos.ProductID, pos.Direction.ClosingSide(), pos.Size, price)
	if e.OnTrade != nil {
		e.OnTrade(out.Status)
	}
	if out.Status == execution.StatusFailed {
		log.Printf("[engine] close failed for %s, position kept", pos.ProductID)
		return
	}

	pnl, _, err := e.book.Close(ctx, pos.ProductID, out.Price)
	if err != nil {
		if errors.Is(err, portfolio.ErrNoPosition) {
			log.Printf("[engine] BUG: position %s vanished before close", pos.ProductID)
		} else {
			log.Printf("[engine] close bookkeeping failed for %s: %v", pos.ProductID, err)
		}
		return
	}

	log.Printf("[engine] closed %s (%s) at %.4f, P/L %.4f", pos.ProductID, reason, out.Price, pnl)
	if e.journal != nil {
		if err := e.journal.RecordClose(pos.ProductID, out.Price, pnl, reason); err != nil {
			log.Printf("[engine] journal write failed: %v", err)
		}
	}
	notification.TrySend(ctx, e.notifier, notification.Alert{
		Level:   notification.AlertInfo,
		Title:   "Position closed",
		Message: fmt.Sprintf("%s closed on %s at %.4f, P/L %.4f", pos.ProductID, reason, out.Price, pnl),
		Trade: &notification.TradeEvent{
			ProductID: pos.ProductID,
			Side:      string(pos.Direction.ClosingSide()),
			Size:      pos.Size,
			Price:     out.Price,
			Status:    string(out.Status),
			PnL:       &pnl,
			Simulated: out.Status == execution.StatusSimulated,
		},
	})
}

// Package risk enforces the stop-loss on open positions.
//
// The Monitor scans every open position against the latest market price
// and force-closes any position whose loss reaches the configured
// fraction of its entry price. The scan runs at the top of each trading
// cycle, before any new signals are acted on.
package risk

import (
	"context"
	"fmt"
	"log"

	"tradebotv1/internal/execution"
	"tradebotv1/internal/notification"
	"tradebotv1/internal/portfolio"
)

// PriceSource provides the latest trade price for a product.
type PriceSource interface {
	LatestPrice(ctx context.Context, productID string) (float64, error)
}

// Monitor force-closes positions that breach the stop-loss.
type Monitor struct {
	book        *portfolio.Book
	prices      PriceSource
	exec        *execution.Executor
	journal     *execution.Journal // optional
	notifier    notification.Notifier
	stopLossPct float64

	// OnStopLoss is called after each successful forced close. Optional,
	// used for metrics.
	OnStopLoss func(productID string, pnl float64)
}

// NewMonitor creates a stop-loss monitor. stopLossPct is the loss
// fraction that triggers a close (0.02 = 2%).
func NewMonitor(book *portfolio.Book, prices PriceSource, exec *execution.Executor, journal *execution.Journal, notifier notification.Notifier, stopLossPct float64) *Monitor {
	return &Monitor{
		book:        book,
		prices:      prices,
		exec:        exec,
		journal:     journal,
		notifier:    notifier,
		stopLossPct: stopLossPct,
	}
}

// Scan checks every open position once. A price fetch failure skips that
// position until the next scan; it never aborts the whole sweep. Returns
// the number of positions closed.
func (m *Monitor) Scan(ctx context.Context) int {
	closed := 0
	for _, pos := range m.book.All() {
		price, err := m.prices.LatestPrice(ctx, pos.ProductID)
		if err != nil {
			log.Printf("[risk] price fetch failed for %s, skipping: %v", pos.ProductID, err)
			continue
		}

		if !pos.StopBreached(price, m.stopLossPct) {
			continue
		}

		log.Printf("[risk] stop loss hit: %s %s entry=%.4f price=%.4f stop=%.4f",
			pos.ProductID, pos.Direction, pos.EntryPrice, price, pos.StopPrice(m.stopLossPct))

		out := m.exec.Execute(ctx, pos.ProductID, pos.Direction.ClosingSide(), pos.Size, price)
		if out.Status == execution.StatusFailed {
			// Exchange rejected the close. The position stays on the
			// book and the next scan retries.
			log.Printf("[risk] forced close failed for %s, will retry next scan", pos.ProductID)
			continue
		}

		pnl, _, err := m.book.Close(ctx, pos.ProductID, out.Price)
		if err != nil {
			log.Printf("[risk] BUG: close after fill failed for %s: %v", pos.ProductID, err)
			continue
		}
		closed++

		if m.journal != nil {
			if err := m.journal.RecordClose(pos.ProductID, out.Price, pnl, "stop loss"); err != nil {
				log.Printf("[risk] journal write failed: %v", err)
			}
		}
		notification.TrySend(ctx, m.notifier, notification.Alert{
			Level:   notification.AlertWarning,
			Title:   "Stop loss triggered",
			Message: fmt.Sprintf("%s closed at %.4f, P/L %.4f", pos.ProductID, out.Price, pnl),
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
		if m.OnStopLoss != nil {
			m.OnStopLoss(pos.ProductID, pnl)
		}
	}
	return closed
}

// Package execution handles order placement through the exchange API.
//
// The Executor receives trade intents from the cycle engine and the risk
// monitor and translates them into limit orders. In simulation mode it
// skips the exchange entirely and reports every trade as filled.
package execution

import (
	"context"
	"fmt"
	"log"
	"time"

	"tradebotv1/internal/model"
	"tradebotv1/internal/notification"
)

// Status of an execution attempt.
type Status string

const (
	StatusExecuted  Status = "EXECUTED"
	StatusSimulated Status = "SIMULATED"
	StatusFailed    Status = "FAILED"
)

// Limit price skew applied to the current market price so orders fill
// like market orders: buy slightly above, sell slightly below.
const (
	buySkew  = 1.001
	sellSkew = 0.999
)

// Outcome is the result of a single execution attempt. Price is the
// limit price the order was (or would have been) placed at.
type Outcome struct {
	ProductID string     `json:"product_id"`
	Side      model.Side `json:"side"`
	Size      float64    `json:"size"`
	Price     float64    `json:"price"`
	Status    Status     `json:"status"`
	OrderID   string     `json:"order_id,omitempty"`
	Err       error      `json:"-"`
}

// OrderPlacer places limit orders on the exchange.
type OrderPlacer interface {
	CreateLimitOrder(ctx context.Context, productID string, side model.Side, size, limitPrice float64) (orderID string, err error)
}

// Executor places (or simulates) orders and reports every attempt.
type Executor struct {
	placer   OrderPlacer
	notifier notification.Notifier
	journal  *Journal // optional
	simulate bool
}

// NewExecutor creates an executor. With simulate true the placer is never
// called. journal and notifier may be nil.
func NewExecutor(placer OrderPlacer, notifier notification.Notifier, journal *Journal, simulate bool) *Executor {
	return &Executor{
		placer:   placer,
		notifier: notifier,
		journal:  journal,
		simulate: simulate,
	}
}

// Simulating reports whether the executor is in simulation mode.
func (e *Executor) Simulating() bool { return e.simulate }

// Execute attempts a trade at the current market price. The limit price
// is skewed so the order fills immediately. Callers must treat a FAILED
// outcome as "nothing happened" and leave their position state untouched.
func (e *Executor) Execute(ctx context.Context, productID string, side model.Side, size, currentPrice float64) Outcome {
	limitPrice := currentPrice * sellSkew
	if side == model.Buy {
		limitPrice = currentPrice * buySkew
	}

	out := Outcome{
		ProductID: productID,
		Side:      side,
		Size:      size,
		Price:     limitPrice,
	}

	if e.simulate {
		out.Status = StatusSimulated
		log.Printf("[executor] SIMULATED %s %s size=%.8f @ %.4f", side, productID, size, limitPrice)
		e.report(ctx, out)
		return out
	}

	orderID, err := e.placer.CreateLimitOrder(ctx, productID, side, size, limitPrice)
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		log.Printf("[executor] FAILED %s %s size=%.8f @ %.4f: %v", side, productID, size, limitPrice, err)
		e.report(ctx, out)
		return out
	}

	out.Status = StatusExecuted
	out.OrderID = orderID
	log.Printf("[executor] EXECUTED %s %s size=%.8f @ %.4f order=%s", side, productID, size, limitPrice, orderID)
	e.report(ctx, out)
	return out
}

// report journals the attempt and sends the trade notification. Both are
// best-effort.
func (e *Executor) report(ctx context.Context, out Outcome) {
	if e.journal != nil {
		if err := e.journal.RecordOutcome(out); err != nil {
			log.Printf("[executor] journal write failed: %v", err)
		}
	}

	level := notification.AlertInfo
	msg := fmt.Sprintf("%s %s size=%.8f @ %.4f", out.Side, out.ProductID, out.Size, out.Price)
	switch out.Status {
	case StatusSimulated:
		msg = "[SIM] " + msg
	case StatusFailed:
		level = notification.AlertWarning
		msg = fmt.Sprintf("%s: %v", msg, out.Err)
	}
	notification.TrySend(ctx, e.notifier, notification.Alert{
		Level:   level,
		Title:   fmt.Sprintf("Trade %s", out.Status),
		Message: msg,
		Trade: &notification.TradeEvent{
			ProductID: out.ProductID,
			Side:      string(out.Side),
			Size:      out.Size,
			Price:     out.Price,
			Status:    string(out.Status),
			Simulated: out.Status == StatusSimulated,
		},
	})
}

// ExecutedAt timestamps outcomes for the journal. Separated out so tests
// can pin it.
var now = time.Now

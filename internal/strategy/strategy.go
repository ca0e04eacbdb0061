// Package strategy turns indicator snapshots into trading signals.
//
// A Strategy receives a candle series and emits a single signal (BUY, SELL
// or HOLD) for the newest candle. Strategies are stateless between calls;
// all history they need arrives in the candle slice.
package strategy

import "tradebotv1/internal/model"

// Signal is the action a strategy recommends for a product.
type Signal string

const (
	Buy  Signal = "BUY"
	Sell Signal = "SELL"
	Hold Signal = "HOLD"
)

// Strategy evaluates a candle series and emits a signal for the newest candle.
type Strategy interface {
	Name() string
	Evaluate(candles []model.Candle) Signal
}

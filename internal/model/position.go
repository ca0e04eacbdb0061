package model

import (
	"encoding/json"
	"time"
)

// Direction of a position.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Side of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ClosingSide returns the order side that closes a position in this direction.
func (d Direction) ClosingSide() Side {
	if d == Short {
		return Buy
	}
	return Sell
}

// Position represents a single open position. At most one position
// exists per product at any time.
type Position struct {
	ProductID  string    `json:"product_id"`
	Size       float64   `json:"size"`        // base units, > 0
	EntryPrice float64   `json:"entry_price"` // > 0
	Direction  Direction `json:"direction"`
	OpenedAt   time.Time `json:"opened_at"`
}

// PnL computes the realized profit/loss of closing this position at
// the given exit price.
func (p *Position) PnL(exitPrice float64) float64 {
	if p.Direction == Short {
		return (p.EntryPrice - exitPrice) * p.Size
	}
	return (exitPrice - p.EntryPrice) * p.Size
}

// StopPrice returns the stop-loss trigger price for the given
// fraction: below entry for longs, above entry for shorts.
func (p *Position) StopPrice(stopLossPct float64) float64 {
	if p.Direction == Short {
		return p.EntryPrice * (1 + stopLossPct)
	}
	return p.EntryPrice * (1 - stopLossPct)
}

// StopBreached reports whether price has moved against the position
// by at least stopLossPct of the entry price. The comparison is done
// on the adverse-move fraction so the boundary is exact (a 2% stop on
// entry 100 triggers at 98.00, not at 98.01).
func (p *Position) StopBreached(price, stopLossPct float64) bool {
	if p.EntryPrice <= 0 {
		return false
	}
	if p.Direction == Short {
		return (price-p.EntryPrice)/p.EntryPrice >= stopLossPct
	}
	return (p.EntryPrice-price)/p.EntryPrice >= stopLossPct
}

// JSON returns the JSON-encoded position (ignoring errors).
func (p *Position) JSON() []byte {
	b, _ := json.Marshal(p)
	return b
}

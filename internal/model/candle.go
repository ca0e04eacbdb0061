package model

import (
	"encoding/json"
	"time"
)

// Candle represents one OHLC candle for a single product.
// Prices are USD floats as returned by the exchange; the series a
// candle belongs to is ordered oldest → newest with strictly
// increasing timestamps.
type Candle struct {
	ProductID string    `json:"product_id"`
	TS        time.Time `json:"ts"` // bucket start time (UTC)
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Package indicator provides technical indicator calculations over candle data.
//
// The streaming indicators (EMA, RSI, MACD) consume close prices one at a
// time in O(1) per update. Compute runs the fixed indicator set used for
// signal generation over a whole candle series and returns a Snapshot for
// the newest candle.
package indicator

// Indicator is the interface for all streaming technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g. "EMA_20", "RSI_14").
	Name() string

	// Update feeds a new close price and recalculates.
	Update(close float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}

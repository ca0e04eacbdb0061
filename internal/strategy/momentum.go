package strategy

import (
	"tradebotv1/internal/indicator"
	"tradebotv1/internal/model"
)

// RSI thresholds for the momentum rules.
const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// Momentum is an RSI + MACD + EMA trend strategy.
//
// Buy signal: RSI oversold AND MACD histogram positive AND EMA20 above EMA50.
// Sell signal: RSI overbought OR MACD histogram negative OR EMA20 below EMA50.
//
// The buy rule is deliberately strict (all three must agree) while the sell
// rule fires on any single bearish condition, so the strategy exits far more
// readily than it enters.
type Momentum struct{}

// NewMomentum creates the momentum strategy.
func NewMomentum() *Momentum { return &Momentum{} }

func (m *Momentum) Name() string { return "RSI_MACD_EMA" }

// Evaluate computes the indicator snapshot for the series and applies the
// momentum rules. Returns Hold when the series is too short for a snapshot.
func (m *Momentum) Evaluate(candles []model.Candle) Signal {
	return Decide(indicator.Compute(candles))
}

// Decide applies the momentum rules to an indicator snapshot. A nil
// snapshot (insufficient history) always yields Hold. The buy rule is
// checked before the sell rule.
func Decide(snap *indicator.Snapshot) Signal {
	if snap == nil {
		return Hold
	}

	if snap.RSI < rsiOversold && snap.MACDHist > 0 && snap.EMA20 > snap.EMA50 {
		return Buy
	}

	if snap.RSI > rsiOverbought || snap.MACDHist < 0 || snap.EMA20 < snap.EMA50 {
		return Sell
	}

	return Hold
}

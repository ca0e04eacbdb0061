package indicator

import "tradebotv1/internal/model"

// Standard periods for the signal-generation indicator set.
const (
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	EMAShortPeriod   = 20
	EMALongPeriod    = 50
)

// MinHistory is the minimum number of candles required before a snapshot
// is defined. Below this the slow EMA(50) has no value and any decision
// made on the partial set would be noise.
const MinHistory = 50

// Snapshot holds the indicator values computed for the newest candle of
// a series.
type Snapshot struct {
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
	EMA20      float64 `json:"ema_20"`
	EMA50      float64 `json:"ema_50"`
}

// Compute runs the standard indicator set over the candle series (ordered
// oldest to newest) and returns the snapshot for the last candle. Returns
// nil if the series is shorter than MinHistory.
func Compute(candles []model.Candle) *Snapshot {
	if len(candles) < MinHistory {
		return nil
	}

	rsi := NewRSI(RSIPeriod)
	macd := NewMACD(MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)
	emaShort := NewEMA(EMAShortPeriod)
	emaLong := NewEMA(EMALongPeriod)

	for _, c := range candles {
		rsi.Update(c.Close)
		macd.Update(c.Close)
		emaShort.Update(c.Close)
		emaLong.Update(c.Close)
	}

	return &Snapshot{
		RSI:        rsi.Value(),
		MACD:       macd.Value(),
		MACDSignal: macd.Signal(),
		MACDHist:   macd.Hist(),
		EMA20:      emaShort.Value(),
		EMA50:      emaLong.Value(),
	}
}

package indicator

import "fmt"

// MACD calculates Moving Average Convergence Divergence: the difference
// between a fast and a slow EMA, plus a signal line (EMA of the MACD line)
// and the histogram (MACD line minus signal line).
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
	line   float64
}

// NewMACD creates a MACD indicator with the given fast, slow and signal
// periods (typically 12, 26, 9).
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fast.period, m.slow.period, m.signal.period)
}

func (m *MACD) Update(close float64) {
	m.fast.Update(close)
	m.slow.Update(close)

	if !m.fast.Ready() || !m.slow.Ready() {
		return
	}

	// The signal line is an EMA of the MACD line itself, so it only
	// starts accumulating once both component EMAs are warm.
	m.line = m.fast.Value() - m.slow.Value()
	m.signal.Update(m.line)
}

// Value returns the MACD line (fast EMA minus slow EMA).
func (m *MACD) Value() float64 { return m.line }

// Signal returns the signal line value.
func (m *MACD) Signal() float64 { return m.signal.Value() }

// Hist returns the histogram: MACD line minus signal line.
func (m *MACD) Hist() float64 { return m.line - m.signal.Value() }

// Ready reports whether both component EMAs and the signal EMA are warm.
func (m *MACD) Ready() bool {
	return m.fast.Ready() && m.slow.Ready() && m.signal.Ready()
}

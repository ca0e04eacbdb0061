package risk

import (
	"context"
	"errors"
	"testing"

	"tradebotv1/internal/execution"
	"tradebotv1/internal/model"
	"tradebotv1/internal/portfolio"
)

type fakePrices struct {
	prices map[string]float64
	errs   map[string]error
}

func (f *fakePrices) LatestPrice(_ context.Context, productID string) (float64, error) {
	if err := f.errs[productID]; err != nil {
		return 0, err
	}
	return f.prices[productID], nil
}

type failingPlacer struct{ calls int }

func (p *failingPlacer) CreateLimitOrder(context.Context, string, model.Side, float64, float64) (string, error) {
	p.calls++
	return "", errors.New("exchange down")
}

func simExecutor() *execution.Executor {
	return execution.NewExecutor(nil, nil, nil, true)
}

func TestScan_LongStopBoundary(t *testing.T) {
	ctx := context.Background()

	// 98.01 is one cent above the 2% stop: nothing closes.
	book := portfolio.NewBook(nil)
	book.Open(ctx, "X-USD", 1, 100, model.Long)
	prices := &fakePrices{prices: map[string]float64{"X-USD": 98.01}}
	m := NewMonitor(book, prices, simExecutor(), nil, nil, 0.02)

	if n := m.Scan(ctx); n != 0 {
		t.Errorf("98.01 closed %d positions, want 0", n)
	}
	if book.Len() != 1 {
		t.Error("position removed below trigger")
	}

	// 98.00 is exactly the stop: position closes.
	prices.prices["X-USD"] = 98.00
	if n := m.Scan(ctx); n != 1 {
		t.Errorf("98.00 closed %d positions, want 1", n)
	}
	if book.Len() != 0 {
		t.Error("position still open after stop")
	}
}

func TestScan_ShortStop(t *testing.T) {
	ctx := context.Background()
	book := portfolio.NewBook(nil)
	book.Open(ctx, "X-USD", 2, 100, model.Short)
	prices := &fakePrices{prices: map[string]float64{"X-USD": 102.0}}
	m := NewMonitor(book, prices, simExecutor(), nil, nil, 0.02)

	var gotPID string
	var gotPnL float64
	m.OnStopLoss = func(pid string, pnl float64) { gotPID, gotPnL = pid, pnl }

	if n := m.Scan(ctx); n != 1 {
		t.Fatalf("closed %d, want 1", n)
	}
	if gotPID != "X-USD" {
		t.Errorf("hook product=%q", gotPID)
	}
	// Short closed by a buy at 102*1.001 = 102.102: pnl = (100-102.102)*2
	fill := 102.0
	wantPnL := (100 - fill*1.001) * 2
	if gotPnL != wantPnL {
		t.Errorf("pnl=%v, want %v", gotPnL, wantPnL)
	}
}

func TestScan_ClosesAtSkewedFillPrice(t *testing.T) {
	ctx := context.Background()
	book := portfolio.NewBook(nil)
	book.Open(ctx, "X-USD", 1, 100, model.Long)
	prices := &fakePrices{prices: map[string]float64{"X-USD": 97.0}}

	var pnls []float64
	m := NewMonitor(book, prices, simExecutor(), nil, nil, 0.02)
	m.OnStopLoss = func(_ string, pnl float64) { pnls = append(pnls, pnl) }

	m.Scan(ctx)
	if len(pnls) != 1 {
		t.Fatalf("want 1 close, got %d", len(pnls))
	}
	// Long closed by a sell at 97*0.999: pnl = 97*0.999 - 100
	fill := 97.0
	want := fill*0.999 - 100
	if pnls[0] != want {
		t.Errorf("pnl=%v, want %v", pnls[0], want)
	}
}

func TestScan_PriceFetchError_SkipsPosition(t *testing.T) {
	ctx := context.Background()
	book := portfolio.NewBook(nil)
	book.Open(ctx, "A-USD", 1, 100, model.Long)
	book.Open(ctx, "B-USD", 1, 100, model.Long)

	prices := &fakePrices{
		prices: map[string]float64{"B-USD": 90.0},
		errs:   map[string]error{"A-USD": errors.New("timeout")},
	}
	m := NewMonitor(book, prices, simExecutor(), nil, nil, 0.02)

	if n := m.Scan(ctx); n != 1 {
		t.Errorf("closed %d, want 1 (B only)", n)
	}
	if _, ok := book.Get("A-USD"); !ok {
		t.Error("A-USD should survive a price fetch error")
	}
	if _, ok := book.Get("B-USD"); ok {
		t.Error("B-USD should have been closed")
	}
}

func TestScan_LiveCloseFailure_KeepsPosition(t *testing.T) {
	ctx := context.Background()
	book := portfolio.NewBook(nil)
	book.Open(ctx, "X-USD", 1, 100, model.Long)
	prices := &fakePrices{prices: map[string]float64{"X-USD": 90.0}}

	placer := &failingPlacer{}
	exec := execution.NewExecutor(placer, nil, nil, false)
	m := NewMonitor(book, prices, exec, nil, nil, 0.02)

	if n := m.Scan(ctx); n != 0 {
		t.Errorf("closed %d, want 0", n)
	}
	if placer.calls != 1 {
		t.Errorf("placer calls=%d, want 1", placer.calls)
	}
	if _, ok := book.Get("X-USD"); !ok {
		t.Error("position must remain open after failed close")
	}

	// Next scan retries the close.
	m.Scan(ctx)
	if placer.calls != 2 {
		t.Errorf("placer calls=%d, want 2 after retry", placer.calls)
	}
}

func TestScan_NoBreach_NoExecution(t *testing.T) {
	ctx := context.Background()
	book := portfolio.NewBook(nil)
	book.Open(ctx, "X-USD", 1, 100, model.Long)
	prices := &fakePrices{prices: map[string]float64{"X-USD": 99.5}}

	placer := &failingPlacer{}
	exec := execution.NewExecutor(placer, nil, nil, false)
	m := NewMonitor(book, prices, exec, nil, nil, 0.02)

	m.Scan(ctx)
	if placer.calls != 0 {
		t.Errorf("executor invoked without a breach: %d calls", placer.calls)
	}
}

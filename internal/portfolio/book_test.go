package portfolio

import (
	"context"
	"errors"
	"math"
	"testing"

	"tradebotv1/internal/model"
)

func TestBook_OpenAndGet(t *testing.T) {
	b := NewBook(nil)
	ctx := context.Background()

	pos, err := b.Open(ctx, "BTC-USD", 0.5, 50000, model.Long)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if pos.ProductID != "BTC-USD" || pos.Size != 0.5 || pos.EntryPrice != 50000 || pos.Direction != model.Long {
		t.Errorf("unexpected position: %+v", pos)
	}
	if pos.OpenedAt.IsZero() {
		t.Error("OpenedAt not set")
	}

	got, ok := b.Get("BTC-USD")
	if !ok || got.Size != 0.5 {
		t.Errorf("Get: ok=%v pos=%+v", ok, got)
	}
	if b.Len() != 1 {
		t.Errorf("Len=%d, want 1", b.Len())
	}
}

func TestBook_OpenTwice_Fails(t *testing.T) {
	b := NewBook(nil)
	ctx := context.Background()

	if _, err := b.Open(ctx, "ETH-USD", 1, 3000, model.Long); err != nil {
		t.Fatalf("first open: %v", err)
	}
	_, err := b.Open(ctx, "ETH-USD", 2, 3100, model.Short)
	if !errors.Is(err, ErrPositionOpen) {
		t.Fatalf("second open: got %v, want ErrPositionOpen", err)
	}

	// Original position untouched
	got, _ := b.Get("ETH-USD")
	if got.Size != 1 || got.EntryPrice != 3000 || got.Direction != model.Long {
		t.Errorf("position mutated by failed open: %+v", got)
	}
}

func TestBook_CloseWithoutPosition_Fails(t *testing.T) {
	b := NewBook(nil)
	_, _, err := b.Close(context.Background(), "SOL-USD", 100)
	if !errors.Is(err, ErrNoPosition) {
		t.Fatalf("got %v, want ErrNoPosition", err)
	}
}

func TestBook_Close_LongPnL(t *testing.T) {
	b := NewBook(nil)
	ctx := context.Background()

	b.Open(ctx, "BTC-USD", 0.5, 50000, model.Long)
	pnl, pos, err := b.Close(ctx, "BTC-USD", 51000)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	// (51000 - 50000) * 0.5 = 500
	if pnl != 500 {
		t.Errorf("pnl=%v, want 500", pnl)
	}
	if pos.EntryPrice != 50000 {
		t.Errorf("returned position entry=%v, want 50000", pos.EntryPrice)
	}
	if b.Len() != 0 {
		t.Errorf("position not removed, Len=%d", b.Len())
	}

	// Second close fails
	if _, _, err := b.Close(ctx, "BTC-USD", 51000); !errors.Is(err, ErrNoPosition) {
		t.Errorf("double close: got %v, want ErrNoPosition", err)
	}
}

func TestBook_Close_ShortPnL(t *testing.T) {
	b := NewBook(nil)
	ctx := context.Background()

	// Short 2 units at 100, exit at 90: (100-90)*2 = 20 profit
	b.Open(ctx, "X-USD", 2, 100, model.Short)
	pnl, _, err := b.Close(ctx, "X-USD", 90)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if pnl != 20 {
		t.Errorf("short pnl=%v, want 20", pnl)
	}

	// Short losing: exit above entry
	b.Open(ctx, "Y-USD", 2, 100, model.Short)
	pnl, _, _ = b.Close(ctx, "Y-USD", 105)
	if pnl != -10 {
		t.Errorf("short losing pnl=%v, want -10", pnl)
	}
}

func TestBook_All_Snapshot(t *testing.T) {
	b := NewBook(nil)
	ctx := context.Background()
	b.Open(ctx, "A-USD", 1, 10, model.Long)
	b.Open(ctx, "B-USD", 2, 20, model.Short)

	all := b.All()
	if len(all) != 2 {
		t.Fatalf("All len=%d, want 2", len(all))
	}
	seen := map[string]bool{}
	for _, p := range all {
		seen[p.ProductID] = true
	}
	if !seen["A-USD"] || !seen["B-USD"] {
		t.Errorf("All missing products: %v", seen)
	}
}

// ────────────────────────────────────────────────────────────
// Store mirroring
// ────────────────────────────────────────────────────────────

type fakeStore struct {
	saved   map[string]model.Position
	saveErr error
	delErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string]model.Position)}
}

func (f *fakeStore) Save(_ context.Context, pos model.Position) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[pos.ProductID] = pos
	return nil
}

func (f *fakeStore) Delete(_ context.Context, productID string) error {
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.saved, productID)
	return nil
}

func (f *fakeStore) Load(_ context.Context) ([]model.Position, error) {
	out := make([]model.Position, 0, len(f.saved))
	for _, p := range f.saved {
		out = append(out, p)
	}
	return out, nil
}

func TestBook_StoreMirroring(t *testing.T) {
	st := newFakeStore()
	b := NewBook(st)
	ctx := context.Background()

	b.Open(ctx, "BTC-USD", 0.1, 40000, model.Long)
	if _, ok := st.saved["BTC-USD"]; !ok {
		t.Error("open not mirrored to store")
	}

	b.Close(ctx, "BTC-USD", 41000)
	if _, ok := st.saved["BTC-USD"]; ok {
		t.Error("close not mirrored to store")
	}
}

func TestBook_StoreFailure_BookStaysAuthoritative(t *testing.T) {
	st := newFakeStore()
	st.saveErr = errors.New("redis down")
	b := NewBook(st)
	ctx := context.Background()

	if _, err := b.Open(ctx, "BTC-USD", 0.1, 40000, model.Long); err != nil {
		t.Fatalf("open should succeed despite store failure: %v", err)
	}
	if _, ok := b.Get("BTC-USD"); !ok {
		t.Error("position missing from book after store failure")
	}
}

func TestBook_Restore(t *testing.T) {
	st := newFakeStore()
	st.saved["ETH-USD"] = model.Position{ProductID: "ETH-USD", Size: 1.5, EntryPrice: 2500, Direction: model.Long}

	b := NewBook(st)
	if err := b.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, ok := b.Get("ETH-USD")
	if !ok || got.Size != 1.5 {
		t.Errorf("restored position: ok=%v pos=%+v", ok, got)
	}
}

// ────────────────────────────────────────────────────────────
// Stop-loss boundary on model.Position
// ────────────────────────────────────────────────────────────

func TestPosition_StopBreached_ExactBoundary(t *testing.T) {
	long := model.Position{ProductID: "X-USD", Size: 1, EntryPrice: 100, Direction: model.Long}

	// 2% stop on entry 100: 98.00 triggers, 98.01 does not.
	if !long.StopBreached(98.00, 0.02) {
		t.Error("98.00 should breach a 2% stop at entry 100")
	}
	if long.StopBreached(98.01, 0.02) {
		t.Error("98.01 should not breach a 2% stop at entry 100")
	}

	short := model.Position{ProductID: "X-USD", Size: 1, EntryPrice: 100, Direction: model.Short}
	if !short.StopBreached(102.00, 0.02) {
		t.Error("102.00 should breach a 2% short stop at entry 100")
	}
	if short.StopBreached(101.99, 0.02) {
		t.Error("101.99 should not breach a 2% short stop at entry 100")
	}
}

func TestPosition_StopPrice(t *testing.T) {
	long := model.Position{EntryPrice: 100, Direction: model.Long}
	if got := long.StopPrice(0.02); math.Abs(got-98) > 1e-9 {
		t.Errorf("long stop price=%v, want 98", got)
	}
	short := model.Position{EntryPrice: 100, Direction: model.Short}
	if got := short.StopPrice(0.02); math.Abs(got-102) > 1e-9 {
		t.Errorf("short stop price=%v, want 102", got)
	}
}

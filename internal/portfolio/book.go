// Package portfolio tracks open positions.
//
// The Book maintains the in-memory view of all open positions, at most one
// per product. An optional Store mirrors every change so positions survive
// a restart; the in-memory map stays authoritative when the store fails.
package portfolio

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"tradebotv1/internal/model"
)

var (
	// ErrPositionOpen is returned when opening a position for a product
	// that already has one.
	ErrPositionOpen = errors.New("portfolio: position already open")

	// ErrNoPosition is returned when closing or fetching a position for
	// a product that has none.
	ErrNoPosition = errors.New("portfolio: no open position")
)

// Book tracks all open positions, keyed by product ID.
type Book struct {
	mu        sync.RWMutex
	positions map[string]model.Position
	store     Store // optional mirror, may be nil
}

// NewBook creates an empty position book. store may be nil for a purely
// in-memory book.
func NewBook(store Store) *Book {
	return &Book{
		positions: make(map[string]model.Position),
		store:     store,
	}
}

// Restore loads previously persisted positions from the store into the
// book. A nil store restores nothing.
func (b *Book) Restore(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	positions, err := b.store.Load(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range positions {
		b.positions[p.ProductID] = p
	}
	log.Printf("[portfolio] restored %d position(s) from store", len(positions))
	return nil
}

// Open records a new position for the product. Fails with ErrPositionOpen
// if one already exists; the book is left unchanged in that case.
func (b *Book) Open(ctx context.Context, productID string, size, entryPrice float64, dir model.Direction) (model.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.positions[productID]; exists {
		return model.Position{}, ErrPositionOpen
	}

	pos := model.Position{
		ProductID:  productID,
		Size:       size,
		EntryPrice: entryPrice,
		Direction:  dir,
		OpenedAt:   time.Now().UTC(),
	}
	b.positions[productID] = pos

	if b.store != nil {
		if err := b.store.Save(ctx, pos); err != nil {
			log.Printf("[portfolio] store save failed for %s: %v", productID, err)
		}
	}
	return pos, nil
}

// Close removes the product's position and returns the realized P/L at
// the given exit price. Fails with ErrNoPosition if none exists.
func (b *Book) Close(ctx context.Context, productID string, exitPrice float64) (float64, model.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos, exists := b.positions[productID]
	if !exists {
		return 0, model.Position{}, ErrNoPosition
	}
	delete(b.positions, productID)

	if b.store != nil {
		if err := b.store.Delete(ctx, productID); err != nil {
			log.Printf("[portfolio] store delete failed for %s: %v", productID, err)
		}
	}
	return pos.PnL(exitPrice), pos, nil
}

// Get returns the open position for the product, if any.
func (b *Book) Get(productID string) (model.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos, ok := b.positions[productID]
	return pos, ok
}

// All returns a snapshot of every open position.
func (b *Book) All() []model.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	return out
}

// Len returns the number of open positions.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.positions)
}

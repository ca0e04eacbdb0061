package marketdata

import (
	"context"
	"time"
)

// streamPrices is the live side of the price source (the ticker feed).
type streamPrices interface {
	Price(productID string) (float64, time.Time, bool)
}

// restPrices is the fallback side (one-minute candle close).
type restPrices interface {
	LatestClose(ctx context.Context, productID string) (float64, error)
}

// PriceSource serves the freshest available price: the websocket tick
// when recent enough, otherwise a REST lookup. A nil feed degrades to
// REST-only.
type PriceSource struct {
	feed     streamPrices
	rest     restPrices
	maxStale time.Duration
	now      func() time.Time
}

// NewPriceSource combines a ticker feed with a REST fallback. maxStale
// bounds how old a streamed tick may be before REST takes over.
func NewPriceSource(feed *TickerFeed, rest restPrices, maxStale time.Duration) *PriceSource {
	ps := &PriceSource{
		rest:     rest,
		maxStale: maxStale,
		now:      time.Now,
	}
	if feed != nil {
		ps.feed = feed
	}
	return ps
}

// LatestPrice returns the current price for the product.
func (p *PriceSource) LatestPrice(ctx context.Context, productID string) (float64, error) {
	if p.feed != nil {
		if price, at, ok := p.feed.Price(productID); ok && p.now().Sub(at) <= p.maxStale {
			return price, nil
		}
	}
	return p.rest.LatestClose(ctx, productID)
}

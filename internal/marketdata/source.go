// Package marketdata supplies candles, product listings and live prices
// to the trading engine. REST data comes from the Coinbase brokerage
// API; live prices stream over the Advanced Trade websocket with a REST
// fallback when the stream is stale.
package marketdata

import (
	"context"
	"time"

	"tradebotv1/internal/model"
	"tradebotv1/pkg/coinbase"
)

// Source adapts the Coinbase REST client to the engine's model types.
type Source struct {
	client *coinbase.Client
}

// NewSource wraps a Coinbase client.
func NewSource(client *coinbase.Client) *Source {
	return &Source{client: client}
}

// ListProducts returns every product the exchange lists.
func (s *Source) ListProducts(ctx context.Context) ([]model.Product, error) {
	raw, err := s.client.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(raw))
	for _, p := range raw {
		out = append(out, model.Product{
			ID:              p.ProductID,
			QuoteCurrency:   p.QuoteCurrencyID,
			Status:          p.Status,
			TradingDisabled: p.TradingDisabled || p.IsDisabled,
		})
	}
	return out, nil
}

// GetCandles returns up to limit candles for the product, oldest first.
func (s *Source) GetCandles(ctx context.Context, productID, granularity string, limit int) ([]model.Candle, error) {
	raw, err := s.client.GetCandles(ctx, productID, granularity, limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.Candle, 0, len(raw))
	for _, c := range raw {
		out = append(out, model.Candle{
			ProductID: productID,
			TS:        time.Unix(c.Start, 0).UTC(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		})
	}
	return out, nil
}

// LatestClose returns the most recent one-minute close for the product.
func (s *Source) LatestClose(ctx context.Context, productID string) (float64, error) {
	return s.client.LatestClose(ctx, productID)
}

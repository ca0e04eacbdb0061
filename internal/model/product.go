package model

// Product is a tradable instrument as listed by the exchange.
type Product struct {
	ID              string `json:"id"`             // e.g. "BTC-USD"
	QuoteCurrency   string `json:"quote_currency"` // e.g. "USD"
	Status          string `json:"status"`
	TradingDisabled bool   `json:"trading_disabled"`
}

// Tradable reports whether the product can be traded against the
// given quote currency.
func (p *Product) Tradable(quote string) bool {
	return !p.TradingDisabled && p.QuoteCurrency == quote
}

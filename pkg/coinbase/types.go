package coinbase

// Product is one row of the brokerage product list. Numeric fields
// arrive as strings on the wire.
type Product struct {
	ProductID       string `json:"product_id"`
	Price           string `json:"price"`
	QuoteCurrencyID string `json:"quote_currency_id"`
	BaseCurrencyID  string `json:"base_currency_id"`
	Status          string `json:"status"`
	TradingDisabled bool   `json:"trading_disabled"`
	IsDisabled      bool   `json:"is_disabled"`
}

type productsResponse struct {
	Products []Product `json:"products"`
}

// Candle is a raw OHLCV bucket. All fields are strings on the wire;
// Start is a unix timestamp in seconds.
type Candle struct {
	Start  string `json:"start"`
	Low    string `json:"low"`
	High   string `json:"high"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

type candlesResponse struct {
	Candles []Candle `json:"candles"`
}

// Account is a brokerage account balance entry.
type Account struct {
	UUID             string  `json:"uuid"`
	Currency         string  `json:"currency"`
	AvailableBalance Balance `json:"available_balance"`
}

// Balance is a currency amount. Value arrives as a string.
type Balance struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
	HasNext  bool      `json:"has_next"`
	Cursor   string    `json:"cursor"`
}

type orderRequest struct {
	ClientOrderID      string             `json:"client_order_id"`
	ProductID          string             `json:"product_id"`
	Side               string             `json:"side"`
	OrderConfiguration orderConfiguration `json:"order_configuration"`
}

type orderConfiguration struct {
	LimitLimitGTC limitLimitGTC `json:"limit_limit_gtc"`
}

type limitLimitGTC struct {
	BaseSize   string `json:"base_size"`
	LimitPrice string `json:"limit_price"`
	PostOnly   bool   `json:"post_only"`
}

type orderResponse struct {
	Success         bool   `json:"success"`
	OrderID         string `json:"order_id"`
	SuccessResponse struct {
		OrderID string `json:"order_id"`
	} `json:"success_response"`
	ErrorResponse struct {
		Error        string `json:"error"`
		Message      string `json:"message"`
		ErrorDetails string `json:"error_details"`
	} `json:"error_response"`
}

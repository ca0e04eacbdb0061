package coinbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Config{APIKey: "key", APISecret: "secret", BaseURL: srv.URL})
	c.clock = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestSign_Deterministic(t *testing.T) {
	// Known HMAC-SHA256 vector: signing the same message twice with the
	// same key must give the same hex digest, and a different key must not.
	a := sign("secret", "1700000000", "GET", "/api/v3/brokerage/products", "")
	b := sign("secret", "1700000000", "GET", "/api/v3/brokerage/products", "")
	c := sign("other", "1700000000", "GET", "/api/v3/brokerage/products", "")
	if a != b {
		t.Error("signature not deterministic")
	}
	if a == c {
		t.Error("signature ignores key")
	}
	if len(a) != 64 {
		t.Errorf("signature length=%d, want 64 hex chars", len(a))
	}
}

func TestListProducts_SignedHeadersAndDecode(t *testing.T) {
	var gotKey, gotSign, gotTS string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("CB-ACCESS-KEY")
		gotSign = r.Header.Get("CB-ACCESS-SIGN")
		gotTS = r.Header.Get("CB-ACCESS-TIMESTAMP")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"products": []map[string]interface{}{
				{"product_id": "BTC-USD", "quote_currency_id": "USD", "status": "online", "trading_disabled": false},
				{"product_id": "ETH-BTC", "quote_currency_id": "BTC", "status": "online"},
			},
		})
	})

	products, err := c.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 2 || products[0].ProductID != "BTC-USD" {
		t.Errorf("unexpected products: %+v", products)
	}

	if gotKey != "key" {
		t.Errorf("CB-ACCESS-KEY=%q", gotKey)
	}
	if gotTS != "1700000000" {
		t.Errorf("CB-ACCESS-TIMESTAMP=%q", gotTS)
	}
	want := sign("secret", "1700000000", "GET", "/api/v3/brokerage/products", "")
	if gotSign != want {
		t.Errorf("CB-ACCESS-SIGN=%q, want %q", gotSign, want)
	}
}

func TestGetCandles_SortsAscendingAndParses(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/brokerage/products/BTC-USD/candles" {
			t.Errorf("path=%s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("granularity") != "ONE_HOUR" {
			t.Errorf("granularity=%s", q.Get("granularity"))
		}
		// API returns newest first.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candles": []map[string]string{
				{"start": "7200", "open": "102", "high": "103", "low": "101", "close": "102.5", "volume": "7"},
				{"start": "3600", "open": "101", "high": "102", "low": "100", "close": "101.5", "volume": "5"},
				{"start": "0", "open": "100", "high": "101", "low": "99", "close": "100.5", "volume": "3"},
			},
		})
	})

	candles, err := c.GetCandles(context.Background(), "BTC-USD", "ONE_HOUR", 3)
	if err != nil {
		t.Fatalf("get candles: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("got %d candles", len(candles))
	}
	if candles[0].Start != 0 || candles[2].Start != 7200 {
		t.Errorf("not chronological: starts %d, %d, %d", candles[0].Start, candles[1].Start, candles[2].Start)
	}
	if candles[1].Close != 101.5 || candles[1].Volume != 5 {
		t.Errorf("parse failure: %+v", candles[1])
	}
}

func TestGetCandles_UnknownGranularity(t *testing.T) {
	c := New(Config{APIKey: "k", APISecret: "s"})
	if _, err := c.GetCandles(context.Background(), "BTC-USD", "NINE_HOUR", 10); err == nil {
		t.Error("expected error for unknown granularity")
	}
}

func TestAvailableBalance_WalksPagination(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"accounts": []map[string]interface{}{
					{"currency": "BTC", "available_balance": map[string]string{"value": "0.5", "currency": "BTC"}},
				},
				"has_next": true,
				"cursor":   "page2",
			})
			return
		}
		if r.URL.Query().Get("cursor") != "page2" {
			t.Errorf("cursor=%s", r.URL.Query().Get("cursor"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"accounts": []map[string]interface{}{
				{"currency": "USD", "available_balance": map[string]string{"value": "123.45", "currency": "USD"}},
			},
			"has_next": false,
		})
	})

	bal, err := c.AvailableBalance(context.Background(), "USD")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 123.45 {
		t.Errorf("balance=%v, want 123.45", bal)
	}
	if calls != 2 {
		t.Errorf("calls=%d, want 2", calls)
	}
}

func TestAvailableBalance_MissingCurrency_Zero(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"accounts": []map[string]interface{}{}})
	})
	bal, err := c.AvailableBalance(context.Background(), "EUR")
	if err != nil || bal != 0 {
		t.Errorf("bal=%v err=%v, want 0 nil", bal, err)
	}
}

func TestCreateLimitOrder_Success(t *testing.T) {
	var got orderRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v3/brokerage/orders" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":          true,
			"success_response": map[string]string{"order_id": "abc-123"},
		})
	})

	orderID, err := c.CreateLimitOrder(context.Background(), "BTC-USD", "BUY", 0.04, 50.05)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if orderID != "abc-123" {
		t.Errorf("order id=%q", orderID)
	}
	if got.ProductID != "BTC-USD" || got.Side != "BUY" {
		t.Errorf("request: %+v", got)
	}
	cfg := got.OrderConfiguration.LimitLimitGTC
	if cfg.BaseSize != "0.04" || cfg.LimitPrice != "50.05" {
		t.Errorf("limit config: %+v", cfg)
	}
	if cfg.PostOnly {
		t.Error("post_only must be false so orders can cross the spread")
	}
	if got.ClientOrderID == "" {
		t.Error("missing client order id")
	}
}

func TestCreateLimitOrder_Rejected(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        false,
			"error_response": map[string]string{"error": "INSUFFICIENT_FUND", "message": "not enough USD"},
		})
	})
	if _, err := c.CreateLimitOrder(context.Background(), "BTC-USD", "BUY", 1, 50000); err == nil {
		t.Error("expected rejection error")
	}
}

func TestDo_Non200_Error(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	if _, err := c.ListProducts(context.Background()); err == nil {
		t.Error("expected error on 401")
	}
}

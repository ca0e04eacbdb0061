package marketdata

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = time.Minute
)

// TickerFeed streams live trade prices from the Advanced Trade websocket
// ticker channel. It reconnects with exponential backoff and resubscribes
// after every reconnect.
type TickerFeed struct {
	url        string
	productIDs []string

	mu     sync.RWMutex
	prices map[string]tickerEntry

	// OnReconnect is called after each successful (re)connect and
	// OnDisconnect when an established connection drops. Both optional,
	// used for metrics and health reporting.
	OnReconnect  func()
	OnDisconnect func()
}

type tickerEntry struct {
	price float64
	at    time.Time
}

type subscribeMsg struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channel    string   `json:"channel"`
}

type tickerMessage struct {
	Channel string `json:"channel"`
	Events  []struct {
		Tickers []struct {
			ProductID string `json:"product_id"`
			Price     string `json:"price"`
		} `json:"tickers"`
	} `json:"events"`
}

// NewTickerFeed creates a feed for the given products. Run must be
// called to start streaming.
func NewTickerFeed(url string, productIDs []string) *TickerFeed {
	return &TickerFeed{
		url:        url,
		productIDs: productIDs,
		prices:     make(map[string]tickerEntry),
	}
}

// Run connects and consumes ticker events until ctx is cancelled. Each
// connection failure triggers a backoff and reconnect; the backoff
// resets to its base once a connection was established, so a drop after
// a long-lived session retries promptly.
func (f *TickerFeed) Run(ctx context.Context) {
	delay := reconnectBaseDelay
	for {
		if ctx.Err() != nil {
			return
		}

		subscribed, err := f.connectAndRead(ctx)
		if subscribed {
			if f.OnDisconnect != nil {
				f.OnDisconnect()
			}
			delay = reconnectBaseDelay
		}
		if ctx.Err() != nil {
			return
		}
		log.Printf("[ticker] connection lost, reconnecting in %s: %v", delay, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

// connectAndRead reports whether the subscription was established
// before the connection ended.
func (f *TickerFeed) connectAndRead(ctx context.Context) (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	sub := subscribeMsg{
		Type:       "subscribe",
		ProductIDs: f.productIDs,
		Channel:    "ticker",
	}
	if err := conn.WriteJSON(sub); err != nil {
		return false, err
	}
	log.Printf("[ticker] subscribed to %d product(s)", len(f.productIDs))
	if f.OnReconnect != nil {
		f.OnReconnect()
	}

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		f.handleMessage(data)
	}
}

func (f *TickerFeed) handleMessage(data []byte) {
	var msg tickerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Channel != "ticker" {
		return
	}

	now := time.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range msg.Events {
		for _, tk := range ev.Tickers {
			price, err := strconv.ParseFloat(tk.Price, 64)
			if err != nil || price <= 0 {
				continue
			}
			f.prices[tk.ProductID] = tickerEntry{price: price, at: now}
		}
	}
}

// Price returns the last streamed price for the product and when it
// arrived. ok is false if no tick has been seen yet.
func (f *TickerFeed) Price(productID string) (price float64, at time.Time, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entry, ok := f.prices[productID]
	return entry.price, entry.at, ok
}

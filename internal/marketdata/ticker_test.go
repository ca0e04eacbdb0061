package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dropServer accepts a websocket connection, consumes the subscribe
// message and immediately closes, forcing the feed to reconnect.
func dropServer(t *testing.T, connects *int32) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		atomic.AddInt32(connects, 1)
		conn.ReadMessage()
		conn.Close()
	}))
}

func TestTickerFeed_ReconnectsPromptlyAfterDrop(t *testing.T) {
	var connects int32
	srv := dropServer(t, &connects)
	defer srv.Close()

	feed := NewTickerFeed("ws"+strings.TrimPrefix(srv.URL, "http"), []string{"BTC-USD"})
	var reconnects, disconnects int32
	feed.OnReconnect = func() { atomic.AddInt32(&reconnects, 1) }
	feed.OnDisconnect = func() { atomic.AddInt32(&disconnects, 1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	// Every session drops right after subscribing, so with the backoff
	// resetting to its base the feed reconnects about once a second.
	// Doubling across established sessions would only manage three
	// connections in this window.
	deadline := time.After(6 * time.Second)
	for atomic.LoadInt32(&connects) < 4 {
		select {
		case <-deadline:
			t.Fatalf("only %d connection(s) within the deadline", atomic.LoadInt32(&connects))
		case <-time.After(50 * time.Millisecond):
		}
	}

	if got := atomic.LoadInt32(&reconnects); got < 4 {
		t.Errorf("reconnect hook fired %d times, want >=4", got)
	}
	if got := atomic.LoadInt32(&disconnects); got < 3 {
		t.Errorf("disconnect hook fired %d times, want >=3", got)
	}
}

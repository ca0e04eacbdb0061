// Package metrics exposes Prometheus metrics and a health endpoint for
// the trading bot.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trading bot.
type Metrics struct {
	CyclesTotal   prometheus.Counter
	CycleDur      prometheus.Histogram
	SignalsTotal  *prometheus.CounterVec // labels: signal
	TradesTotal   *prometheus.CounterVec // labels: status
	StopLossTotal prometheus.Counter
	OpenPositions prometheus.Gauge
	APIErrors     prometheus.Counter
	WSReconnects  prometheus.Counter
	RealizedPnL   prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_cycles_total",
			Help: "Total trading cycles completed",
		}),
		CycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradebot_cycle_duration_seconds",
			Help:    "Trading cycle wall time",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_signals_total",
			Help: "Signals emitted by the strategy (by signal)",
		}, []string{"signal"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradebot_trades_total",
			Help: "Trade execution attempts (by status)",
		}, []string{"status"}),
		StopLossTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_stop_loss_total",
			Help: "Positions force-closed by the stop-loss monitor",
		}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_open_positions",
			Help: "Currently open positions",
		}),
		APIErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_api_errors_total",
			Help: "Exchange API call failures",
		}),
		WSReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradebot_ws_reconnects_total",
			Help: "Ticker feed reconnections",
		}),
		RealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradebot_realized_pnl_usd",
			Help: "Cumulative realized P/L in USD (can go negative)",
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDur,
		m.SignalsTotal,
		m.TradesTotal,
		m.StopLossTotal,
		m.OpenPositions,
		m.APIErrors,
		m.WSReconnects,
		m.RealizedPnL,
	)

	return m
}

// HealthStatus represents the bot's health.
type HealthStatus struct {
	mu sync.RWMutex

	ExchangeOK     bool      `json:"exchange_ok"`
	WSConnected    bool      `json:"ws_connected"`
	RedisConnected bool      `json:"redis_connected"`
	JournalOK      bool      `json:"journal_ok"`
	Simulate       bool      `json:"simulate"`
	LastCycleAt    time.Time `json:"last_cycle_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(simulate bool) *HealthStatus {
	return &HealthStatus{
		Simulate:  simulate,
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetExchangeOK(v bool) {
	h.mu.Lock()
	h.ExchangeOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetWSConnected(v bool) {
	h.mu.Lock()
	h.WSConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastCycleAt(t time.Time) {
	h.mu.Lock()
	h.LastCycleAt = t
	h.mu.Unlock()
}

// CheckRedis pings Redis and records connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	err := rdb.Ping(ctx).Err()
	h.mu.Lock()
	h.RedisConnected = err == nil
	h.mu.Unlock()
}

// CheckJournal pings the SQLite journal.
func (h *HealthStatus) CheckJournal(ctx context.Context, db *sql.DB) {
	err := db.PingContext(ctx)
	h.mu.Lock()
	h.JournalOK = err == nil
	h.mu.Unlock()
}

// StartLivenessChecker runs dependency checks once immediately and then
// on every interval. rdb and sqlDB may be nil when the dependency is
// not configured.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	probe := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if rdb != nil {
			h.CheckRedis(probeCtx, rdb)
		}
		if sqlDB != nil {
			h.CheckJournal(probeCtx, sqlDB)
		}
	}

	go func() {
		probe()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probe()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.ExchangeOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	cycleAge := ""
	if !h.LastCycleAt.IsZero() {
		cycleAge = time.Since(h.LastCycleAt).Round(time.Second).String()
	}

	status := struct {
		Status         string `json:"status"`
		Uptime         string `json:"uptime"`
		Simulate       bool   `json:"simulate"`
		ExchangeOK     bool   `json:"exchange_ok"`
		WSConnected    bool   `json:"ws_connected"`
		RedisConnected bool   `json:"redis_connected"`
		JournalOK      bool   `json:"journal_ok"`
		LastCycleAt    string `json:"last_cycle_at"`
		CycleAge       string `json:"cycle_age"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		Simulate:       h.Simulate,
		ExchangeOK:     h.ExchangeOK,
		WSConnected:    h.WSConnected,
		RedisConnected: h.RedisConnected,
		JournalOK:      h.JournalOK,
		LastCycleAt:    h.LastCycleAt.Format(time.RFC3339),
		CycleAge:       cycleAge,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

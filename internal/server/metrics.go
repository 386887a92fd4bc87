package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultMetricsReadTimeout is the default read timeout for the metrics server.
	DefaultMetricsReadTimeout = 10 * time.Second

	// DefaultMetricsWriteTimeout is the default write timeout for the metrics server.
	DefaultMetricsWriteTimeout = 10 * time.Second

	// DefaultMetricsIdleTimeout is the default idle timeout for the metrics server.
	DefaultMetricsIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// Metrics counts campaign and delivery activity. It implements
// campaign.Metrics.
type Metrics struct {
	campaignsStarted   prometheus.Counter
	campaignsCompleted prometheus.Counter
	recipientsTotal    prometheus.Counter
	messagesSent       prometheus.Counter
	messagesFailed     prometheus.Counter
}

// NewMetrics registers the campaign counters with reg. A nil reg uses the
// default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		campaignsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailburst_campaigns_started_total",
			Help: "Number of bulk campaigns started.",
		}),
		campaignsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailburst_campaigns_completed_total",
			Help: "Number of bulk campaigns run to completion.",
		}),
		recipientsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailburst_campaign_recipients_total",
			Help: "Number of recipients across all started campaigns.",
		}),
		messagesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailburst_messages_sent_total",
			Help: "Number of messages accepted by Gmail.",
		}),
		messagesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailburst_messages_failed_total",
			Help: "Number of message attempts that failed.",
		}),
	}
}

// CampaignStarted records a new campaign and its recipient count.
func (m *Metrics) CampaignStarted(recipients int) {
	m.campaignsStarted.Inc()
	m.recipientsTotal.Add(float64(recipients))
}

// CampaignCompleted records a campaign that ran to completion.
func (m *Metrics) CampaignCompleted() {
	m.campaignsCompleted.Inc()
}

// MessageSent records one accepted message.
func (m *Metrics) MessageSent() {
	m.messagesSent.Inc()
}

// MessageFailed records one failed attempt.
func (m *Metrics) MessageFailed() {
	m.messagesFailed.Inc()
}

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind the metrics server to (e.g., ":9090").
	Addr string

	// Gatherer serves the /metrics endpoint. A nil Gatherer uses the
	// default Prometheus gatherer.
	Gatherer prometheus.Gatherer
}

// MetricsServer serves Prometheus metrics on a dedicated port.
// This isolates metrics from the main application traffic, preventing
// unauthorized access to operational metrics.
type MetricsServer struct {
	httpServer *http.Server
	gatherer   prometheus.Gatherer
	addr       string
}

// NewMetricsServer creates a new metrics server with the given configuration.
// The server exposes a /metrics endpoint for Prometheus scraping.
func NewMetricsServer(config MetricsServerConfig) *MetricsServer {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}

	return &MetricsServer{
		addr:     config.Addr,
		gatherer: config.Gatherer,
	}
}

// Start starts the metrics server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *MetricsServer) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	// Basic health check for the metrics server itself
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	slog.Info("starting metrics server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("shutting down metrics server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the metrics server.
func (s *MetricsServer) Addr() string {
	return s.addr
}

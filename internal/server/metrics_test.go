package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.CampaignStarted(3)
	m.MessageSent()
	m.MessageSent()
	m.MessageFailed()
	m.CampaignCompleted()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.campaignsStarted))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.recipientsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.campaignsCompleted))
}

func TestNewMetricsServerDefaults(t *testing.T) {
	server := NewMetricsServer(MetricsServerConfig{})
	assert.Equal(t, DefaultMetricsAddr, server.Addr())
}

func TestMetricsServerStartAndShutdown(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg).MessageSent()

	server := NewMetricsServer(MetricsServerConfig{
		Addr:     "127.0.0.1:0",
		Gatherer: reg,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Give the listener a moment to come up
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-serverErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
	}
}

func TestMetricsServerShutdownWithoutStart(t *testing.T) {
	server := NewMetricsServer(MetricsServerConfig{Addr: ":9090"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
}

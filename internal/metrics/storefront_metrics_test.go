package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()

	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	close(ch)

	var total float64
	for metric := range ch {
		var out dto.Metric
		require.NoError(t, metric.Write(&out))
		switch {
		case out.Counter != nil:
			total += out.Counter.GetValue()
		case out.Gauge != nil:
			total += out.Gauge.GetValue()
		}
	}
	return total
}

func TestStorefrontMetrics_CartMutation(t *testing.T) {
	m := NewStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordCartMutation("add", 2)
	m.RecordCartMutation("add", 5)

	assert.Equal(t, 2.0, counterValue(t, m.cartMutations.WithLabelValues("add")))
	assert.Equal(t, 5.0, counterValue(t, m.cartItems))

	m.SetCartItems(0)
	assert.Equal(t, 0.0, counterValue(t, m.cartItems))
}

func TestStorefrontMetrics_SessionsAndAPI(t *testing.T) {
	m := NewStorefrontMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordLogin(OutcomeSuccess)
	m.RecordLogout("unauthorized")
	m.RecordAPIRequest("GET", OutcomeHTTPError, 20*time.Millisecond)
	m.RecordPersistFailure("cart")
	m.RecordOrderPlaced()
	m.RecordPublishFailure()
	m.RecordLoginRateLimited()

	assert.Equal(t, 1.0, counterValue(t, m.logins.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, counterValue(t, m.logouts.WithLabelValues("unauthorized")))
	assert.Equal(t, 1.0, counterValue(t, m.apiRequests.WithLabelValues("GET", OutcomeHTTPError)))
	assert.Equal(t, 1.0, counterValue(t, m.persistFailures.WithLabelValues("cart")))
	assert.Equal(t, 1.0, counterValue(t, m.ordersPlaced))
	assert.Equal(t, 1.0, counterValue(t, m.publishFailures))
	assert.Equal(t, 1.0, counterValue(t, m.loginRateLimited))
}

func TestStorefrontMetrics_ReRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewStorefrontMetricsWithRegisterer(reg)
	second := NewStorefrontMetricsWithRegisterer(reg)

	first.RecordOrderPlaced()
	second.RecordOrderPlaced()

	assert.Equal(t, 2.0, counterValue(t, first.ordersPlaced))
	assert.Same(t, first.cartMutations, second.cartMutations)
}

func TestStorefrontMetrics_NilReceiver(t *testing.T) {
	var m *StorefrontMetrics

	assert.NotPanics(t, func() {
		m.RecordCartMutation("add", 1)
		m.SetCartItems(1)
		m.RecordPersistFailure("cart")
		m.RecordLogin(OutcomeSuccess)
		m.RecordLogout("user")
		m.RecordAPIRequest("GET", OutcomeSuccess, time.Millisecond)
		m.RecordOrderPlaced()
		m.RecordPublishFailure()
		m.RecordLoginRateLimited()
	})
}

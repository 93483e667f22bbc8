package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы операций для label outcome.
const (
	OutcomeSuccess          = "success"
	OutcomeNetworkError     = "network_error"
	OutcomeHTTPError        = "http_error"
	OutcomeApplicationError = "application_error"
)

// StorefrontMetrics содержит метрики клиентской части витрины и эталонного backend.
// Все методы безопасны для nil-получателя: метрики можно не подключать.
type StorefrontMetrics struct {
	// Корзина
	cartMutations   *prometheus.CounterVec
	cartItems       prometheus.Gauge
	persistFailures *prometheus.CounterVec

	// Сессии
	logins  *prometheus.CounterVec
	logouts *prometheus.CounterVec

	// HTTP-клиент
	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec

	// Backend
	ordersPlaced     prometheus.Counter
	publishFailures  prometheus.Counter
	loginRateLimited prometheus.Counter
}

// NewStorefrontMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewStorefrontMetrics() *StorefrontMetrics {
	return NewStorefrontMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewStorefrontMetricsWithRegisterer регистрирует метрики в переданном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewStorefrontMetricsWithRegisterer(registerer prometheus.Registerer) *StorefrontMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StorefrontMetrics{
		cartMutations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marazul_cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		}, []string{"op"})),
		cartItems: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marazul_cart_items",
			Help: "Current number of units in the cart",
		})),
		persistFailures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marazul_state_persist_failures_total",
			Help: "Total number of failed writes to the state store",
		}, []string{"component"})),
		logins: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marazul_logins_total",
			Help: "Total number of login attempts by outcome",
		}, []string{"outcome"})),
		logouts: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marazul_logouts_total",
			Help: "Total number of logouts by reason",
		}, []string{"reason"})),
		apiRequests: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marazul_api_requests_total",
			Help: "Total number of API requests by method and outcome",
		}, []string{"method", "outcome"})),
		apiLatency: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marazul_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method"})),
		ordersPlaced: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marazul_orders_placed_total",
			Help: "Total number of orders accepted by the backend",
		})),
		publishFailures: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marazul_event_publish_failures_total",
			Help: "Total number of order events that failed to publish",
		})),
		loginRateLimited: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marazul_login_rate_limited_total",
			Help: "Total number of login attempts rejected by the rate limiter",
		})),
	}
}

func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(C)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type %T", alreadyRegistered.ExistingCollector))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

// RecordCartMutation учитывает изменение корзины и текущее количество единиц.
func (m *StorefrontMetrics) RecordCartMutation(op string, itemCount int64) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
	m.cartItems.Set(float64(itemCount))
}

// SetCartItems выставляет количество единиц без учёта операции (гидратация).
func (m *StorefrontMetrics) SetCartItems(itemCount int64) {
	if m == nil {
		return
	}
	m.cartItems.Set(float64(itemCount))
}

// RecordPersistFailure учитывает неудачную запись состояния.
func (m *StorefrontMetrics) RecordPersistFailure(component string) {
	if m == nil {
		return
	}
	m.persistFailures.WithLabelValues(component).Inc()
}

// RecordLogin учитывает попытку входа.
func (m *StorefrontMetrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

// RecordLogout учитывает выход с указанием причины.
func (m *StorefrontMetrics) RecordLogout(reason string) {
	if m == nil {
		return
	}
	m.logouts.WithLabelValues(reason).Inc()
}

// RecordAPIRequest учитывает запрос к API и его длительность.
func (m *StorefrontMetrics) RecordAPIRequest(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, outcome).Inc()
	m.apiLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordOrderPlaced увеличивает счётчик принятых заказов.
func (m *StorefrontMetrics) RecordOrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// RecordPublishFailure увеличивает счётчик неотправленных событий.
func (m *StorefrontMetrics) RecordPublishFailure() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

// RecordLoginRateLimited увеличивает счётчик отклонённых лимитером входов.
func (m *StorefrontMetrics) RecordLoginRateLimited() {
	if m == nil {
		return
	}
	m.loginRateLimited.Inc()
}

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Rejection reasons reported by OrderMetrics.IncRejected.
const (
	ReasonInsufficientStock = "insufficient_stock"
	ReasonValidation        = "validation"
	ReasonStoreUnavailable  = "store_unavailable"
	ReasonStoreError        = "store_error"
)

// OrderMetrics records fulfillment, ledger and notification outcomes plus
// the last known stock per variant.
type OrderMetrics struct {
	duration       *prometheus.HistogramVec
	fulfilled      prometheus.Counter
	rejected       *prometheus.CounterVec
	ledgerFailures prometheus.Counter
	emails         *prometheus.CounterVec
	events         *prometheus.CounterVec
	stock          *prometheus.GaugeVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a no-op collector.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "order_fulfillment_duration_seconds",
			Help:    "Duration of order fulfillment attempts in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		fulfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_fulfilled_total",
			Help: "Orders whose stock deduction committed.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Orders rejected before or during stock deduction.",
		}, []string{"reason"}),
		ledgerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_ledger_write_failures_total",
			Help: "Fulfilled orders whose ledger entry could not be written.",
		}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_notification_emails_total",
			Help: "Order notification emails by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_events_published_total",
			Help: "order.created events by outcome.",
		}, []string{"outcome"}),
		stock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "catalog_variant_stock",
			Help: "Last observed stock per variant.",
		}, []string{"product_id", "size", "color"}),
	}
	reg.MustRegister(m.duration, m.fulfilled, m.rejected, m.ledgerFailures, m.emails, m.events, m.stock)
	return m
}

func (m *OrderMetrics) ObserveDuration(result string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(result)).Observe(d.Seconds())
}

func (m *OrderMetrics) IncFulfilled() {
	if m == nil || m.fulfilled == nil {
		return
	}
	m.fulfilled.Inc()
}

func (m *OrderMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *OrderMetrics) IncLedgerFailure() {
	if m == nil || m.ledgerFailures == nil {
		return
	}
	m.ledgerFailures.Inc()
}

// EmailResult satisfies notifications.Recorder.
func (m *OrderMetrics) EmailResult(outcome string) {
	if m == nil || m.emails == nil {
		return
	}
	m.emails.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// EventResult satisfies notifications.Recorder.
func (m *OrderMetrics) EventResult(outcome string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// StockSet satisfies catalog.StockObserver and is also fed by fulfillment.
func (m *OrderMetrics) StockSet(productID int, size, color string, stock int) {
	if m == nil || m.stock == nil {
		return
	}
	m.stock.WithLabelValues(strconv.Itoa(productID), size, color).Set(float64(stock))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

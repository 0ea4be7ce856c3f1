package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics содержит метрики журнала остатков и переходов заказов.
type InventoryMetrics struct {
	// Счётчики движений
	movementsRecorded *prometheus.CounterVec
	movementsRejected *prometheus.CounterVec

	// Счётчики переходов статусов
	transitionsApplied  *prometheus.CounterVec
	transitionsRejected prometheus.Counter

	// Гистограммы времени выполнения
	recordDuration     prometheus.Histogram
	transitionDuration prometheus.Histogram

	// Счётчик событий outbox
	outboxEvents prometheus.Counter
}

// NewInventoryMetrics создаёт новый экземпляр метрик с default-регистратором.
func NewInventoryMetrics() *InventoryMetrics {
	return newInventoryMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newInventoryMetricsWithRegisterer(registerer prometheus.Registerer) *InventoryMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &InventoryMetrics{
		movementsRecorded: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shopadmin_stock_movements_total",
			Help: "Total number of stock movements recorded, by kind",
		}, []string{"kind"}),
		movementsRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shopadmin_stock_movements_rejected_total",
			Help: "Total number of rejected stock movements, by reason",
		}, []string{"reason"}),
		transitionsApplied: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shopadmin_order_transitions_total",
			Help: "Total number of applied order status transitions, by target status",
		}, []string{"to"}),
		transitionsRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shopadmin_order_transitions_rejected_total",
			Help: "Total number of rejected order status transitions",
		}),
		recordDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shopadmin_stock_record_duration_seconds",
			Help:    "Duration of stock movement recording in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		transitionDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shopadmin_order_transition_duration_seconds",
			Help:    "Duration of order transition units in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shopadmin_outbox_events_total",
			Help: "Total number of events enqueued to the transactional outbox",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordMovement увеличивает счётчик записанных движений.
func (m *InventoryMetrics) RecordMovement(kind string) {
	m.movementsRecorded.WithLabelValues(kind).Inc()
}

// RecordMovementRejected увеличивает счётчик отклонённых движений.
func (m *InventoryMetrics) RecordMovementRejected(reason string) {
	m.movementsRejected.WithLabelValues(reason).Inc()
}

// RecordTransition увеличивает счётчик применённых переходов.
func (m *InventoryMetrics) RecordTransition(to string) {
	m.transitionsApplied.WithLabelValues(to).Inc()
}

// RecordTransitionRejected увеличивает счётчик отклонённых переходов.
func (m *InventoryMetrics) RecordTransitionRejected() {
	m.transitionsRejected.Inc()
}

// RecordDuration записывает время выполнения записи движения.
func (m *InventoryMetrics) RecordDuration(duration time.Duration) {
	m.recordDuration.Observe(duration.Seconds())
}

// RecordTransitionDuration записывает время выполнения перехода.
func (m *InventoryMetrics) RecordTransitionDuration(duration time.Duration) {
	m.transitionDuration.Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий, поставленных в outbox.
func (m *InventoryMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}

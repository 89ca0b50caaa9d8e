package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration outcomes
const (
	OutcomeAccepted  = "accepted"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
	OutcomeCapacity  = "capacity"
	OutcomeError     = "error"
)

// Metrics provides observability for the registry.
// Every method is safe to call on a nil *Metrics.
type Metrics struct {
	Registrations        *prometheus.CounterVec
	AllocationRetries    prometheus.Counter
	RegisterDuration     prometheus.Histogram
	MilestonesFired      prometheus.Counter
	Notifications        *prometheus.CounterVec
	NotificationsDropped *prometheus.CounterVec
	QueueDepth           prometheus.Gauge
}

// New creates a new Metrics instance registered against reg.
// A nil reg registers with the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "covenant_registrations_total",
			Help: "Total number of registration attempts by outcome",
		}, []string{"outcome"}),
		AllocationRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "covenant_allocation_retries_total",
			Help: "Total number of accept transactions retried after a conflict",
		}),
		RegisterDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "covenant_register_duration_seconds",
			Help:    "Duration of Register operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		MilestonesFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "covenant_milestones_fired_total",
			Help: "Total number of milestone thresholds recorded by this process",
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "covenant_notifications_total",
			Help: "Total number of notification dispatches by kind and status",
		}, []string{"kind", "status"}),
		NotificationsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "covenant_notifications_dropped_total",
			Help: "Total number of notification intents rejected because the queue was full",
		}, []string{"kind"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "covenant_notification_queue_depth",
			Help: "Number of notification intents waiting or running",
		}),
	}
}

// IncrementRegistration records a registration attempt outcome
func (m *Metrics) IncrementRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

// IncrementAllocationRetry records one retried accept transaction
func (m *Metrics) IncrementAllocationRetry() {
	if m == nil {
		return
	}
	m.AllocationRetries.Inc()
}

// ObserveRegister records the duration of a Register operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	if m == nil {
		return
	}
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// AddMilestonesFired records milestones inserted by this process
func (m *Metrics) AddMilestonesFired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MilestonesFired.Add(float64(n))
}

// IncrementNotification records a dispatch result
func (m *Metrics) IncrementNotification(kind, status string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind, status).Inc()
}

// IncrementNotificationDropped records an intent rejected by a full queue
func (m *Metrics) IncrementNotificationDropped(kind string) {
	if m == nil {
		return
	}
	m.NotificationsDropped.WithLabelValues(kind).Inc()
}

// SetQueueDepth records the current number of queued notification intents
func (m *Metrics) SetQueueDepth(depth int64) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
}

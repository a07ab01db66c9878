package metrics

import "github.com/prometheus/client_golang/prometheus"

// WizardMetrics counts booking wizard transitions and contact form outcomes.
type WizardMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	contact     *prometheus.CounterVec
}

func NewWizardMetrics(reg prometheus.Registerer) *WizardMetrics {
	m := &WizardMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capps",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Booking wizard operations by step and outcome",
		}, []string{"operation", "step", "outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capps",
			Subsystem: "booking",
			Name:      "field_rejections_total",
			Help:      "Field validation failures by field",
		}, []string{"field"}),
		contact: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capps",
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Contact form submissions by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.rejections, m.contact)
	return m
}

// ObserveTransition records one wizard operation. outcome is ok, invalid,
// throttled, rejected or error.
func (m *WizardMetrics) ObserveTransition(operation string, step int, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, stepLabel(step), outcome).Inc()
}

func (m *WizardMetrics) ObserveRejectedFields(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.rejections.WithLabelValues(f).Inc()
	}
}

func (m *WizardMetrics) ObserveContact(outcome string) {
	if m == nil {
		return
	}
	m.contact.WithLabelValues(outcome).Inc()
}

func stepLabel(step int) string {
	switch step {
	case 1:
		return "service"
	case 2:
		return "contact"
	case 3:
		return "schedule"
	case 4:
		return "review"
	}
	return "unknown"
}

// IntakeMetrics exposes counters and latency for the intake hand-off.
type IntakeMetrics struct {
	submissions *prometheus.CounterVec
	delivery    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capps",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Intake submissions by kind and status",
		}, []string{"kind", "status"}),
		delivery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capps",
			Subsystem: "intake",
			Name:      "delivery_total",
			Help:      "Best-effort downstream deliveries by channel and status",
		}, []string{"channel", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "capps",
			Subsystem: "intake",
			Name:      "submit_latency_seconds",
			Help:      "Latency of recording a submission",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.delivery, m.latency)
	return m
}

func (m *IntakeMetrics) ObserveSubmission(kind, status string, seconds float64) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind, status).Inc()
	m.latency.WithLabelValues(kind).Observe(seconds)
}

// ObserveDelivery records a queue, email or archive attempt.
func (m *IntakeMetrics) ObserveDelivery(channel string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.delivery.WithLabelValues(channel, status).Inc()
}

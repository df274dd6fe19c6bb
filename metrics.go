package authnego

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the observability surface: counters for
// selections produced per service class and acquisition outcomes per
// mechanism. A nil *Metrics (the Providers.Metrics default) disables
// observation entirely — metrics are never required to exercise the core.
type Metrics struct {
	selections   *prometheus.CounterVec
	acquisitions *prometheus.CounterVec
}

// NewMetrics registers the authnego collectors against reg (e.g.
// prometheus.DefaultRegisterer) and returns a Metrics ready to pass into
// Providers.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authnego_selections_total",
			Help: "Candidate authentication selections produced, by service class.",
		}, []string{"service"}),
		acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authnego_acquisitions_total",
			Help: "Credential acquisition outcomes, by mechanism and outcome.",
		}, []string{"mechanism", "outcome"}),
	}
	if err := reg.Register(m.selections); err != nil {
		return nil, err
	}
	if err := reg.Register(m.acquisitions); err != nil {
		return nil, err
	}
	return m, nil
}

// ObserveSelections records how many candidate selections Create produced
// for service.
func (m *Metrics) ObserveSelections(service string, count int) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(service).Add(float64(count))
}

// ObserveAcquisition records an acquisition outcome for mech.
func (m *Metrics) ObserveAcquisition(mech Mechanism, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.acquisitions.WithLabelValues(mech.String(), outcome).Inc()
}

// Package metrics exports admission decisions as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/ratelimiter"
)

// Recorder implements ratelimiter.Observer and auth.Observer.
type Recorder struct {
	decisions *prometheus.CounterVec
	failOpen  *prometheus.CounterVec
	auth      *prometheus.CounterVec
}

var (
	_ ratelimiter.Observer = (*Recorder)(nil)
	_ auth.Observer        = (*Recorder)(nil)
)

// NewRecorder creates the counters and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "affilify",
			Subsystem: "admission",
			Name:      "rate_limit_decisions_total",
			Help:      "Rate limit decisions by policy and outcome.",
		}, []string{"policy", "outcome"}),
		failOpen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "affilify",
			Subsystem: "admission",
			Name:      "store_fail_open_total",
			Help:      "Requests admitted because the window store failed.",
		}, []string{"policy"}),
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "affilify",
			Subsystem: "admission",
			Name:      "auth_outcomes_total",
			Help:      "Authentication gate outcomes by reason.",
		}, []string{"reason"}),
	}
	for _, c := range []prometheus.Collector{r.decisions, r.failOpen, r.auth} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveDecision implements ratelimiter.Observer.
func (r *Recorder) ObserveDecision(policy string, d ratelimiter.Decision) {
	outcome := "allowed"
	if !d.Allowed {
		outcome = "denied"
	}
	r.decisions.WithLabelValues(policy, outcome).Inc()
	if d.FailedOpen {
		r.failOpen.WithLabelValues(policy).Inc()
	}
}

// ObserveAuth implements auth.Observer.
func (r *Recorder) ObserveAuth(reason auth.Reason) {
	label := string(reason)
	if label == "" {
		label = "OK"
	}
	r.auth.WithLabelValues(label).Inc()
}

package auth

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts session operations and issued tokens. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	tokensIssued *prometheus.CounterVec
	operations   *prometheus.CounterVec
}

var _ ActivitySink = (*Metrics)(nil)

// NewMetrics registers the session collectors with reg. A nil reg
// leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "tokens_issued_total",
			Help:      "Session tokens signed, by kind.",
		}, []string{"kind"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auth",
			Name:      "operations_total",
			Help:      "Session operations, by operation and result.",
		}, []string{"op", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.tokensIssued, m.operations)
	}
	return m
}

func (m *Metrics) tokenIssued(kind TokenKind) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(string(kind)).Inc()
}

// Record counts an activity event as one operation. "auth.login.failure"
// becomes op="login", result="failure".
func (m *Metrics) Record(_ context.Context, event ActivityEvent) error {
	if m == nil {
		return nil
	}
	op, result := splitEventType(event.EventType)
	m.operations.WithLabelValues(op, result).Inc()
	return nil
}

func splitEventType(t ActivityEventType) (op, result string) {
	parts := strings.Split(strings.TrimPrefix(string(t), "auth."), ".")
	op = parts[0]
	result = "success"
	if len(parts) > 1 {
		result = parts[1]
	}
	return op, result
}

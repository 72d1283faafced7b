package apiclient

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hubclient"

// outcomeSuccess and outcomeBuildError extend the apierr.Kind labels.
const (
	outcomeSuccess    = "success"
	outcomeBuildError = "build_error"
)

// Refresh trigger labels.
const (
	refreshPreemptive = "preemptive"
	refreshRecovery   = "recovery"
)

// metrics is nil-safe: a client without a registry records nothing.
type metrics struct {
	requests    *prometheus.CounterVec
	csrfRefresh *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "requests_total",
		Help:      "API calls sent, by method and outcome. CSRF replays count separately.",
	}, []string{"method", "outcome"}))
	if err != nil {
		return nil, err
	}

	csrfRefresh, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "csrf_refresh_total",
		Help:      "CSRF cookie refreshes, by trigger and result.",
	}, []string{"trigger", "result"}))
	if err != nil {
		return nil, err
	}

	return &metrics{requests: requests, csrfRefresh: csrfRefresh}, nil
}

// registerCounterVec registers c, reusing an identical collector that is
// already registered (several clients may share one registry).
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	return c, nil
}

func (m *metrics) observeRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
}

func (m *metrics) observeRefresh(trigger string, ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.csrfRefresh.WithLabelValues(trigger, result).Inc()
}

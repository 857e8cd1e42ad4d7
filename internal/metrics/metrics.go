// Package metrics expone los contadores Prometheus del framework.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	attemptsTotal  *prometheus.CounterVec
	envelopesTotal *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
)

// Register inicializa y registra las métricas; idempotente (la primera
// llamada decide el registry). Devuelve el handler de /metrics servido
// desde ese mismo registry; con nil usa el registry default del
// proceso.
func Register(registry *prometheus.Registry) http.Handler {
	metricsOnce.Do(func() {
		attemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Intentos de autenticación iniciados, por estrategia y acción",
		}, []string{"strategy", "action"})

		envelopesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_envelopes_shipped_total",
			Help: "Envelopes entregados, por transporte y resultado (auth|error)",
		}, []string{"transport", "outcome"})

		failuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Fallas fatales antes de entregar un envelope, por código",
		}, []string{"code"})

		var reg prometheus.Registerer = prometheus.DefaultRegisterer
		if registry != nil {
			reg = registry
		}
		reg.MustRegister(attemptsTotal, envelopesTotal, failuresTotal)
	})
	if registry != nil {
		return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// CountAttempt registra un intento iniciado.
func CountAttempt(strategy, action string) {
	if attemptsTotal != nil {
		attemptsTotal.WithLabelValues(strategy, action).Inc()
	}
}

// CountEnvelope registra un envelope entregado.
func CountEnvelope(transport, outcome string) {
	if envelopesTotal != nil {
		envelopesTotal.WithLabelValues(transport, outcome).Inc()
	}
}

// CountFailure registra una falla fatal sin envelope.
func CountFailure(code string) {
	if failuresTotal != nil {
		failuresTotal.WithLabelValues(code).Inc()
	}
}

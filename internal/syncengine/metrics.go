package syncengine

import "github.com/prometheus/client_golang/prometheus"

// Metrics — счётчики операций синхронизации клиента.
type Metrics struct {
	requests  *prometheus.CounterVec
	discarded prometheus.Counter
}

// NewMetrics создаёт и регистрирует метрики в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasktracker_client_requests_total",
				Help: "Запросы клиента к REST API по методу и классу результата.",
			},
			[]string{"method", "kind"},
		),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tasktracker_client_stale_responses_total",
			Help: "Ответы, отброшенные из-за смены сессии во время запроса.",
		}),
	}
	reg.MustRegister(m.requests, m.discarded)
	return m
}

func (m *Metrics) observe(method string, r Result) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, r.Kind.String()).Inc()
	if r.Stale {
		m.discarded.Inc()
	}
}

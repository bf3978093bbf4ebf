// Package metrics exposes auction activity to Prometheus. A nil *Recorder is
// valid and records nothing, so callers never need to check for it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "auction"

// Recorder owns a private registry and the auction collectors.
type Recorder struct {
	registry *prometheus.Registry

	actions      *prometheus.CounterVec
	sales        prometheus.Counter
	pointsSpent  prometheus.Counter
	importRows   *prometheus.CounterVec
	imports      *prometheus.CounterVec
	players      *prometheus.GaugeVec
	teamSpent    *prometheus.GaugeVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	storeWrites  *prometheus.HistogramVec
}

// New builds a Recorder with Go and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "actions_total",
				Help:      "Actions applied to the auction state by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		sales: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "sales_total",
			Help:      "Players assigned to a team",
		}),
		pointsSpent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "points_spent_total",
			Help:      "Sum of sale prices recorded",
		}),
		importRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "rows_total",
				Help:      "CSV rows processed by result",
			},
			[]string{"result"},
		),
		imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "import",
				Name:      "files_total",
				Help:      "CSV files processed by outcome",
			},
			[]string{"outcome"},
		),
		players: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "players",
				Help:      "Players in the pool by sale status",
			},
			[]string{"status"},
		),
		teamSpent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pool",
				Name:      "team_spent_points",
				Help:      "Points spent per team",
			},
			[]string{"team"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route pattern, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"route"},
		),
		storeWrites: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "write_duration_seconds",
				Help:      "Snapshot write latency by outcome",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"outcome"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.actions, r.sales, r.pointsSpent,
		r.importRows, r.imports,
		r.players, r.teamSpent,
		r.httpRequests, r.httpDuration,
		r.storeWrites,
	)
	return r
}

// Registry returns the underlying registry, for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ActionApplied counts one dispatched action.
func (r *Recorder) ActionApplied(kind string, err error) {
	if r == nil {
		return
	}
	r.actions.WithLabelValues(kind, outcome(err)).Inc()
}

// Sale records a completed assignment.
func (r *Recorder) Sale(price int) {
	if r == nil {
		return
	}
	r.sales.Inc()
	r.pointsSpent.Add(float64(price))
}

// ImportFinished records an import attempt and its row counts.
func (r *Recorder) ImportFinished(produced, skipped int, err error) {
	if r == nil {
		return
	}
	r.imports.WithLabelValues(outcome(err)).Inc()
	r.importRows.WithLabelValues("produced").Add(float64(produced))
	r.importRows.WithLabelValues("skipped").Add(float64(skipped))
}

// SetPool updates the pool gauges after a state change.
func (r *Recorder) SetPool(sold, unsold int, spentByTeam map[string]int) {
	if r == nil {
		return
	}
	r.players.WithLabelValues("sold").Set(float64(sold))
	r.players.WithLabelValues("unsold").Set(float64(unsold))
	r.teamSpent.Reset()
	for team, spent := range spentByTeam {
		r.teamSpent.WithLabelValues(team).Set(float64(spent))
	}
}

// StoreWrite observes one snapshot write.
func (r *Recorder) StoreWrite(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.storeWrites.WithLabelValues(outcome(err)).Observe(d.Seconds())
}

// HTTPRequest records a served request. route is the chi pattern, not the
// raw path, to keep label cardinality bounded.
func (r *Recorder) HTTPRequest(route, method string, code int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, statusText(code)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

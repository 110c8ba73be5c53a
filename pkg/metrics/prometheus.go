package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// Метрики решения
	SolveOperationsTotal *prometheus.CounterVec
	SolveDuration        *prometheus.HistogramVec
	ObjectiveValue       *prometheus.GaugeVec
	SolverFallbacksTotal *prometheus.CounterVec

	// Метрики модели
	ModelVariables   *prometheus.HistogramVec
	ModelConstraints *prometheus.HistogramVec

	// Метрики аналитики
	AnalyticsRunsTotal *prometheus.CounterVec
	ResilienceScore    prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace string) *Metrics {
	m := &Metrics{
		SolveOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solve_operations_total",
				Help:      "Total number of solve operations",
			},
			[]string{"backend", "optimization_type", "termination"},
		),

		SolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Wall-clock duration of solver runs",
				Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"backend"},
		),

		ObjectiveValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "objective_value",
				Help:      "Objective value of the last solved plan",
			},
			[]string{"optimization_type"},
		),

		SolverFallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solver_fallbacks_total",
				Help:      "Number of backend substitutions due to unavailability",
			},
			[]string{"requested", "used"},
		),

		ModelVariables: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_variables",
				Help:      "Number of decision variables in built models",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
			[]string{"optimization_type"},
		),

		ModelConstraints: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_constraints",
				Help:      "Number of constraints in built models",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
			},
			[]string{"optimization_type"},
		),

		AnalyticsRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analytics_runs_total",
				Help:      "Total number of analytics computations",
			},
			[]string{"status"},
		),

		ResilienceScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "resilience_score",
				Help:      "Resilience score of the last analyzed plan",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_info",
				Help:      "Service version and environment",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get возвращает глобальный контейнер метрик (может быть nil до InitMetrics)
func Get() *Metrics {
	return defaultMetrics
}

// RecordSolve записывает метрики одной операции решения
func (m *Metrics) RecordSolve(backend, optimizationType, termination string, duration time.Duration, objective float64) {
	if m == nil {
		return
	}
	m.SolveOperationsTotal.WithLabelValues(backend, optimizationType, termination).Inc()
	m.SolveDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if termination == "optimal" || termination == "feasible" {
		m.ObjectiveValue.WithLabelValues(optimizationType).Set(objective)
	}
}

// RecordFallback записывает подмену бэкенда
func (m *Metrics) RecordFallback(requested, used string) {
	if m == nil {
		return
	}
	m.SolverFallbacksTotal.WithLabelValues(requested, used).Inc()
}

// RecordModelSize записывает размер построенной модели
func (m *Metrics) RecordModelSize(optimizationType string, variables, constraints int) {
	if m == nil {
		return
	}
	m.ModelVariables.WithLabelValues(optimizationType).Observe(float64(variables))
	m.ModelConstraints.WithLabelValues(optimizationType).Observe(float64(constraints))
}

// RecordAnalytics записывает результат расчёта аналитики
func (m *Metrics) RecordAnalytics(success bool, resilienceScore float64) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.AnalyticsRunsTotal.WithLabelValues(status).Inc()
	if success {
		m.ResilienceScore.Set(resilienceScore)
	}
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	if m == nil {
		return
	}
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}

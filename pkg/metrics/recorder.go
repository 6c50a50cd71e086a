package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder handles metrics recording and exposure
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Risk metrics
	varRunCounter     *prometheus.CounterVec
	varRunLatency     *prometheus.HistogramVec
	varScenarioCounts *prometheus.HistogramVec
	varGauge          *prometheus.GaugeVec
	esGauge           *prometheus.GaugeVec

	// Dataset metrics
	datasetUploadCounter *prometheus.CounterVec

	// System metrics
	kafkaLagGauge *prometheus.GaugeVec
}

// NewRecorder creates a new metrics recorder
func NewRecorder() *Recorder {
	return &Recorder{
		// API metrics
		apiRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ve_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // From 1ms to ~16s
			},
			[]string{"method", "path"},
		),

		// Risk metrics
		varRunCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_var_runs_total",
				Help: "The total number of VaR model runs",
			},
			[]string{"model", "outcome"},
		),
		varRunLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ve_var_run_latency_seconds",
				Help:    "VaR model run latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // From 10ms to ~40s
			},
			[]string{"model"},
		),
		varScenarioCounts: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ve_var_scenarios",
				Help:    "Number of scenarios revalued per VaR run",
				Buckets: prometheus.ExponentialBuckets(100, 2, 10), // From 100 to ~51k
			},
			[]string{"model"},
		),
		varGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ve_var_dollar",
				Help: "Latest dollar Value at Risk",
			},
			[]string{"model", "confidence_level"},
		),
		esGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ve_es_dollar",
				Help: "Latest dollar Expected Shortfall",
			},
			[]string{"model", "confidence_level"},
		),

		// Dataset metrics
		datasetUploadCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ve_dataset_uploads_total",
				Help: "The total number of dataset uploads",
			},
			[]string{"outcome"},
		),

		// System metrics
		kafkaLagGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ve_kafka_consumer_lag",
				Help: "Kafka consumer lag (messages)",
			},
			[]string{"topic", "group_id"},
		),
	}
}

// RecordAPIRequest records metrics for an API request
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordVaRRun records metrics for a VaR model run
func (r *Recorder) RecordVaRRun(model string, err error, latency time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.varRunCounter.WithLabelValues(model, outcome).Inc()
	r.varRunLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// RecordVaR records the latest VaR and ES values for a model
func (r *Recorder) RecordVaR(model string, confidenceLevel, varDollar, esDollar float64) {
	cl := strconv.FormatFloat(confidenceLevel, 'g', -1, 64)
	r.varGauge.WithLabelValues(model, cl).Set(varDollar)
	r.esGauge.WithLabelValues(model, cl).Set(esDollar)
}

// RecordScenarioCount records how many scenarios a VaR run revalued
func (r *Recorder) RecordScenarioCount(model string, n int) {
	r.varScenarioCounts.WithLabelValues(model).Observe(float64(n))
}

// RecordDatasetUpload records a dataset upload attempt
func (r *Recorder) RecordDatasetUpload(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.datasetUploadCounter.WithLabelValues(outcome).Inc()
}

// RecordKafkaLag records the current consumer lag for a topic
func (r *Recorder) RecordKafkaLag(topic, groupID string, lag int64) {
	r.kafkaLagGauge.WithLabelValues(topic, groupID).Set(float64(lag))
}

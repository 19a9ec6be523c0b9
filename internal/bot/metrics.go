package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	MessagesProcessed    prometheus.Counter
	CallbacksProcessed   prometheus.Counter
	ErrorsTotal          prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
	ApplicationsCreated  *prometheus.CounterVec
	BroadcastsSent       prometheus.Counter
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pirouette_bot_messages_processed_total",
			Help: "Total number of text messages processed",
		}),

		CallbacksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pirouette_bot_callbacks_processed_total",
			Help: "Total number of callback queries processed",
		}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pirouette_bot_errors_total",
			Help: "Total number of errors during update processing",
		}),

		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pirouette_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		ApplicationsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pirouette_bot_applications_created_total",
			Help: "Total number of applications created",
		}, []string{"program_type"}),

		BroadcastsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pirouette_bot_broadcasts_sent_total",
			Help: "Total number of broadcast campaigns sent",
		}),
	}
}

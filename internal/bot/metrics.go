package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	ItemsSaved           *prometheus.CounterVec
	CommandsProcessed    *prometheus.CounterVec
	DriveUploads         *prometheus.CounterVec
	AccountsLinked       prometheus.Counter
	AccountsUnlinked     prometheus.Counter
	AccountsDeleted      prometheus.Counter
	ErrorsTotal          prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		ItemsSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_items_saved_total",
			Help: "Total number of saved items by kind",
		}, []string{"kind"}),

		CommandsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_commands_processed_total",
			Help: "Total number of processed commands",
		}, []string{"command"}),

		DriveUploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_drive_uploads_total",
			Help: "Total number of Google Drive uploads by result",
		}, []string{"result"}),

		AccountsLinked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_accounts_linked_total",
			Help: "Total number of linked Google accounts",
		}),

		AccountsUnlinked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_accounts_unlinked_total",
			Help: "Total number of unlinked Google accounts",
		}),

		AccountsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_accounts_deleted_total",
			Help: "Total number of deleted accounts",
		}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of processing errors",
		}),

		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

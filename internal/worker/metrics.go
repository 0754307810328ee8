package worker

import "github.com/zeromicro/go-zero/core/metric"

var (
	emailsSent = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "email_service",
		Subsystem: "delivery",
		Name:      "emails_sent_total",
		Help:      "Total emails sent successfully",
		Labels:    []string{"email_type"},
	})

	emailsFailed = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "email_service",
		Subsystem: "delivery",
		Name:      "emails_failed_total",
		Help:      "Total emails failed permanently",
		Labels:    []string{"email_type", "reason"},
	})

	emailsRetried = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "email_service",
		Subsystem: "delivery",
		Name:      "emails_retried_total",
		Help:      "Total email delivery retries",
		Labels:    []string{"email_type"},
	})

	deliveryDuration = metric.NewHistogramVec(&metric.HistogramVecOpts{
		Namespace: "email_service",
		Subsystem: "delivery",
		Name:      "duration_seconds",
		Help:      "Email delivery duration in seconds",
		Labels:    []string{"email_type"},
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	queueDepth = metric.NewGaugeVec(&metric.GaugeVecOpts{
		Namespace: "email_service",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Current queue depth by status",
		Labels:    []string{"status"},
	})
)

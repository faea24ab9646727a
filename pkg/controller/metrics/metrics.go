package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/qualified-io/ephemeron-operator/pkg/controller/controllername"
)

var (
	EphemeronReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ephemeron_reconcile_total",
		Help: "Total number of reconciliations per controller",
	}, []string{"controller", "result"})

	EphemeronReconcileErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ephemeron_reconcile_errors_total",
		Help: "Total number of reconciliation errors per controller",
	}, []string{"controller"})

	EphemeronReconcileDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ephemeron_reconcile_duration_seconds",
		Help:    "Time spent in a single reconcile call per controller",
		Buckets: prometheus.DefBuckets,
	}, []string{"controller"})

	EphemeronExpirationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ephemeron_expirations_total",
		Help: "Total number of Ephemerons deleted because they reached their expiration time",
	})

	EphemeronQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ephemeron_workqueue_depth",
		Help: "Current depth of the Ephemeron reconcile work queue",
	})

	EphemeronQueueRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ephemeron_workqueue_retries_total",
		Help: "Total number of items re-added to the Ephemeron reconcile work queue after a failure",
	})
)

const (
	LabelError        = "error"
	LabelRequeueAfter = "requeue_after"
	LabelRequeue      = "requeue"
	LabelSuccess      = "success"
)

func init() {
	metrics.Registry.MustRegister(
		EphemeronReconcileErrors,
		EphemeronReconcileTotal,
		EphemeronReconcileDuration,
		EphemeronExpirationsTotal,
		EphemeronQueueDepth,
		EphemeronQueueRetries,
	)
}

// HandleControllerReconcileMetrics is meant to be called within a defer for each controller.
// This lets us put all the metric handling in one place, rather than duplicating it in every controller.
func HandleControllerReconcileMetrics(controllerName controllername.ControllerNamer, start time.Time, result ctrl.Result, err error) {
	cn := controllerName.MetricsName()

	EphemeronReconcileDuration.WithLabelValues(cn).Observe(time.Since(start).Seconds())

	switch {
	// apierrors.IsNotFound is ignored by controllers so this should too
	case err != nil && !apierrors.IsNotFound(err):
		EphemeronReconcileTotal.WithLabelValues(cn, LabelError).Inc()
		EphemeronReconcileErrors.WithLabelValues(cn).Inc()
	case result.RequeueAfter > 0:
		EphemeronReconcileTotal.WithLabelValues(cn, LabelRequeueAfter).Inc()
	case result.Requeue:
		EphemeronReconcileTotal.WithLabelValues(cn, LabelRequeue).Inc()
	default:
		EphemeronReconcileTotal.WithLabelValues(cn, LabelSuccess).Inc()
	}
}

func InitControllerMetrics(controllerName controllername.ControllerNamer) {
	cn := controllerName.MetricsName()
	EphemeronReconcileTotal.WithLabelValues(cn, LabelError).Add(0)
	EphemeronReconcileTotal.WithLabelValues(cn, LabelRequeueAfter).Add(0)
	EphemeronReconcileTotal.WithLabelValues(cn, LabelRequeue).Add(0)
	EphemeronReconcileTotal.WithLabelValues(cn, LabelSuccess).Add(0)

	EphemeronReconcileErrors.WithLabelValues(cn).Add(0)
}

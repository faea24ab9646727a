package testutils

import (
	"regexp"
	"testing"

	promDTO "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/qualified-io/ephemeron-operator/pkg/controller/metrics"
)

func GetErrMetricCount(t *testing.T, controllerName string) float64 {
	errMetric, err := metrics.EphemeronReconcileErrors.GetMetricWithLabelValues(controllerName)
	require.NoError(t, err)

	metricProto := &promDTO.Metric{}

	err = errMetric.Write(metricProto)
	require.NoError(t, err)

	beforeCount := metricProto.GetCounter().GetValue()
	return beforeCount
}

func GetReconcileMetricCount(t *testing.T, controllerName, label string) float64 {
	errMetric, err := metrics.EphemeronReconcileTotal.GetMetricWithLabelValues(controllerName, label)
	require.NoError(t, err)

	metricProto := &promDTO.Metric{}

	err = errMetric.Write(metricProto)
	require.NoError(t, err)

	beforeCount := metricProto.GetCounter().GetValue()
	return beforeCount
}

var snakeCaseRe = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// IsPrometheusBestPracticeName reports whether name follows the Prometheus
// naming convention: lowercase snake_case with no leading or trailing
// underscore. https://prometheus.io/docs/practices/naming/
func IsPrometheusBestPracticeName(name string) bool {
	return snakeCaseRe.MatchString(name)
}

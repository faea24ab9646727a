package common

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	"github.com/qualified-io/ephemeron-operator/pkg/controller/controllername"
	"github.com/qualified-io/ephemeron-operator/pkg/controller/metrics"
	"github.com/qualified-io/ephemeron-operator/pkg/controller/testutils"
)

func TestResourceReconcilerEmpty(t *testing.T) {
	c := fake.NewClientBuilder().Build()

	name := controllername.New("test", "resource", "reconciler")
	rr := &resourceReconciler{
		name:      name,
		client:    c,
		logger:    logr.Discard(),
		resources: []client.Object{},
	}
	metricsName := name.MetricsName()
	beforeErrCount := testutils.GetErrMetricCount(t, metricsName)
	beforeReconcileCount := testutils.GetReconcileMetricCount(t, metricsName, metrics.LabelSuccess)
	require.NoError(t, rr.tick(context.Background()))

	require.Equal(t, beforeErrCount, testutils.GetErrMetricCount(t, metricsName))
	require.GreaterOrEqual(t, testutils.GetReconcileMetricCount(t, metricsName, metrics.LabelSuccess), beforeReconcileCount)
}

func TestResourceReconcilerIntegration(t *testing.T) {
	c := fake.NewClientBuilder().Build()

	obj := &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{
			Kind:       "Namespace",
			APIVersion: "v1",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: "test",
		},
	}

	name := controllername.New("test")
	rr := &resourceReconciler{
		name:      name,
		client:    c,
		logger:    logr.Discard(),
		resources: []client.Object{obj},
	}

	// prove the resource doesn't exist
	actual := &corev1.Namespace{}
	require.True(t,
		errors.IsNotFound(c.Get(context.Background(), client.ObjectKeyFromObject(obj), actual)),
		"expected not found error")

	require.NoError(t, rr.tick(context.Background()))

	require.NoError(t,
		c.Get(context.Background(), client.ObjectKeyFromObject(obj), actual),
		"expected resource to exist")

	// delete the resource
	require.NoError(t, c.Delete(context.Background(), obj))
	require.True(t,
		errors.IsNotFound(c.Get(context.Background(), client.ObjectKeyFromObject(obj), actual)),
		"expected not found error")

	// prove the resource is recreated
	require.NoError(t, rr.tick(context.Background()))

	require.NoError(t,
		c.Get(context.Background(), client.ObjectKeyFromObject(obj), actual),
		"expected resource to exist")
}

func TestResourceReconcilerLeaderElection(t *testing.T) {
	var ler manager.LeaderElectionRunnable = &resourceReconciler{}
	require.True(t, ler.NeedLeaderElection(), "should need leader election")
}

func TestNewResourceReconciler(t *testing.T) {
	m := &fakeAddManager{client: fake.NewClientBuilder().Build(), logger: logr.Discard()}
	err := NewResourceReconciler(m, controllername.New("test"), nil, time.Nanosecond)
	require.NoError(t, err)
	require.True(t, m.added)
}

func TestResourceReconciler_DeletionTimestamp(t *testing.T) {
	deletionTimeStamp := metav1.Time{Time: time.Now().Add(time.Second)}
	obj := &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{
			Kind:       "Namespace",
			APIVersion: "v1",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:              "test",
			DeletionTimestamp: &deletionTimeStamp,
			Finalizers:        []string{"finalizer"},
		},
	}

	c := fake.NewClientBuilder().WithObjects(obj).Build()

	rr := &resourceReconciler{
		name:      controllername.New("test", "name"),
		client:    c,
		logger:    logr.Discard(),
		resources: []client.Object{obj},
	}

	obj.SetFinalizers([]string{})
	require.NoError(t, c.Update(context.Background(), obj))

	require.NoError(t, rr.tick(context.Background()))

	// prove object got deleted
	actual := &corev1.Namespace{}
	require.True(t,
		errors.IsNotFound(c.Get(context.Background(), client.ObjectKeyFromObject(obj), actual)),
		"expected not found error")
}

type fakeAddManager struct {
	manager.Manager
	client client.Client
	logger logr.Logger
	added  bool
}

func (f *fakeAddManager) GetClient() client.Client { return f.client }
func (f *fakeAddManager) GetLogger() logr.Logger    { return f.logger }
func (f *fakeAddManager) Add(manager.Runnable) error {
	f.added = true
	return nil
}

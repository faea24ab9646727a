// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	ubzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	ephemeronv1alpha1 "github.com/qualified-io/ephemeron-operator/api/v1alpha1"
	"github.com/qualified-io/ephemeron-operator/pkg/config"
	"github.com/qualified-io/ephemeron-operator/pkg/controller/common"
	"github.com/qualified-io/ephemeron-operator/pkg/controller/controllername"
	"github.com/qualified-io/ephemeron-operator/pkg/controller/ephemeron"
)

// namespaceResyncInterval is how often the operator re-asserts its own
// operating namespace exists, self-healing it if deleted out from under the
// running process.
const namespaceResyncInterval = 5 * time.Minute

var namespaceReconcilerName = controllername.New("ephemeron", "namespace")

var scheme = runtime.NewScheme()

func init() {
	registerSchemes(scheme)
	ctrl.SetLogger(getLogger())
	// klog backs client-go's own logging (leader election, informers); sharing
	// the logger keeps those lines in the same structured format as ours.
	klog.SetLogger(getLogger())
}

func getLogger(opts ...zap.Opts) logr.Logger {
	rawOpts := zap.RawZapOpts(ubzap.AddCaller())
	return zap.New(append(opts, rawOpts)...)
}

// ConfigureLogging re-points the root logr.Logger (and klog's) at a zap
// logger running at level, translating the RUST_LOG-style name config.Config
// carries into a zapcore.Level. Call it once at startup after config.FromEnv,
// before NewManager.
func ConfigureLogging(level string) error {
	zl, err := parseLevel(level)
	if err != nil {
		return err
	}

	logger := getLogger(zap.Level(zl))
	ctrl.SetLogger(logger)
	klog.SetLogger(logger)
	return nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

func registerSchemes(s *runtime.Scheme) {
	utilruntime.Must(clientgoscheme.AddToScheme(s))
	utilruntime.Must(netv1.AddToScheme(s))
	utilruntime.Must(ephemeronv1alpha1.AddToScheme(s))
	utilruntime.Must(apiextensionsv1.AddToScheme(s))
}

// NewManager connects to the cluster the process is running in (or
// configured to reach via kubeconfig) and builds a manager wired with the
// Ephemeron reconciler.
func NewManager(conf *config.Config) (ctrl.Manager, error) {
	return NewManagerForRestConfig(conf, ctrl.GetConfigOrDie())
}

// NewManagerForRestConfig builds the manager against an explicit rest.Config,
// letting tests point it at an envtest or fake API server.
func NewManagerForRestConfig(conf *config.Config, rc *rest.Config) (ctrl.Manager, error) {
	leaderElectionID := "ephemeron-operator-leader"

	m, err := ctrl.NewManager(rc, ctrl.Options{
		Metrics:                 metricsserver.Options{BindAddress: conf.MetricsAddr},
		HealthProbeBindAddress:  conf.ProbeAddr,
		Scheme:                  scheme,
		Cache:                   cache.Options{SyncPeriod: &conf.ResyncPeriod},
		LeaderElection:          conf.LeaderElection,
		LeaderElectionNamespace: conf.Namespace,
		LeaderElectionID:        leaderElectionID,
	})
	if err != nil {
		return nil, fmt.Errorf("building manager: %w", err)
	}

	setupLog := m.GetLogger().WithName("setup")

	if err := setupProbes(m, setupLog); err != nil {
		return nil, fmt.Errorf("setting up probes: %w", err)
	}

	if err := setupStaticResources(m, conf); err != nil {
		return nil, fmt.Errorf("setting up static resources: %w", err)
	}

	if err := setupControllers(m, conf, setupLog); err != nil {
		return nil, fmt.Errorf("setting up controllers: %w", err)
	}

	return m, nil
}

// setupStaticResources ensures the operator's own operating namespace keeps
// existing for the lifetime of the process, independent of any Ephemeron
// reconcile.
func setupStaticResources(mgr ctrl.Manager, conf *config.Config) error {
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: conf.Namespace}}
	return common.NewResourceReconciler(mgr, namespaceReconcilerName, []client.Object{ns}, namespaceResyncInterval)
}

func setupControllers(mgr ctrl.Manager, conf *config.Config, lgr logr.Logger) error {
	lgr.Info("setting up Ephemeron reconciler")
	if err := ephemeron.NewReconciler(conf, mgr); err != nil {
		return fmt.Errorf("setting up ephemeron reconciler: %w", err)
	}

	lgr.Info("finished setting up controllers")
	return nil
}

// pingChecker reports healthy once the reconciler has been registered, the
// only precondition this process has before it's ready to take traffic.
type pingChecker struct{}

func (pingChecker) IsHealthy() bool { return true }

func setupProbes(mgr ctrl.Manager, lgr logr.Logger) error {
	lgr.Info("adding probes to manager")

	checkers := newHealthCheckers()
	checkers.addCheck(pingChecker{})

	check := func(*http.Request) error {
		if !checkers.isHealthy() {
			return fmt.Errorf("one or more health checks failed")
		}
		return nil
	}

	if err := mgr.AddReadyzCheck("readyz", check); err != nil {
		return fmt.Errorf("adding readyz check: %w", err)
	}
	if err := mgr.AddHealthzCheck("healthz", check); err != nil {
		return fmt.Errorf("adding healthz check: %w", err)
	}

	lgr.Info("added probes to manager")
	return nil
}

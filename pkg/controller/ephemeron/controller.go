// Package ephemeron implements the reconciler that realizes an Ephemeron's
// desired short-lived HTTP service: expiry enforcement, child resource
// ensure, host annotation, and status condition computation.
package ephemeron

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/log"

	ephemeronv1alpha1 "github.com/qualified-io/ephemeron-operator/api/v1alpha1"
	"github.com/qualified-io/ephemeron-operator/pkg/conditions"
	"github.com/qualified-io/ephemeron-operator/pkg/config"
	"github.com/qualified-io/ephemeron-operator/pkg/controller/controllererrors"
	"github.com/qualified-io/ephemeron-operator/pkg/controller/controllername"
	"github.com/qualified-io/ephemeron-operator/pkg/controller/metrics"
	"github.com/qualified-io/ephemeron-operator/pkg/manifests"
	"github.com/qualified-io/ephemeron-operator/pkg/scheduler"
)

// hostAnnotationKey is the key the reconciler maintains on the Ephemeron
// itself, distinct from manifests' own bookkeeping annotation on the
// Ingress it builds.
const hostAnnotationKey = "host"

var reconcilerName = controllername.New("ephemeron", "reconciler")

// defaultIngressAnnotations are applied to every Ingress the operator
// creates; Ephemeron.Spec.IngressAnnotations overrides these key-by-key.
var defaultIngressAnnotations = map[string]string{}

// Reconciler drives one Ephemeron's child resources and status toward the
// decision procedure's fixed point.
type Reconciler struct {
	client client.Client
	conf   *config.Config
	clock  clock.PassiveClock
}

// NewReconciler wires a Reconciler into mgr, watching Ephemerons and the
// child kinds it owns.
func NewReconciler(conf *config.Config, mgr ctrl.Manager) error {
	metrics.InitControllerMetrics(reconcilerName)

	r := &Reconciler{
		client: mgr.GetClient(),
		conf:   conf,
		clock:  clock.RealClock{},
	}

	blder := ctrl.NewControllerManagedBy(mgr).
		For(&ephemeronv1alpha1.Ephemeron{}).
		Owns(&corev1.Pod{}).
		Owns(&corev1.Service{}).
		Owns(&netv1.Ingress{}).
		WithOptions(controller.Options{
			MaxConcurrentReconciles: conf.MaxConcurrentReconciles,
			RateLimiter:             scheduler.NewForReconcileRequests(),
		})

	if err := reconcilerName.AddToController(blder, mgr.GetLogger()).Complete(r); err != nil {
		return fmt.Errorf("building the Ephemeron controller: %w", err)
	}

	return nil
}

// Reconcile implements reconcile.Reconciler.
func (r *Reconciler) Reconcile(ctx context.Context, req ctrl.Request) (res ctrl.Result, err error) {
	start := time.Now()
	lgr := log.FromContext(ctx, "ephemeron", req.Name)
	ctx = log.IntoContext(ctx, lgr)

	defer func() {
		metrics.HandleControllerReconcileMetrics(reconcilerName, start, res, err)
	}()

	eph := &ephemeronv1alpha1.Ephemeron{}
	if err := r.client.Get(ctx, req.NamespacedName, eph); err != nil {
		if apierrors.IsNotFound(err) {
			lgr.Info("Ephemeron not found")
			return ctrl.Result{}, nil
		}
		lgr.Error(err, "unable to fetch Ephemeron")
		return ctrl.Result{}, err
	}

	return r.reconcile(ctx, eph)
}

func (r *Reconciler) reconcile(ctx context.Context, eph *ephemeronv1alpha1.Ephemeron) (ctrl.Result, error) {
	lgr := log.FromContext(ctx)

	if r.conf.ReconcileDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.conf.ReconcileDeadline)
		defer cancel()
	}

	if err := validate(eph); err != nil {
		lgr.Error(err, "Ephemeron spec is invalid")
		return ctrl.Result{}, nil
	}

	// Step 1: expiry check.
	now := r.clock.Now().UTC()
	if !now.Before(eph.Spec.Expires.Time) {
		lgr.Info("Ephemeron expired, deleting", "expires", eph.Spec.Expires.Time)
		if err := r.client.Delete(ctx, eph); err != nil && !apierrors.IsNotFound(err) {
			return ctrl.Result{}, fmt.Errorf("deleting expired Ephemeron: %w", err)
		}
		metrics.EphemeronExpirationsTotal.Inc()
		return ctrl.Result{}, nil
	}

	// Step 2: host annotation. Must land before child-ensure so API
	// consumers can discover the hostname as soon as the object is accepted.
	host := manifests.Host(r.conf.Domain, eph.Name)
	if eph.Annotations[hostAnnotationKey] != host {
		patch := client.MergeFrom(eph.DeepCopy())
		if eph.Annotations == nil {
			eph.Annotations = map[string]string{}
		}
		eph.Annotations[hostAnnotationKey] = host
		if err := r.client.Patch(ctx, eph, patch); err != nil {
			return ctrl.Result{}, fmt.Errorf("patching host annotation: %w", err)
		}
	}

	// Step 3: child ensure for Pod, Service and Ingress, run concurrently;
	// no creation order is enforced between them. Failures here are
	// accumulated, not fatal: the status step still runs with whatever
	// facts are observable so conditions reflect reality during an outage.
	desired := manifests.Build(eph, r.conf.Namespace, r.conf.Domain, r.conf.IngressClassName, defaultIngressAnnotations)
	ensureErr := r.ensureChildren(ctx, eph, desired)
	if ensureErr != nil {
		lgr.Error(ensureErr, "one or more child resources failed to reconcile")
	}

	// Step 4: status update.
	facts, factsErr := r.observeFacts(ctx, eph)
	if factsErr != nil {
		lgr.Error(factsErr, "failed to observe child state for status computation")
	}

	statusChanged := r.applyStatus(eph, facts, now)
	if statusChanged {
		if err := r.client.Status().Update(ctx, eph); err != nil {
			lgr.Error(err, "failed to update Ephemeron status")
			if ensureErr == nil {
				ensureErr = err
			}
		}
	}

	if ensureErr != nil {
		return ctrl.Result{}, ensureErr
	}

	// Step 5: requeue at expiry; owned-resource events drive interim reconciles.
	return ctrl.Result{RequeueAfter: eph.Spec.Expires.Time.Sub(now)}, nil
}

func validate(eph *ephemeronv1alpha1.Ephemeron) error {
	if eph.Spec.Image == "" {
		return controllererrors.NewValidationError("image", fmt.Errorf("must not be empty"))
	}
	if eph.Spec.Port < 1 || eph.Spec.Port > 65535 {
		return controllererrors.NewValidationError("port", fmt.Errorf("must be between 1 and 65535, got %d", eph.Spec.Port))
	}
	if eph.Spec.Expires.IsZero() {
		return controllererrors.NewValidationError("expires", fmt.Errorf("must be set"))
	}
	return nil
}

// applyStatus computes the new condition set and reports whether
// status.conditions or status.observedGeneration changed.
func (r *Reconciler) applyStatus(eph *ephemeronv1alpha1.Ephemeron, facts conditions.Facts, now time.Time) bool {
	newConditions := conditions.Compute(eph.Status.Conditions, facts, eph.Generation, metav1.NewTime(now))

	changed := !conditionsEqual(eph.Status.Conditions, newConditions) || eph.Status.ObservedGeneration != eph.Generation
	eph.Status.Conditions = newConditions
	eph.Status.ObservedGeneration = eph.Generation
	return changed
}

func conditionsEqual(a, b []metav1.Condition) bool {
	if len(a) != len(b) {
		return false
	}
	sorted := func(conds []metav1.Condition) []metav1.Condition {
		out := append([]metav1.Condition(nil), conds...)
		sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
		return out
	}
	as, bs := sorted(a), sorted(b)
	for i := range as {
		if as[i].Type != bs[i].Type || as[i].Status != bs[i].Status || as[i].Reason != bs[i].Reason {
			return false
		}
	}
	return true
}

// observeFacts fetches the owned Pod and the Service's Endpoints (named
// identically to the Service per the builder's contract) for the condition engine.
func (r *Reconciler) observeFacts(ctx context.Context, eph *ephemeronv1alpha1.Ephemeron) (conditions.Facts, error) {
	var facts conditions.Facts
	var errs *multierror.Error

	pod := &corev1.Pod{}
	switch err := r.client.Get(ctx, client.ObjectKey{Namespace: r.conf.Namespace, Name: eph.Name}, pod); {
	case err == nil:
		facts.Pod = pod
	case apierrors.IsNotFound(err):
	default:
		errs = multierror.Append(errs, fmt.Errorf("getting Pod: %w", err))
	}

	endpoints := &corev1.Endpoints{}
	switch err := r.client.Get(ctx, client.ObjectKey{Namespace: r.conf.Namespace, Name: eph.Name}, endpoints); {
	case err == nil:
		facts.Endpoints = endpoints
	case apierrors.IsNotFound(err):
	default:
		errs = multierror.Append(errs, fmt.Errorf("getting Endpoints: %w", err))
	}

	return facts, errs.ErrorOrNil()
}

// ensureChildren creates each missing child and verifies ownership of any
// that already exist. The three children have no ordering dependency on one
// another, so an errgroup ensures them concurrently, each call bounded by
// its own API-call deadline; every failure is accumulated rather than
// short-circuiting so a problem with one child never hides a problem with
// another.
func (r *Reconciler) ensureChildren(ctx context.Context, eph *ephemeronv1alpha1.Ephemeron, desired *manifests.Resources) error {
	var mu sync.Mutex
	var errs *multierror.Error
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		errs = multierror.Append(errs, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for kind, obj := range map[string]client.Object{
		"Pod":     desired.Pod,
		"Service": desired.Service,
		"Ingress": desired.Ingress,
	} {
		kind, obj := kind, obj
		g.Go(func() error {
			record(r.ensureChild(gctx, eph, kind, obj))
			return nil
		})
	}
	_ = g.Wait()

	return errs.ErrorOrNil()
}

// ensureChild fetches desired's namespaced name; if absent it creates
// desired, and if present it verifies the existing object is owned by eph,
// returning an OwnershipConflictError otherwise, then reconciles drift: the
// Service's port is updated in place and the Ingress is recreated when its
// host changed (OQ-1's minimum bar). The Pod is left
// alone once created since its spec is largely immutable; a changed image
// requires deleting the Pod, which the builder's byte-identical re-Build on
// every reconcile does not by itself force.
func (r *Reconciler) ensureChild(ctx context.Context, eph *ephemeronv1alpha1.Ephemeron, kind string, desired client.Object) error {
	if r.conf.APICallDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.conf.APICallDeadline)
		defer cancel()
	}

	existing := reflect.New(reflect.TypeOf(desired).Elem()).Interface().(client.Object)
	key := client.ObjectKeyFromObject(desired)

	err := r.client.Get(ctx, key, existing)
	switch {
	case apierrors.IsNotFound(err):
		if err := r.client.Create(ctx, desired); err != nil && !apierrors.IsAlreadyExists(err) {
			return controllererrors.NewTransientError(fmt.Errorf("creating %s %s: %w", kind, key.Name, err))
		}
		return nil
	case err != nil:
		return controllererrors.NewTransientError(fmt.Errorf("getting %s %s: %w", kind, key.Name, err))
	}

	if !manifests.IsOwnedBy(existing, eph) {
		return controllererrors.NewOwnershipConflictError(kind, key.Name)
	}

	if err := reconcileDrift(ctx, r.client, kind, existing, desired); err != nil {
		return controllererrors.NewTransientError(fmt.Errorf("reconciling drift on %s %s: %w", kind, key.Name, err))
	}

	return nil
}

// reconcileDrift brings an existing child in line with desired when the
// fields the Ephemeron's caller can change have drifted: the Service's port
// (spec.port changed) and the Ingress's host (EPHEMERON_DOMAIN reconfigured
// or the Ephemeron renamed). Everything else about a child, once created, is
// left as-is.
func reconcileDrift(ctx context.Context, c client.Client, kind string, existing, desired client.Object) error {
	switch kind {
	case "Service":
		existingSvc, desiredSvc := existing.(*corev1.Service), desired.(*corev1.Service)
		if len(existingSvc.Spec.Ports) == 0 || len(desiredSvc.Spec.Ports) == 0 ||
			existingSvc.Spec.Ports[0].Port != desiredSvc.Spec.Ports[0].Port ||
			existingSvc.Spec.Ports[0].TargetPort != desiredSvc.Spec.Ports[0].TargetPort {
			updated := existingSvc.DeepCopy()
			updated.Spec.Ports = desiredSvc.Spec.Ports
			updated.Spec.Selector = desiredSvc.Spec.Selector
			return c.Update(ctx, updated)
		}
	case "Ingress":
		existingIng, desiredIng := existing.(*netv1.Ingress), desired.(*netv1.Ingress)
		if manifests.IngressHost(existingIng) != manifests.IngressHost(desiredIng) {
			if err := c.Delete(ctx, existingIng); err != nil && !apierrors.IsNotFound(err) {
				return err
			}
			if err := c.Create(ctx, desiredIng); err != nil && !apierrors.IsAlreadyExists(err) {
				return err
			}
		}
	}
	return nil
}

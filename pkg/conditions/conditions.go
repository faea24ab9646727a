// Package conditions computes an Ephemeron's status.conditions from observed
// child-resource facts, the way api.VerifyAndSetCondition computes a single
// condition's transition: a status change moves lastTransitionTime forward,
// an unchanged status keeps the prior timestamp.
package conditions

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	ephemeronv1alpha1 "github.com/qualified-io/ephemeron-operator/api/v1alpha1"
)

// Facts bundles everything the engine needs to derive PodReady and
// Available. A nil Pod or Endpoints means that resource wasn't found, which
// is itself meaningful (PodReady=Unknown, Available=False).
type Facts struct {
	Pod       *corev1.Pod
	Endpoints *corev1.Endpoints
}

// EndpointsReady reports whether the Endpoints object carries at least one
// ready address in any subset.
func (f Facts) EndpointsReady() bool {
	if f.Endpoints == nil {
		return false
	}
	for _, subset := range f.Endpoints.Subsets {
		if len(subset.Addresses) > 0 {
			return true
		}
	}
	return false
}

// podReadyStatus derives PodReady from the owned Pod's own Ready condition.
func podReadyStatus(pod *corev1.Pod) metav1.ConditionStatus {
	if pod == nil {
		return metav1.ConditionUnknown
	}
	for _, c := range pod.Status.Conditions {
		if c.Type == corev1.PodReady {
			switch c.Status {
			case corev1.ConditionTrue:
				return metav1.ConditionTrue
			case corev1.ConditionFalse:
				return metav1.ConditionFalse
			}
			return metav1.ConditionUnknown
		}
	}
	return metav1.ConditionUnknown
}

const (
	reasonPodReady       = "PodReady"
	reasonPodNotReady    = "PodNotReady"
	reasonPodUnknown     = "PodStateUnknown"
	reasonEndpointsReady = "EndpointsReady"
	reasonNoEndpoints    = "NoReadyEndpoints"
)

// Compute derives the new status.conditions list for an Ephemeron given the
// previous conditions (read off eph before this reconcile mutated anything)
// and the currently observed Facts. now is a single instant captured once
// per reconcile so every transition in the same pass shares a timestamp.
//
// The returned list always contains PodReady and Available, with
// observedGeneration set to generation, plus any other condition types
// carried over unchanged from previous; the whole list is sorted by type.
func Compute(previous []metav1.Condition, facts Facts, generation int64, now metav1.Time) []metav1.Condition {
	result := &ephemeronv1alpha1.EphemeronStatus{Conditions: append([]metav1.Condition(nil), previous...)}

	podStatus := podReadyStatus(facts.Pod)
	podReason := reasonPodUnknown
	switch podStatus {
	case metav1.ConditionTrue:
		podReason = reasonPodReady
	case metav1.ConditionFalse:
		podReason = reasonPodNotReady
	}
	setCondition(result, ephemeronv1alpha1.ConditionTypePodReady, podStatus, podReason, generation, now)

	availStatus := metav1.ConditionFalse
	availReason := reasonNoEndpoints
	if facts.EndpointsReady() {
		availStatus = metav1.ConditionTrue
		availReason = reasonEndpointsReady
	}
	setCondition(result, ephemeronv1alpha1.ConditionTypeAvailable, availStatus, availReason, generation, now)

	return result.Conditions
}

// setCondition mirrors api.VerifyAndSetCondition's preserve-timestamp rule
// without depending on a live Conditioner, since the caller hasn't committed
// these conditions to the object yet.
func setCondition(status *ephemeronv1alpha1.EphemeronStatus, condType string, condStatus metav1.ConditionStatus, reason string, generation int64, now metav1.Time) {
	newCondition := metav1.Condition{
		Type:               condType,
		Status:             condStatus,
		Reason:             reason,
		ObservedGeneration: generation,
		LastTransitionTime: now,
	}

	for i, existing := range status.Conditions {
		if existing.Type != condType {
			continue
		}
		if existing.Status == condStatus {
			newCondition.LastTransitionTime = existing.LastTransitionTime
		}
		status.Conditions[i] = newCondition
		sortConditions(status.Conditions)
		return
	}

	status.Conditions = append(status.Conditions, newCondition)
	sortConditions(status.Conditions)
}

func sortConditions(conditions []metav1.Condition) {
	for i := 1; i < len(conditions); i++ {
		for j := i; j > 0 && conditions[j-1].Type > conditions[j].Type; j-- {
			conditions[j-1], conditions[j] = conditions[j], conditions[j-1]
		}
	}
}

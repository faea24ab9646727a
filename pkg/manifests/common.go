package manifests

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/qualified-io/ephemeron-operator/pkg/util"
)

// topLevelLabels are applied to every resource the operator manages, on top
// of whatever the caller adds, so that all of them can be found with a single
// label selector regardless of which Ephemeron owns them.
var topLevelLabels = map[string]string{"app.kubernetes.io/managed-by": "ephemeron-operator"}

// ephemeronLabels returns the full label set for resources owned by the
// named Ephemeron: the operator's top-level labels plus the app/ephemeron
// pair the data model requires, the latter doubling as the Service selector.
func ephemeronLabels(name string) map[string]string {
	return util.MergeMaps(topLevelLabels, map[string]string{
		"app":       name,
		"ephemeron": name,
	})
}

func ownerRefs(owner metav1.Object, apiVersion, kind string) []metav1.OwnerReference {
	return []metav1.OwnerReference{{
		APIVersion:         apiVersion,
		Kind:               kind,
		Name:               owner.GetName(),
		UID:                owner.GetUID(),
		Controller:         util.ToPtr(true),
		BlockOwnerDeletion: util.ToPtr(true),
	}}
}

func withTypicalReadinessProbe(port int32, container *corev1.Container) *corev1.Container {
	c := container.DeepCopy()

	c.ReadinessProbe = &corev1.Probe{
		FailureThreshold:    3,
		InitialDelaySeconds: 1,
		PeriodSeconds:       5,
		SuccessThreshold:    1,
		TimeoutSeconds:      1,
		ProbeHandler: corev1.ProbeHandler{
			TCPSocket: &corev1.TCPSocketAction{
				Port: intstr.FromInt32(port),
			},
		},
	}

	return c
}

func withLivenessProbeMatchingReadiness(container *corev1.Container) *corev1.Container {
	c := container.DeepCopy()
	c.LivenessProbe = c.ReadinessProbe.DeepCopy()
	return c
}

package manifests

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	netv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ephemeronv1alpha1 "github.com/qualified-io/ephemeron-operator/api/v1alpha1"
	"github.com/qualified-io/ephemeron-operator/pkg/util"
)

// ephemeronAPIVersion and ephemeronKind are the fixed GVK Ephemeron's
// OwnerReferences point at. They can't be read off the object's TypeMeta
// because that's frequently empty on objects retrieved through the typed
// client, so every owner reference in this package spells them out.
const (
	ephemeronAPIVersion = "qualified.io/v1alpha1"
	ephemeronKind        = "Ephemeron"

	containerName = "app"
	// nonRootUID is the UID/GID the operator's container runs as. Ephemeron
	// images are arbitrary caller-supplied images, so this is the most
	// conservative non-root identity rather than one tailored to any image.
	nonRootUID = 65532
	// hostAnnotation records the hostname an Ephemeron's Ingress was built
	// with, so a later reconcile can detect a host change (e.g. after the
	// base domain config changes) and recreate the Ingress instead of
	// patching a Rule the apiserver won't let it rename in place.
	hostAnnotation = "qualified.io/host"
)

// Resources bundles every child object an Ephemeron owns. Objects returns
// them in Pod, Service, Ingress order; the reconciler does not use this
// order and ensures the three concurrently.
type Resources struct {
	Pod     *corev1.Pod
	Service *corev1.Service
	Ingress *netv1.Ingress
}

func (r *Resources) Objects() []client.Object {
	return []client.Object{r.Pod, r.Service, r.Ingress}
}

// Host synthesizes the per-instance subdomain an Ephemeron is exposed on:
// <name>.<domain>, joined as given without case conversion, stable for the
// lifetime of the Ephemeron.
func Host(domain, name string) string {
	return fmt.Sprintf("%s.%s", name, domain)
}

// BuildPod constructs the Pod that runs an Ephemeron's container image.
func BuildPod(eph *ephemeronv1alpha1.Ephemeron, namespace string) *corev1.Pod {
	container := corev1.Container{
		Name:  containerName,
		Image: eph.Spec.Image,
		Ports: []corev1.ContainerPort{{
			Name:          "http",
			ContainerPort: eph.Spec.Port,
			Protocol:      corev1.ProtocolTCP,
		}},
		SecurityContext: &corev1.SecurityContext{
			RunAsUser:                util.Int64Ptr(nonRootUID),
			RunAsGroup:               util.Int64Ptr(nonRootUID),
			RunAsNonRoot:             util.ToPtr(true),
			AllowPrivilegeEscalation: util.ToPtr(false),
		},
	}
	if len(eph.Spec.Command) > 0 {
		container.Command = eph.Spec.Command
	}
	if eph.Spec.WorkingDir != "" {
		container.WorkingDir = eph.Spec.WorkingDir
	}

	withProbes := withLivenessProbeMatchingReadiness(withTypicalReadinessProbe(eph.Spec.Port, &container))

	return &corev1.Pod{
		TypeMeta: metav1.TypeMeta{Kind: "Pod", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            eph.Name,
			Namespace:       namespace,
			Labels:          ephemeronLabels(eph.Name),
			OwnerReferences: ownerRefs(eph, ephemeronAPIVersion, ephemeronKind),
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers:    []corev1.Container{*withProbes},
		},
	}
}

// BuildService constructs the ClusterIP Service fronting the Ephemeron's Pod.
func BuildService(eph *ephemeronv1alpha1.Ephemeron, namespace string) *corev1.Service {
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{Kind: "Service", APIVersion: "v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            eph.Name,
			Namespace:       namespace,
			Labels:          ephemeronLabels(eph.Name),
			OwnerReferences: ownerRefs(eph, ephemeronAPIVersion, ephemeronKind),
		},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{"ephemeron": eph.Name},
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       eph.Spec.Port,
				TargetPort: intstr.FromInt32(eph.Spec.Port),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

// BuildIngress constructs the Ingress that exposes the Ephemeron's Service on
// its synthesized host. annotations is the operator's default annotation set
// merged with the Ephemeron's IngressAnnotations, with the Ephemeron's keys
// taking precedence.
func BuildIngress(eph *ephemeronv1alpha1.Ephemeron, namespace, domain, ingressClassName string, defaultAnnotations map[string]string) *netv1.Ingress {
	host := Host(domain, eph.Name)
	pathType := netv1.PathTypePrefix

	annotations := util.MergeMaps(defaultAnnotations, eph.Spec.IngressAnnotations)
	annotations[hostAnnotation] = host

	spec := netv1.IngressSpec{
		Rules: []netv1.IngressRule{{
			Host: host,
			IngressRuleValue: netv1.IngressRuleValue{
				HTTP: &netv1.HTTPIngressRuleValue{
					Paths: []netv1.HTTPIngressPath{{
						Path:     "/",
						PathType: &pathType,
						Backend: netv1.IngressBackend{
							Service: &netv1.IngressServiceBackend{
								Name: eph.Name,
								Port: netv1.ServiceBackendPort{Number: eph.Spec.Port},
							},
						},
					}},
				},
			},
		}},
	}
	if ingressClassName != "" {
		spec.IngressClassName = &ingressClassName
	}
	if eph.Spec.TLSSecretName != "" {
		spec.TLS = []netv1.IngressTLS{{
			Hosts:      []string{host},
			SecretName: eph.Spec.TLSSecretName,
		}}
	}

	return &netv1.Ingress{
		TypeMeta: metav1.TypeMeta{Kind: "Ingress", APIVersion: "networking.k8s.io/v1"},
		ObjectMeta: metav1.ObjectMeta{
			Name:            eph.Name,
			Namespace:       namespace,
			Labels:          ephemeronLabels(eph.Name),
			Annotations:     annotations,
			OwnerReferences: ownerRefs(eph, ephemeronAPIVersion, ephemeronKind),
		},
		Spec: spec,
	}
}

// Build constructs every child resource for the given Ephemeron.
func Build(eph *ephemeronv1alpha1.Ephemeron, namespace, domain, ingressClassName string, defaultIngressAnnotations map[string]string) *Resources {
	return &Resources{
		Pod:     BuildPod(eph, namespace),
		Service: BuildService(eph, namespace),
		Ingress: BuildIngress(eph, namespace, domain, ingressClassName, defaultIngressAnnotations),
	}
}

// IngressHost returns the host the Ingress was last built with, as recorded
// in hostAnnotation, or "" if it was never set (e.g. a pre-existing Ingress
// this operator didn't create).
func IngressHost(ing *netv1.Ingress) string {
	if ing == nil || ing.Annotations == nil {
		return ""
	}
	return ing.Annotations[hostAnnotation]
}

// IsOwnedBy reports whether obj's controller OwnerReference points at the
// given Ephemeron. A child that exists but fails this check was created
// outside the operator's control and must not be adopted.
func IsOwnedBy(obj metav1.Object, eph *ephemeronv1alpha1.Ephemeron) bool {
	for _, ref := range obj.GetOwnerReferences() {
		if ref.Controller != nil && *ref.Controller &&
			ref.APIVersion == ephemeronAPIVersion && ref.Kind == ephemeronKind &&
			ref.Name == eph.Name && ref.UID == eph.UID {
			return true
		}
	}
	return false
}

package v1alpha1

import (
	"github.com/qualified-io/ephemeron-operator/api"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func init() {
	SchemeBuilder.Register(&Ephemeron{}, &EphemeronList{})
}

// Condition types reported on an Ephemeron's status.conditions.
const (
	// ConditionTypePodReady indicates whether the owned Pod's Ready condition is True.
	ConditionTypePodReady = "PodReady"
	// ConditionTypeAvailable indicates whether the owned Service has at least one ready endpoint.
	ConditionTypeAvailable = "Available"
)

// EphemeronSpec defines the desired state of a short-lived HTTP service.
type EphemeronSpec struct {
	// Image is the container image reference run by the Ephemeron's Pod.
	// +kubebuilder:validation:MinLength=1
	// +kubebuilder:validation:Required
	Image string `json:"image"`

	// Port is the container port exposed by the Pod and Service.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=65535
	// +kubebuilder:validation:Required
	Port int32 `json:"port"`

	// Expires is the RFC 3339 instant at or after which the Ephemeron is deleted.
	// +kubebuilder:validation:Required
	Expires metav1.Time `json:"expires"`

	// Command overrides the container entrypoint.
	// +optional
	Command []string `json:"command,omitempty"`

	// WorkingDir overrides the container's working directory.
	// +optional
	WorkingDir string `json:"workingDir,omitempty"`

	// TLSSecretName, if set, is wired into the Ingress's TLS block for the synthesized host.
	// +optional
	TLSSecretName string `json:"tlsSecretName,omitempty"`

	// IngressAnnotations is merged over the controller's default Ingress annotations; user keys win.
	// +optional
	IngressAnnotations map[string]string `json:"ingressAnnotations,omitempty"`
}

// EphemeronStatus defines the observed state of an Ephemeron.
type EphemeronStatus struct {
	// ObservedGeneration is the last metadata.generation the controller has reconciled.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// Conditions holds PodReady and Available, at most one entry per type.
	// +optional
	// +patchMergeKey=type
	// +patchStrategy=merge
	// +listType=map
	// +listMapKey=type
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Cluster,shortName=eph;ephs
// +kubebuilder:printcolumn:name="Image",type=string,JSONPath=".spec.image"
// +kubebuilder:printcolumn:name="Expires",type=date,JSONPath=".spec.expires"
// +kubebuilder:printcolumn:name="Available",type=string,JSONPath=".status.conditions[?(@.type=='Available')].status"

// Ephemeron is a declarative request for a short-lived HTTP service exposed on
// a per-instance subdomain of a configured base domain and destroyed at a
// caller-specified expiration time.
type Ephemeron struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   EphemeronSpec   `json:"spec,omitempty"`
	Status EphemeronStatus `json:"status,omitempty"`
}

func (e *Ephemeron) GetConditions() *[]metav1.Condition {
	return &e.Status.Conditions
}

func (e *Ephemeron) GetCondition(t string) *metav1.Condition {
	return meta.FindStatusCondition(e.Status.Conditions, t)
}

func (e *Ephemeron) SetCondition(c metav1.Condition) {
	api.VerifyAndSetCondition(e, c)
}

// +kubebuilder:object:root=true

// EphemeronList contains a list of Ephemeron.
type EphemeronList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Ephemeron `json:"items"`
}

package registry

import (
	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	apiextensionsv1beta1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1beta1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
)

// Scheme knows the Go types for the built-in kinds.
var Scheme = runtime.NewScheme()

// builtins are the apiVersions and kinds in the default table. Those
// the scheme knows get a typed constructor, and the rest (e.g.,
// APIService, which has no Go type here) get Unstructured.
var builtins = map[string][]string{
	"v1": {
		"Binding", "ConfigMap", "Endpoints", "Event", "LimitRange", "Namespace",
		"Node", "PersistentVolume", "PersistentVolumeClaim", "Pod", "PodTemplate",
		"ReplicationController", "ResourceQuota", "Secret", "Service", "ServiceAccount",
	},
	"admissionregistration.k8s.io/v1": {
		"MutatingWebhookConfiguration", "ValidatingWebhookConfiguration",
		"ValidatingAdmissionPolicy", "ValidatingAdmissionPolicyBinding",
	},
	"admissionregistration.k8s.io/v1beta1": {
		"MutatingWebhookConfiguration", "ValidatingWebhookConfiguration",
	},
	"apiextensions.k8s.io/v1":        {"CustomResourceDefinition"},
	"apiextensions.k8s.io/v1beta1":   {"CustomResourceDefinition"},
	"apiregistration.k8s.io/v1":      {"APIService"},
	"apiregistration.k8s.io/v1beta1": {"APIService"},
	"apps/v1": {
		"ControllerRevision", "DaemonSet", "Deployment", "ReplicaSet", "StatefulSet",
	},
	"apps/v1beta1": {"ControllerRevision", "Deployment", "StatefulSet"},
	"apps/v1beta2": {
		"ControllerRevision", "DaemonSet", "Deployment", "ReplicaSet", "StatefulSet",
	},
	"autoscaling/v1":              {"HorizontalPodAutoscaler"},
	"autoscaling/v2":              {"HorizontalPodAutoscaler"},
	"autoscaling/v2beta1":         {"HorizontalPodAutoscaler"},
	"autoscaling/v2beta2":         {"HorizontalPodAutoscaler"},
	"batch/v1":                    {"CronJob", "Job"},
	"batch/v1beta1":               {"CronJob"},
	"certificates.k8s.io/v1":      {"CertificateSigningRequest"},
	"certificates.k8s.io/v1beta1": {"CertificateSigningRequest"},
	"coordination.k8s.io/v1":      {"Lease"},
	"coordination.k8s.io/v1beta1": {"Lease"},
	"discovery.k8s.io/v1":         {"EndpointSlice"},
	"discovery.k8s.io/v1beta1":    {"EndpointSlice"},
	"events.k8s.io/v1":            {"Event"},
	"events.k8s.io/v1beta1":       {"Event"},
	"extensions/v1beta1": {
		"DaemonSet", "Deployment", "Ingress", "NetworkPolicy", "PodSecurityPolicy", "ReplicaSet",
	},
	"flowcontrol.apiserver.k8s.io/v1":      {"FlowSchema", "PriorityLevelConfiguration"},
	"flowcontrol.apiserver.k8s.io/v1beta3": {"FlowSchema", "PriorityLevelConfiguration"},
	"networking.k8s.io/v1":                 {"Ingress", "IngressClass", "NetworkPolicy"},
	"networking.k8s.io/v1beta1":            {"Ingress", "IngressClass"},
	"node.k8s.io/v1":                       {"RuntimeClass"},
	"node.k8s.io/v1beta1":                  {"RuntimeClass"},
	"policy/v1":                            {"PodDisruptionBudget"},
	"policy/v1beta1":                       {"PodDisruptionBudget", "PodSecurityPolicy"},
	"rbac.authorization.k8s.io/v1":         {"ClusterRole", "ClusterRoleBinding", "Role", "RoleBinding"},
	"rbac.authorization.k8s.io/v1alpha1":   {"ClusterRole", "ClusterRoleBinding", "Role", "RoleBinding"},
	"rbac.authorization.k8s.io/v1beta1":    {"ClusterRole", "ClusterRoleBinding", "Role", "RoleBinding"},
	"scheduling.k8s.io/v1":                 {"PriorityClass"},
	"scheduling.k8s.io/v1alpha1":           {"PriorityClass"},
	"scheduling.k8s.io/v1beta1":            {"PriorityClass"},
	"storage.k8s.io/v1": {
		"CSIDriver", "CSINode", "CSIStorageCapacity", "StorageClass", "VolumeAttachment",
	},
	"storage.k8s.io/v1beta1": {
		"CSIDriver", "CSINode", "CSIStorageCapacity", "StorageClass", "VolumeAttachment",
	},
}

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(Scheme))
	utilruntime.Must(apiextensionsv1.AddToScheme(Scheme))
	utilruntime.Must(apiextensionsv1beta1.AddToScheme(Scheme))

	for apiVersion, kinds := range builtins {
		gv, err := schema.ParseGroupVersion(apiVersion)
		utilruntime.Must(err)
		for _, kind := range kinds {
			gvk := gv.WithKind(kind)
			if Scheme.Recognizes(gvk) {
				defaultTable.Register(apiVersion, kind, FromScheme(Scheme, gvk))
			} else {
				defaultTable.Register(apiVersion, kind, Unstructured)
			}
		}
	}
}

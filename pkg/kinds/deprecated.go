package kinds

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GVK / Deprecated in / Removed in
// -----------------------------------------------------------
// extensions/v1beta1 DaemonSet, Deployment, ReplicaSet, NetworkPolicy / 1.14 / 1.16
// apps/v1beta1, apps/v1beta2 / 1.14 / 1.16
// extensions/v1beta1 Ingress / 1.14 / 1.22
// networking.k8s.io/v1beta1 Ingress, IngressClass / 1.19 / 1.22
// scheduling.k8s.io/v1alpha1, v1beta1 PriorityClass / 1.14 / 1.17
// admissionregistration.k8s.io/v1beta1 / 1.16 / 1.22
// apiextensions.k8s.io/v1beta1 CustomResourceDefinition / 1.16 / 1.22
// apiregistration.k8s.io/v1beta1 APIService / 1.19 / 1.22
// rbac.authorization.k8s.io/v1alpha1, v1beta1 / 1.17 / 1.22
// storage.k8s.io/v1beta1 StorageClass, CSIDriver, CSINode / 1.19 / 1.22
// batch/v1beta1 CronJob / 1.21 / 1.25
// policy/v1beta1 PodDisruptionBudget, PodSecurityPolicy / 1.21 / 1.25
// autoscaling/v2beta1 HorizontalPodAutoscaler / 1.22 / 1.25
// autoscaling/v2beta2 HorizontalPodAutoscaler / 1.23 / 1.26
// flowcontrol.apiserver.k8s.io/v1beta1 / 1.26 / 1.26
// https://kubernetes.io/docs/reference/using-api/deprecation-guide/

func gvkStr(gvk schema.GroupVersionKind) string {
	return gvk.GroupVersion().String() + "/" + gvk.Kind
}

type replacement struct {
	apiVersion string
	removedIn  string
}

// deprecations maps group/version to the group/version to use
// instead, for all kinds in that group/version. Exceptions are in
// kindDeprecations.
var deprecations = map[string]replacement{
	"apps/v1beta1":                         {"apps/v1", "1.16"},
	"apps/v1beta2":                         {"apps/v1", "1.16"},
	"scheduling.k8s.io/v1alpha1":           {"scheduling.k8s.io/v1", "1.17"},
	"scheduling.k8s.io/v1beta1":            {"scheduling.k8s.io/v1", "1.17"},
	"admissionregistration.k8s.io/v1beta1": {"admissionregistration.k8s.io/v1", "1.22"},
	"apiextensions.k8s.io/v1beta1":         {"apiextensions.k8s.io/v1", "1.22"},
	"apiregistration.k8s.io/v1beta1":       {"apiregistration.k8s.io/v1", "1.22"},
	"rbac.authorization.k8s.io/v1alpha1":   {"rbac.authorization.k8s.io/v1", "1.22"},
	"rbac.authorization.k8s.io/v1beta1":    {"rbac.authorization.k8s.io/v1", "1.22"},
	"networking.k8s.io/v1beta1":            {"networking.k8s.io/v1", "1.22"},
	"storage.k8s.io/v1beta1":               {"storage.k8s.io/v1", "1.22"},
	"batch/v1beta1":                        {"batch/v1", "1.25"},
	"policy/v1beta1":                       {"policy/v1", "1.25"},
	"autoscaling/v2beta1":                  {"autoscaling/v2", "1.25"},
	"autoscaling/v2beta2":                  {"autoscaling/v2", "1.26"},
	"flowcontrol.apiserver.k8s.io/v1beta1": {"flowcontrol.apiserver.k8s.io/v1", "1.26"},
}

var kindDeprecations = map[string]replacement{
	"extensions/v1beta1/DaemonSet":     {"apps/v1", "1.16"},
	"extensions/v1beta1/Deployment":    {"apps/v1", "1.16"},
	"extensions/v1beta1/ReplicaSet":    {"apps/v1", "1.16"},
	"extensions/v1beta1/NetworkPolicy": {"networking.k8s.io/v1", "1.16"},
	"extensions/v1beta1/Ingress":       {"networking.k8s.io/v1", "1.22"},
	// There's no replacement, but it is gone all the same
	"policy/v1beta1/PodSecurityPolicy": {"policy/v1beta1", "1.25"},
}

func lookup(gvk schema.GroupVersionKind) (replacement, bool) {
	if r, ok := kindDeprecations[gvkStr(gvk)]; ok {
		return r, true
	}
	r, ok := deprecations[gvk.GroupVersion().String()]
	return r, ok
}

// SuggestedAPIVersion returns the apiVersion/kind to use in place of
// the given GVK; this is the GVK itself if it's not deprecated.
func SuggestedAPIVersion(gvk schema.GroupVersionKind) string {
	if r, ok := lookup(gvk); ok {
		return r.apiVersion + "/" + gvk.Kind
	}
	return gvkStr(gvk)
}

// DeprecatedAPIVersion returns true if the given GVK is deprecated.
func DeprecatedAPIVersion(gvk schema.GroupVersionKind) bool {
	_, ok := lookup(gvk)
	return ok
}

// RemovedInVersion returns the Kubernetes version that a GVK is
// removed in, or nil if it's not scheduled for removal.
func RemovedInVersion(gvk schema.GroupVersionKind) *semver.Version {
	r, ok := lookup(gvk)
	if !ok {
		return nil
	}
	return semver.MustParse(r.removedIn)
}

// RemovedAPIVersion returns true if the given GVK has been removed as
// of the given Kubernetes version, along with the version it was
// removed in.
func RemovedAPIVersion(gvk schema.GroupVersionKind, version *semver.Version) (bool, *semver.Version) {
	removedIn := RemovedInVersion(gvk)
	if removedIn == nil || version == nil {
		return false, removedIn
	}
	// Compare on major.minor only, so that e.g., 1.22.3 counts as 1.22
	v := semver.New(version.Major(), version.Minor(), 0, "", "")
	return !v.LessThan(removedIn), removedIn
}

// RemovedAPIError is returned if the provided GVK does not exist in
// the targeted Kubernetes version because the apiVersion has been
// deprecated and removed.
type RemovedAPIError struct {
	GVK     schema.GroupVersionKind
	Version *semver.Version
}

func (e *RemovedAPIError) Error() string {
	if e.Version == nil {
		return fmt.Sprintf("apiVersion %q was removed in a previous version of Kubernetes", gvkStr(e.GVK))
	}
	return fmt.Sprintf("apiVersion %q was removed in Kubernetes %d.%d. Use %q instead.",
		gvkStr(e.GVK), e.Version.Major(), e.Version.Minor(), SuggestedAPIVersion(e.GVK))
}

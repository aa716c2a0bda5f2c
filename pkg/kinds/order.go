package kinds

import (
	"sort"

	"github.com/fluxcd/kubeingest/pkg/manifest"
)

// Order is the position of kinds in a safe apply order, derived by
// hand from which kinds depend on which: namespaces and quotas before
// anything that lives in a namespace, storage and accounts before
// the workloads that use them, roles before bindings, CRDs before
// custom resources. It is a heuristic; references between individual
// resources are not considered.
var Order = []string{
	"Namespace",
	"ResourceQuota",
	"LimitRange",
	"PodSecurityPolicy",
	"PodDisruptionBudget",
	"Secret",
	"ConfigMap",
	"StorageClass",
	"PersistentVolume",
	"PersistentVolumeClaim",
	"ServiceAccount",
	"CustomResourceDefinition",
	"ClusterRole",
	"ClusterRoleBinding",
	"Role",
	"RoleBinding",
	"Service",
	"DaemonSet",
	"Pod",
	"ReplicationController",
	"ReplicaSet",
	"Deployment",
	"HorizontalPodAutoscaler",
	"StatefulSet",
	"Job",
	"CronJob",
	"Ingress",
	"APIService",
}

var ranks = func() map[string]int {
	m := make(map[string]int, len(Order))
	for i, kind := range Order {
		m[kind] = i
	}
	return m
}()

// Rank returns the position of the given kind in Order. Anything not
// mentioned isn't assumed to be depended _upon_, so comes last.
func Rank(kind string) int {
	if r, ok := ranks[kind]; ok {
		return r
	}
	return len(Order)
}

// Less reports whether a document of kind a is to be applied before
// one of kind b.
func Less(a, b string) bool {
	return Rank(a) < Rank(b)
}

type applyOrder []manifest.Document

func (objs applyOrder) Len() int {
	return len(objs)
}

func (objs applyOrder) Swap(i, j int) {
	objs[i], objs[j] = objs[j], objs[i]
}

func (objs applyOrder) Less(i, j int) bool {
	return Less(objs[i].Kind(), objs[j].Kind())
}

// Sort puts docs into apply order, in place. Documents of the same
// rank (including those of kinds not in Order) keep their relative
// order.
func Sort(docs []manifest.Document) {
	sort.Stable(applyOrder(docs))
}

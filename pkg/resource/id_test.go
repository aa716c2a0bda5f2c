package resource

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDString(t *testing.T) {
	for _, c := range []struct {
		apiVersion, kind, namespace, name string
		want                              string
	}{
		{"apps/v1", "Deployment", "prod", "web", "apps/v1/Deployment::prod/web"},
		{"v1", "Namespace", "", "prod", "v1/Namespace::default/prod"},
		{"rbac.authorization.k8s.io/v1", "ClusterRole", "", "reader", "rbac.authorization.k8s.io/v1/ClusterRole::default/reader"},
	} {
		assert.Equal(t, c.want, MakeID(c.apiVersion, c.kind, c.namespace, c.name).String())
	}
	assert.Equal(t, "", ID{}.String())
}

func TestParseID(t *testing.T) {
	for _, s := range []string{
		"apps/v1/Deployment::prod/web",
		"v1/ConfigMap::default/cm",
		"rbac.authorization.k8s.io/v1/ClusterRole::default/reader",
		"example.com/v1alpha1/Widget::ns/name.with.dots",
	} {
		id, err := ParseID(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, id.String())
	}

	id := MustParseID("apps/v1/Deployment::prod/web")
	apiVersion, kind, namespace, name := id.Components()
	assert.Equal(t, []string{"apps/v1", "Deployment", "prod", "web"}, []string{apiVersion, kind, namespace, name})
	assert.Equal(t, "apps", id.GroupVersionKind().Group)

	for _, bad := range []string{
		"",
		"Deployment::prod/web",
		"apps/v1/Deployment:prod/web",
		"apps/v1/Deployment::web",
	} {
		_, err := ParseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestIDJSON(t *testing.T) {
	ids := map[ID][]ID{
		MustParseID("v1/Service::prod/web"): {MustParseID("v1/Namespace::default/prod")},
	}
	bytes, err := json.Marshal(ids)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v1/Service::prod/web": ["v1/Namespace::default/prod"]}`, string(bytes))

	var back map[ID][]ID
	require.NoError(t, json.Unmarshal(bytes, &back))
	assert.Equal(t, ids, back)

	var empty ID
	require.NoError(t, json.Unmarshal([]byte(`""`), &empty))
	assert.Equal(t, ID{}, empty)
}

func TestIDSet(t *testing.T) {
	s := IDSet{}
	a, b := MustParseID("v1/Service::prod/web"), MustParseID("apps/v1/Deployment::prod/web")
	s.Add([]ID{a, b, a})
	assert.True(t, s.Contains(a))
	assert.False(t, IDSet(nil).Contains(a))
	assert.Equal(t, "{apps/v1/Deployment::prod/web, v1/Service::prod/web}", s.String())
}

func TestOptionsCopyAndMarks(t *testing.T) {
	var o Options
	o.MarkSecret("data", "stringData")
	o.MarkSecret("data")
	o.Ignore("spec.replicas")
	assert.Equal(t, []string{"data", "stringData"}, o.AdditionalSecretOutputs)

	c := o.Copy()
	c.AdditionalSecretOutputs[0] = "changed"
	c.IgnoreChanges = append(c.IgnoreChanges, "more")
	assert.Equal(t, "data", o.AdditionalSecretOutputs[0])
	assert.Equal(t, []string{"spec.replicas"}, o.IgnoreChanges)
}

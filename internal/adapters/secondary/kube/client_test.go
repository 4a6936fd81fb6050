package kube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic/fake"

	"oci-registry-service/internal/config"
	output "oci-registry-service/internal/core/ports/output"
)

func pod(namespace, name string, spec, status map[string]interface{}) *unstructured.Unstructured {
	obj := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "Pod",
		"metadata": map[string]interface{}{
			"namespace": namespace,
			"name":      name,
		},
		"spec": spec,
	}
	if status != nil {
		obj["status"] = status
	}
	return &unstructured.Unstructured{Object: obj}
}

func newFakeClient(objects ...runtime.Object) *clusterClient {
	client := fake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{podGVR: "PodList"},
		objects...,
	)
	return newClusterClient(client, "apps")
}

func TestNewClusterClient_Disabled(t *testing.T) {
	c, err := NewClusterClient(&config.KubernetesConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, c.IsAvailable())
}

func TestClusterClient_ListPodImages(t *testing.T) {
	web := pod("apps", "web-0",
		map[string]interface{}{
			"initContainers": []interface{}{
				map[string]interface{}{"name": "migrate", "image": "team/migrate:1"},
			},
			"containers": []interface{}{
				map[string]interface{}{"name": "web", "image": "registry.local/team/web:1.2"},
				map[string]interface{}{"name": "broken"},
			},
		},
		map[string]interface{}{
			"containerStatuses": []interface{}{
				map[string]interface{}{"name": "web", "imageID": "registry.local/team/web@sha256:abc"},
			},
		},
	)
	other := pod("kube-system", "dns", map[string]interface{}{
		"containers": []interface{}{
			map[string]interface{}{"name": "dns", "image": "coredns:1.11"},
		},
	}, nil)

	c := newFakeClient(web, other)
	assert.True(t, c.IsAvailable())

	images, err := c.ListPodImages(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []output.PodImage{
		{Namespace: "apps", Pod: "web-0", Container: "migrate", Image: "team/migrate:1"},
		{Namespace: "apps", Pod: "web-0", Container: "web", Image: "registry.local/team/web:1.2", ImageID: "registry.local/team/web@sha256:abc"},
	}, images)

	images, err = c.ListPodImages(context.Background(), "kube-system")
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "coredns:1.11", images[0].Image)
}

func TestNewClusterClient_DefaultNamespace(t *testing.T) {
	c := newClusterClient(nil, "")
	assert.Equal(t, "default", c.defaultNS)
}

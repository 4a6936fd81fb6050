// Package kube reads container images from running pods.
package kube

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"oci-registry-service/internal/config"
	output "oci-registry-service/internal/core/ports/output"
)

var podGVR = schema.GroupVersionResource{
	Group:    "",
	Version:  "v1",
	Resource: "pods",
}

type clusterClient struct {
	client    dynamic.Interface
	enabled   bool
	defaultNS string
}

// NewClusterClient creates a new Kubernetes client adapter
func NewClusterClient(cfg *config.KubernetesConfig) (output.ClusterClient, error) {
	if !cfg.Enabled {
		return &clusterClient{enabled: false}, nil
	}

	var restCfg *rest.Config
	var err error

	if cfg.InCluster {
		restCfg, err = rest.InClusterConfig()
	} else if cfg.KubeConfigPath != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", cfg.KubeConfigPath)
	} else {
		// Try default kubeconfig location
		home, _ := os.UserHomeDir()
		kubeconfig := filepath.Join(home, ".kube", "config")
		restCfg, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	client, err := dynamic.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}

	return newClusterClient(client, cfg.DefaultNS), nil
}

func newClusterClient(client dynamic.Interface, defaultNS string) *clusterClient {
	if defaultNS == "" {
		defaultNS = metav1.NamespaceDefault
	}
	return &clusterClient{
		client:    client,
		enabled:   true,
		defaultNS: defaultNS,
	}
}

func (c *clusterClient) IsAvailable() bool {
	return c.enabled
}

func (c *clusterClient) ListPodImages(ctx context.Context, namespace string) ([]output.PodImage, error) {
	if namespace == "" {
		namespace = c.defaultNS
	}

	list, err := c.client.Resource(podGVR).
		Namespace(namespace).
		List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list pods: %w", err)
	}

	var images []output.PodImage
	for i := range list.Items {
		images = append(images, parsePodImages(&list.Items[i])...)
	}
	return images, nil
}

// parsePodImages lists init containers first, then containers, pairing each
// with the image ID the kubelet reported for it.
func parsePodImages(pod *unstructured.Unstructured) []output.PodImage {
	imageIDs := make(map[string]string)
	for _, field := range []string{"initContainerStatuses", "containerStatuses"} {
		statuses, _, _ := unstructured.NestedSlice(pod.Object, "status", field)
		for _, s := range statuses {
			statusMap, ok := s.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := statusMap["name"].(string)
			imageID, _ := statusMap["imageID"].(string)
			imageIDs[name] = imageID
		}
	}

	var images []output.PodImage
	for _, field := range []string{"initContainers", "containers"} {
		containers, _, _ := unstructured.NestedSlice(pod.Object, "spec", field)
		for _, ctr := range containers {
			ctrMap, ok := ctr.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := ctrMap["name"].(string)
			img, _ := ctrMap["image"].(string)
			if img == "" {
				continue
			}
			images = append(images, output.PodImage{
				Namespace: pod.GetNamespace(),
				Pod:       pod.GetName(),
				Container: name,
				Image:     img,
				ImageID:   imageIDs[name],
			})
		}
	}
	return images
}

// Ensure interface compliance
var _ output.ClusterClient = (*clusterClient)(nil)

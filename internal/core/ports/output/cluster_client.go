package ports

import "context"

// PodImage is one container of a pod and the image it runs.
type PodImage struct {
	Namespace string
	Pod       string
	Container string
	Image     string
	ImageID   string // resolved by the kubelet once the container started
}

// ClusterClient defines the contract for Kubernetes lookups
type ClusterClient interface {
	// ListPodImages lists the images of every container and init container
	ListPodImages(ctx context.Context, namespace string) ([]PodImage, error)

	// IsAvailable checks if Kubernetes integration is enabled and configured
	IsAvailable() bool
}

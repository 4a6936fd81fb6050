package domain

import (
	"time"

	"github.com/google/uuid"

	"oci-registry-service/pkg/image"
)

// Repository is a named collection of manifests and tags.
type Repository struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Manifest is a stored manifest, index or artifact manifest. Content holds
// the exact bytes the client pushed; Digest is computed over them.
type Manifest struct {
	Repository   string
	Digest       image.Digest
	MediaType    image.MediaType
	Size         int64
	Content      []byte
	ArtifactType image.MediaType
	Subject      *image.Digest
	Annotations  map[string]string
	CreatedAt    time.Time
}

// Descriptor describes the manifest the way referrers and layouts list it.
func (m *Manifest) Descriptor() image.Descriptor {
	d := image.NewDescriptor(m.MediaType, m.Size, m.Digest)
	d.ArtifactType = m.ArtifactType
	d.Annotations = m.Annotations
	return d
}

type Tag struct {
	Repository string
	Name       string
	Digest     image.Digest
	UpdatedAt  time.Time
}

// Upload is a resumable blob upload session.
type Upload struct {
	ID         uuid.UUID
	Repository string
	Offset     int64
	StartedAt  time.Time
}

// Blob is content-addressed data held by the blob store.
type Blob struct {
	Digest image.Digest
	Size   int64
}

// ImageInventoryEntry is one container image found running in the cluster.
type ImageInventoryEntry struct {
	Namespace  string
	Pod        string
	Container  string
	Image      string
	ImageID    string
	Registry   string
	Repository string
	Identifier string
	ParseError string
	Present    bool
}

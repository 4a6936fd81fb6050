package domain

import "oci-registry-service/pkg/image"

// DocumentKind names a document type the validation endpoints accept.
type DocumentKind string

const (
	DocumentRuntimeSpec      DocumentKind = "runtime-spec"
	DocumentImageConfig      DocumentKind = "image-config"
	DocumentImageManifest    DocumentKind = "image-manifest"
	DocumentImageIndex       DocumentKind = "image-index"
	DocumentArtifactManifest DocumentKind = "artifact-manifest"
	DocumentImageLayout      DocumentKind = "oci-layout"
	DocumentRuntimeState     DocumentKind = "runtime-state"
	DocumentRuntimeFeatures  DocumentKind = "runtime-features"
)

// LayerVerification compares one layer's uncompressed digest with the diff
// ID its config declares.
type LayerVerification struct {
	Digest      image.Digest
	MediaType   image.MediaType
	Compression image.Compression
	DiffID      image.Digest
	Expected    image.Digest
	Match       bool
}

// ImageVerification is the result of checking a manifest against its config.
type ImageVerification struct {
	Manifest image.Digest
	Config   image.Digest
	Platform string
	Layers   []LayerVerification
	Valid    bool
}

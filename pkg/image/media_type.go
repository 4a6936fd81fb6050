package image

import "strings"

// MediaType is an IANA media type string. Values outside the constants
// below are kept verbatim.
type MediaType string

const (
	MediaTypeDescriptor       MediaType = "application/vnd.oci.descriptor.v1+json"
	MediaTypeLayoutHeader     MediaType = "application/vnd.oci.layout.header.v1+json"
	MediaTypeImageManifest    MediaType = "application/vnd.oci.image.manifest.v1+json"
	MediaTypeImageIndex       MediaType = "application/vnd.oci.image.index.v1+json"
	MediaTypeImageConfig      MediaType = "application/vnd.oci.image.config.v1+json"
	MediaTypeArtifactManifest MediaType = "application/vnd.oci.artifact.manifest.v1+json"
	MediaTypeEmptyJSON        MediaType = "application/vnd.oci.empty.v1+json"

	MediaTypeImageLayer     MediaType = "application/vnd.oci.image.layer.v1.tar"
	MediaTypeImageLayerGzip MediaType = "application/vnd.oci.image.layer.v1.tar+gzip"
	MediaTypeImageLayerZstd MediaType = "application/vnd.oci.image.layer.v1.tar+zstd"

	MediaTypeImageLayerNonDistributable     MediaType = "application/vnd.oci.image.layer.nondistributable.v1.tar"
	MediaTypeImageLayerNonDistributableGzip MediaType = "application/vnd.oci.image.layer.nondistributable.v1.tar+gzip"
	MediaTypeImageLayerNonDistributableZstd MediaType = "application/vnd.oci.image.layer.nondistributable.v1.tar+zstd"

	MediaTypeDockerManifest     MediaType = "application/vnd.docker.distribution.manifest.v2+json"
	MediaTypeDockerManifestList MediaType = "application/vnd.docker.distribution.manifest.list.v2+json"
	MediaTypeDockerConfig       MediaType = "application/vnd.docker.container.image.v1+json"
	MediaTypeDockerLayerGzip    MediaType = "application/vnd.docker.image.rootfs.diff.tar.gzip"
	MediaTypeDockerForeignLayer MediaType = "application/vnd.docker.image.rootfs.foreign.diff.tar.gzip"
)

// Compression of a layer blob.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

func (m MediaType) String() string { return string(m) }

// IsManifest reports whether m names a single-image manifest.
func (m MediaType) IsManifest() bool {
	return m == MediaTypeImageManifest || m == MediaTypeDockerManifest
}

func (m MediaType) IsIndex() bool {
	return m == MediaTypeImageIndex || m == MediaTypeDockerManifestList
}

// IsLayer matches the OCI and Docker layer families, including media types
// with suffixes this package does not enumerate.
func (m MediaType) IsLayer() bool {
	s := string(m)
	return strings.HasPrefix(s, "application/vnd.oci.image.layer.") ||
		strings.HasPrefix(s, "application/vnd.docker.image.rootfs.")
}

func (m MediaType) Compression() Compression {
	s := string(m)
	switch {
	case strings.HasSuffix(s, "+gzip"), strings.HasSuffix(s, ".tar.gzip"):
		return CompressionGzip
	case strings.HasSuffix(s, "+zstd"):
		return CompressionZstd
	}
	return CompressionNone
}

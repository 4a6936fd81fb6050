package image

// Pre-defined annotation keys.
const (
	AnnotationCreated             = "org.opencontainers.image.created"
	AnnotationAuthors             = "org.opencontainers.image.authors"
	AnnotationURL                 = "org.opencontainers.image.url"
	AnnotationDocumentation       = "org.opencontainers.image.documentation"
	AnnotationSource              = "org.opencontainers.image.source"
	AnnotationVersion             = "org.opencontainers.image.version"
	AnnotationRevision            = "org.opencontainers.image.revision"
	AnnotationVendor              = "org.opencontainers.image.vendor"
	AnnotationLicenses            = "org.opencontainers.image.licenses"
	AnnotationRefName             = "org.opencontainers.image.ref.name"
	AnnotationTitle               = "org.opencontainers.image.title"
	AnnotationDescription         = "org.opencontainers.image.description"
	AnnotationBaseImageDigest     = "org.opencontainers.image.base.digest"
	AnnotationBaseImageName       = "org.opencontainers.image.base.name"
	AnnotationArtifactCreated     = "org.opencontainers.artifact.created"
	AnnotationArtifactDescription = "org.opencontainers.artifact.description"
)

// Image layout constants.
const (
	ImageLayoutVersion = "1.0.0"
	ImageLayoutFile    = "oci-layout"
	ImageIndexFile     = "index.json"
	ImageBlobsDir      = "blobs"
)

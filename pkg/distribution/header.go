package distribution

// Headers exchanged by registries speaking the distribution API.
const (
	HeaderAPIVersion     = "Docker-Distribution-API-Version"
	HeaderContentDigest  = "Docker-Content-Digest"
	HeaderUploadUUID     = "Docker-Upload-UUID"
	HeaderFiltersApplied = "OCI-Filters-Applied"

	// APIVersion is the value of HeaderAPIVersion.
	APIVersion = "registry/2.0"
)

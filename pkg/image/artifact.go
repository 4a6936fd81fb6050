package image

import "oci-registry-service/pkg/oci"

// ArtifactManifest carries arbitrary blobs that may refer to another
// manifest through Subject.
type ArtifactManifest struct {
	MediaType    MediaType         `json:"mediaType"`
	ArtifactType MediaType         `json:"artifactType"`
	Blobs        []Descriptor      `json:"blobs,omitempty"`
	Subject      *Descriptor       `json:"subject,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
}

func NewArtifactManifest(artifactType MediaType, blobs ...Descriptor) *ArtifactManifest {
	return &ArtifactManifest{
		MediaType:    MediaTypeArtifactManifest,
		ArtifactType: artifactType,
		Blobs:        blobs,
	}
}

func (a *ArtifactManifest) Validate() error {
	if a.MediaType != MediaTypeArtifactManifest {
		return oci.Builder("artifact: mediaType must be %q", MediaTypeArtifactManifest)
	}
	if a.ArtifactType == "" {
		return oci.Builder("artifact: artifactType is required")
	}
	for i := range a.Blobs {
		if err := a.Blobs[i].Validate(); err != nil {
			return oci.Builder("artifact: blob %d: %v", i, err)
		}
	}
	if a.Subject != nil {
		if err := a.Subject.Validate(); err != nil {
			return oci.Builder("artifact: subject: %v", err)
		}
	}
	return nil
}

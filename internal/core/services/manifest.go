package services

import (
	"encoding/json"
	"fmt"

	"oci-registry-service/internal/core/domain"
	"oci-registry-service/pkg/image"
)

// parsedManifest is what the registry needs to know about a pushed manifest
// beyond its bytes.
type parsedManifest struct {
	mediaType    image.MediaType
	artifactType image.MediaType
	subject      *image.Descriptor
	annotations  map[string]string
	blobs        []image.Descriptor
}

// parseManifest decodes content as the document mediaType names. An empty
// mediaType is taken from the document itself.
func parseManifest(mediaType image.MediaType, content []byte) (*parsedManifest, error) {
	if mediaType == "" {
		var envelope struct {
			MediaType image.MediaType `json:"mediaType"`
		}
		if err := json.Unmarshal(content, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidManifest, err)
		}
		mediaType = envelope.MediaType
	}

	switch {
	case mediaType.IsManifest():
		m, err := image.ImageManifestFromBytes(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidManifest, err)
		}
		if err := checkMediaType(mediaType, m.MediaType); err != nil {
			return nil, err
		}
		return &parsedManifest{
			mediaType:    mediaType,
			artifactType: m.EffectiveArtifactType(),
			subject:      m.Subject,
			annotations:  m.Annotations,
			blobs:        m.References(),
		}, nil

	case mediaType.IsIndex():
		ix, err := image.ImageIndexFromBytes(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidManifest, err)
		}
		if err := checkMediaType(mediaType, ix.MediaType); err != nil {
			return nil, err
		}
		return &parsedManifest{
			mediaType:    mediaType,
			artifactType: ix.ArtifactType,
			subject:      ix.Subject,
			annotations:  ix.Annotations,
		}, nil

	case mediaType == image.MediaTypeArtifactManifest:
		a, err := image.ArtifactManifestFromBytes(content)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidManifest, err)
		}
		return &parsedManifest{
			mediaType:    mediaType,
			artifactType: a.ArtifactType,
			subject:      a.Subject,
			annotations:  a.Annotations,
			blobs:        a.Blobs,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMediaType, mediaType)
}

// checkMediaType rejects a document whose own mediaType disagrees with the
// one it was pushed as.
func checkMediaType(declared, embedded image.MediaType) error {
	if embedded != "" && embedded != declared {
		return fmt.Errorf("%w: mediaType %q does not match %q", domain.ErrInvalidManifest, embedded, declared)
	}
	return nil
}

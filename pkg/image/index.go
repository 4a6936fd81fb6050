package image

import (
	"encoding/json"

	"oci-registry-service/pkg/oci"
)

// ImageIndex points at platform specific manifests.
type ImageIndex struct {
	SchemaVersion int               `json:"schemaVersion"`
	MediaType     MediaType         `json:"mediaType,omitempty"`
	ArtifactType  MediaType         `json:"artifactType,omitempty"`
	Manifests     []Descriptor      `json:"manifests"`
	Subject       *Descriptor       `json:"subject,omitempty"`
	Annotations   map[string]string `json:"annotations,omitempty"`
}

func NewImageIndex(manifests ...Descriptor) *ImageIndex {
	if manifests == nil {
		manifests = []Descriptor{}
	}
	return &ImageIndex{
		SchemaVersion: SchemaVersion,
		MediaType:     MediaTypeImageIndex,
		Manifests:     manifests,
	}
}

// MarshalJSON always emits the manifests array.
func (ix ImageIndex) MarshalJSON() ([]byte, error) {
	type alias ImageIndex
	if ix.Manifests == nil {
		ix.Manifests = []Descriptor{}
	}
	return json.Marshal(alias(ix))
}

func (ix *ImageIndex) Validate() error {
	if ix.SchemaVersion != SchemaVersion {
		return oci.Builder("index: schemaVersion must be %d, got %d", SchemaVersion, ix.SchemaVersion)
	}
	if ix.MediaType != "" && !ix.MediaType.IsIndex() {
		return oci.Builder("index: unexpected mediaType %q", ix.MediaType)
	}
	for i := range ix.Manifests {
		if err := ix.Manifests[i].Validate(); err != nil {
			return oci.Builder("index: manifest %d: %v", i, err)
		}
	}
	return nil
}

// FindRef returns the descriptor annotated with the given ref name.
func (ix *ImageIndex) FindRef(name string) (Descriptor, bool) {
	for _, d := range ix.Manifests {
		if d.Annotations[AnnotationRefName] == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// SetRef points ref name at desc, dropping any descriptor that held it.
func (ix *ImageIndex) SetRef(name string, desc Descriptor) {
	ix.RemoveRef(name)
	annotations := make(map[string]string, len(desc.Annotations)+1)
	for k, v := range desc.Annotations {
		annotations[k] = v
	}
	annotations[AnnotationRefName] = name
	desc.Annotations = annotations
	ix.Manifests = append(ix.Manifests, desc)
}

// RemoveRef drops the descriptor holding ref name and reports whether one
// existed.
func (ix *ImageIndex) RemoveRef(name string) bool {
	kept := ix.Manifests[:0]
	found := false
	for _, d := range ix.Manifests {
		if d.Annotations[AnnotationRefName] == name {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	ix.Manifests = kept
	return found
}

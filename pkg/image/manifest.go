package image

import "oci-registry-service/pkg/oci"

// SchemaVersion is the only manifest and index schema version in use.
const SchemaVersion = 2

// ImageManifest describes a single image for a specific platform.
type ImageManifest struct {
	SchemaVersion int               `json:"schemaVersion"`
	MediaType     MediaType         `json:"mediaType,omitempty"`
	ArtifactType  MediaType         `json:"artifactType,omitempty"`
	Config        Descriptor        `json:"config"`
	Layers        []Descriptor      `json:"layers"`
	Subject       *Descriptor       `json:"subject,omitempty"`
	Annotations   map[string]string `json:"annotations,omitempty"`
}

func NewImageManifest(config Descriptor, layers ...Descriptor) *ImageManifest {
	if layers == nil {
		layers = []Descriptor{}
	}
	return &ImageManifest{
		SchemaVersion: SchemaVersion,
		MediaType:     MediaTypeImageManifest,
		Config:        config,
		Layers:        layers,
	}
}

func (m *ImageManifest) Validate() error {
	if m.SchemaVersion != SchemaVersion {
		return oci.Builder("manifest: schemaVersion must be %d, got %d", SchemaVersion, m.SchemaVersion)
	}
	if m.MediaType != "" && !m.MediaType.IsManifest() {
		return oci.Builder("manifest: unexpected mediaType %q", m.MediaType)
	}
	if m.Layers == nil {
		return oci.Builder("manifest: layers is required")
	}
	if err := m.Config.Validate(); err != nil {
		return err
	}
	for i := range m.Layers {
		if err := m.Layers[i].Validate(); err != nil {
			return oci.Builder("manifest: layer %d: %v", i, err)
		}
	}
	if m.Subject != nil {
		if err := m.Subject.Validate(); err != nil {
			return oci.Builder("manifest: subject: %v", err)
		}
	}
	return nil
}

// EffectiveArtifactType is artifactType when set, otherwise the config
// media type, which is how referrers are classified.
func (m *ImageManifest) EffectiveArtifactType() MediaType {
	if m.ArtifactType != "" {
		return m.ArtifactType
	}
	return m.Config.MediaType
}

// References lists config and layer descriptors in manifest order.
func (m *ImageManifest) References() []Descriptor {
	refs := make([]Descriptor, 0, len(m.Layers)+1)
	refs = append(refs, m.Config)
	return append(refs, m.Layers...)
}

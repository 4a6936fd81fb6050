package image

import "oci-registry-service/pkg/oci"

// Descriptor references content by digest and size.
type Descriptor struct {
	MediaType    MediaType         `json:"mediaType"`
	Digest       Digest            `json:"digest"`
	Size         int64             `json:"size"`
	URLs         []string          `json:"urls,omitempty"`
	Annotations  map[string]string `json:"annotations,omitempty"`
	Platform     *Platform         `json:"platform,omitempty"`
	ArtifactType MediaType         `json:"artifactType,omitempty"`
	Data         []byte            `json:"data,omitempty"`
}

func NewDescriptor(mediaType MediaType, size int64, digest Digest) Descriptor {
	return Descriptor{MediaType: mediaType, Size: size, Digest: digest}
}

// Validate checks the fields a descriptor cannot be built without. Embedded
// data, when present, must hash to the digest.
func (d *Descriptor) Validate() error {
	if d.MediaType == "" {
		return oci.Builder("descriptor: mediaType is required")
	}
	if d.Digest.IsZero() {
		return oci.Builder("descriptor: digest is required")
	}
	if d.Size < 0 {
		return oci.Builder("descriptor: size must not be negative")
	}
	if d.Data != nil {
		if int64(len(d.Data)) != d.Size {
			return oci.Builder("descriptor: data length %d does not match size %d", len(d.Data), d.Size)
		}
		if err := d.Digest.GoDigest().Validate(); err == nil {
			v := d.Digest.GoDigest().Verifier()
			v.Write(d.Data)
			if !v.Verified() {
				return oci.Builder("descriptor: data does not match digest %s", d.Digest)
			}
		}
	}
	return nil
}

// Platform describes the minimum runtime requirements of an image.
type Platform struct {
	Architecture string   `json:"architecture"`
	OS           string   `json:"os"`
	OSVersion    string   `json:"os.version,omitempty"`
	OSFeatures   []string `json:"os.features,omitempty"`
	Variant      string   `json:"variant,omitempty"`
}

func DefaultPlatform() Platform {
	return Platform{Architecture: "amd64", OS: "linux"}
}

// String renders os/architecture[/variant].
func (p Platform) String() string {
	s := p.OS + "/" + p.Architecture
	if p.Variant != "" {
		s += "/" + p.Variant
	}
	return s
}

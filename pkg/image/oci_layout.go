package image

import "oci-registry-service/pkg/oci"

// OciLayout is the marker file at the root of an image layout.
type OciLayout struct {
	ImageLayoutVersion string `json:"imageLayoutVersion"`
}

func NewOciLayout() *OciLayout {
	return &OciLayout{ImageLayoutVersion: ImageLayoutVersion}
}

func (l *OciLayout) Validate() error {
	if l.ImageLayoutVersion == "" {
		return oci.Builder("oci-layout: imageLayoutVersion is required")
	}
	return nil
}

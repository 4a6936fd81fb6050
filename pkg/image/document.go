package image

import (
	"io"

	"oci-registry-service/pkg/oci"
)

// Image spec version this package implements.
const (
	VersionMajor = 1
	VersionMinor = 1
	VersionPatch = 0
	VersionDev   = ""
)

// Version returns the image spec version as a string.
func Version() string {
	return oci.SemVer(VersionMajor, VersionMinor, VersionPatch, VersionDev)
}

// Decoded documents are checked with Validate before they are returned.
type validator interface {
	Validate() error
}

func validated[T any](v *T) (*T, error) {
	if c, ok := any(v).(validator); ok {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func decodeFile[T any](path string) (*T, error) {
	v := new(T)
	if err := oci.FromFile(path, v); err != nil {
		return nil, err
	}
	return validated(v)
}

func decodeReader[T any](r io.Reader) (*T, error) {
	v := new(T)
	if err := oci.FromReader(r, v); err != nil {
		return nil, err
	}
	return validated(v)
}

func decodeBytes[T any](b []byte) (*T, error) {
	v := new(T)
	if err := oci.FromBytes(b, v); err != nil {
		return nil, err
	}
	return validated(v)
}

// ImageManifestFromFile loads a manifest from path.
func ImageManifestFromFile(path string) (*ImageManifest, error) {
	return decodeFile[ImageManifest](path)
}

func ImageManifestFromReader(r io.Reader) (*ImageManifest, error) {
	return decodeReader[ImageManifest](r)
}

func ImageManifestFromBytes(b []byte) (*ImageManifest, error) {
	return decodeBytes[ImageManifest](b)
}

func (m *ImageManifest) ToFile(path string) error         { return oci.ToFile(path, m, false) }
func (m *ImageManifest) ToFilePretty(path string) error   { return oci.ToFile(path, m, true) }
func (m *ImageManifest) ToWriter(w io.Writer) error       { return oci.ToWriter(w, m, false) }
func (m *ImageManifest) ToWriterPretty(w io.Writer) error { return oci.ToWriter(w, m, true) }
func (m *ImageManifest) ToString() (string, error)        { return oci.ToString(m, false) }
func (m *ImageManifest) ToStringPretty() (string, error)  { return oci.ToString(m, true) }

func ImageIndexFromFile(path string) (*ImageIndex, error) {
	return decodeFile[ImageIndex](path)
}

func ImageIndexFromReader(r io.Reader) (*ImageIndex, error) {
	return decodeReader[ImageIndex](r)
}

func ImageIndexFromBytes(b []byte) (*ImageIndex, error) {
	return decodeBytes[ImageIndex](b)
}

func (ix *ImageIndex) ToFile(path string) error         { return oci.ToFile(path, ix, false) }
func (ix *ImageIndex) ToFilePretty(path string) error   { return oci.ToFile(path, ix, true) }
func (ix *ImageIndex) ToWriter(w io.Writer) error       { return oci.ToWriter(w, ix, false) }
func (ix *ImageIndex) ToWriterPretty(w io.Writer) error { return oci.ToWriter(w, ix, true) }
func (ix *ImageIndex) ToString() (string, error)        { return oci.ToString(ix, false) }
func (ix *ImageIndex) ToStringPretty() (string, error)  { return oci.ToString(ix, true) }

func ImageConfigurationFromFile(path string) (*ImageConfiguration, error) {
	return decodeFile[ImageConfiguration](path)
}

func ImageConfigurationFromReader(r io.Reader) (*ImageConfiguration, error) {
	return decodeReader[ImageConfiguration](r)
}

func ImageConfigurationFromBytes(b []byte) (*ImageConfiguration, error) {
	return decodeBytes[ImageConfiguration](b)
}

func (c *ImageConfiguration) ToFile(path string) error         { return oci.ToFile(path, c, false) }
func (c *ImageConfiguration) ToFilePretty(path string) error   { return oci.ToFile(path, c, true) }
func (c *ImageConfiguration) ToWriter(w io.Writer) error       { return oci.ToWriter(w, c, false) }
func (c *ImageConfiguration) ToWriterPretty(w io.Writer) error { return oci.ToWriter(w, c, true) }
func (c *ImageConfiguration) ToString() (string, error)        { return oci.ToString(c, false) }
func (c *ImageConfiguration) ToStringPretty() (string, error)  { return oci.ToString(c, true) }

func ArtifactManifestFromFile(path string) (*ArtifactManifest, error) {
	return decodeFile[ArtifactManifest](path)
}

func ArtifactManifestFromReader(r io.Reader) (*ArtifactManifest, error) {
	return decodeReader[ArtifactManifest](r)
}

func ArtifactManifestFromBytes(b []byte) (*ArtifactManifest, error) {
	return decodeBytes[ArtifactManifest](b)
}

func (a *ArtifactManifest) ToFile(path string) error         { return oci.ToFile(path, a, false) }
func (a *ArtifactManifest) ToFilePretty(path string) error   { return oci.ToFile(path, a, true) }
func (a *ArtifactManifest) ToWriter(w io.Writer) error       { return oci.ToWriter(w, a, false) }
func (a *ArtifactManifest) ToWriterPretty(w io.Writer) error { return oci.ToWriter(w, a, true) }
func (a *ArtifactManifest) ToString() (string, error)        { return oci.ToString(a, false) }
func (a *ArtifactManifest) ToStringPretty() (string, error)  { return oci.ToString(a, true) }

func OciLayoutFromFile(path string) (*OciLayout, error) {
	return decodeFile[OciLayout](path)
}

func OciLayoutFromReader(r io.Reader) (*OciLayout, error) {
	return decodeReader[OciLayout](r)
}

func (l *OciLayout) ToFile(path string) error         { return oci.ToFile(path, l, false) }
func (l *OciLayout) ToFilePretty(path string) error   { return oci.ToFile(path, l, true) }
func (l *OciLayout) ToWriter(w io.Writer) error       { return oci.ToWriter(w, l, false) }
func (l *OciLayout) ToWriterPretty(w io.Writer) error { return oci.ToWriter(w, l, true) }
func (l *OciLayout) ToString() (string, error)        { return oci.ToString(l, false) }
func (l *OciLayout) ToStringPretty() (string, error)  { return oci.ToString(l, true) }

package image

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oci-registry-service/pkg/oci"
)

const manifestJSON = `{
  "schemaVersion": 2,
  "mediaType": "application/vnd.oci.image.manifest.v1+json",
  "config": {
    "mediaType": "application/vnd.oci.image.config.v1+json",
    "digest": "sha256:b5b2b2c507a0944348e0303114d8d93aaaa081732b86451d9bce1f432a537bc7",
    "size": 7023
  },
  "layers": [
    {
      "mediaType": "application/vnd.oci.image.layer.v1.tar+gzip",
      "digest": "sha256:9834876dcfb05cb167a5c24953eba58c4ac89b1adf57f28f2f9d09af107ee8f0",
      "size": 32654
    },
    {
      "mediaType": "application/vnd.oci.image.layer.v1.tar+gzip",
      "digest": "sha256:3c3a4604a545cdc127456d94e421cd355bca5b528f4a9c1905b15da2eb4a4c6b",
      "size": 16724
    },
    {
      "mediaType": "application/vnd.oci.image.layer.v1.tar+gzip",
      "digest": "sha256:ec4b8955958665577945c89419d1af06b5f7636b4ac3da7f12184802ad867736",
      "size": 73109
    }
  ],
  "annotations": {
    "com.example.key1": "value1",
    "com.example.key2": "value2"
  }
}`

func TestImageManifest_FromReader(t *testing.T) {
	m, err := ImageManifestFromReader(strings.NewReader(manifestJSON))
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.Equal(t, 2, m.SchemaVersion)
	assert.Equal(t, MediaTypeImageConfig, m.Config.MediaType)
	assert.Equal(t, int64(7023), m.Config.Size)
	require.Len(t, m.Layers, 3)
	assert.Equal(t, CompressionGzip, m.Layers[0].MediaType.Compression())
	assert.Equal(t, "value1", m.Annotations["com.example.key1"])
	assert.Equal(t, MediaTypeImageConfig, m.EffectiveArtifactType())
	assert.Len(t, m.References(), 4)
}

func TestImageManifest_RoundTrip(t *testing.T) {
	m, err := ImageManifestFromReader(strings.NewReader(manifestJSON))
	require.NoError(t, err)

	pretty, err := m.ToStringPretty()
	require.NoError(t, err)
	assert.JSONEq(t, manifestJSON, pretty)

	var buf bytes.Buffer
	require.NoError(t, m.ToWriter(&buf))
	assert.NotContains(t, buf.String(), "\n")

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, m.ToFilePretty(path))
	loaded, err := ImageManifestFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestImageManifest_Validate(t *testing.T) {
	config := NewDescriptor(MediaTypeImageConfig, 2, FromBytes([]byte("{}")))

	m := NewImageManifest(config)
	assert.NoError(t, m.Validate())
	assert.NotNil(t, m.Layers)

	m.SchemaVersion = 1
	assert.True(t, oci.IsKind(m.Validate(), oci.KindBuilder))

	m = NewImageManifest(config)
	m.MediaType = MediaTypeImageIndex
	assert.Error(t, m.Validate())

	m = NewImageManifest(Descriptor{MediaType: MediaTypeImageConfig, Size: 2})
	assert.Error(t, m.Validate())

	m = NewImageManifest(config, Descriptor{Digest: config.Digest, Size: 1})
	assert.Error(t, m.Validate())
}

func TestImageManifest_InvalidDigest(t *testing.T) {
	bad := strings.Replace(manifestJSON, "sha256:b5b2", "sha256:XXXX", 1)
	_, err := ImageManifestFromReader(strings.NewReader(bad))
	require.Error(t, err)
	assert.True(t, oci.IsKind(err, oci.KindSerDe))
}

func TestDecode_RunsValidate(t *testing.T) {
	wrongSchema := strings.Replace(manifestJSON, `"schemaVersion": 2`, `"schemaVersion": 1`, 1)
	_, err := ImageManifestFromBytes([]byte(wrongSchema))
	require.Error(t, err)
	assert.True(t, oci.IsKind(err, oci.KindBuilder))

	_, err = ImageConfigurationFromBytes([]byte(`{"architecture":"amd64","os":"linux","rootfs":{"type":"tarball","diff_ids":[]}}`))
	assert.True(t, oci.IsKind(err, oci.KindBuilder))

	path := filepath.Join(t.TempDir(), ImageLayoutFile)
	require.NoError(t, (&OciLayout{}).ToFile(path))
	_, err = OciLayoutFromFile(path)
	assert.True(t, oci.IsKind(err, oci.KindBuilder))
}

func TestDescriptor_EmbeddedData(t *testing.T) {
	data := []byte("{}")
	d := NewDescriptor(MediaTypeEmptyJSON, int64(len(data)), FromBytes(data))
	d.Data = data
	assert.NoError(t, d.Validate())

	d.Data = []byte("[]")
	assert.Error(t, d.Validate())

	d.Data = []byte("{ }")
	assert.Error(t, d.Validate())
}

func TestPlatform(t *testing.T) {
	p := DefaultPlatform()
	assert.Equal(t, "linux/amd64", p.String())

	p.Variant = "v8"
	p.Architecture = "arm64"
	assert.Equal(t, "linux/arm64/v8", p.String())

	s, err := oci.ToString(Platform{Architecture: "amd64", OS: "windows", OSVersion: "10.0.14393.1066", OSFeatures: []string{"win32k"}}, false)
	require.NoError(t, err)
	assert.Equal(t, `{"architecture":"amd64","os":"windows","os.version":"10.0.14393.1066","os.features":["win32k"]}`, s)
}

func TestMediaType_Helpers(t *testing.T) {
	assert.True(t, MediaTypeImageManifest.IsManifest())
	assert.True(t, MediaTypeDockerManifest.IsManifest())
	assert.False(t, MediaTypeImageIndex.IsManifest())
	assert.True(t, MediaTypeDockerManifestList.IsIndex())
	assert.True(t, MediaTypeImageLayerZstd.IsLayer())
	assert.True(t, MediaTypeDockerLayerGzip.IsLayer())
	assert.False(t, MediaTypeImageConfig.IsLayer())
	assert.Equal(t, CompressionZstd, MediaTypeImageLayerNonDistributableZstd.Compression())
	assert.Equal(t, CompressionGzip, MediaTypeDockerLayerGzip.Compression())
	assert.Equal(t, CompressionNone, MediaTypeImageLayer.Compression())
}

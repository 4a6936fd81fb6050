package image

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexJSON = `{
  "schemaVersion": 2,
  "mediaType": "application/vnd.oci.image.index.v1+json",
  "manifests": [
    {
      "mediaType": "application/vnd.oci.image.manifest.v1+json",
      "size": 7143,
      "digest": "sha256:e692418e4cbaf90ca69d05a66403747baa33ee08806650b51fab815ad7fc331f",
      "platform": {
        "architecture": "ppc64le",
        "os": "linux"
      }
    },
    {
      "mediaType": "application/vnd.oci.image.manifest.v1+json",
      "size": 7682,
      "digest": "sha256:5b0bcabd1ed22e9fb1310cf6c2dec7cdef19f0ad69efa1f392e94a4333501270",
      "platform": {
        "architecture": "amd64",
        "os": "linux"
      }
    }
  ],
  "annotations": {
    "com.example.key1": "value1",
    "com.example.key2": "value2"
  }
}`

func TestImageIndex_FromReader(t *testing.T) {
	ix, err := ImageIndexFromReader(strings.NewReader(indexJSON))
	require.NoError(t, err)
	require.NoError(t, ix.Validate())

	require.Len(t, ix.Manifests, 2)
	assert.Equal(t, "ppc64le", ix.Manifests[0].Platform.Architecture)

	out, err := ix.ToString()
	require.NoError(t, err)
	assert.JSONEq(t, indexJSON, out)
}

func TestImageIndex_DefaultSerializesManifests(t *testing.T) {
	ix := NewImageIndex()
	out, err := ix.ToString()
	require.NoError(t, err)
	assert.Equal(t, `{"schemaVersion":2,"mediaType":"application/vnd.oci.image.index.v1+json","manifests":[]}`, out)

	var zero ImageIndex
	zero.SchemaVersion = 2
	out, err = zero.ToString()
	require.NoError(t, err)
	assert.Contains(t, out, `"manifests":[]`)
}

func TestImageIndex_Refs(t *testing.T) {
	ix := NewImageIndex()
	a := NewDescriptor(MediaTypeImageManifest, 10, FromBytes([]byte("a")))
	b := NewDescriptor(MediaTypeImageManifest, 20, FromBytes([]byte("b")))

	ix.SetRef("v1", a)
	ix.SetRef("v2", a)
	ix.SetRef("v1", b)
	require.Len(t, ix.Manifests, 2)

	got, ok := ix.FindRef("v1")
	require.True(t, ok)
	assert.Equal(t, b.Digest, got.Digest)
	assert.Nil(t, b.Annotations, "SetRef must not mutate the caller's descriptor")

	assert.True(t, ix.RemoveRef("v2"))
	assert.False(t, ix.RemoveRef("v2"))
	_, ok = ix.FindRef("v2")
	assert.False(t, ok)
	assert.NoError(t, ix.Validate())
}

func TestImageIndex_Validate(t *testing.T) {
	ix := NewImageIndex()
	ix.MediaType = MediaTypeImageManifest
	assert.Error(t, ix.Validate())

	ix = NewImageIndex(Descriptor{MediaType: MediaTypeImageManifest})
	assert.Error(t, ix.Validate())
}

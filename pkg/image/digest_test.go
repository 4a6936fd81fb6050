package image

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	validSHA256 = "sha256:6c3c624b58dbbcd3c0dd82b4c53f04194d1247c6eebdaab7c610cf7d66709b3b"
	validSHA384 = "sha384:6c3c624b58dbbcd4d1247c6eebdaab7c610cf7d66709b3b3c0dd82b4c53f04194d1247c6eebdaab7c610cf7d66709b3b"
	validSHA512 = "sha512:6c3c624b58dbbcd3c0dd826c3c624b58dbbcd3c0dd82b4c53f04194d1247c6eebdaab7c610cf7d66709b3bb4c53f04194d1247c6eebdaab7c610cf7d66709b3b"
)

func TestParseDigest_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"foo",
		":",
		"blah+",
		"_digest:somevalue",
		":blah",
		"blah:",
		"FooBar:123abc",
		"^:foo",
		"bar^baz:blah",
		"sha256:123456*78",
		"sha256:6c3c624b58dbbcd3c0dd82b4z53f04194d1247c6eebdaab7c610cf7d66709b3b",
		"sha384:x",
		"sha384:6c3c624b58dbbcd3c0dd82b4c53f04194d1247c6eebdaab7c610cf7d66709b3b",
		"sha512:6c3c624b58dbbcd3c0dd82b4c53f04194d1247c6eebdaab7c610cf7d66709b3b",
		"sha256:6C3C624B58DBBCD3C0DD82B4C53F04194D1247C6EEBDAAB7C610CF7D66709B3B",
		"a..b:value",
	}
	for _, tc := range invalid {
		_, err := ParseDigest(tc)
		assert.Error(t, err, "should have failed to parse %q", tc)
	}
}

func TestParseDigest_Valid(t *testing.T) {
	for _, tc := range []string{"foo:bar", "xxhash:42"} {
		d, err := ParseDigest(tc)
		require.NoError(t, err)
		assert.Equal(t, tc, d.String())
	}

	d, err := ParseDigest("multihash+base58:QmRZxt2b1FVZPNqd8hsiykDL3TdBDeTSPX9Kv46HmX4Gx8")
	require.NoError(t, err)
	assert.Equal(t, DigestAlgorithm("multihash+base58"), d.Algorithm())
	assert.Equal(t, "QmRZxt2b1FVZPNqd8hsiykDL3TdBDeTSPX9Kv46HmX4Gx8", d.Encoded())
	_, known := d.Algorithm().HexLen()
	assert.False(t, known)
}

func TestParseDigest_SHAFamily(t *testing.T) {
	tests := []struct {
		in   string
		algo DigestAlgorithm
	}{
		{validSHA256, SHA256},
		{validSHA384, SHA384},
		{validSHA512, SHA512},
	}
	for _, tt := range tests {
		t.Run(string(tt.algo), func(t *testing.T) {
			d, err := ParseDigest(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.algo, d.Algorithm())
			assert.Equal(t, strings.SplitN(tt.in, ":", 2)[1], d.Encoded())
			assert.Equal(t, tt.in, d.String())

			n, ok := tt.algo.HexLen()
			assert.True(t, ok)
			assert.Len(t, d.Encoded(), n)
		})
	}
}

func TestSha256Digest(t *testing.T) {
	encoded := strings.TrimPrefix(validSHA256, "sha256:")

	v, err := ParseSha256Digest(encoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, v.Encoded())
	assert.Equal(t, validSHA256, v.Digest().String())

	_, err = ParseSha256Digest("abc")
	assert.Error(t, err)

	d := MustParseDigest(validSHA256)
	s, ok := d.AsSha256()
	assert.True(t, ok)
	assert.Equal(t, v, s)

	_, ok = MustParseDigest(validSHA512).AsSha256()
	assert.False(t, ok)
}

func TestFromBytes(t *testing.T) {
	d := FromBytes([]byte("{}"))
	assert.Equal(t, SHA256, d.Algorithm())
	assert.Equal(t, "sha256:44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a", d.String())

	parsed, err := FromGoDigest(d.GoDigest())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestDigest_JSON(t *testing.T) {
	var holder struct {
		Digest Digest `json:"digest"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"digest":"`+validSHA256+`"}`), &holder))
	assert.Equal(t, validSHA256, holder.Digest.String())

	out, err := json.Marshal(holder)
	require.NoError(t, err)
	assert.JSONEq(t, `{"digest":"`+validSHA256+`"}`, string(out))

	err = json.Unmarshal([]byte(`{"digest":"sha256:nothex"}`), &holder)
	assert.Error(t, err)
}

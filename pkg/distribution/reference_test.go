package distribution

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sha256F = "sha256:" + strings.Repeat("f", 64)
	sha512F = "sha512:" + strings.Repeat("f", 128)
)

func TestParseReference_Good(t *testing.T) {
	tests := []struct {
		input      string
		registry   string
		repository string
		tag        string
		digest     string
		whole      string
	}{
		{"busybox", "docker.io", "library/busybox", "latest", "", "docker.io/library/busybox:latest"},
		{"test.com:tag", "docker.io", "library/test.com", "tag", "", "docker.io/library/test.com:tag"},
		{"test.com:5000", "docker.io", "library/test.com", "5000", "", "docker.io/library/test.com:5000"},
		{"test.com/repo:tag", "test.com", "repo", "tag", "", "test.com/repo:tag"},
		{"test:5000/repo", "test:5000", "repo", "latest", "", "test:5000/repo:latest"},
		{"test:5000/repo:tag", "test:5000", "repo", "tag", "", "test:5000/repo:tag"},
		{"test:5000/repo@" + sha256F, "test:5000", "repo", "", sha256F, "test:5000/repo@" + sha256F},
		{"test:5000/repo:tag@" + sha256F, "test:5000", "repo", "tag", sha256F, "test:5000/repo:tag@" + sha256F},
		{"lowercase:Uppercase", "docker.io", "library/lowercase", "Uppercase", "", "docker.io/library/lowercase:Uppercase"},
		{"sub-dom1.foo.com/bar/baz/quux", "sub-dom1.foo.com", "bar/baz/quux", "latest", "", "sub-dom1.foo.com/bar/baz/quux:latest"},
		{"sub-dom1.foo.com/bar/baz/quux:some-long-tag", "sub-dom1.foo.com", "bar/baz/quux", "some-long-tag", "", "sub-dom1.foo.com/bar/baz/quux:some-long-tag"},
		{"b.gcr.io/test.example.com/my-app:test.example.com", "b.gcr.io", "test.example.com/my-app", "test.example.com", "", "b.gcr.io/test.example.com/my-app:test.example.com"},
		{"xn--n3h.com/myimage:xn--n3h.com", "xn--n3h.com", "myimage", "xn--n3h.com", "", "xn--n3h.com/myimage:xn--n3h.com"},
		{"xn--7o8h.com/myimage:xn--7o8h.com@" + sha512F, "xn--7o8h.com", "myimage", "xn--7o8h.com", sha512F, "xn--7o8h.com/myimage:xn--7o8h.com@" + sha512F},
		{"foo_bar.com:8080", "docker.io", "library/foo_bar.com", "8080", "", "docker.io/library/foo_bar.com:8080"},
		{"foo/foo_bar.com:8080", "docker.io", "foo/foo_bar.com", "8080", "", "docker.io/foo/foo_bar.com:8080"},
		{"opensuse/leap:15.3", "docker.io", "opensuse/leap", "15.3", "", "docker.io/opensuse/leap:15.3"},
		{"index.docker.io/redis", "docker.io", "library/redis", "latest", "", "docker.io/library/redis:latest"},
		{"localhost/app:dev", "localhost", "app", "dev", "", "localhost/app:dev"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref, err := ParseReference(tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.registry, ref.Registry())
			assert.Equal(t, tt.repository, ref.Repository())
			tag, hasTag := ref.Tag()
			assert.Equal(t, tt.tag, tag)
			assert.Equal(t, tt.tag != "", hasTag)
			digest, hasDigest := ref.Digest()
			assert.Equal(t, tt.digest, digest)
			assert.Equal(t, tt.digest != "", hasDigest)
			assert.Equal(t, tt.whole, ref.Whole())
			assert.Equal(t, tt.whole, ref.String())
		})
	}
}

func TestParseReference_Bad(t *testing.T) {
	tests := []struct {
		input string
		err   ParseError
	}{
		{"", NameEmpty},
		{":justtag", ReferenceInvalidFormat},
		{"@" + sha256F, ReferenceInvalidFormat},
		{"repo@sha256:" + strings.Repeat("f", 34), DigestInvalidLength},
		{"validname@invaliddigest:" + strings.Repeat("f", 64), DigestUnsupported},
		{"Uppercase:tag", ReferenceInvalidFormat},
		{"test:5000/Uppercase/lowercase:tag", ReferenceInvalidFormat},
		{strings.Repeat("a", 256), NameTooLong},
		{"aa/asdf$$^/aa", ReferenceInvalidFormat},
	}

	for _, tt := range tests {
		name := tt.input
		if len(name) > 40 {
			name = name[:40]
		}
		t.Run(name, func(t *testing.T) {
			_, err := ParseReference(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.err, err)

			var perr ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestParseError_Messages(t *testing.T) {
	assert.Equal(t, "invalid checksum digest format", DigestInvalidFormat.Error())
	assert.Equal(t, "repository name must be lowercase", NameContainsUppercase.Error())
	assert.Equal(t, "repository name must not be more than 255 characters", NameTooLong.Error())
	assert.Equal(t, "invalid tag format", TagInvalidFormat.Error())
}

func TestReference_MirrorRegistry(t *testing.T) {
	tests := []struct {
		input    string
		registry string
		resolved string
		whole    string
	}{
		{"busybox", "docker.io", "index.docker.io", "docker.io/library/busybox:latest"},
		{"test.com/repo:tag", "test.com", "test.com", "test.com/repo:tag"},
		{"test:5000/repo", "test:5000", "test:5000", "test:5000/repo:latest"},
		{"sub-dom1.foo.com/bar/baz/quux", "sub-dom1.foo.com", "sub-dom1.foo.com", "sub-dom1.foo.com/bar/baz/quux:latest"},
		{"b.gcr.io/test.example.com/my-app:test.example.com", "b.gcr.io", "b.gcr.io", "b.gcr.io/test.example.com/my-app:test.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref := MustParseReference(tt.input)
			assert.Equal(t, tt.resolved, ref.ResolveRegistry())
			assert.Equal(t, tt.registry, ref.Registry())
			_, ok := ref.Namespace()
			assert.False(t, ok)
			assert.Equal(t, tt.whole, ref.Whole())

			ref.SetMirrorRegistry("docker.mirror.io")
			assert.Equal(t, "docker.mirror.io", ref.ResolveRegistry())
			assert.Equal(t, tt.registry, ref.Registry())
			ns, ok := ref.Namespace()
			assert.True(t, ok)
			assert.Equal(t, tt.registry, ns)
			assert.Equal(t, tt.whole, ref.Whole())
		})
	}
}

func TestReference_Constructors(t *testing.T) {
	ref := WithTag("ghcr.io", "org/app", "v1")
	assert.Equal(t, "ghcr.io/org/app:v1", ref.Whole())
	assert.Equal(t, "v1", ref.Identifier())

	pinned := ref.CloneWithDigest(sha256F)
	assert.Equal(t, "ghcr.io/org/app@"+sha256F, pinned.Whole())
	assert.Equal(t, sha256F, pinned.Identifier())
	_, hasTag := pinned.Tag()
	assert.False(t, hasTag)

	assert.Equal(t, "app@"+sha256F, WithDigest("", "app", sha256F).Whole())
	assert.Equal(t, "v1", WithTag("", "", "v1").Whole())
}

func TestReference_Text(t *testing.T) {
	var v struct {
		Image Reference `json:"image"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"image":"redis:7"}`), &v))
	assert.Equal(t, "docker.io/library/redis:7", v.Image.Whole())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"image":"docker.io/library/redis:7"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"image":"UPPER"}`), &v))
}

func TestRegexps(t *testing.T) {
	assert.True(t, NameRegexp.MatchString("registry.example.com:5000/team/app"))
	assert.False(t, NameRegexp.MatchString("team/App"))
	assert.True(t, RepositoryRegexp.MatchString("team/app-server"))
	assert.False(t, RepositoryRegexp.MatchString("registry.example.com:5000/team/app"))
	assert.True(t, TagRegexp.MatchString("v1.2.3-rc_1"))
	assert.False(t, TagRegexp.MatchString(".hidden"))
	assert.False(t, TagRegexp.MatchString(strings.Repeat("a", 129)))
	assert.True(t, DigestRegexp.MatchString(sha256F))
	assert.False(t, DigestRegexp.MatchString("sha256:abc"))
}

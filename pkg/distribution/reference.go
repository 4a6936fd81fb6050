// Package distribution holds the types of the OCI distribution API: image
// references, tag and catalog lists and registry error bodies.
package distribution

import "strings"

const (
	// NameTotalLengthMax is the maximum length of a repository name.
	NameTotalLengthMax = 255

	dockerHubDomainLegacy     = "index.docker.io"
	dockerHubDomain           = "docker.io"
	dockerHubOfficialRepoName = "library"
	DefaultTag                = "latest"
)

// ParseError is the reason a string could not be parsed as a Reference.
type ParseError int

const (
	DigestInvalidFormat ParseError = iota + 1
	DigestInvalidLength
	DigestUnsupported
	NameContainsUppercase
	NameEmpty
	NameTooLong
	ReferenceInvalidFormat
	TagInvalidFormat
)

func (e ParseError) Error() string {
	switch e {
	case DigestInvalidFormat:
		return "invalid checksum digest format"
	case DigestInvalidLength:
		return "invalid checksum digest length"
	case DigestUnsupported:
		return "unsupported digest algorithm"
	case NameContainsUppercase:
		return "repository name must be lowercase"
	case NameEmpty:
		return "repository name must have at least one component"
	case NameTooLong:
		return "repository name must not be more than 255 characters"
	case ReferenceInvalidFormat:
		return "invalid reference format"
	case TagInvalidFormat:
		return "invalid tag format"
	}
	return "unknown reference error"
}

// Reference points at an image in a registry by tag, digest or both.
//
//	ref, _ := ParseReference("busybox")
//	ref.Whole() // docker.io/library/busybox:latest
type Reference struct {
	registry       string
	mirrorRegistry string
	repository     string
	tag            string
	digest         string
}

// WithTag creates a Reference from its parts without validation.
func WithTag(registry, repository, tag string) Reference {
	return Reference{registry: registry, repository: repository, tag: tag}
}

// WithDigest creates a Reference from its parts without validation.
func WithDigest(registry, repository, digest string) Reference {
	return Reference{registry: registry, repository: repository, digest: digest}
}

// ParseReference parses s, filling in docker.io defaults the way the docker
// CLI does.
func ParseReference(s string) (Reference, error) {
	if s == "" {
		return Reference{}, NameEmpty
	}
	m := ReferenceRegexp.FindStringSubmatch(s)
	if m == nil {
		return Reference{}, ReferenceInvalidFormat
	}
	name, tag, digest := m[1], m[2], m[3]
	if tag == "" && digest == "" {
		tag = DefaultTag
	}

	registry, repository := splitDomain(name)
	ref := Reference{registry: registry, repository: repository, tag: tag, digest: digest}

	if len(ref.repository) > NameTotalLengthMax {
		return Reference{}, NameTooLong
	}
	if ref.digest != "" {
		if err := checkDigest(ref.digest); err != nil {
			return Reference{}, err
		}
	}
	return ref, nil
}

// MustParseReference is like ParseReference but panics on error.
func MustParseReference(s string) Reference {
	ref, err := ParseReference(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// checkDigest only accepts hex-encoded sha2 digests of the exact size.
func checkDigest(digest string) error {
	algorithm, encoded, ok := strings.Cut(digest, ":")
	if !ok {
		return DigestInvalidFormat
	}
	var want int
	switch algorithm {
	case "sha256":
		want = 64
	case "sha384":
		want = 96
	case "sha512":
		want = 128
	default:
		return DigestUnsupported
	}
	if len(encoded) != want {
		return DigestInvalidLength
	}
	return nil
}

// splitDomain splits a validated name into domain and remote name.
func splitDomain(name string) (string, string) {
	domain, remainder := dockerHubDomain, name
	if left, right, ok := strings.Cut(name, "/"); ok {
		if strings.ContainsAny(left, ".:") || left == "localhost" {
			domain, remainder = left, right
		}
	}
	if domain == dockerHubDomainLegacy {
		domain = dockerHubDomain
	}
	if domain == dockerHubDomain && !strings.Contains(remainder, "/") {
		remainder = dockerHubOfficialRepoName + "/" + remainder
	}
	return domain, remainder
}

// CloneWithDigest points a copy at digest, dropping the tag.
func (r Reference) CloneWithDigest(digest string) Reference {
	r.tag = ""
	r.digest = digest
	return r
}

// SetMirrorRegistry routes pulls through a mirror. The original registry is
// still reported by Namespace, for use as the "ns" query parameter.
func (r *Reference) SetMirrorRegistry(registry string) {
	r.mirrorRegistry = registry
}

// ResolveRegistry returns the host to contact: the mirror when set, the
// docker hub API host for docker.io, else the registry itself.
func (r Reference) ResolveRegistry() string {
	switch {
	case r.mirrorRegistry != "":
		return r.mirrorRegistry
	case r.registry == dockerHubDomain:
		return dockerHubDomainLegacy
	default:
		return r.registry
	}
}

func (r Reference) Registry() string   { return r.registry }
func (r Reference) Repository() string { return r.repository }

// Tag returns the tag and whether one is set.
func (r Reference) Tag() (string, bool) { return r.tag, r.tag != "" }

// Digest returns the digest and whether one is set.
func (r Reference) Digest() (string, bool) { return r.digest, r.digest != "" }

// Namespace returns the original registry when a mirror is set.
func (r Reference) Namespace() (string, bool) {
	if r.mirrorRegistry == "" {
		return "", false
	}
	return r.registry, true
}

func (r Reference) fullName() string {
	if r.registry == "" {
		return r.repository
	}
	return r.registry + "/" + r.repository
}

// Whole renders registry/repository[:tag][@digest].
func (r Reference) Whole() string {
	var b strings.Builder
	b.WriteString(r.fullName())
	if r.tag != "" {
		if b.Len() > 0 {
			b.WriteByte(':')
		}
		b.WriteString(r.tag)
	}
	if r.digest != "" {
		if b.Len() > 0 {
			b.WriteByte('@')
		}
		b.WriteString(r.digest)
	}
	return b.String()
}

func (r Reference) String() string { return r.Whole() }

// Identifier returns the digest when set, else the tag. This is the
// <reference> path segment of the distribution API.
func (r Reference) Identifier() string {
	if r.digest != "" {
		return r.digest
	}
	return r.tag
}

func (r Reference) MarshalText() ([]byte, error) { return []byte(r.Whole()), nil }

func (r *Reference) UnmarshalText(b []byte) error {
	parsed, err := ParseReference(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

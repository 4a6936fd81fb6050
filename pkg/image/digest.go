package image

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/json"
	"strings"

	godigest "github.com/opencontainers/go-digest"

	"oci-registry-service/pkg/oci"
)

// DigestAlgorithm names the hash function of a Digest.
type DigestAlgorithm string

const (
	SHA256 DigestAlgorithm = "sha256"
	SHA384 DigestAlgorithm = "sha384"
	SHA512 DigestAlgorithm = "sha512"
)

// HexLen returns the encoded length required for registered algorithms.
func (a DigestAlgorithm) HexLen() (int, bool) {
	switch a {
	case SHA256:
		return 64, true
	case SHA384:
		return 96, true
	case SHA512:
		return 128, true
	}
	return 0, false
}

func (a DigestAlgorithm) String() string { return string(a) }

const algorithmSeparators = "+._-"

// Digest is a content identifier of the form algorithm:encoded.
// The zero value is not valid; use ParseDigest.
type Digest struct {
	value string
	split int
}

// ParseDigest validates s against the OCI digest grammar. Encoded parts of
// sha256, sha384 and sha512 digests must be lowercase hex of the exact size.
func ParseDigest(s string) (Digest, error) {
	split := strings.IndexByte(s, ':')
	if split < 0 {
		return Digest{}, oci.Other("missing ':' in digest")
	}
	algorithm, value := s[:split], s[split+1:]

	for _, part := range splitAlgorithm(algorithm) {
		if part == "" {
			return Digest{}, oci.Other("Empty algorithm component")
		}
		for _, c := range part {
			if !isAlgorithmComponent(c) {
				return Digest{}, oci.Other("Invalid algorithm component: %s", part)
			}
		}
	}

	if value == "" {
		return Digest{}, oci.Other("Empty algorithm value")
	}
	for _, c := range value {
		if !isEncoded(c) {
			return Digest{}, oci.Other("Invalid encoded value %s", value)
		}
	}

	if expected, ok := DigestAlgorithm(algorithm).HexLen(); ok {
		if len(value) != expected {
			return Digest{}, oci.Other("Invalid digest length %d expected %d", len(value), expected)
		}
		for _, c := range value {
			if !isLowerHex(c) {
				return Digest{}, oci.Other("Invalid non-hexadecimal character in digest: %s", value)
			}
		}
	}

	return Digest{value: s, split: split}, nil
}

// MustParseDigest is like ParseDigest but panics on error.
func MustParseDigest(s string) Digest {
	d, err := ParseDigest(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromBytes returns the canonical sha256 digest of b.
func FromBytes(b []byte) Digest {
	d := godigest.FromBytes(b)
	return Digest{value: d.String(), split: len(d.Algorithm())}
}

// FromGoDigest converts a go-digest value, validating it on the way.
func FromGoDigest(d godigest.Digest) (Digest, error) {
	return ParseDigest(d.String())
}

func (d Digest) Algorithm() DigestAlgorithm {
	if d.value == "" {
		return ""
	}
	return DigestAlgorithm(d.value[:d.split])
}

// Encoded returns the part after the colon.
func (d Digest) Encoded() string {
	if d.value == "" {
		return ""
	}
	return d.value[d.split+1:]
}

func (d Digest) String() string { return d.value }

func (d Digest) IsZero() bool { return d.value == "" }

// GoDigest exposes the value for use with go-digest verifiers.
func (d Digest) GoDigest() godigest.Digest { return godigest.Digest(d.value) }

func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.value)
}

func (d *Digest) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDigest(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Sha256Digest is a digest known to use sha256.
type Sha256Digest struct {
	encoded string
}

// ParseSha256Digest accepts the 64 character hex form without a prefix.
func ParseSha256Digest(s string) (Sha256Digest, error) {
	d, err := ParseDigest(string(SHA256) + ":" + s)
	if err != nil {
		return Sha256Digest{}, err
	}
	return Sha256Digest{encoded: d.Encoded()}, nil
}

// AsSha256 narrows d when it is a sha256 digest.
func (d Digest) AsSha256() (Sha256Digest, bool) {
	if d.Algorithm() != SHA256 {
		return Sha256Digest{}, false
	}
	return Sha256Digest{encoded: d.Encoded()}, true
}

func (s Sha256Digest) Digest() Digest {
	return Digest{value: string(SHA256) + ":" + s.encoded, split: len(SHA256)}
}

func (s Sha256Digest) Encoded() string { return s.encoded }

func (s Sha256Digest) String() string { return s.Digest().String() }

// splitAlgorithm splits on every separator and keeps empty parts.
func splitAlgorithm(algorithm string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(algorithm); i++ {
		if strings.IndexByte(algorithmSeparators, algorithm[i]) >= 0 {
			parts = append(parts, algorithm[start:i])
			start = i + 1
		}
	}
	return append(parts, algorithm[start:])
}

func isLowerHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

func isAlgorithmComponent(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isEncoded(c rune) bool {
	return isAlgorithmComponent(c) || (c >= 'A' && c <= 'Z') || c == '=' || c == '_' || c == '-'
}

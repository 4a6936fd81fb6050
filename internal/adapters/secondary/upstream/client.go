// Package upstream pulls manifests and blobs from another registry over the
// distribution API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"oci-registry-service/internal/config"
	"oci-registry-service/internal/core/domain"
	ports "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/distribution"
	"oci-registry-service/pkg/image"
)

// maxManifestSize bounds how much of a manifest response is read.
const maxManifestSize = 4 << 20

var manifestAccept = []image.MediaType{
	image.MediaTypeImageManifest,
	image.MediaTypeImageIndex,
	image.MediaTypeArtifactManifest,
	image.MediaTypeDockerManifest,
	image.MediaTypeDockerManifestList,
}

type client struct {
	httpClient  *http.Client
	upstreamURL string
	enabled     bool
}

// NewClient creates an upstream client. A disabled client reports itself
// unavailable so pull-through is skipped.
func NewClient(cfg *config.UpstreamConfig) ports.UpstreamClient {
	if !cfg.Enabled || cfg.URL == "" {
		return &client{enabled: false}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		upstreamURL: strings.TrimRight(cfg.URL, "/"),
		enabled:     true,
	}
}

func (c *client) IsAvailable() bool {
	return c.enabled
}

func (c *client) FetchManifest(ctx context.Context, repository, reference string) (*ports.UpstreamManifest, error) {
	if !c.enabled {
		return nil, domain.ErrUpstreamUnavailable
	}

	header := http.Header{}
	for _, mt := range manifestAccept {
		header.Add("Accept", string(mt))
	}

	resp, err := c.get(ctx, fmt.Sprintf("/v2/%s/manifests/%s", repository, reference), header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrManifestNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upstream manifest: %w", err)
	}
	if len(content) > maxManifestSize {
		return nil, fmt.Errorf("%w: upstream manifest exceeds %d bytes", domain.ErrInvalidManifest, maxManifestSize)
	}

	m := &ports.UpstreamManifest{
		MediaType: image.MediaType(mediaTypeOf(resp.Header.Get("Content-Type"))),
		Content:   content,
	}
	if dgst := resp.Header.Get(distribution.HeaderContentDigest); dgst != "" {
		d, err := image.ParseDigest(dgst)
		if err != nil {
			log.WithError(err).WithField("digest", dgst).Warn("ignoring malformed upstream digest header")
		} else {
			m.Digest = d
		}
	}
	return m, nil
}

func (c *client) FetchBlob(ctx context.Context, repository string, digest image.Digest) (io.ReadCloser, int64, error) {
	if !c.enabled {
		return nil, 0, domain.ErrUpstreamUnavailable
	}

	resp, err := c.get(ctx, fmt.Sprintf("/v2/%s/blobs/%s", repository, digest), nil)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, 0, domain.ErrBlobNotFound
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, 0, statusError(resp)
	}
	return resp.Body, resp.ContentLength, nil
}

// get issues a GET, answering one bearer challenge with an anonymous token
// the way public registries expect.
func (c *client) get(ctx context.Context, path string, header http.Header) (*http.Response, error) {
	resp, err := c.do(ctx, path, header, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	challenge := resp.Header.Get("WWW-Authenticate")
	resp.Body.Close()

	token, err := c.token(ctx, challenge)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, path, header, token)
}

func (c *client) do(ctx context.Context, path string, header http.Header, token string) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s%s", c.upstreamURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}

	// Copy headers
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.WithFields(log.Fields{
		"method": http.MethodGet,
		"url":    endpoint,
	}).Debug("forwarding request to upstream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: upstream request: %v", domain.ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

// token fetches an anonymous bearer token for a challenge of the form
// Bearer realm="...",service="...",scope="...".
func (c *client) token(ctx context.Context, challenge string) (string, error) {
	scheme, params, _ := strings.Cut(challenge, " ")
	if !strings.EqualFold(scheme, "bearer") {
		return "", fmt.Errorf("%w: unsupported auth challenge %q", domain.ErrUpstreamUnavailable, challenge)
	}

	attrs := parseChallenge(params)
	realm := attrs["realm"]
	if realm == "" {
		return "", fmt.Errorf("%w: auth challenge without realm", domain.ErrUpstreamUnavailable)
	}
	u, err := url.Parse(realm)
	if err != nil {
		return "", fmt.Errorf("%w: auth realm: %v", domain.ErrUpstreamUnavailable, err)
	}
	q := u.Query()
	for _, key := range []string{"service", "scope"} {
		if v := attrs[key]; v != "" {
			q.Set(key, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var body struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.Token != "" {
		return body.Token, nil
	}
	return body.AccessToken, nil
}

func parseChallenge(params string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range splitParams(params) {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		attrs[strings.ToLower(key)] = strings.Trim(value, `"`)
	}
	return attrs
}

// splitParams splits challenge parameters on commas outside quoted values.
func splitParams(params string) []string {
	var (
		parts  []string
		quoted bool
		start  int
	)
	for i := 0; i < len(params); i++ {
		switch params[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				parts = append(parts, params[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, params[start:])
}

// statusError turns an unexpected upstream status into ErrUpstreamUnavailable,
// carrying the registry error codes when the body holds them.
func statusError(resp *http.Response) error {
	var er distribution.ErrorResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(body, &er); err == nil && len(er.Errors) > 0 {
		codes := make([]string, 0, len(er.Errors))
		for _, info := range er.Errors {
			codes = append(codes, info.Code.String())
		}
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, strings.Join(codes, ","))
	}
	return fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
}

func mediaTypeOf(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mt)
}

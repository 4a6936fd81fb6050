package image

import (
	"encoding/json"
	"sort"

	"oci-registry-service/pkg/oci"
)

// ImageConfiguration is the image config blob referenced by a manifest.
type ImageConfiguration struct {
	Created      string    `json:"created,omitempty"`
	Author       string    `json:"author,omitempty"`
	Architecture string    `json:"architecture"`
	OS           string    `json:"os"`
	OSVersion    string    `json:"os.version,omitempty"`
	OSFeatures   []string  `json:"os.features,omitempty"`
	Variant      string    `json:"variant,omitempty"`
	Config       *Config   `json:"config,omitempty"`
	RootFS       RootFS    `json:"rootfs"`
	History      []History `json:"history,omitempty"`
}

func DefaultImageConfiguration() *ImageConfiguration {
	return &ImageConfiguration{
		Architecture: "amd64",
		OS:           "linux",
		RootFS:       DefaultRootFS(),
	}
}

func (c *ImageConfiguration) Validate() error {
	if c.Architecture == "" {
		return oci.Builder("config: architecture is required")
	}
	if c.OS == "" {
		return oci.Builder("config: os is required")
	}
	if c.RootFS.Type != RootFSTypeLayers {
		return oci.Builder("config: rootfs type must be %q, got %q", RootFSTypeLayers, c.RootFS.Type)
	}
	return nil
}

// Platform returns the platform the config was built for.
func (c *ImageConfiguration) Platform() Platform {
	return Platform{
		Architecture: c.Architecture,
		OS:           c.OS,
		OSVersion:    c.OSVersion,
		OSFeatures:   c.OSFeatures,
		Variant:      c.Variant,
	}
}

// Config holds the execution parameters used as defaults by a runtime.
// ExposedPorts and Volumes are sets on the wire and sorted slices here.
type Config struct {
	User         string            `json:"User,omitempty"`
	ExposedPorts []string          `json:"-"`
	Env          []string          `json:"Env,omitempty"`
	Entrypoint   []string          `json:"Entrypoint,omitempty"`
	Cmd          []string          `json:"Cmd,omitempty"`
	Volumes      []string          `json:"-"`
	WorkingDir   string            `json:"WorkingDir,omitempty"`
	Labels       map[string]string `json:"Labels,omitempty"`
	StopSignal   string            `json:"StopSignal,omitempty"`
}

type configWire struct {
	configAlias
	ExposedPorts map[string]struct{} `json:"ExposedPorts,omitempty"`
	Volumes      map[string]struct{} `json:"Volumes,omitempty"`
}

type configAlias Config

func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(configWire{
		configAlias:  configAlias(c),
		ExposedPorts: toSet(c.ExposedPorts),
		Volumes:      toSet(c.Volumes),
	})
}

func (c *Config) UnmarshalJSON(b []byte) error {
	var w configWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*c = Config(w.configAlias)
	c.ExposedPorts = fromSet(w.ExposedPorts)
	c.Volumes = fromSet(w.Volumes)
	return nil
}

func toSet(values []string) map[string]struct{} {
	if values == nil {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func fromSet(set map[string]struct{}) []string {
	if set == nil {
		return nil
	}
	values := make([]string, 0, len(set))
	for k := range set {
		values = append(values, k)
	}
	sort.Strings(values)
	return values
}

const RootFSTypeLayers = "layers"

// RootFS lists the uncompressed layer digests in order.
type RootFS struct {
	Type    string   `json:"type"`
	DiffIDs []Digest `json:"diff_ids"`
}

func DefaultRootFS() RootFS {
	return RootFS{Type: RootFSTypeLayers, DiffIDs: []Digest{}}
}

// History describes one layer build step. EmptyLayer is nil when the
// document leaves the field out.
type History struct {
	Created    string `json:"created,omitempty"`
	Author     string `json:"author,omitempty"`
	CreatedBy  string `json:"created_by,omitempty"`
	Comment    string `json:"comment,omitempty"`
	EmptyLayer *bool  `json:"empty_layer,omitempty"`
}

// IsEmptyLayer reports whether the step left the filesystem unchanged.
func (h History) IsEmptyLayer() bool {
	return h.EmptyLayer != nil && *h.EmptyLayer
}

package runtime

import (
	"io"

	"oci-registry-service/pkg/oci"
)

// Features describes what a runtime implementation supports, as printed by
// "runc features".
type Features struct {
	OCIVersionMin                      string            `json:"ociVersionMin"`
	OCIVersionMax                      string            `json:"ociVersionMax"`
	Hooks                              []string          `json:"hooks,omitempty"`
	MountOptions                       []string          `json:"mountOptions,omitempty"`
	Linux                              *FeaturesLinux    `json:"linux,omitempty"`
	Annotations                        map[string]string `json:"annotations,omitempty"`
	PotentiallyUnsafeConfigAnnotations []string          `json:"potentiallyUnsafeConfigAnnotations,omitempty"`
}

type FeaturesLinux struct {
	Namespaces      []string                `json:"namespaces,omitempty"`
	Capabilities    []string                `json:"capabilities,omitempty"`
	Cgroup          *FeaturesCgroup         `json:"cgroup,omitempty"`
	Seccomp         *FeaturesSeccomp        `json:"seccomp,omitempty"`
	Apparmor        *FeatureToggle          `json:"apparmor,omitempty"`
	Selinux         *FeatureToggle          `json:"selinux,omitempty"`
	IntelRdt        *FeatureToggle          `json:"intelRdt,omitempty"`
	MountExtensions *FeaturesMountExtension `json:"mountExtensions,omitempty"`
}

type FeaturesCgroup struct {
	V1          *bool `json:"v1,omitempty"`
	V2          *bool `json:"v2,omitempty"`
	Systemd     *bool `json:"systemd,omitempty"`
	SystemdUser *bool `json:"systemdUser,omitempty"`
	Rdma        *bool `json:"rdma,omitempty"`
}

type FeaturesSeccomp struct {
	Enabled        *bool    `json:"enabled,omitempty"`
	Actions        []string `json:"actions,omitempty"`
	Operators      []string `json:"operators,omitempty"`
	Archs          []string `json:"archs,omitempty"`
	KnownFlags     []string `json:"knownFlags,omitempty"`
	SupportedFlags []string `json:"supportedFlags,omitempty"`
}

// FeatureToggle reports whether an optional subsystem is available.
type FeatureToggle struct {
	Enabled *bool `json:"enabled,omitempty"`
}

type FeaturesMountExtension struct {
	IDMap *FeatureToggle `json:"idmap,omitempty"`
}

func FeaturesFromReader(r io.Reader) (*Features, error) {
	f := new(Features)
	if err := oci.FromReader(r, f); err != nil {
		return nil, err
	}
	return f, nil
}

func FeaturesFromFile(path string) (*Features, error) {
	f := new(Features)
	if err := oci.FromFile(path, f); err != nil {
		return nil, err
	}
	return f, nil
}

// SupportsHook reports whether the runtime lists the named hook stage.
func (f *Features) SupportsHook(name string) bool {
	for _, h := range f.Hooks {
		if h == name {
			return true
		}
	}
	return false
}

// IsEnabled returns the value of a toggle, treating absence as false.
func (t *FeatureToggle) IsEnabled() bool {
	return t != nil && t.Enabled != nil && *t.Enabled
}

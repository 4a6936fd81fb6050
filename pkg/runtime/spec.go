// Package runtime models the OCI runtime configuration (config.json),
// container state and runtime feature documents.
package runtime

import (
	"fmt"
	"io"
	"path"
	"path/filepath"

	"oci-registry-service/pkg/oci"
)

// Version is the runtime spec version written by DefaultSpec.
const Version = "1.0.2-dev"

// DefaultHostname is the container hostname of DefaultSpec.
const DefaultHostname = "youki"

// Spec is the base configuration for a container.
type Spec struct {
	Version     string            `json:"ociVersion"`
	Root        *Root             `json:"root,omitempty"`
	Mounts      []Mount           `json:"mounts,omitempty"`
	Process     *Process          `json:"process,omitempty"`
	Hostname    string            `json:"hostname,omitempty"`
	Hooks       *Hooks            `json:"hooks,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Linux       *Linux            `json:"linux,omitempty"`
	Solaris     *Solaris          `json:"solaris,omitempty"`
	Windows     *Windows          `json:"windows,omitempty"`
	VM          *VM               `json:"vm,omitempty"`
}

// DefaultSpec returns a Linux container config that runs sh in a read-only
// rootfs with the usual pseudo filesystems mounted.
func DefaultSpec() *Spec {
	root := DefaultRoot()
	process := DefaultProcess()
	linux := DefaultLinux()
	return &Spec{
		Version:     Version,
		Root:        &root,
		Mounts:      DefaultMounts(),
		Process:     &process,
		Hostname:    DefaultHostname,
		Annotations: map[string]string{},
		Linux:       &linux,
	}
}

// RootlessSpec adapts DefaultSpec for an unprivileged user.
func RootlessSpec(uid, gid uint32) *Spec {
	s := DefaultSpec()
	linux := RootlessLinux(uid, gid)
	s.Linux = &linux
	s.Mounts = RootlessMounts()
	return s
}

// Load reads a config.json file.
func Load(path string) (*Spec, error) {
	s := new(Spec)
	if err := oci.FromFile(path, s); err != nil {
		return nil, fmt.Errorf("load spec: %w", err)
	}
	return s, nil
}

func FromReader(r io.Reader) (*Spec, error) {
	s := new(Spec)
	if err := oci.FromReader(r, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes s to path, creating or truncating it.
func (s *Spec) Save(path string) error {
	if err := oci.ToFile(path, s, false); err != nil {
		return fmt.Errorf("save spec: %w", err)
	}
	return nil
}

func (s *Spec) ToWriter(w io.Writer, pretty bool) error { return oci.ToWriter(w, s, pretty) }
func (s *Spec) ToString(pretty bool) (string, error)    { return oci.ToString(s, pretty) }

// CanonicalizeRootfs resolves Root.Path to an absolute path with symlinks
// evaluated. Relative paths are taken against the canonical bundle directory.
func (s *Spec) CanonicalizeRootfs(bundle string) error {
	if s.Root == nil {
		return oci.Other("no root path provided")
	}
	p, err := canonicalizePath(bundle, s.Root.Path)
	if err != nil {
		return err
	}
	s.Root.Path = p
	return nil
}

func canonicalizePath(bundle, p string) (string, error) {
	if filepath.IsAbs(p) {
		resolved, err := canonicalize(p)
		if err != nil {
			return "", oci.IO("failed to canonicalize "+p, err)
		}
		return resolved, nil
	}
	canonicalBundle, err := canonicalize(bundle)
	if err != nil {
		return "", oci.IO("failed to canonicalize bundle: "+bundle, err)
	}
	resolved, err := canonicalize(filepath.Join(canonicalBundle, p))
	if err != nil {
		return "", oci.IO("failed to canonicalize rootfs: "+p, err)
	}
	return resolved, nil
}

func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Validate checks the structural rules a runtime relies on before it
// touches the host.
func (s *Spec) Validate() error {
	if !oci.ValidSemVer(s.Version) {
		return oci.Builder("ociVersion %q is not a valid SemVer", s.Version)
	}
	if s.Root != nil && s.Root.Path == "" {
		return oci.Builder("root.path is required")
	}
	posix := s.Windows == nil
	for i, m := range s.Mounts {
		if m.Destination == "" {
			return oci.Builder("mounts[%d]: destination is required", i)
		}
		if posix && !isAbs(m.Destination) {
			return oci.Builder("mounts[%d]: destination %q must be absolute", i, m.Destination)
		}
	}
	if s.Process != nil {
		if err := s.Process.Validate(); err != nil {
			return err
		}
		if posix && !isAbs(s.Process.Cwd) {
			return oci.Builder("process.cwd %q must be absolute", s.Process.Cwd)
		}
	}
	if s.Hooks != nil {
		if err := s.Hooks.Validate(); err != nil {
			return err
		}
	}
	if s.Linux != nil {
		if err := s.Linux.Validate(); err != nil {
			return err
		}
	}
	if s.VM != nil && s.VM.Kernel.Path == "" {
		return oci.Builder("vm.kernel.path is required")
	}
	return nil
}

func isAbs(p string) bool {
	return path.IsAbs(p)
}

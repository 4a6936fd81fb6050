package runtime

// Root is the container's root filesystem.
type Root struct {
	Path     string `json:"path"`
	Readonly *bool  `json:"readonly,omitempty"`
}

func DefaultRoot() Root {
	return Root{Path: "rootfs", Readonly: boolPtr(true)}
}

// Mount specifies a mount for a container.
type Mount struct {
	Destination string           `json:"destination"`
	Type        string           `json:"type,omitempty"`
	Source      string           `json:"source,omitempty"`
	Options     []string         `json:"options,omitempty"`
	UIDMappings []LinuxIDMapping `json:"uidMappings,omitempty"`
	GIDMappings []LinuxIDMapping `json:"gidMappings,omitempty"`
}

// DefaultMounts are the pseudo filesystems every Linux container gets.
func DefaultMounts() []Mount {
	return []Mount{
		{
			Destination: "/proc",
			Type:        "proc",
			Source:      "proc",
		},
		{
			Destination: "/dev",
			Type:        "tmpfs",
			Source:      "tmpfs",
			Options:     []string{"nosuid", "strictatime", "mode=755", "size=65536k"},
		},
		{
			Destination: "/dev/pts",
			Type:        "devpts",
			Source:      "devpts",
			Options:     []string{"nosuid", "noexec", "newinstance", "ptmxmode=0666", "mode=0620", "gid=5"},
		},
		{
			Destination: "/dev/shm",
			Type:        "tmpfs",
			Source:      "shm",
			Options:     []string{"nosuid", "noexec", "nodev", "mode=1777", "size=65536k"},
		},
		{
			Destination: "/dev/mqueue",
			Type:        "mqueue",
			Source:      "mqueue",
			Options:     []string{"nosuid", "noexec", "nodev"},
		},
		{
			Destination: "/sys",
			Type:        "sysfs",
			Source:      "sysfs",
			Options:     []string{"nosuid", "noexec", "nodev", "ro"},
		},
		{
			Destination: "/sys/fs/cgroup",
			Type:        "cgroup",
			Source:      "cgroup",
			Options:     []string{"nosuid", "noexec", "nodev", "relatime", "ro"},
		},
	}
}

// RootlessMounts adjusts DefaultMounts for a user namespace: devpts cannot
// be owned by the tty group and sysfs has to be bind mounted from the host.
func RootlessMounts() []Mount {
	mounts := DefaultMounts()
	for i := range mounts {
		m := &mounts[i]
		switch m.Destination {
		case "/dev/pts":
			opts := m.Options[:0]
			for _, o := range m.Options {
				if o != "gid=5" {
					opts = append(opts, o)
				}
			}
			m.Options = opts
		case "/sys":
			m.Type = "none"
			m.Source = "/sys"
			m.Options = append(m.Options, "rbind")
		}
	}
	return mounts
}

func boolPtr(b bool) *bool { return &b }

package runtime

import (
	"encoding/json"
	"fmt"
	"strconv"

	units "github.com/docker/go-units"

	"oci-registry-service/pkg/oci"
)

// Linux is platform-specific configuration for Linux based containers.
type Linux struct {
	UIDMappings       []LinuxIDMapping  `json:"uidMappings,omitempty"`
	GIDMappings       []LinuxIDMapping  `json:"gidMappings,omitempty"`
	Sysctl            map[string]string `json:"sysctl,omitempty"`
	Resources         *LinuxResources   `json:"resources,omitempty"`
	CgroupsPath       string            `json:"cgroupsPath,omitempty"`
	Namespaces        []LinuxNamespace  `json:"namespaces,omitempty"`
	Devices           []LinuxDevice     `json:"devices,omitempty"`
	Seccomp           *LinuxSeccomp     `json:"seccomp,omitempty"`
	RootfsPropagation string            `json:"rootfsPropagation,omitempty"`
	MaskedPaths       []string          `json:"maskedPaths,omitempty"`
	ReadonlyPaths     []string          `json:"readonlyPaths,omitempty"`
	MountLabel        string            `json:"mountLabel,omitempty"`
	IntelRdt          *LinuxIntelRdt    `json:"intelRdt,omitempty"`
	Personality       *LinuxPersonality `json:"personality,omitempty"`
	TimeOffsets       map[string]string `json:"timeOffsets,omitempty"`
}

// DefaultLinux isolates the container in every namespace except user and
// time, and hides the usual sensitive proc and sys entries.
func DefaultLinux() Linux {
	return Linux{
		Resources:     &LinuxResources{},
		Namespaces:    DefaultNamespaces(),
		MaskedPaths:   DefaultMaskedPaths(),
		ReadonlyPaths: DefaultReadonlyPaths(),
	}
}

// RootlessLinux maps root in the container to uid and gid on the host and
// leaves the network namespace shared. Cgroup resources are dropped since an
// unprivileged user usually cannot set them.
func RootlessLinux(uid, gid uint32) Linux {
	var namespaces []LinuxNamespace
	for _, ns := range DefaultNamespaces() {
		if ns.Type != NamespaceNetwork {
			namespaces = append(namespaces, ns)
		}
	}
	namespaces = append(namespaces, LinuxNamespace{Type: NamespaceUser})

	l := DefaultLinux()
	l.Resources = nil
	l.UIDMappings = []LinuxIDMapping{{ContainerID: 0, HostID: uid, Size: 1}}
	l.GIDMappings = []LinuxIDMapping{{ContainerID: 0, HostID: gid, Size: 1}}
	l.Namespaces = namespaces
	return l
}

func (l *Linux) Validate() error {
	seen := make(map[LinuxNamespaceType]bool, len(l.Namespaces))
	for _, ns := range l.Namespaces {
		if seen[ns.Type] {
			return oci.Builder("linux.namespaces: duplicate %s namespace", ns.Type.JSONValue())
		}
		seen[ns.Type] = true
	}
	if len(l.UIDMappings) > 0 || len(l.GIDMappings) > 0 {
		if !seen[NamespaceUser] {
			return oci.Builder("linux: uid/gid mappings require a user namespace")
		}
	}
	if l.Resources != nil {
		for i, h := range l.Resources.HugepageLimits {
			if _, err := units.RAMInBytes(h.PageSize); err != nil {
				return oci.Builder("linux.resources.hugepageLimits[%d]: invalid page size %q", i, h.PageSize)
			}
		}
	}
	for i, d := range l.Devices {
		if !isAbs(d.Path) {
			return oci.Builder("linux.devices[%d]: path %q must be absolute", i, d.Path)
		}
	}
	if l.Seccomp != nil {
		for i, sc := range l.Seccomp.Syscalls {
			if len(sc.Names) == 0 {
				return oci.Builder("linux.seccomp.syscalls[%d]: names must not be empty", i)
			}
		}
	}
	return nil
}

// LinuxIDMapping maps a range of container ids to host ids.
type LinuxIDMapping struct {
	HostID      uint32 `json:"hostID"`
	ContainerID uint32 `json:"containerID"`
	Size        uint32 `json:"size"`
}

// LinuxDeviceType is the kind of a device node.
type LinuxDeviceType string

const (
	DeviceAll   LinuxDeviceType = "a"
	DeviceBlock LinuxDeviceType = "b"
	DeviceChar  LinuxDeviceType = "c"
	DeviceUnbuf LinuxDeviceType = "u"
	DeviceFifo  LinuxDeviceType = "p"
)

var deviceTypes = []LinuxDeviceType{DeviceAll, DeviceBlock, DeviceChar, DeviceUnbuf, DeviceFifo}

func ParseDeviceType(s string) (LinuxDeviceType, error) {
	return parseEnum("device type", s, deviceTypes)
}

// String returns the cgroup letter; the zero value means all devices.
func (t LinuxDeviceType) String() string {
	if t == "" {
		return string(DeviceAll)
	}
	return string(t)
}

func (t *LinuxDeviceType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, "device type", deviceTypes, t)
}

// LinuxDeviceCgroup is a device cgroup allow or deny rule.
type LinuxDeviceCgroup struct {
	Allow  bool            `json:"allow"`
	Type   LinuxDeviceType `json:"type,omitempty"`
	Major  *int64          `json:"major,omitempty"`
	Minor  *int64          `json:"minor,omitempty"`
	Access string          `json:"access,omitempty"`
}

// String renders the rule in devices.allow format, e.g. "c 1:3 rwm".
func (d LinuxDeviceCgroup) String() string {
	major, minor := "*", "*"
	if d.Major != nil {
		major = strconv.FormatInt(*d.Major, 10)
	}
	if d.Minor != nil {
		minor = strconv.FormatInt(*d.Minor, 10)
	}
	return fmt.Sprintf("%s %s:%s %s", d.Type, major, minor, d.Access)
}

type LinuxMemory struct {
	Limit             *int64  `json:"limit,omitempty"`
	Reservation       *int64  `json:"reservation,omitempty"`
	Swap              *int64  `json:"swap,omitempty"`
	Kernel            *int64  `json:"kernel,omitempty"`
	KernelTCP         *int64  `json:"kernelTCP,omitempty"`
	Swappiness        *uint64 `json:"swappiness,omitempty"`
	DisableOOMKiller  *bool   `json:"disableOOMKiller,omitempty"`
	UseHierarchy      *bool   `json:"useHierarchy,omitempty"`
	CheckBeforeUpdate *bool   `json:"checkBeforeUpdate,omitempty"`
}

type LinuxCPU struct {
	Shares          *uint64 `json:"shares,omitempty"`
	Quota           *int64  `json:"quota,omitempty"`
	Idle            *int64  `json:"idle,omitempty"`
	Burst           *uint64 `json:"burst,omitempty"`
	Period          *uint64 `json:"period,omitempty"`
	RealtimeRuntime *int64  `json:"realtimeRuntime,omitempty"`
	RealtimePeriod  *uint64 `json:"realtimePeriod,omitempty"`
	Cpus            string  `json:"cpus,omitempty"`
	Mems            string  `json:"mems,omitempty"`
}

type LinuxPids struct {
	Limit int64 `json:"limit"`
}

// LinuxWeightDevice holds a major:minor weight pair for blkio.
type LinuxWeightDevice struct {
	Major      int64   `json:"major"`
	Minor      int64   `json:"minor"`
	Weight     *uint16 `json:"weight,omitempty"`
	LeafWeight *uint16 `json:"leafWeight,omitempty"`
}

// LinuxThrottleDevice holds a major:minor rate_per_second pair.
type LinuxThrottleDevice struct {
	Major int64  `json:"major"`
	Minor int64  `json:"minor"`
	Rate  uint64 `json:"rate"`
}

type LinuxBlockIO struct {
	Weight                  *uint16               `json:"weight,omitempty"`
	LeafWeight              *uint16               `json:"leafWeight,omitempty"`
	WeightDevice            []LinuxWeightDevice   `json:"weightDevice,omitempty"`
	ThrottleReadBpsDevice   []LinuxThrottleDevice `json:"throttleReadBpsDevice,omitempty"`
	ThrottleWriteBpsDevice  []LinuxThrottleDevice `json:"throttleWriteBpsDevice,omitempty"`
	ThrottleReadIOPSDevice  []LinuxThrottleDevice `json:"throttleReadIopsDevice,omitempty"`
	ThrottleWriteIOPSDevice []LinuxThrottleDevice `json:"throttleWriteIopsDevice,omitempty"`
}

// LinuxHugepageLimit limits a hugetlb page size, e.g. "2MB".
type LinuxHugepageLimit struct {
	PageSize string `json:"pageSize"`
	Limit    int64  `json:"limit"`
}

// PageSizeBytes parses PageSize with binary units.
func (h LinuxHugepageLimit) PageSizeBytes() (int64, error) {
	return units.RAMInBytes(h.PageSize)
}

type LinuxInterfacePriority struct {
	Name     string `json:"name"`
	Priority uint32 `json:"priority"`
}

// String renders one line of net_prio.ifpriomap.
func (p LinuxInterfacePriority) String() string {
	return fmt.Sprintf("%s %d\n", p.Name, p.Priority)
}

type LinuxNetwork struct {
	ClassID    *uint32                  `json:"classID,omitempty"`
	Priorities []LinuxInterfacePriority `json:"priorities,omitempty"`
}

// LinuxResources are cgroup settings for the container.
type LinuxResources struct {
	Devices        []LinuxDeviceCgroup  `json:"devices,omitempty"`
	Memory         *LinuxMemory         `json:"memory,omitempty"`
	CPU            *LinuxCPU            `json:"cpu,omitempty"`
	Pids           *LinuxPids           `json:"pids,omitempty"`
	BlockIO        *LinuxBlockIO        `json:"blockIO,omitempty"`
	HugepageLimits []LinuxHugepageLimit `json:"hugepageLimits,omitempty"`
	Network        *LinuxNetwork        `json:"network,omitempty"`
	Rdma           map[string]LinuxRdma `json:"rdma,omitempty"`
	Unified        map[string]string    `json:"unified,omitempty"`
}

type LinuxRdma struct {
	HcaHandles *uint32 `json:"hcaHandles,omitempty"`
	HcaObjects *uint32 `json:"hcaObjects,omitempty"`
}

// LinuxNamespaceType is serialized by its long name ("mount", "network")
// and printed by its /proc/self/ns name ("mnt", "net").
type LinuxNamespaceType string

const (
	NamespaceMount   LinuxNamespaceType = "mount"
	NamespaceCgroup  LinuxNamespaceType = "cgroup"
	NamespaceUTS     LinuxNamespaceType = "uts"
	NamespaceIPC     LinuxNamespaceType = "ipc"
	NamespaceUser    LinuxNamespaceType = "user"
	NamespacePID     LinuxNamespaceType = "pid"
	NamespaceNetwork LinuxNamespaceType = "network"
	NamespaceTime    LinuxNamespaceType = "time"
)

var namespaceCloneFlags = map[LinuxNamespaceType]uintptr{
	NamespaceMount:   0x00020000,
	NamespaceCgroup:  0x02000000,
	NamespaceUTS:     0x04000000,
	NamespaceIPC:     0x08000000,
	NamespaceUser:    0x10000000,
	NamespacePID:     0x20000000,
	NamespaceNetwork: 0x40000000,
	NamespaceTime:    0x00000080,
}

// ParseNamespaceType accepts both the long and the /proc names.
func ParseNamespaceType(s string) (LinuxNamespaceType, error) {
	switch s {
	case "mnt", "mount":
		return NamespaceMount, nil
	case "net", "network":
		return NamespaceNetwork, nil
	case "cgroup", "uts", "ipc", "user", "pid", "time":
		return LinuxNamespaceType(s), nil
	}
	return "", oci.Other("unknown namespace %s, could not convert", s)
}

func (t LinuxNamespaceType) String() string {
	switch t {
	case NamespaceMount:
		return "mnt"
	case NamespaceNetwork:
		return "net"
	case "":
		return string(NamespacePID)
	}
	return string(t)
}

// JSONValue is the name used in config.json.
func (t LinuxNamespaceType) JSONValue() string {
	if t == "" {
		return string(NamespacePID)
	}
	return string(t)
}

// CloneFlag returns the CLONE_NEW* bit for the namespace.
func (t LinuxNamespaceType) CloneFlag() uintptr {
	if t == "" {
		t = NamespacePID
	}
	return namespaceCloneFlags[t]
}

func (t LinuxNamespaceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.JSONValue())
}

func (t *LinuxNamespaceType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if _, ok := namespaceCloneFlags[LinuxNamespaceType(s)]; !ok {
		return oci.Other("unknown namespace %s, could not convert", s)
	}
	*t = LinuxNamespaceType(s)
	return nil
}

// LinuxNamespace joins the namespace at Path, or creates a new one when
// Path is empty.
type LinuxNamespace struct {
	Type LinuxNamespaceType `json:"type"`
	Path string             `json:"path,omitempty"`
}

func DefaultNamespaces() []LinuxNamespace {
	return []LinuxNamespace{
		{Type: NamespacePID},
		{Type: NamespaceNetwork},
		{Type: NamespaceIPC},
		{Type: NamespaceUTS},
		{Type: NamespaceMount},
		{Type: NamespaceCgroup},
	}
}

// LinuxDevice is a device node created in the container.
type LinuxDevice struct {
	Path     string          `json:"path"`
	Type     LinuxDeviceType `json:"type"`
	Major    int64           `json:"major"`
	Minor    int64           `json:"minor"`
	FileMode *uint32         `json:"fileMode,omitempty"`
	UID      *uint32         `json:"uid,omitempty"`
	GID      *uint32         `json:"gid,omitempty"`
}

// CgroupRule allows full access to the device.
func (d LinuxDevice) CgroupRule() LinuxDeviceCgroup {
	major, minor := d.Major, d.Minor
	return LinuxDeviceCgroup{
		Allow:  true,
		Type:   d.Type,
		Major:  &major,
		Minor:  &minor,
		Access: "rwm",
	}
}

func DefaultMaskedPaths() []string {
	return []string{
		"/proc/acpi",
		"/proc/asound",
		"/proc/kcore",
		"/proc/keys",
		"/proc/latency_stats",
		"/proc/timer_list",
		"/proc/timer_stats",
		"/proc/sched_debug",
		"/sys/firmware",
		"/proc/scsi",
	}
}

func DefaultReadonlyPaths() []string {
	return []string{
		"/proc/bus",
		"/proc/fs",
		"/proc/irq",
		"/proc/sys",
		"/proc/sysrq-trigger",
	}
}

// LinuxIntelRdt configures Intel Resource Director Technology.
type LinuxIntelRdt struct {
	ClosID        string `json:"closID,omitempty"`
	L3CacheSchema string `json:"l3CacheSchema,omitempty"`
	MemBwSchema   string `json:"memBwSchema,omitempty"`
	EnableCMT     *bool  `json:"enableCMT,omitempty"`
	EnableMBM     *bool  `json:"enableMBM,omitempty"`
}

type LinuxPersonalityDomain string

const (
	PerLinux   LinuxPersonalityDomain = "LINUX"
	PerLinux32 LinuxPersonalityDomain = "LINUX32"
)

func (d *LinuxPersonalityDomain) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, "personality domain", []LinuxPersonalityDomain{PerLinux, PerLinux32}, d)
}

// LinuxPersonality sets the execution domain of the container process.
type LinuxPersonality struct {
	Domain LinuxPersonalityDomain `json:"domain"`
	Flags  []string               `json:"flags,omitempty"`
}

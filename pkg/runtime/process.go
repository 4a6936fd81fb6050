package runtime

import (
	"encoding/json"
	"strings"

	"oci-registry-service/pkg/oci"
)

// Process contains information to start a specific application inside the
// container.
type Process struct {
	Terminal        bool               `json:"terminal,omitempty"`
	ConsoleSize     *Box               `json:"consoleSize,omitempty"`
	User            User               `json:"user"`
	Args            []string           `json:"args,omitempty"`
	CommandLine     string             `json:"commandLine,omitempty"`
	Env             []string           `json:"env,omitempty"`
	Cwd             string             `json:"cwd"`
	Capabilities    *LinuxCapabilities `json:"capabilities,omitempty"`
	Rlimits         []LinuxRlimit      `json:"rlimits,omitempty"`
	NoNewPrivileges bool               `json:"noNewPrivileges,omitempty"`
	ApparmorProfile string             `json:"apparmorProfile,omitempty"`
	OOMScoreAdj     *int               `json:"oomScoreAdj,omitempty"`
	SelinuxLabel    string             `json:"selinuxLabel,omitempty"`
}

// DefaultPath is the PATH handed to the default process.
const DefaultPath = "PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin"

func DefaultProcess() Process {
	caps := DefaultCapabilities()
	return Process{
		Terminal:        true,
		User:            User{},
		Args:            []string{"sh"},
		Env:             []string{DefaultPath, "TERM=xterm"},
		Cwd:             "/",
		NoNewPrivileges: true,
		Capabilities:    &caps,
		Rlimits: []LinuxRlimit{
			{Type: RlimitNofile, Hard: 1024, Soft: 1024},
		},
	}
}

func (p *Process) Validate() error {
	if p.Cwd == "" {
		return oci.Builder("process.cwd is required")
	}
	seen := make(map[LinuxRlimitType]bool, len(p.Rlimits))
	for _, r := range p.Rlimits {
		if seen[r.Type] {
			return oci.Builder("process.rlimits: duplicate %s", r.Type)
		}
		seen[r.Type] = true
		if r.Soft > r.Hard {
			return oci.Builder("process.rlimits: %s soft limit %d exceeds hard limit %d", r.Type, r.Soft, r.Hard)
		}
	}
	return nil
}

// Box is a console size in characters.
type Box struct {
	Height uint `json:"height"`
	Width  uint `json:"width"`
}

// User id (uid) and group id (gid) of the container process.
type User struct {
	UID            uint32   `json:"uid"`
	GID            uint32   `json:"gid"`
	Umask          *uint32  `json:"umask,omitempty"`
	AdditionalGids []uint32 `json:"additionalGids,omitempty"`
	Username       string   `json:"username,omitempty"`
}

// LinuxRlimit is a POSIX resource limit.
type LinuxRlimit struct {
	Type LinuxRlimitType `json:"type"`
	Hard uint64          `json:"hard"`
	Soft uint64          `json:"soft"`
}

type LinuxRlimitType string

const (
	RlimitCPU        LinuxRlimitType = "RLIMIT_CPU"
	RlimitFsize      LinuxRlimitType = "RLIMIT_FSIZE"
	RlimitData       LinuxRlimitType = "RLIMIT_DATA"
	RlimitStack      LinuxRlimitType = "RLIMIT_STACK"
	RlimitCore       LinuxRlimitType = "RLIMIT_CORE"
	RlimitRss        LinuxRlimitType = "RLIMIT_RSS"
	RlimitNproc      LinuxRlimitType = "RLIMIT_NPROC"
	RlimitNofile     LinuxRlimitType = "RLIMIT_NOFILE"
	RlimitMemlock    LinuxRlimitType = "RLIMIT_MEMLOCK"
	RlimitAs         LinuxRlimitType = "RLIMIT_AS"
	RlimitLocks      LinuxRlimitType = "RLIMIT_LOCKS"
	RlimitSigpending LinuxRlimitType = "RLIMIT_SIGPENDING"
	RlimitMsgqueue   LinuxRlimitType = "RLIMIT_MSGQUEUE"
	RlimitNice       LinuxRlimitType = "RLIMIT_NICE"
	RlimitRtprio     LinuxRlimitType = "RLIMIT_RTPRIO"
	RlimitRttime     LinuxRlimitType = "RLIMIT_RTTIME"
)

var rlimitTypes = []LinuxRlimitType{
	RlimitCPU, RlimitFsize, RlimitData, RlimitStack, RlimitCore, RlimitRss,
	RlimitNproc, RlimitNofile, RlimitMemlock, RlimitAs, RlimitLocks,
	RlimitSigpending, RlimitMsgqueue, RlimitNice, RlimitRtprio, RlimitRttime,
}

func (t LinuxRlimitType) String() string { return string(t) }

func (t *LinuxRlimitType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, "rlimit type", rlimitTypes, t)
}

// LinuxCapabilities lists the capability sets of the container process.
type LinuxCapabilities struct {
	Bounding    []Capability `json:"bounding,omitempty"`
	Effective   []Capability `json:"effective,omitempty"`
	Inheritable []Capability `json:"inheritable,omitempty"`
	Permitted   []Capability `json:"permitted,omitempty"`
	Ambient     []Capability `json:"ambient,omitempty"`
}

// DefaultCapabilities grants the minimum set a shell needs in every set.
func DefaultCapabilities() LinuxCapabilities {
	set := func() []Capability {
		return []Capability{CapAuditWrite, CapKill, CapNetBindService}
	}
	return LinuxCapabilities{
		Bounding:    set(),
		Effective:   set(),
		Inheritable: set(),
		Permitted:   set(),
		Ambient:     set(),
	}
}

// Capability is a Linux capability name such as CAP_KILL.
type Capability string

const (
	CapChown             Capability = "CAP_CHOWN"
	CapDacOverride       Capability = "CAP_DAC_OVERRIDE"
	CapDacReadSearch     Capability = "CAP_DAC_READ_SEARCH"
	CapFowner            Capability = "CAP_FOWNER"
	CapFsetid            Capability = "CAP_FSETID"
	CapKill              Capability = "CAP_KILL"
	CapSetgid            Capability = "CAP_SETGID"
	CapSetuid            Capability = "CAP_SETUID"
	CapSetpcap           Capability = "CAP_SETPCAP"
	CapLinuxImmutable    Capability = "CAP_LINUX_IMMUTABLE"
	CapNetBindService    Capability = "CAP_NET_BIND_SERVICE"
	CapNetBroadcast      Capability = "CAP_NET_BROADCAST"
	CapNetAdmin          Capability = "CAP_NET_ADMIN"
	CapNetRaw            Capability = "CAP_NET_RAW"
	CapIpcLock           Capability = "CAP_IPC_LOCK"
	CapIpcOwner          Capability = "CAP_IPC_OWNER"
	CapSysModule         Capability = "CAP_SYS_MODULE"
	CapSysRawio          Capability = "CAP_SYS_RAWIO"
	CapSysChroot         Capability = "CAP_SYS_CHROOT"
	CapSysPtrace         Capability = "CAP_SYS_PTRACE"
	CapSysPacct          Capability = "CAP_SYS_PACCT"
	CapSysAdmin          Capability = "CAP_SYS_ADMIN"
	CapSysBoot           Capability = "CAP_SYS_BOOT"
	CapSysNice           Capability = "CAP_SYS_NICE"
	CapSysResource       Capability = "CAP_SYS_RESOURCE"
	CapSysTime           Capability = "CAP_SYS_TIME"
	CapSysTtyConfig      Capability = "CAP_SYS_TTY_CONFIG"
	CapMknod             Capability = "CAP_MKNOD"
	CapLease             Capability = "CAP_LEASE"
	CapAuditWrite        Capability = "CAP_AUDIT_WRITE"
	CapAuditControl      Capability = "CAP_AUDIT_CONTROL"
	CapSetfcap           Capability = "CAP_SETFCAP"
	CapMacOverride       Capability = "CAP_MAC_OVERRIDE"
	CapMacAdmin          Capability = "CAP_MAC_ADMIN"
	CapSyslog            Capability = "CAP_SYSLOG"
	CapWakeAlarm         Capability = "CAP_WAKE_ALARM"
	CapBlockSuspend      Capability = "CAP_BLOCK_SUSPEND"
	CapAuditRead         Capability = "CAP_AUDIT_READ"
	CapPerfmon           Capability = "CAP_PERFMON"
	CapBpf               Capability = "CAP_BPF"
	CapCheckpointRestore Capability = "CAP_CHECKPOINT_RESTORE"
)

// AllCapabilities is every capability known to this package, in kernel
// order.
var AllCapabilities = []Capability{
	CapChown, CapDacOverride, CapDacReadSearch, CapFowner, CapFsetid, CapKill,
	CapSetgid, CapSetuid, CapSetpcap, CapLinuxImmutable, CapNetBindService,
	CapNetBroadcast, CapNetAdmin, CapNetRaw, CapIpcLock, CapIpcOwner,
	CapSysModule, CapSysRawio, CapSysChroot, CapSysPtrace, CapSysPacct,
	CapSysAdmin, CapSysBoot, CapSysNice, CapSysResource, CapSysTime,
	CapSysTtyConfig, CapMknod, CapLease, CapAuditWrite, CapAuditControl,
	CapSetfcap, CapMacOverride, CapMacAdmin, CapSyslog, CapWakeAlarm,
	CapBlockSuspend, CapAuditRead, CapPerfmon, CapBpf, CapCheckpointRestore,
}

// ParseCapability accepts names with or without the CAP_ prefix, in any
// case.
func ParseCapability(s string) (Capability, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(name, "CAP_") {
		name = "CAP_" + name
	}
	for _, c := range AllCapabilities {
		if string(c) == name {
			return c, nil
		}
	}
	return "", oci.Other("unknown capability %q", s)
}

func (c Capability) String() string { return string(c) }

func (c *Capability) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCapability(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
